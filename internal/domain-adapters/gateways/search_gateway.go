package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
)

const (
	searchNamespace = "http://xml.vidispine.com/schema/vidispine"

	// searchPageSize is the number of hits requested per page
	searchPageSize = 100
)

// SearchConfig holds connection settings for the search API
type SearchConfig struct {
	// BaseURL is the API root, e.g. https://vidispine.example.com:8080
	BaseURL     string
	Credentials entities.Credentials
	Timeout     time.Duration
	Insecure    bool
}

// searchGateway implements SearchGateway over the media search HTTP API
type searchGateway struct {
	baseURL    string
	creds      entities.Credentials
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewSearchGateway creates a new search API gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSearchGateway(cfg SearchConfig, logger interfaces.Logger) *searchGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &searchGateway{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		creds:      cfg.Credentials,
		httpClient: newHTTPClient(cfg.Timeout, cfg.Insecure),
		logger:     logger,
	}
}

// SearchSensitiveProjects runs the sensitive-project query and pages through every hit
func (g *searchGateway) SearchSensitiveProjects(ctx context.Context) ([]entities.SearchHit, error) {
	body, err := SensitiveProjectQuery()
	if err != nil {
		return nil, err
	}

	hits := make([]entities.SearchHit, 0)
	for {
		page, err := g.searchPage(ctx, body, len(hits)+1)
		if err != nil {
			return nil, err
		}

		hits = append(hits, page.Entries...)

		if len(page.Entries) == 0 || len(hits) >= page.Hits {
			break
		}
	}

	g.logger.Debug("search complete", interfaces.F("hits", len(hits)))
	return hits, nil
}

func (g *searchGateway) searchPage(ctx context.Context, body []byte, first int) (*entities.SearchResult, error) {
	searchURL := fmt.Sprintf("%s/API/search;first=%d;number=%d", g.baseURL, first, searchPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.creds.User, g.creds.Password)
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(searchURL, resp)
	}

	var result entities.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &result, nil
}

// SensitiveProjectQuery renders the fixed query selecting projects flagged
// by the sensitive storage rule
func SensitiveProjectQuery() ([]byte, error) {
	doc := itemSearchDocument{
		XMLNS: searchNamespace,
		Fields: []searchField{
			{Name: "gnm_storage_rule_sensitive", Values: []string{"storage_rule_sensitive"}},
			{Name: "gnm_type", Values: []string{"project"}},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render search query: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Search document types

type itemSearchDocument struct {
	XMLName xml.Name      `xml:"ItemSearchDocument"`
	XMLNS   string        `xml:"xmlns,attr"`
	Fields  []searchField `xml:"field"`
}

type searchField struct {
	Name   string   `xml:"name"`
	Values []string `xml:"value"`
}
