// Package gateways provides implementations of domain gateway interfaces.
package gateways

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
)

const (
	// defaultTimeout applies to every API request
	defaultTimeout = 30 * time.Second

	// commissionPageSize is the number of project rows requested per page
	commissionPageSize = 100

	// maxErrorBody bounds how much of an error response is kept
	maxErrorBody = 4 * 1024
)

// PlutoConfig holds connection settings for the project-management API
type PlutoConfig struct {
	Proto       string
	Host        string
	Credentials entities.Credentials
	Timeout     time.Duration
	// Insecure disables TLS verification towards the API
	Insecure bool
}

// plutoGateway implements AssetFolderGateway over the project-management HTTP API
type plutoGateway struct {
	baseURL    string
	creds      entities.Credentials
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewPlutoGateway creates a new project-management API gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewPlutoGateway(cfg PlutoConfig, logger interfaces.Logger) *plutoGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	proto := cfg.Proto
	if proto == "" {
		proto = "https"
	}

	return &plutoGateway{
		baseURL:    fmt.Sprintf("%s://%s", proto, cfg.Host),
		creds:      cfg.Credentials,
		httpClient: newHTTPClient(cfg.Timeout, cfg.Insecure),
		logger:     logger,
	}
}

// LookupAssetFolder asks the API for the asset folder of a project
func (g *plutoGateway) LookupAssetFolder(ctx context.Context, projectID string) (entities.FolderLookup, error) {
	lookupURL := fmt.Sprintf("%s/gnm_asset_folder/lookup/%s", g.baseURL, url.PathEscape(projectID))

	resp, err := g.get(ctx, lookupURL)
	if err != nil {
		return entities.FolderLookup{}, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body assetFolderResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return entities.FolderLookup{}, fmt.Errorf("failed to parse asset folder response for %s: %w", projectID, err)
		}
		g.logger.Debug("asset folder found", interfaces.F("project", projectID), interfaces.F("path", body.AssetFolder))
		return entities.FolderLookup{Status: entities.LookupFound, ID: projectID, Path: body.AssetFolder}, nil

	case http.StatusNotFound:
		g.logger.Debug("asset folder not found", interfaces.F("project", projectID))
		return entities.FolderLookup{Status: entities.LookupNotFound, ID: projectID}, nil

	default:
		return entities.FolderLookup{}, statusError(lookupURL, resp)
	}
}

// CommissionProjects pages through the project table of a commission
func (g *plutoGateway) CommissionProjects(ctx context.Context, commissionID string) ([]entities.CommissionProjectRow, error) {
	pageURL := fmt.Sprintf("%s/project/api/commission/%s/", g.baseURL, url.PathEscape(commissionID))

	rows := make([]entities.CommissionProjectRow, 0)
	for {
		page, err := g.commissionPage(ctx, pageURL, len(rows))
		if err != nil {
			return nil, err
		}

		rows = append(rows, page.Rows...)

		if len(page.Rows) == 0 || page.TotalRecords <= len(rows) {
			break
		}
	}

	g.logger.Debug("commission projects listed",
		interfaces.F("commission", commissionID),
		interfaces.F("projects", len(rows)),
	)

	return rows, nil
}

func (g *plutoGateway) commissionPage(ctx context.Context, pageURL string, start int) (*entities.CommissionProjects, error) {
	query := url.Values{}
	query.Set("iDisplayStart", strconv.Itoa(start))
	query.Set("iDisplayLength", strconv.Itoa(commissionPageSize))
	requestURL := pageURL + "?" + query.Encode()

	resp, err := g.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(pageURL, resp)
	}

	var page entities.CommissionProjects
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to parse commission response from %s: %w", pageURL, err)
	}

	return &page, nil
}

func (g *plutoGateway) get(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.creds.User, g.creds.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", requestURL, err)
	}
	return resp, nil
}

// assetFolderResponse is the body of a successful asset folder lookup
type assetFolderResponse struct {
	AssetFolder string `json:"asset_folder"`
}

// newHTTPClient builds the client shared by the API gateways
func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		//nolint:gosec // G402: opt-in for internal hosts with self-signed certificates
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// statusError drains a bounded part of the body into an HTTPStatusError
func statusError(requestURL string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &entities.HTTPStatusError{
		URL:        requestURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
