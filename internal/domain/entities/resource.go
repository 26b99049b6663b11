// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ResourceKind is the kind of record a project-management URL points at
type ResourceKind string

const (
	// ResourceProject resolves to a single asset folder
	ResourceProject ResourceKind = "project"
	// ResourceCommission resolves to the base paths of its projects
	ResourceCommission ResourceKind = "commission"
)

// resourceIDPattern matches IDs such as VX-1234. Only the start is anchored.
var resourceIDPattern = regexp.MustCompile(`^\w{2}-\d+`)

// ResourceRef is a project or commission reference parsed from a URL
type ResourceRef struct {
	Kind ResourceKind
	ID   string
	URL  string
}

// IsResourceID reports whether s looks like a two-letter-prefixed numeric ID
func IsResourceID(s string) bool {
	return resourceIDPattern.MatchString(s)
}

// ParseResourceURL extracts the resource kind and ID from a URL such as
// https://host/project/VX-1234/. The ID is the second-to-last path segment
// and the kind the third-to-last, so the trailing slash matters.
func ParseResourceURL(raw string) (*ResourceRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResourceID, raw, err)
	}

	parts := strings.Split(u.Path, "/")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResourceID, raw)
	}

	id := parts[len(parts)-2]
	if !IsResourceID(id) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResourceID, id)
	}

	switch kind := ResourceKind(parts[len(parts)-3]); kind {
	case ResourceProject, ResourceCommission:
		return &ResourceRef{Kind: kind, ID: id, URL: raw}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidResourceKind, kind)
	}
}
