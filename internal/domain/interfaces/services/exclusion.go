// Package services defines interfaces for domain service contracts.
package services

import (
	"context"
	"io"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
)

// ExclusionService builds the list of asset folders to keep out of an upload
type ExclusionService interface {
	// Resolution of single resources
	ResolveURL(ctx context.Context, rawURL string) ([]string, error)
	ResolveCommission(ctx context.Context, commissionID string) ([]string, error)
	ResolveSensitive(ctx context.Context) ([]string, error)

	// Build resolves every URL, then the sensitive projects unless skipped
	Build(ctx context.Context, urls []string, skipSensitive bool) (entities.ExclusionList, error)
}

// FilterService writes the master-list lines that survive the exclusion list
type FilterService interface {
	Filter(r io.Reader, w io.Writer) (*entities.FilterStats, error)
}

// CertPatchService repairs the trusted CA bundle for a host
type CertPatchService interface {
	Run(ctx context.Context, host, caFile string) (*entities.PatchOutcome, error)
}
