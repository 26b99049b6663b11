// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
)

// AssetFolderGateway defines lookups against the project-management API
type AssetFolderGateway interface {
	// LookupAssetFolder resolves a project ID to its asset folder.
	// A missing folder is reported through the result, not the error.
	LookupAssetFolder(ctx context.Context, projectID string) (entities.FolderLookup, error)

	// CommissionProjects lists every project row of a commission
	CommissionProjects(ctx context.Context, commissionID string) ([]entities.CommissionProjectRow, error)
}

// SearchGateway defines queries against the media search API
type SearchGateway interface {
	// SearchSensitiveProjects returns every record flagged by the sensitive storage rule
	SearchSensitiveProjects(ctx context.Context) ([]entities.SearchHit, error)
}
