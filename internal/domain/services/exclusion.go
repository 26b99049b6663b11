// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces/gateways"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces/services"
)

// DefaultWorkers is the default number of concurrent lookups
const DefaultWorkers = 4

// BuilderConfig tunes the exclusion list builder
type BuilderConfig struct {
	// Workers bounds concurrent API requests across all rows and the
	// projects of their commissions. 1 resolves strictly in order.
	Workers int
}

// exclusionService implements ExclusionService on top of the asset and search gateways
type exclusionService struct {
	assets  gateways.AssetFolderGateway
	search  gateways.SearchGateway
	logger  interfaces.Logger
	workers int
	// requests bounds in-flight API calls across nested fan-outs
	requests *semaphore.Weighted
}

// NewExclusionService creates a new exclusion service with dependency injection.
// search may be nil when sensitive projects are never scanned.
func NewExclusionService(assets gateways.AssetFolderGateway, search gateways.SearchGateway, logger interfaces.Logger, cfg BuilderConfig) services.ExclusionService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	return &exclusionService{
		assets:   assets,
		search:   search,
		logger:   logger,
		workers:  workers,
		requests: semaphore.NewWeighted(int64(workers)),
	}
}

// ResolveURL parses a project or commission URL and returns its asset folder paths
func (s *exclusionService) ResolveURL(ctx context.Context, rawURL string) ([]string, error) {
	ref, err := entities.ParseResourceURL(rawURL)
	if err != nil {
		return nil, err
	}

	switch ref.Kind {
	case entities.ResourceProject:
		lookup, err := s.lookupFolder(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", ref.ID, err)
		}
		if !lookup.Found() {
			return nil, fmt.Errorf("%w: project %s", entities.ErrAssetFolderNotFound, ref.ID)
		}
		return []string{lookup.Path}, nil

	case entities.ResourceCommission:
		return s.ResolveCommission(ctx, ref.ID)

	default:
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidResourceKind, ref.Kind)
	}
}

// ResolveCommission returns the distinct base paths of a commission's projects.
// Projects of one commission can live under different trees, so several
// base paths are possible. The result is sorted.
func (s *exclusionService) ResolveCommission(ctx context.Context, commissionID string) ([]string, error) {
	rows, err := s.commissionProjects(ctx, commissionID)
	if err != nil {
		return nil, fmt.Errorf("commission %s: %w", commissionID, err)
	}

	if len(rows) == 0 {
		s.logger.Warn("commission has no projects", interfaces.F("commission", commissionID))
		return nil, fmt.Errorf("%w: commission %s has no projects", entities.ErrAssetFolderNotFound, commissionID)
	}

	lookups := make([]entities.FolderLookup, len(rows))
	err = s.fanOut(ctx, len(rows), func(ctx context.Context, i int) error {
		projectID := rows[i].ProjectID
		lookup, err := s.lookupFolder(ctx, projectID)
		if err != nil {
			return fmt.Errorf("project %s of commission %s: %w", projectID, commissionID, err)
		}
		lookups[i] = lookup
		return nil
	})
	if err != nil {
		return nil, err
	}

	basePaths := set.New[string](len(rows))
	for _, lookup := range lookups {
		if !lookup.Found() {
			s.logger.Warn("no asset folder found for project",
				interfaces.F("project", lookup.ID),
				interfaces.F("commission", commissionID),
			)
			continue
		}
		basePaths.Insert(entities.RemoveLastPart(lookup.Path))
	}

	if basePaths.Size() == 0 {
		return nil, fmt.Errorf("%w: no asset folders for commission %s", entities.ErrAssetFolderNotFound, commissionID)
	}

	paths := basePaths.Slice()
	sort.Strings(paths)
	return paths, nil
}

// ResolveSensitive returns the asset folders of every project flagged sensitive
func (s *exclusionService) ResolveSensitive(ctx context.Context) ([]string, error) {
	if s.search == nil {
		return nil, errors.New("sensitive scan requested but no search gateway configured")
	}

	hits, err := s.search.SearchSensitiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("sensitive project search failed: %w", err)
	}

	ids := lo.FilterMap(hits, func(hit entities.SearchHit, _ int) (string, bool) {
		return hit.ID, hit.Type == entities.SearchEntryCollection
	})
	s.logger.Info("sensitive projects found",
		interfaces.F("hits", len(hits)),
		interfaces.F("collections", len(ids)),
	)

	lookups := make([]entities.FolderLookup, len(ids))
	err = s.fanOut(ctx, len(ids), func(ctx context.Context, i int) error {
		lookup, err := s.lookupFolder(ctx, ids[i])
		if err != nil {
			return fmt.Errorf("sensitive project %s: %w", ids[i], err)
		}
		lookups[i] = lookup
		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(lookups))
	for _, lookup := range lookups {
		if !lookup.Found() {
			s.logger.Warn("no asset folder found for sensitive project", interfaces.F("project", lookup.ID))
			continue
		}
		paths = append(paths, lookup.Path)
	}

	return paths, nil
}

// Build resolves every URL in order, then appends sensitive project folders.
// Bad URLs and missing folders are logged and skipped; any other failure
// aborts the whole build.
func (s *exclusionService) Build(ctx context.Context, urls []string, skipSensitive bool) (entities.ExclusionList, error) {
	resolved := make([][]string, len(urls))

	err := s.fanOut(ctx, len(urls), func(ctx context.Context, i int) error {
		s.logger.Info("resolving", interfaces.F("url", urls[i]))

		paths, err := s.ResolveURL(ctx, urls[i])
		if err != nil && !entities.IsSkippable(err) {
			return fmt.Errorf("resolving %s: %w", urls[i], err)
		}

		switch {
		case err == nil:
			resolved[i] = paths
			s.logger.Debug("resolved", interfaces.F("url", urls[i]), interfaces.F("paths", paths))
		case errors.Is(err, entities.ErrInvalidResourceID):
			s.logger.Error("invalid resource ID", interfaces.F("url", urls[i]), interfaces.F("error", err))
		case errors.Is(err, entities.ErrInvalidResourceKind):
			s.logger.Error("unrecognised resource kind", interfaces.F("url", urls[i]), interfaces.F("error", err))
		case errors.Is(err, entities.ErrAssetFolderNotFound):
			s.logger.Warn("asset folder not found", interfaces.F("url", urls[i]), interfaces.F("error", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	list := entities.ExclusionList(lo.Flatten(resolved))

	if skipSensitive {
		return list, nil
	}

	sensitive, err := s.ResolveSensitive(ctx)
	if err != nil {
		return nil, err
	}

	return append(list, sensitive...), nil
}

// fanOut runs fn for 0..n-1 with at most s.workers in flight.
// The first error cancels the rest.
func (s *exclusionService) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}

	return g.Wait()
}

func (s *exclusionService) lookupFolder(ctx context.Context, projectID string) (entities.FolderLookup, error) {
	if err := s.requests.Acquire(ctx, 1); err != nil {
		return entities.FolderLookup{}, err
	}
	defer s.requests.Release(1)

	return s.assets.LookupAssetFolder(ctx, projectID)
}

func (s *exclusionService) commissionProjects(ctx context.Context, commissionID string) ([]entities.CommissionProjectRow, error) {
	if err := s.requests.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.requests.Release(1)

	return s.assets.CommissionProjects(ctx, commissionID)
}
