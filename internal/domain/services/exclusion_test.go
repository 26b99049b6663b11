package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
)

// mockAssetGateway is a mock implementation for testing
type mockAssetGateway struct {
	folders     map[string]string
	failing     map[string]int
	commissions map[string][]string
	delays      map[string]time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *mockAssetGateway) LookupAssetFolder(ctx context.Context, projectID string) (entities.FolderLookup, error) {
	m.mu.Lock()
	m.calls = append(m.calls, projectID)
	m.mu.Unlock()

	if d, ok := m.delays[projectID]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return entities.FolderLookup{}, ctx.Err()
		}
	}

	if status, ok := m.failing[projectID]; ok {
		return entities.FolderLookup{}, &entities.HTTPStatusError{URL: "/gnm_asset_folder/lookup/" + projectID, StatusCode: status}
	}

	path, ok := m.folders[projectID]
	if !ok {
		return entities.FolderLookup{Status: entities.LookupNotFound, ID: projectID}, nil
	}
	return entities.FolderLookup{Status: entities.LookupFound, ID: projectID, Path: path}, nil
}

func (m *mockAssetGateway) CommissionProjects(_ context.Context, commissionID string) ([]entities.CommissionProjectRow, error) {
	if status, ok := m.failing[commissionID]; ok {
		return nil, &entities.HTTPStatusError{URL: "/project/api/commission/" + commissionID + "/", StatusCode: status}
	}

	ids := m.commissions[commissionID]
	rows := make([]entities.CommissionProjectRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, entities.CommissionProjectRow{ProjectID: id})
	}
	return rows, nil
}

// mockSearchGateway is a mock implementation for testing
type mockSearchGateway struct {
	hits []entities.SearchHit
	err  error
}

func (m *mockSearchGateway) SearchSensitiveProjects(_ context.Context) ([]entities.SearchHit, error) {
	return m.hits, m.err
}

func newTestAssets() *mockAssetGateway {
	return &mockAssetGateway{
		folders: map[string]string{
			"VX-1": "/srv/Multimedia2/Comm_A/Proj_1",
			"VX-2": "/srv/Multimedia2/Comm_A/Proj_2",
			"VX-3": "/srv/Multimedia3/Comm_A/Proj_3/",
			"VX-4": "/srv/Multimedia2/Comm_B/Proj_4",
			"VX-9": "/srv/Multimedia2/Comm_S/Sensitive_9",
		},
		commissions: map[string][]string{
			"VX-100": {"VX-1", "VX-2", "VX-3", "VX-404"},
			"VX-200": {},
			"VX-300": {"VX-404", "VX-405"},
		},
		failing: map[string]int{},
	}
}

func TestExclusionService_ResolveURL_Project(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	paths, err := svc.ResolveURL(context.Background(), "https://pluto.example.com/project/VX-4/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/Multimedia2/Comm_B/Proj_4"}, paths)
}

func TestExclusionService_ResolveURL_ProjectNotFound(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	_, err := svc.ResolveURL(context.Background(), "https://pluto.example.com/project/VX-404/")
	assert.ErrorIs(t, err, entities.ErrAssetFolderNotFound)
}

func TestExclusionService_ResolveURL_Commission(t *testing.T) {
	logger := &recordingLogger{}
	svc := NewExclusionService(newTestAssets(), nil, logger, BuilderConfig{})

	paths, err := svc.ResolveURL(context.Background(), "https://pluto.example.com/commission/VX-100/")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"/srv/Multimedia2/Comm_A", "/srv/Multimedia3/Comm_A"}, paths)
	assert.Equal(t, 1, logger.count("WARN"), "missing project should be warned about once")
}

func TestExclusionService_ResolveCommission_NoProjects(t *testing.T) {
	logger := &recordingLogger{}
	svc := NewExclusionService(newTestAssets(), nil, logger, BuilderConfig{})

	_, err := svc.ResolveCommission(context.Background(), "VX-200")
	assert.ErrorIs(t, err, entities.ErrAssetFolderNotFound)
	assert.Equal(t, 1, logger.count("WARN"))
}

func TestExclusionService_ResolveCommission_AllMissing(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	_, err := svc.ResolveCommission(context.Background(), "VX-300")
	assert.ErrorIs(t, err, entities.ErrAssetFolderNotFound)
}

func TestExclusionService_Build_SkipsBadEntries(t *testing.T) {
	logger := &recordingLogger{}
	svc := NewExclusionService(newTestAssets(), nil, logger, BuilderConfig{Workers: 1})

	urls := []string{
		"https://pluto.example.com/project/notanid/",
		"https://pluto.example.com/project/VX-1/",
		"https://pluto.example.com/project/VX-404/",
		"https://pluto.example.com/master/VX-2/",
		"https://pluto.example.com/commission/VX-200/",
		"https://pluto.example.com/project/VX-4/",
	}

	list, err := svc.Build(context.Background(), urls, true)
	require.NoError(t, err)

	assert.Equal(t, entities.ExclusionList{
		"/srv/Multimedia2/Comm_A/Proj_1",
		"/srv/Multimedia2/Comm_B/Proj_4",
	}, list)
	assert.Equal(t, 2, logger.count("ERROR"), "invalid ID and invalid kind")
}

func TestExclusionService_Build_ServerErrorAborts(t *testing.T) {
	assets := newTestAssets()
	assets.failing["VX-2"] = http.StatusInternalServerError

	svc := NewExclusionService(assets, nil, nil, BuilderConfig{Workers: 1})

	urls := []string{
		"https://pluto.example.com/project/VX-1/",
		"https://pluto.example.com/project/VX-2/",
		"https://pluto.example.com/project/VX-4/",
	}

	list, err := svc.Build(context.Background(), urls, true)
	require.Error(t, err)
	assert.Nil(t, list)

	var statusErr *entities.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.NotContains(t, assets.calls, "VX-4", "sequential build should stop at the failure")
}

func TestExclusionService_Build_PreservesOrderConcurrently(t *testing.T) {
	assets := newTestAssets()
	assets.delays = map[string]time.Duration{
		"VX-1": 30 * time.Millisecond,
		"VX-2": 20 * time.Millisecond,
		"VX-4": 10 * time.Millisecond,
	}

	svc := NewExclusionService(assets, nil, nil, BuilderConfig{Workers: 3})

	urls := []string{
		"https://pluto.example.com/project/VX-1/",
		"https://pluto.example.com/project/VX-2/",
		"https://pluto.example.com/project/VX-4/",
	}

	list, err := svc.Build(context.Background(), urls, true)
	require.NoError(t, err)
	assert.Equal(t, entities.ExclusionList{
		"/srv/Multimedia2/Comm_A/Proj_1",
		"/srv/Multimedia2/Comm_A/Proj_2",
		"/srv/Multimedia2/Comm_B/Proj_4",
	}, list)
}

func TestExclusionService_Build_NotGloballyDeduplicated(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	urls := []string{
		"https://pluto.example.com/project/VX-1/",
		"https://pluto.example.com/project/VX-1/",
	}

	list, err := svc.Build(context.Background(), urls, true)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestExclusionService_Build_AppendsSensitive(t *testing.T) {
	search := &mockSearchGateway{
		hits: []entities.SearchHit{
			{ID: "VX-9", Type: "Collection"},
			{ID: "VX-10", Type: "Item"},
			{ID: "VX-404", Type: "Collection"},
		},
	}
	logger := &recordingLogger{}
	svc := NewExclusionService(newTestAssets(), search, logger, BuilderConfig{})

	list, err := svc.Build(context.Background(), []string{"https://pluto.example.com/project/VX-1/"}, false)
	require.NoError(t, err)

	assert.Equal(t, entities.ExclusionList{
		"/srv/Multimedia2/Comm_A/Proj_1",
		"/srv/Multimedia2/Comm_S/Sensitive_9",
	}, list)
	assert.Equal(t, 1, logger.count("WARN"))
}

func TestExclusionService_Build_SensitiveServerErrorAborts(t *testing.T) {
	assets := newTestAssets()
	assets.failing["VX-9"] = http.StatusBadGateway
	search := &mockSearchGateway{
		hits: []entities.SearchHit{{ID: "VX-9", Type: "Collection"}},
	}

	svc := NewExclusionService(assets, search, nil, BuilderConfig{})

	_, err := svc.Build(context.Background(), nil, false)
	var statusErr *entities.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestExclusionService_Build_SearchFailure(t *testing.T) {
	search := &mockSearchGateway{err: errors.New("connection refused")}
	svc := NewExclusionService(newTestAssets(), search, nil, BuilderConfig{})

	_, err := svc.Build(context.Background(), nil, false)
	assert.ErrorContains(t, err, "sensitive project search failed")
}

func TestExclusionService_ResolveSensitive_NoGateway(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	_, err := svc.ResolveSensitive(context.Background())
	assert.Error(t, err)
}

func TestExclusionService_Build_ContextCanceled(t *testing.T) {
	svc := NewExclusionService(newTestAssets(), nil, nil, BuilderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Build(ctx, []string{"https://pluto.example.com/project/VX-1/"}, true)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingAssets records the peak number of concurrent gateway calls
type countingAssets struct {
	*mockAssetGateway
	inflight atomic.Int32
	peak     atomic.Int32
}

func (c *countingAssets) enter() {
	n := c.inflight.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
}

func (c *countingAssets) LookupAssetFolder(ctx context.Context, projectID string) (entities.FolderLookup, error) {
	c.enter()
	defer c.inflight.Add(-1)
	return c.mockAssetGateway.LookupAssetFolder(ctx, projectID)
}

func (c *countingAssets) CommissionProjects(ctx context.Context, commissionID string) ([]entities.CommissionProjectRow, error) {
	c.enter()
	defer c.inflight.Add(-1)
	return c.mockAssetGateway.CommissionProjects(ctx, commissionID)
}

func TestExclusionService_Build_WorkersBoundNestedLookups(t *testing.T) {
	urls := []string{
		"https://pluto.example.com/commission/VX-100/",
		"https://pluto.example.com/commission/VX-300/",
		"https://pluto.example.com/commission/VX-100/",
		"https://pluto.example.com/project/VX-4/",
		"https://pluto.example.com/commission/VX-100/",
		"https://pluto.example.com/commission/VX-300/",
	}

	for _, workers := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			assets := &countingAssets{mockAssetGateway: newTestAssets()}
			svc := NewExclusionService(assets, nil, nil, BuilderConfig{Workers: workers})

			list, err := svc.Build(context.Background(), urls, true)
			require.NoError(t, err)

			assert.Len(t, list, 7)
			assert.LessOrEqual(t, int(assets.peak.Load()), workers)
			assert.Positive(t, assets.peak.Load())
		})
	}
}
