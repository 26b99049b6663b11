package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPIs serves both the project-management and search endpoints
func fakeAPIs(t *testing.T) *httptest.Server {
	t.Helper()

	folders := map[string]string{
		"VX-1": "/srv/Media/CommA/ProjOne",
		"VX-2": "/srv/Media/CommB/ProjTwo",
		"VX-3": "/srv/Media/CommB/ProjThree",
		"VX-9": "/srv/Media/Secret/ProjNine",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/gnm_asset_folder/lookup/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/gnm_asset_folder/lookup/")
		path, ok := folders[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"asset_folder": path})
	})
	mux.HandleFunc("/project/api/commission/KP-5/", func(w http.ResponseWriter, _ *http.Request) {
		row := func(id string) []any { return []any{"", "", "", "", "", "", "", id} }
		_ = json.NewEncoder(w).Encode(map[string]any{
			"aaData":        [][]any{row("VX-2"), row("VX-3")},
			"iTotalRecords": 2,
		})
	})
	mux.HandleFunc("/API/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || !strings.HasPrefix(r.URL.Path, "/API/search") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": 2,
			"entry": []map[string]string{
				{"id": "VX-9", "type": "Collection"},
				{"id": "VX-100", "type": "Item"},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testOptions(t *testing.T, server *httptest.Server, csvBody string) *options {
	t.Helper()
	dir := t.TempDir()

	sourceFile := filepath.Join(dir, "projects.csv")
	require.NoError(t, os.WriteFile(sourceFile, []byte(csvBody), 0600))

	authFile := filepath.Join(dir, "auth.yaml")
	require.NoError(t, os.WriteFile(authFile, []byte("user: admin\npassword: secret\n"), 0600))

	return &options{
		sourceFile: sourceFile,
		column:     2,
		proto:      "http",
		host:       strings.TrimPrefix(server.URL, "http://"),
		searchURL:  server.URL,
		authFile:   authFile,
		output:     filepath.Join(dir, "excludepaths.lst"),
		workers:    2,
		logLevel:   "error",
	}
}

const projectsCSV = `title,owner,url
One,alice,https://pluto.example.com/project/VX-1/
Both,bob,https://pluto.example.com/commission/KP-5/
Gone,carol,https://pluto.example.com/project/VX-404/
Bad,dave,not-a-url
`

func TestRun_WritesExclusionList(t *testing.T) {
	opts := testOptions(t, fakeAPIs(t), projectsCSV)

	require.NoError(t, run(context.Background(), opts))

	got, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	assert.Equal(t,
		"/srv/Media/CommA/ProjOne\n/srv/Media/CommB\n/srv/Media/Secret/ProjNine\n",
		string(got))
}

func TestRun_SkipSensitive(t *testing.T) {
	opts := testOptions(t, fakeAPIs(t), projectsCSV)
	opts.skipSensitive = true

	require.NoError(t, run(context.Background(), opts))

	got, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	assert.Equal(t, "/srv/Media/CommA/ProjOne\n/srv/Media/CommB\n", string(got))
}

func TestRun_MissingAuthFile(t *testing.T) {
	opts := testOptions(t, fakeAPIs(t), projectsCSV)
	opts.authFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := run(context.Background(), opts)
	assert.ErrorContains(t, err, "failed to load credentials")
	assert.NoFileExists(t, opts.output)
}

func TestRun_ServerErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	opts := testOptions(t, server, projectsCSV)

	err := run(context.Background(), opts)
	assert.Error(t, err)
	assert.NoFileExists(t, opts.output)
}
