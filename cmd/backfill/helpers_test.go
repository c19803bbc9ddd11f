package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"backfill/internal/config"
	"backfill/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	tmdb       *fakeTMDB
}

// fakeTMDB answers /search/movie from a title -> body table. Requests with a
// year use the exact table; requests without one use the relaxed table.
type fakeTMDB struct {
	mu      sync.Mutex
	exact   map[string]string
	relaxed map[string]string
	queries []string
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/search/movie") {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	title := q.Get("query")
	f.mu.Lock()
	f.queries = append(f.queries, title+"|"+q.Get("year"))
	table := f.relaxed
	if q.Get("year") != "" {
		table = f.exact
	}
	body, ok := table[title]
	f.mu.Unlock()
	if !ok {
		body = `{"page":1,"results":[]}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeTMDB) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("DATABASE_URL", "")
	t.Setenv("TMDB_API_KEY", "")
	fake := &fakeTMDB{exact: map[string]string{}, relaxed: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithTMDBBaseURL(server.URL),
		testsupport.WithRequestInterval(1),
	)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, tmdb: fake}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeAndReload(t *testing.T, env *cliTestEnv) {
	t.Helper()
	testsupport.WriteConfig(t, env.configPath, env.cfg)
}
