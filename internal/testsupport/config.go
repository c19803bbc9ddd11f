package testsupport

import (
	"path/filepath"
	"testing"

	"backfill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config backed by a SQLite database and state
// directory unique to the test. Logging goes to JSON so output stays
// deterministic.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Database.URL = "sqlite://" + filepath.Join(base, "backfill.db")
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.Level = "error"
	cfgVal.Logging.Color = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDBBaseURL points searches at a test server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = url
	}
}

// WithRequestInterval overrides the rate limiter spacing in milliseconds.
func WithRequestInterval(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reconcile.MinRequestIntervalMS = ms
	}
}

// BaseDir returns the temp directory backing a config built by NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
