package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"backfill/internal/dsn"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrInvalid marks configuration problems that must stop a run before any
// record is read.
var ErrInvalid = errors.New("invalid configuration")

// Database describes the record store.
type Database struct {
	URL          string `toml:"url"`
	Table        string `toml:"table"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey                string `toml:"api_key"`
	BaseURL               string `toml:"base_url"`
	Language              string `toml:"language"`
	IncludeAdult          bool   `toml:"include_adult"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// URLDomain is the host whose /movie/<id> links are trusted verbatim.
	URLDomain string `toml:"url_domain"`
}

// Reconcile tunes the resolution loop.
type Reconcile struct {
	MinRequestIntervalMS   int      `toml:"min_request_interval_ms"`
	PageLinkEnabled        bool     `toml:"page_link_enabled"`
	PageLinkHosts          []string `toml:"page_link_hosts"`
	PageLinkTimeoutSeconds int      `toml:"page_link_timeout_seconds"`
	Limit                  int      `toml:"limit"`
	DryRun                 bool     `toml:"dry_run"`
}

// Paths contains local state locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Color  bool   `toml:"color"`
}

// Metrics configures the optional Prometheus push after a run.
type Metrics struct {
	PushgatewayURL string `toml:"pushgateway_url"`
	Job            string `toml:"job"`
}

// Config encapsulates all configuration values for the backfill.
//
// Configuration sections by subsystem:
//   - Database: record store connection descriptor and table
//   - TMDB: remote search credentials and request shaping
//   - Reconcile: rate limiting, optional page-link strategy, run caps
//   - Paths: run lock location
//   - Logging: log format, level, and destination
//   - Metrics: Prometheus pushgateway target
type Config struct {
	Database  Database  `toml:"database"`
	TMDB      TMDB      `toml:"tmdb"`
	Reconcile Reconcile `toml:"reconcile"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Metrics   Metrics   `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/backfill/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults plus environment fallbacks are used instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse config: %w", ErrInvalid, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("backfill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// Descriptor parses the configured database descriptor.
func (c *Config) Descriptor() (dsn.Descriptor, error) {
	return dsn.Parse(c.Database.URL)
}

// MinRequestInterval returns the spacing between remote calls.
func (c *Config) MinRequestInterval() time.Duration {
	return time.Duration(c.Reconcile.MinRequestIntervalMS) * time.Millisecond
}

// TMDBTimeout returns the per-request timeout for TMDB searches.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.RequestTimeoutSeconds) * time.Second
}

// PageLinkTimeout returns the per-request timeout for page-link fetches.
func (c *Config) PageLinkTimeout() time.Duration {
	return time.Duration(c.Reconcile.PageLinkTimeoutSeconds) * time.Second
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "backfill.lock")
}

// EnsureDirectories creates the state directory used for the run lock.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
