package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDatabase()
	c.normalizeTMDB()
	c.normalizeReconcile()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeDatabase() {
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	if c.Database.URL == "" {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Database.URL = strings.TrimSpace(value)
		}
	}
	c.Database.Table = strings.TrimSpace(c.Database.Table)
	if c.Database.Table == "" {
		c.Database.Table = defaultTable
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaultMaxOpenConns
	}
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	c.TMDB.URLDomain = strings.ToLower(strings.TrimSpace(c.TMDB.URLDomain))
	if c.TMDB.URLDomain == "" {
		c.TMDB.URLDomain = defaultTMDBURLDomain
	}
}

func (c *Config) normalizeReconcile() {
	hosts := c.Reconcile.PageLinkHosts[:0]
	for _, host := range c.Reconcile.PageLinkHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	c.Reconcile.PageLinkHosts = hosts
	if c.Reconcile.PageLinkTimeoutSeconds <= 0 {
		c.Reconcile.PageLinkTimeoutSeconds = defaultPageLinkTimeoutSecond
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
