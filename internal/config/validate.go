package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateMetrics()
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required. Set DATABASE_URL env var or edit the config file (create with 'backfill config init')")
	}
	if _, err := c.Descriptor(); err != nil {
		return fmt.Errorf("database.url: %w", err)
	}
	if !tableNamePattern.MatchString(c.Database.Table) {
		return fmt.Errorf("database.table %q must be an identifier or schema.identifier", c.Database.Table)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required. Set TMDB_API_KEY env var or edit the config file (create with 'backfill config init')")
	}
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if c.TMDB.RequestTimeoutSeconds <= 0 {
		return errors.New("tmdb.request_timeout_seconds must be positive")
	}
	if strings.ContainsAny(c.TMDB.URLDomain, "/ ") {
		return fmt.Errorf("tmdb.url_domain %q must be a bare host name", c.TMDB.URLDomain)
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.MinRequestIntervalMS <= 0 {
		return errors.New("reconcile.min_request_interval_ms must be positive")
	}
	if c.Reconcile.Limit < 0 {
		return errors.New("reconcile.limit must not be negative")
	}
	if c.Reconcile.PageLinkEnabled && len(c.Reconcile.PageLinkHosts) == 0 {
		return errors.New("reconcile.page_link_hosts must list at least one host when reconcile.page_link_enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if strings.TrimSpace(c.Metrics.PushgatewayURL) == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(c.Metrics.PushgatewayURL); err != nil {
		return fmt.Errorf("metrics.pushgateway_url: %w", err)
	}
	if strings.TrimSpace(c.Metrics.Job) == "" {
		return errors.New("metrics.job must be set when metrics.pushgateway_url is set")
	}
	return nil
}
