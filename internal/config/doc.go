// Package config loads, normalizes, and validates backfill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DATABASE_URL and TMDB_API_KEY. Validation parses the database descriptor so
// a bad connection string is reported before any record is read.
//
// Always obtain settings through this package so downstream code receives
// sanitized values and clear validation errors.
package config
