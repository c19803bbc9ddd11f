// Package main hosts the backfill CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration (TOML plus DATABASE_URL and
// TMDB_API_KEY from the environment or a .env file), wires the store, TMDB
// client, rate limiter, and strategy chain, and hands control to the
// reconcile runner. Commands here stay thin: behaviour lives in the internal
// packages and is surfaced through flags.
package main
