// Package catalog wraps the TMDB client with the behaviour the backfill
// expects from its remote lookup: every call waits for a rate-limiter slot,
// and any remote failure degrades to an empty result list plus a warning so a
// single bad request never aborts a batch.
package catalog
