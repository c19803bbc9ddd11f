// Package tmdb provides the minimal TMDB API client used by the backfill.
//
// It authenticates requests with an API key and exposes the movie search
// endpoint with an optional release-year filter. Responses keep TMDB's own
// relevance ranking; callers decide what to do with it. Options allow tests
// to supply custom HTTP clients without modifying production code.
package tmdb
