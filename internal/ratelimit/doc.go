// Package ratelimit spaces outbound calls to remote services.
//
// A Limiter hands out slots. The spacing limiter grants the first slot
// immediately and every later slot only once the configured interval has
// passed since the previous slot was granted, which keeps the backfill under
// the TMDB quota of 40 requests per 10 seconds. Nop is the test double.
package ratelimit
