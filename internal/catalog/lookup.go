package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backfill/internal/logging"
	"backfill/internal/ratelimit"
	"backfill/internal/tmdb"
)

// Match is one search hit in the remote service's ranking order.
type Match struct {
	ID          int64
	Title       string
	ReleaseDate string
	Year        int
}

// SearchMode distinguishes year-constrained searches from relaxed ones.
type SearchMode string

const (
	ModeExact   SearchMode = "exact"
	ModeRelaxed SearchMode = "relaxed"
)

// SearchResult classifies how a remote search ended.
type SearchResult string

const (
	ResultHit   SearchResult = "hit"
	ResultEmpty SearchResult = "empty"
	ResultError SearchResult = "error"
)

// Recorder receives one event per remote search.
type Recorder interface {
	ObserveSearch(mode SearchMode, result SearchResult, wait, latency time.Duration)
}

// Lookup performs rate-limited TMDB movie searches.
type Lookup struct {
	client       tmdb.Searcher
	limiter      ratelimit.Limiter
	logger       *slog.Logger
	includeAdult bool
	recorder     Recorder
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithIncludeAdult forwards the include_adult search flag.
func WithIncludeAdult(include bool) Option {
	return func(l *Lookup) { l.includeAdult = include }
}

// WithRecorder attaches a search event recorder.
func WithRecorder(recorder Recorder) Option {
	return func(l *Lookup) { l.recorder = recorder }
}

// NewLookup wires a TMDB searcher to a limiter. A nil limiter disables spacing.
func NewLookup(client tmdb.Searcher, limiter ratelimit.Limiter, logger *slog.Logger, opts ...Option) *Lookup {
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	l := &Lookup{
		client:  client,
		limiter: limiter,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Search returns TMDB matches for title, constrained to year when non-nil.
// Failures are logged and reported as no matches. The call always consumes
// one limiter slot, even when it fails.
func (l *Lookup) Search(ctx context.Context, title string, year *int) []Match {
	mode := ModeRelaxed
	opts := tmdb.SearchOptions{IncludeAdult: l.includeAdult}
	if year != nil && *year > 0 {
		mode = ModeExact
		opts.Year = *year
	}
	logger := logging.WithContext(ctx, l.logger)

	if l.client == nil {
		logging.WarnWithContext(logger, "tmdb search skipped", "tmdb_client_unavailable",
			logging.String("title", title),
			logging.String(logging.FieldImpact, "record treated as unmatched"),
		)
		l.observe(mode, ResultError, 0, 0)
		return nil
	}

	waitStart := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		logging.WarnWithContext(logger, "tmdb search not started", "tmdb_rate_wait_aborted",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record treated as unmatched"),
		)
		l.observe(mode, ResultError, time.Since(waitStart), 0)
		return nil
	}
	wait := time.Since(waitStart)

	requestStart := time.Now()
	resp, err := l.client.SearchMovie(ctx, title, opts)
	latency := time.Since(requestStart)
	if err != nil {
		attrs := []logging.Attr{
			logging.String("title", title),
			logging.String("mode", string(mode)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record treated as unmatched for this search"),
		}
		var statusErr *tmdb.StatusError
		if errors.As(err, &statusErr) {
			attrs = append(attrs, logging.Int("status", statusErr.StatusCode))
			attrs = append(attrs, logging.String(logging.FieldErrorHint, statusHint(statusErr.StatusCode)))
		} else {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, "check network connectivity to TMDB"))
		}
		logging.WarnWithContext(logger, "tmdb search failed", "tmdb_search_failed", attrs...)
		l.observe(mode, ResultError, wait, latency)
		return nil
	}
	if resp == nil || len(resp.Results) == 0 {
		logger.Debug("tmdb search returned no results",
			logging.String("title", title),
			logging.String("mode", string(mode)),
			logging.Duration("latency", latency),
		)
		l.observe(mode, ResultEmpty, wait, latency)
		return nil
	}

	matches := make([]Match, 0, len(resp.Results))
	for _, result := range resp.Results {
		matches = append(matches, Match{
			ID:          result.ID,
			Title:       result.Title,
			ReleaseDate: result.ReleaseDate,
			Year:        result.Year(),
		})
	}
	logger.Debug("tmdb search returned results",
		logging.String("title", title),
		logging.String("mode", string(mode)),
		logging.Int("results", len(matches)),
		logging.Int64("top_id", matches[0].ID),
		logging.Duration("latency", latency),
	)
	l.observe(mode, ResultHit, wait, latency)
	return matches
}

func (l *Lookup) observe(mode SearchMode, result SearchResult, wait, latency time.Duration) {
	if l.recorder != nil {
		l.recorder.ObserveSearch(mode, result, wait, latency)
	}
}

func statusHint(code int) string {
	switch code {
	case 401:
		return "verify tmdb.api_key"
	case 429:
		return "raise reconcile.min_request_interval_ms"
	default:
		return "retry the run later; TMDB returned a server error"
	}
}
