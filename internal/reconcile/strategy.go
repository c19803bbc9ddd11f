package reconcile

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"backfill/internal/catalog"
)

// Strategy derives at most one candidate from a record. Absence of a match is
// reported as ok=false, never as an error, and later strategies still run.
// A strategy that settles the record without a usable candidate returns
// NoMatch() with ok=true; the chain then stops and the record is unmatched.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, record Record) (Candidate, bool)
}

// Searcher is the remote lookup used by the search strategies. Failures must
// already be folded into an empty result.
type Searcher interface {
	Search(ctx context.Context, title string, year *int) []catalog.Match
}

// NoMatch is the candidate a strategy returns to end the chain without a
// match.
func NoMatch() Candidate {
	return Candidate{Confidence: ConfidenceNone}
}

// Chain runs strategies in order and stops at the first candidate.
type Chain []Strategy

// Resolve returns the first candidate produced by the chain and the name of
// the strategy that produced it.
func (c Chain) Resolve(ctx context.Context, record Record) (Candidate, string, bool) {
	for _, strategy := range c {
		if strategy == nil {
			continue
		}
		candidate, ok := strategy.Resolve(ctx, record)
		if !ok {
			continue
		}
		if candidate.Confidence == ConfidenceNone {
			return Candidate{}, strategy.Name(), false
		}
		return candidate, strategy.Name(), true
	}
	return Candidate{}, "", false
}

// Names lists the strategies in execution order.
func (c Chain) Names() []string {
	names := make([]string, 0, len(c))
	for _, strategy := range c {
		if strategy != nil {
			names = append(names, strategy.Name())
		}
	}
	return names
}

// NewDefaultChain builds the URL, exact, relaxed chain. Extra strategies are
// inserted after URL extraction and before the remote searches.
func NewDefaultChain(domain string, searcher Searcher, extra ...Strategy) Chain {
	chain := Chain{NewURLStrategy(domain)}
	chain = append(chain, extra...)
	chain = append(chain, ExactSearch{Searcher: searcher}, RelaxedSearch{Searcher: searcher})
	return chain
}

// URLStrategy extracts the identifier from a catalog link stored on the
// record. It makes no remote calls.
type URLStrategy struct {
	pattern *regexp.Regexp
}

// NewURLStrategy matches "<domain>/movie/<digits>" anywhere in the URL.
func NewURLStrategy(domain string) URLStrategy {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = "themoviedb.org"
	}
	return URLStrategy{pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(domain) + `/movie/(\d+)`)}
}

func (URLStrategy) Name() string { return "url" }

func (s URLStrategy) Resolve(_ context.Context, record Record) (Candidate, bool) {
	id, ok := s.Extract(record.SourceURL)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Identifier: id, Confidence: ConfidenceURLExtracted}, true
}

// Extract returns the identifier embedded in raw, if any.
func (s URLStrategy) Extract(raw string) (int64, bool) {
	if s.pattern == nil || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	match := s.pattern.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ExactSearch searches by title and, when present, year. The remote ranking
// is trusted: the first result wins. A non-empty response whose first result
// has no usable id settles the record, so the relaxed search does not run.
type ExactSearch struct {
	Searcher Searcher
}

func (ExactSearch) Name() string { return "exact" }

func (s ExactSearch) Resolve(ctx context.Context, record Record) (Candidate, bool) {
	if s.Searcher == nil || strings.TrimSpace(record.Title) == "" {
		return Candidate{}, false
	}
	var year *int
	if record.HasYear() {
		year = record.Year
	}
	return firstMatch(s.Searcher.Search(ctx, record.Title, year), ConfidenceExactSearch)
}

// RelaxedSearch retries without the year constraint. Records without a year
// are skipped since the exact search already ran unconstrained.
type RelaxedSearch struct {
	Searcher Searcher
}

func (RelaxedSearch) Name() string { return "relaxed" }

func (s RelaxedSearch) Resolve(ctx context.Context, record Record) (Candidate, bool) {
	if s.Searcher == nil || !record.HasYear() || strings.TrimSpace(record.Title) == "" {
		return Candidate{}, false
	}
	return firstMatch(s.Searcher.Search(ctx, record.Title, nil), ConfidenceRelaxedSearch)
}

func firstMatch(matches []catalog.Match, confidence Confidence) (Candidate, bool) {
	if len(matches) == 0 {
		return Candidate{}, false
	}
	if matches[0].ID <= 0 {
		return NoMatch(), true
	}
	top := matches[0]
	return Candidate{
		Identifier:  top.ID,
		Confidence:  confidence,
		SourceTitle: top.Title,
		SourceYear:  top.Year,
	}, true
}
