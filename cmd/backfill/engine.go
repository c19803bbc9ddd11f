package main

import (
	"fmt"
	"log/slog"

	"backfill/internal/catalog"
	"backfill/internal/config"
	"backfill/internal/metrics"
	"backfill/internal/pagelink"
	"backfill/internal/ratelimit"
	"backfill/internal/reconcile"
	"backfill/internal/tmdb"
)

// buildChain wires the TMDB client, the shared limiter, and the optional
// page-link strategy into the resolution chain.
func buildChain(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (reconcile.Chain, error) {
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	limiter := ratelimit.NewSpacing(cfg.MinRequestInterval())

	lookupOpts := []catalog.Option{catalog.WithIncludeAdult(cfg.TMDB.IncludeAdult)}
	if m != nil {
		lookupOpts = append(lookupOpts, catalog.WithRecorder(m))
	}
	lookup := catalog.NewLookup(client, limiter, logger, lookupOpts...)

	var extra []reconcile.Strategy
	if cfg.Reconcile.PageLinkEnabled {
		extra = append(extra, pagelink.New(pagelink.Options{
			Hosts:   cfg.Reconcile.PageLinkHosts,
			Domain:  cfg.TMDB.URLDomain,
			Timeout: cfg.PageLinkTimeout(),
			Limiter: limiter,
			Logger:  logger,
		}))
	}
	return reconcile.NewDefaultChain(cfg.TMDB.URLDomain, lookup, extra...), nil
}
