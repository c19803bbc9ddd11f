package pagelink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"backfill/internal/logging"
	"backfill/internal/ratelimit"
	"backfill/internal/reconcile"
)

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 4 << 20

// ErrNoLink reports a page without a catalog reference.
var ErrNoLink = errors.New("page has no catalog link")

// Strategy fetches the page a record points at and extracts the catalog id.
type Strategy struct {
	hosts      map[string]struct{}
	domain     string
	client     *http.Client
	limiter    ratelimit.Limiter
	logger     *slog.Logger
	linkRegexp *regexp.Regexp
}

var _ reconcile.Strategy = (*Strategy)(nil)

// Options configures a Strategy.
type Options struct {
	Hosts   []string
	Domain  string
	Timeout time.Duration
	Client  *http.Client
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
}

// New builds a page-link strategy restricted to opts.Hosts.
func New(opts Options) *Strategy {
	hosts := make(map[string]struct{}, len(opts.Hosts))
	for _, host := range opts.Hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			hosts[host] = struct{}{}
		}
	}
	domain := strings.TrimSpace(opts.Domain)
	if domain == "" {
		domain = "themoviedb.org"
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	return &Strategy{
		hosts:      hosts,
		domain:     domain,
		client:     client,
		limiter:    limiter,
		logger:     logging.NewComponentLogger(opts.Logger, "pagelink"),
		linkRegexp: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(domain) + `/movie/(\d+)`),
	}
}

func (*Strategy) Name() string { return "pagelink" }

// Accepts reports whether raw points at an allowed host.
func (s *Strategy) Accepts(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for {
		if _, ok := s.hosts[host]; ok {
			return true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			return false
		}
		host = host[dot+1:]
	}
}

// Resolve fetches and parses the record page. Failures are logged and treated
// as no candidate.
func (s *Strategy) Resolve(ctx context.Context, record reconcile.Record) (reconcile.Candidate, bool) {
	if !s.Accepts(record.SourceURL) {
		return reconcile.Candidate{}, false
	}
	logger := logging.WithContext(ctx, s.logger)

	if err := s.limiter.Wait(ctx); err != nil {
		logging.WarnWithContext(logger, "page fetch not started", "pagelink_rate_wait_aborted",
			logging.String("url", record.SourceURL),
			logging.Error(err),
		)
		return reconcile.Candidate{}, false
	}
	html, err := s.fetch(ctx, record.SourceURL)
	if err != nil {
		logging.WarnWithContext(logger, "page fetch failed", "pagelink_fetch_failed",
			logging.String("url", record.SourceURL),
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to catalog search"),
		)
		return reconcile.Candidate{}, false
	}
	id, err := s.Parse(html)
	if err != nil {
		logger.Debug("page has no catalog link",
			logging.String("url", record.SourceURL),
			logging.Error(err),
		)
		return reconcile.Candidate{}, false
	}
	return reconcile.Candidate{Identifier: id, Confidence: reconcile.ConfidencePageLinked}, true
}

// Parse extracts the catalog id from page HTML. The body data-tmdb-id
// attribute wins over anchor links.
func (s *Strategy) Parse(html []byte) (int64, error) {
	if len(html) == 0 {
		return 0, errors.New("empty page")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse page: %w", err)
	}
	if raw, ok := doc.Find("body[data-tmdb-id]").First().Attr("data-tmdb-id"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}
	var found int64
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		match := s.linkRegexp.FindStringSubmatch(href)
		if len(match) < 2 {
			return true
		}
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || id <= 0 {
			return true
		}
		found = id
		return false
	})
	if found == 0 {
		return 0, ErrNoLink
	}
	return found, nil
}

func (s *Strategy) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("page returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}
