package config

const (
	defaultTable                 = "Movie"
	defaultMaxOpenConns          = 4
	defaultTMDBLanguage          = "en-US"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBTimeoutSeconds    = 10
	defaultTMDBURLDomain         = "themoviedb.org"
	defaultMinRequestIntervalMS  = 300
	defaultPageLinkTimeoutSecond = 10
	defaultStateDir              = "~/.local/state/backfill"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMetricsJob            = "tmdb_backfill"
)

var defaultPageLinkHosts = []string{"letterboxd.com", "boxd.it"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Database: Database{
			Table:        defaultTable,
			MaxOpenConns: defaultMaxOpenConns,
		},
		TMDB: TMDB{
			BaseURL:               defaultTMDBBaseURL,
			Language:              defaultTMDBLanguage,
			RequestTimeoutSeconds: defaultTMDBTimeoutSeconds,
			URLDomain:             defaultTMDBURLDomain,
		},
		Reconcile: Reconcile{
			MinRequestIntervalMS:   defaultMinRequestIntervalMS,
			PageLinkHosts:          append([]string(nil), defaultPageLinkHosts...),
			PageLinkTimeoutSeconds: defaultPageLinkTimeoutSecond,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Color:  true,
		},
		Metrics: Metrics{
			Job: defaultMetricsJob,
		},
	}
}
