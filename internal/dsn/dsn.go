// Package dsn parses the database connection descriptor handed to the
// backfill and turns it into a driver name plus driver-specific DSN.
package dsn

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "pgx"
	DriverSQLServer = "sqlserver"
)

// ErrMalformed marks descriptors that cannot be parsed.
var ErrMalformed = errors.New("malformed connection descriptor")

// ErrUnsupported marks descriptors for databases no bundled driver can reach.
var ErrUnsupported = errors.New("unsupported database")

// Descriptor is a parsed, validated connection descriptor.
type Descriptor struct {
	Driver   string
	DSN      string
	Host     string
	Database string
	User     string
}

// String renders the descriptor without credentials.
func (d Descriptor) String() string {
	switch d.Driver {
	case DriverSQLite:
		return "sqlite:" + d.Database
	case DriverSQLServer:
		user := d.User
		if user != "" {
			user += "@"
		}
		return fmt.Sprintf("sqlserver://%s%s/%s", user, d.Host, d.Database)
	default:
		user := d.User
		if user != "" {
			user += "@"
		}
		return fmt.Sprintf("postgres://%s%s/%s", user, d.Host, d.Database)
	}
}

// Parse accepts postgres and sqlserver URLs, sqlite paths, and the
// semicolon form "<scheme>://host;database=name;user=u;password=p" used by
// the catalog application for both sqlserver and postgres.
func Parse(raw string) (Descriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Descriptor{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	if strings.HasPrefix(raw, "file:") {
		path := strings.TrimPrefix(raw, "file:")
		return sqliteDescriptor(path, raw)
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: missing scheme", ErrMalformed)
	}
	scheme = strings.ToLower(scheme)
	if strings.Contains(rest, ";") {
		return parseSegmented(scheme, rest)
	}
	switch scheme {
	case "sqlite", "sqlite3":
		return sqliteDescriptor(rest, rest)
	case "postgres", "postgresql":
		return parsePostgresURL(raw)
	case "sqlserver", "mssql":
		return parseSQLServerURL(raw)
	default:
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnsupported, scheme)
	}
}

func sqliteDescriptor(path, dsn string) (Descriptor, error) {
	path, _, _ = strings.Cut(path, "?")
	if strings.TrimSpace(path) == "" {
		return Descriptor{}, fmt.Errorf("%w: sqlite path required", ErrMalformed)
	}
	return Descriptor{
		Driver:   DriverSQLite,
		DSN:      dsn,
		Database: filepath.Clean(path),
	}, nil
}

func parsePostgresURL(raw string) (Descriptor, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	database := strings.TrimPrefix(parsed.Path, "/")
	if parsed.Host == "" || database == "" {
		return Descriptor{}, fmt.Errorf("%w: postgres url needs host and database", ErrMalformed)
	}
	return Descriptor{
		Driver:   DriverPostgres,
		DSN:      raw,
		Host:     parsed.Host,
		Database: database,
		User:     parsed.User.Username(),
	}, nil
}

func parseSQLServerURL(raw string) (Descriptor, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	query := parsed.Query()
	database := query.Get("database")
	if database == "" {
		database = strings.TrimPrefix(parsed.Path, "/")
	}
	if parsed.Host == "" || database == "" {
		return Descriptor{}, fmt.Errorf("%w: sqlserver url needs host and database", ErrMalformed)
	}
	parsed.Scheme = "sqlserver"
	return Descriptor{
		Driver:   DriverSQLServer,
		DSN:      parsed.String(),
		Host:     parsed.Host,
		Database: database,
		User:     parsed.User.Username(),
	}, nil
}

func parseSegmented(scheme, rest string) (Descriptor, error) {
	parts := strings.Split(rest, ";")
	host := strings.TrimSpace(parts[0])
	values := map[string]string{}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: segment %q is not key=value", ErrMalformed, part)
		}
		values[strings.ToLower(strings.TrimSpace(key))] = value
	}

	var err error
	decoded := map[string]string{}
	for _, key := range []string{"database", "user", "password"} {
		// PathUnescape leaves '+' alone; passwords carry it literally.
		if decoded[key], err = url.PathUnescape(values[key]); err != nil {
			return Descriptor{}, fmt.Errorf("%w: decode %s: %v", ErrMalformed, key, err)
		}
	}
	if host == "" || decoded["database"] == "" || decoded["user"] == "" || decoded["password"] == "" {
		return Descriptor{}, fmt.Errorf("%w: incomplete database credentials", ErrMalformed)
	}

	switch scheme {
	case "postgres", "postgresql":
		return postgresKeyValue(host, decoded, values), nil
	case "sqlserver", "mssql":
		return sqlServerURL(host, decoded, values), nil
	default:
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnsupported, scheme)
	}
}

// sqlServerURL converts the segmented form into the URL form go-mssqldb
// reads. Segments other than the credentials pass through as query
// parameters (encrypt, trustservercertificate, ...).
func sqlServerURL(host string, decoded, values map[string]string) Descriptor {
	query := url.Values{}
	query.Set("database", decoded["database"])
	for key, value := range values {
		switch key {
		case "database", "user", "password":
			continue
		}
		query.Set(key, value)
	}
	dsnURL := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(decoded["user"], decoded["password"]),
		Host:     host,
		RawQuery: query.Encode(),
	}
	return Descriptor{
		Driver:   DriverSQLServer,
		DSN:      dsnURL.String(),
		Host:     host,
		Database: decoded["database"],
		User:     decoded["user"],
	}
}

func postgresKeyValue(host string, decoded, values map[string]string) Descriptor {
	hostname, port, hasPort := strings.Cut(host, ":")
	fields := []string{
		"host=" + quoteValue(hostname),
		"dbname=" + quoteValue(decoded["database"]),
		"user=" + quoteValue(decoded["user"]),
		"password=" + quoteValue(decoded["password"]),
	}
	if hasPort {
		fields = append(fields, "port="+quoteValue(port))
	}
	if mode, ok := values["sslmode"]; ok {
		fields = append(fields, "sslmode="+quoteValue(mode))
	}
	return Descriptor{
		Driver:   DriverPostgres,
		DSN:      strings.Join(fields, " "),
		Host:     host,
		Database: decoded["database"],
		User:     decoded["user"],
	}
}

// quoteValue quotes a libpq keyword/value entry when needed.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
