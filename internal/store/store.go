package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"backfill/internal/dsn"
	"backfill/internal/reconcile"
)

// DefaultTable is the record table created by the embedded migrations.
const DefaultTable = "Movie"

// Store reads unresolved records and writes resolved identifiers.
type Store struct {
	db         *sqlx.DB
	descriptor dsn.Descriptor
	table      string
}

var (
	_ reconcile.Source = (*Store)(nil)
	_ reconcile.Sink   = (*Store)(nil)
)

// Options tunes the connection pool.
type Options struct {
	Table        string
	MaxOpenConns int
}

// Open connects using descriptor and verifies the connection.
func Open(ctx context.Context, descriptor dsn.Descriptor, opts Options) (*Store, error) {
	db, err := sqlx.Open(descriptor.Driver, descriptor.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", descriptor.Driver, err)
	}

	switch descriptor.Driver {
	case dsn.DriverSQLite:
		// Pragmas are per connection, so keep exactly one.
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	default:
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", descriptor, err)
	}

	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, descriptor: descriptor, table: table}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Descriptor returns the connection descriptor the store was opened with.
func (s *Store) Descriptor() dsn.Descriptor {
	return s.descriptor
}

func (s *Store) quotedTable() string {
	return quoteQualified(s.descriptor.Driver, s.table)
}

func (s *Store) column(name string) string {
	return quoteIdentifier(s.descriptor.Driver, name)
}

type recordRow struct {
	ID    string         `db:"id"`
	Title sql.NullString `db:"title"`
	Year  sql.NullInt64  `db:"year"`
	URL   sql.NullString `db:"url"`
}

func (r recordRow) toRecord() reconcile.Record {
	record := reconcile.Record{
		ID:        r.ID,
		Title:     r.Title.String,
		SourceURL: strings.TrimSpace(r.URL.String),
	}
	if r.Year.Valid && r.Year.Int64 > 0 {
		year := int(r.Year.Int64)
		record.Year = &year
	}
	return record
}

// ListUnresolved returns every record without an identifier ordered by
// title then id.
func (s *Store) ListUnresolved(ctx context.Context) ([]reconcile.Record, error) {
	query := fmt.Sprintf(
		`SELECT id, title, year, url FROM %s WHERE %s IS NULL ORDER BY title, id`,
		s.quotedTable(), s.column("tmdbId"),
	)
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select unresolved records: %w", err)
	}
	records := make([]reconcile.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// FetchUnresolved loads the unresolved set up front and yields it in order.
// The read completes before any write starts so the single SQLite connection
// is free for the per-record transactions.
func (s *Store) FetchUnresolved(ctx context.Context) iter.Seq2[reconcile.Record, error] {
	return func(yield func(reconcile.Record, error) bool) {
		records, err := s.ListUnresolved(ctx)
		if err != nil {
			yield(reconcile.Record{}, err)
			return
		}
		for _, record := range records {
			if !yield(record, nil) {
				return
			}
		}
	}
}

// CountUnresolved reports how many records still lack an identifier.
func (s *Store) CountUnresolved(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s IS NULL`, s.quotedTable(), s.column("tmdbId"))
	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count unresolved records: %w", err)
	}
	return count, nil
}

// Identifier returns the stored identifier for recordID, if set.
func (s *Store) Identifier(ctx context.Context, recordID string) (int64, bool, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, s.column("tmdbId"), s.quotedTable()))
	var value sql.NullInt64
	if err := s.db.GetContext(ctx, &value, query, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lookup identifier: %w", err)
	}
	return value.Int64, value.Valid, nil
}

// Insert adds a record. Used by fixtures and the seed command.
func (s *Store) Insert(ctx context.Context, record reconcile.Record) error {
	query := s.db.Rebind(fmt.Sprintf(`INSERT INTO %s (id, title, year, url) VALUES (?, ?, ?, ?)`, s.quotedTable()))
	var year sql.NullInt64
	if record.HasYear() {
		year = sql.NullInt64{Int64: int64(*record.Year), Valid: true}
	}
	url := sql.NullString{String: record.SourceURL, Valid: record.SourceURL != ""}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, record.ID, record.Title, year, url)
		return err
	})
}

// Begin opens a unit of work for one record write.
func (s *Store) Begin(ctx context.Context) (reconcile.Tx, error) {
	return s.NewUnitOfWork(ctx)
}
