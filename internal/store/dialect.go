package store

import (
	"strings"

	"github.com/lib/pq"

	"backfill/internal/dsn"
)

// sqlServerDefaultSchema qualifies bare table names on SQL Server, where the
// catalog application keeps its tables.
const sqlServerDefaultSchema = "dbo"

// quoteIdentifier quotes one identifier part for driver.
func quoteIdentifier(driver, name string) string {
	if driver == dsn.DriverSQLServer {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	return pq.QuoteIdentifier(name)
}

// quoteQualified quotes a possibly schema-qualified name part by part, so
// "public.Movie" becomes "public"."Movie" rather than one dotted identifier.
func quoteQualified(driver, name string) string {
	parts := strings.Split(name, ".")
	if len(parts) == 1 && driver == dsn.DriverSQLServer {
		parts = []string{sqlServerDefaultSchema, parts[0]}
	}
	for i, part := range parts {
		parts[i] = quoteIdentifier(driver, part)
	}
	return strings.Join(parts, ".")
}
