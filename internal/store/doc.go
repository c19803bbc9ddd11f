// Package store persists catalog identifiers for unresolved records.
//
// The store speaks to SQLite (modernc.org/sqlite), PostgreSQL (pgx) or SQL
// Server (go-mssqldb) through sqlx, selected by the parsed connection
// descriptor. Bare table names on SQL Server live in the dbo schema. Reads return records
// ordered by title then id so repeated runs visit records in the same order.
// Every write happens inside a UnitOfWork that updates exactly one row and
// refuses to overwrite an identifier that is already set.
//
// Schema management uses goose with migrations embedded in the binary; SQL
// Server has its own T-SQL set.
package store
