// Package postgres implements driven.RecordStore on PostgreSQL using a
// pgx connection pool. Child items are written with pgx batches.
package postgres
