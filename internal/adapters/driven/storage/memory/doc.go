// Package memory provides in-memory implementations of the storage and
// search ports. Nothing survives a restart, so every start backfills.
package memory
