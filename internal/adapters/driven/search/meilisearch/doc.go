// Package meilisearch implements driven.SearchIndex against a Meilisearch
// server over its REST API. Document writes are enqueued as Meilisearch
// tasks and are not awaited.
package meilisearch
