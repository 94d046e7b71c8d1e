// Package admin provides the HTTP control surface of a running indexer.
//
// Routes:
//
//	POST /v1/refresh/{instance}/{subject}   queue a subject page (?page=N or ?post_number=N)
//	GET  /v1/status                         per-instance queue depth and counters
//	GET  /v1/search                         keyword search (?q=, ?kind=, ?limit=)
//	GET  /v1/forum/{instance}/users/{name}  forum user profile
//	GET  /v1/scheduler/tasks                "fetch latest" task per instance
//	GET  /v1/scheduler/history              recent runs (?instance=, ?limit=)
//	GET  /metrics                           Prometheus exposition
//	GET  /healthz                           liveness
//	     /mcp                               MCP streamable HTTP, when enabled
//
// Tracker instance ids contain a slash ("ethereum/pm"), so the instance
// segment is everything up to the last path element.
package admin
