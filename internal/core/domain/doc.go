// Package domain defines the core business entities for sercha-mirror.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceInstance: A configured forum or issue-tracker endpoint
//   - WorkKey / IndexRequest: The unit of deduplicated indexing work
//   - RemoteSummary / LocalRecord: The two sides of the staleness check
//   - ChildItem: A post or comment belonging to a subject
//   - SearchDocument: The projection written to the search index
//   - UserProfile: A forum user with their activity summary
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
