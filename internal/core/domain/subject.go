package domain

import (
	"fmt"
	"time"
)

// FirstPage is the page number at which every subject's pagination starts.
const FirstPage = 1

// WorkKey is the unit of in-flight deduplication within one source instance.
type WorkKey struct {
	SubjectID int64
	Page      int
}

func (k WorkKey) String() string {
	return fmt.Sprintf("%d/p%d", k.SubjectID, k.Page)
}

// IndexRequest is the queued payload for a WorkKey.
type IndexRequest struct {
	SubjectID int64
	Page      int
}

// Key returns the dedup key for the request.
func (r IndexRequest) Key() WorkKey {
	return WorkKey{SubjectID: r.SubjectID, Page: r.Page}
}

// RemoteSummary is derived from a fetched page and fed to the staleness check.
// It is never persisted.
type RemoteSummary struct {
	// RemoteID is the subject identifier on the remote.
	RemoteID int64

	// Title is informational, used in logs.
	Title string

	// ItemCount is the number of child items the remote reports.
	ItemCount int

	// LastActivityAt is the most recent activity the remote reports.
	LastActivityAt time.Time
}

// LocalRecord is the stored counterpart of a subject (a forum topic or a tracker issue).
type LocalRecord struct {
	InstanceID string
	SubjectID  int64
	Kind       SourceKind

	Title  string
	Slug   string
	State  string
	Author string

	// Body is the opening text for trackers. Forums keep it on the first post.
	Body string

	// ItemCount and LastActivityAt mirror the RemoteSummary fields.
	ItemCount      int
	LastActivityAt time.Time

	CreatedAt time.Time

	// Attributes holds source-specific fields (views, labels, locked, ...).
	Attributes map[string]string
}

// Summary projects the stored record onto the fields compared for staleness.
func (r *LocalRecord) Summary() RemoteSummary {
	return RemoteSummary{
		RemoteID:       r.SubjectID,
		Title:          r.Title,
		ItemCount:      r.ItemCount,
		LastActivityAt: r.LastActivityAt,
	}
}

// ChildItem is a post or comment belonging to a subject.
type ChildItem struct {
	InstanceID string
	SubjectID  int64

	// ChildID is the remote identifier of the post or comment.
	ChildID int64

	// Number is the position within the subject (post number), when the remote has one.
	Number int

	Author string

	// Body is the raw remote body (cooked HTML for forums, markdown for trackers).
	Body string

	// Text is Body reduced to plain text for search.
	Text string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubjectPage is one fetched page of a subject's detail endpoint.
type SubjectPage struct {
	// Summary feeds the staleness check.
	Summary RemoteSummary

	// Record is the subject projection to upsert on the first page.
	Record LocalRecord

	// Children are the items found on this page. Empty ends the chain.
	Children []ChildItem
}

// ListingPage is one page of a source's listing endpoint.
type ListingPage struct {
	// Subjects are the summaries discovered on this page.
	Subjects []RemoteSummary

	// Next is the continuation token; empty when the listing is exhausted.
	Next string
}

// PostsPerPage is the number of child items a forum returns per subject page.
const PostsPerPage = 20

// PageForPostNumber returns the subject page that holds the given post number.
func PageForPostNumber(n int) int {
	if n < 1 {
		n = 1
	}
	return (n-1)/PostsPerPage + 1
}
