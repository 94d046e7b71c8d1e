package domain

// Entity types written to the search index.
const (
	EntityTopic   = "topic"
	EntityPost    = "post"
	EntityIssue   = "issue"
	EntityComment = "comment"
)

// SearchKeyField is the primary key field of every search document.
const SearchKeyField = "entity_id"

// AttrGlobalID is the record attribute holding an identifier unique across
// instances sharing one index. Issue numbers repeat between repositories.
const AttrGlobalID = "global_id"

// SearchDocument is the write-only projection of a record or child item
// sent to the search index. EntityID is stable so repeated upserts are idempotent.
type SearchDocument struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	InstanceID string `json:"instance_id"`
	SubjectID  int64  `json:"subject_id"`
	ChildID    int64  `json:"child_id,omitempty"`
	Number     int    `json:"number,omitempty"`
	Author     string `json:"author,omitempty"`
	Title      string `json:"title,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Body       string `json:"body,omitempty"`
}

// SearchHit is a single match returned by the search index.
type SearchHit struct {
	Document SearchDocument
	Score    float64
}

// EntityTypes returns the subject and child entity types for a source kind.
func EntityTypes(kind SourceKind) (subject, child string) {
	if kind == KindTracker {
		return EntityIssue, EntityComment
	}
	return EntityTopic, EntityPost
}

// IndexName returns the search index a source kind writes into.
func IndexName(kind SourceKind) string {
	if kind == KindTracker {
		return "github"
	}
	return "forum"
}
