package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// SubjectSource fetches paginated subjects from one remote instance.
// Forum and tracker connectors both implement it so the indexer
// drives them identically.
type SubjectSource interface {
	// Kind returns the source family.
	Kind() domain.SourceKind

	// ListSubjects returns one page of the listing endpoint.
	// An empty cursor requests the first page; the returned ListingPage.Next
	// is empty once the listing is exhausted.
	ListSubjects(ctx context.Context, cursor string) (*domain.ListingPage, error)

	// FetchSubjectPage fetches one page of a subject's detail endpoint.
	// Network and non-2xx failures are returned as *domain.TransportError,
	// undecodable bodies as *domain.ParseError.
	FetchSubjectPage(ctx context.Context, subjectID int64, page int) (*domain.SubjectPage, error)

	// Validate performs a lightweight reachability or credential check.
	Validate(ctx context.Context) error
}

// UserDirectory looks up user profiles on a forum instance.
type UserDirectory interface {
	// UserProfile returns the profile and activity summary for a username.
	// Returns domain.ErrNotFound if the user does not exist.
	UserProfile(ctx context.Context, username string) (*domain.UserProfile, error)
}
