package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies which family of remote API a source instance speaks.
type SourceKind string

const (
	// KindForum is a Discourse-style forum with paginated topics.
	KindForum SourceKind = "forum"

	// KindTracker is a GitHub-style issue tracker with paginated issue comments.
	KindTracker SourceKind = "tracker"
)

// Default polling intervals per kind.
const (
	DefaultForumInterval   = 30 * time.Minute
	DefaultTrackerInterval = 5 * time.Minute
)

// SourceInstance represents one configured external endpoint: a specific
// forum deployment or a specific issue-tracker repository.
// Instances are built from static configuration and never mutate afterwards.
type SourceInstance struct {
	// ID is the unique identifier used by enqueue callers (e.g. "magicians").
	ID string

	// Kind selects the remote API family.
	Kind SourceKind

	// BaseURL is the root URL of the remote (forum URL or GitHub API URL).
	BaseURL string

	// Owner and Repo identify the repository for tracker instances.
	Owner string
	Repo  string

	// PollInterval is the aligned period between "fetch latest" runs.
	PollInterval time.Duration

	// LatestPages bounds how many listing pages a scheduled run walks.
	// Zero walks the whole listing.
	LatestPages int

	// Token authenticates against the remote, if required.
	Token string
}

// RepositoryURL returns the canonical repository URL for tracker instances.
func (s *SourceInstance) RepositoryURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", s.Owner, s.Repo)
}

// Validate checks that the instance carries everything its kind needs.
func (s *SourceInstance) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: source instance id is required", ErrInvalidInput)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: %s: poll interval must be positive", ErrInvalidInput, s.ID)
	}
	if s.LatestPages < 0 {
		return fmt.Errorf("%w: %s: latest_pages must not be negative", ErrInvalidInput, s.ID)
	}

	switch s.Kind {
	case KindForum:
		if strings.TrimSpace(s.BaseURL) == "" {
			return fmt.Errorf("%w: %s: forum url is required", ErrInvalidInput, s.ID)
		}
	case KindTracker:
		if s.Owner == "" || s.Repo == "" {
			return fmt.Errorf("%w: %s: tracker owner and repo are required", ErrInvalidInput, s.ID)
		}
	default:
		return fmt.Errorf("%w: %s: source kind %q", ErrUnsupportedType, s.ID, s.Kind)
	}
	return nil
}
