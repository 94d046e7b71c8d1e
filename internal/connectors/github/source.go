package github

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.SubjectSource = (*Source)(nil)

// Source is the tracker SubjectSource for one repository.
type Source struct {
	instance domain.SourceInstance
	client   *Client
}

// New creates a tracker source. A non-empty instance BaseURL overrides the
// API root.
func New(ctx context.Context, instance domain.SourceInstance) (*Source, error) {
	client := NewClientWithToken(ctx, instance.Token)
	if instance.BaseURL != "" {
		if err := client.SetBaseURL(instance.BaseURL); err != nil {
			return nil, err
		}
	}
	return NewWithClient(instance, client), nil
}

// NewWithClient creates a tracker source over an existing client.
func NewWithClient(instance domain.SourceInstance, client *Client) *Source {
	return &Source{instance: instance, client: client}
}

// Kind returns domain.KindTracker.
func (s *Source) Kind() domain.SourceKind {
	return domain.KindTracker
}

// Client returns the underlying API client.
func (s *Source) Client() *Client {
	return s.client
}

// ListSubjects returns one page of issues. The cursor is the page number;
// an empty cursor means the first page.
func (s *Source) ListSubjects(ctx context.Context, cursor string) (*domain.ListingPage, error) {
	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
		}
		page = n
	}

	issues, next, err := s.client.ListIssuesPage(ctx, s.instance.Owner, s.instance.Repo, page)
	if err != nil {
		return nil, toDomainError(err, s.issuesURL())
	}

	listing := &domain.ListingPage{Subjects: make([]domain.RemoteSummary, 0, len(issues))}
	for _, issue := range issues {
		// Pull requests show up in the issues endpoint too.
		if issue.IsPullRequest() {
			continue
		}
		listing.Subjects = append(listing.Subjects, issueSummary(issue))
	}
	if next > 0 {
		listing.Next = strconv.Itoa(next)
	}
	logger.Debug("[%s] issues page %d: %d issues", s.instance.ID, page, len(listing.Subjects))
	return listing, nil
}

// FetchSubjectPage fetches an issue and one page of its comments.
func (s *Source) FetchSubjectPage(ctx context.Context, subjectID int64, page int) (*domain.SubjectPage, error) {
	number := int(subjectID)
	issue, err := s.client.GetIssue(ctx, s.instance.Owner, s.instance.Repo, number)
	if err != nil {
		return nil, toDomainError(err, s.issueURL(number))
	}

	comments, err := s.client.ListCommentsPage(ctx, s.instance.Owner, s.instance.Repo, number, page)
	if err != nil {
		return nil, toDomainError(err, s.issueURL(number)+"/comments?page="+strconv.Itoa(page))
	}

	return &domain.SubjectPage{
		Summary:  issueSummary(issue),
		Record:   issueRecord(issue),
		Children: commentChildren(subjectID, page, comments),
	}, nil
}

// Validate checks the token when one is configured, then that the
// repository is readable. Failures are reported, not fatal.
func (s *Source) Validate(ctx context.Context) error {
	if s.instance.Token != "" {
		login, err := s.client.ValidateCredentials(ctx)
		switch {
		case IsUnauthorized(err):
			return fmt.Errorf("token rejected by GitHub: %w", err)
		case err != nil:
			return fmt.Errorf("validate token: %w", err)
		}
		logger.Info("[%s] authenticated to GitHub as %s", s.instance.ID, login)
	}

	_, err := s.client.GetRepository(ctx, s.instance.Owner, s.instance.Repo)
	switch {
	case err == nil:
		return nil
	case IsRateLimited(err):
		logger.Warn("[%s] rate limited while checking %s", s.instance.ID, s.instance.RepositoryURL())
		return nil
	case IsNotFound(err):
		return fmt.Errorf("repository %s not found or not visible: %w", s.instance.RepositoryURL(), err)
	default:
		return fmt.Errorf("get repository %s/%s: %w", s.instance.Owner, s.instance.Repo, err)
	}
}

func (s *Source) issuesURL() string {
	return fmt.Sprintf("%srepos/%s/%s/issues", s.client.BaseURL(), s.instance.Owner, s.instance.Repo)
}

func (s *Source) issueURL(number int) string {
	return fmt.Sprintf("%s/%d", s.issuesURL(), number)
}
