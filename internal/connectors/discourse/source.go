package discourse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
	"github.com/custodia-labs/sercha-mirror/internal/normalisers/html"
)

// Ensure Source implements the interfaces.
var (
	_ driven.SubjectSource = (*Source)(nil)
	_ driven.UserDirectory = (*Source)(nil)
)

// Source is the forum SubjectSource for one Discourse deployment.
type Source struct {
	instance domain.SourceInstance
	client   *Client
	users    *userCache
}

// New creates a forum source for the instance's BaseURL.
func New(instance domain.SourceInstance) *Source {
	return NewWithClient(instance, NewClient(instance.BaseURL))
}

// NewWithClient creates a forum source over an existing client.
func NewWithClient(instance domain.SourceInstance, client *Client) *Source {
	return &Source{
		instance: instance,
		client:   client,
		users:    newUserCache(),
	}
}

// Kind returns domain.KindForum.
func (s *Source) Kind() domain.SourceKind {
	return domain.KindForum
}

// Client returns the underlying API client.
func (s *Source) Client() *Client {
	return s.client
}

// ListSubjects returns one page of the latest-topics listing. The cursor is
// the more_topics_url of the previous page; empty means the first page.
func (s *Source) ListSubjects(ctx context.Context, cursor string) (*domain.ListingPage, error) {
	url := s.client.LatestURL(cursor)
	logger.Debug("[%s] fetching %s", s.instance.ID, url)

	var resp latestResponse
	if err := s.client.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	listing := &domain.ListingPage{
		Subjects: make([]domain.RemoteSummary, 0, len(resp.TopicList.Topics)),
		Next:     resp.TopicList.MoreTopicsURL,
	}
	for _, t := range resp.TopicList.Topics {
		listing.Subjects = append(listing.Subjects, domain.RemoteSummary{
			RemoteID:       t.ID,
			Title:          t.Title,
			ItemCount:      t.PostsCount,
			LastActivityAt: timeOrZero(t.LastPostedAt),
		})
	}
	return listing, nil
}

// FetchSubjectPage fetches one page of a topic with its posts.
func (s *Source) FetchSubjectPage(ctx context.Context, subjectID int64, page int) (*domain.SubjectPage, error) {
	if page < domain.FirstPage {
		page = domain.FirstPage
	}

	var topic topicResponse
	if err := s.client.getJSON(ctx, s.client.TopicURL(subjectID, page), &topic); err != nil {
		return nil, err
	}

	return &domain.SubjectPage{
		Summary: domain.RemoteSummary{
			RemoteID:       topic.ID,
			Title:          topic.Title,
			ItemCount:      topic.PostsCount,
			LastActivityAt: timeOrZero(topic.LastPostedAt),
		},
		Record:   s.topicRecord(&topic),
		Children: s.postChildren(topic.ID, topic.PostStream.Posts),
	}, nil
}

// Validate checks that the forum answers the listing endpoint.
func (s *Source) Validate(ctx context.Context) error {
	var resp latestResponse
	if err := s.client.getJSON(ctx, s.client.LatestURL(""), &resp); err != nil {
		return fmt.Errorf("fetch latest topics: %w", err)
	}
	return nil
}

func (s *Source) topicRecord(t *topicResponse) domain.LocalRecord {
	state := "open"
	switch {
	case t.Archived:
		state = "archived"
	case t.Closed:
		state = "closed"
	}

	return domain.LocalRecord{
		InstanceID:     s.instance.ID,
		SubjectID:      t.ID,
		Kind:           domain.KindForum,
		Title:          t.Title,
		Slug:           t.Slug,
		State:          state,
		Author:         t.Details.CreatedBy.Username,
		ItemCount:      t.PostsCount,
		LastActivityAt: timeOrZero(t.LastPostedAt),
		CreatedAt:      t.CreatedAt,
		Attributes: map[string]string{
			"url":         fmt.Sprintf("%s/t/%s/%d", s.client.BaseURL(), t.Slug, t.ID),
			"views":       strconv.Itoa(t.Views),
			"like_count":  strconv.Itoa(t.LikeCount),
			"category_id": strconv.Itoa(t.CategoryID),
		},
	}
}

func (s *Source) postChildren(topicID int64, posts []post) []domain.ChildItem {
	children := make([]domain.ChildItem, 0, len(posts))
	for _, p := range posts {
		children = append(children, domain.ChildItem{
			InstanceID: s.instance.ID,
			SubjectID:  topicID,
			ChildID:    p.ID,
			Number:     p.PostNumber,
			Author:     p.Username,
			Body:       p.Cooked,
			Text:       html.Text(p.Cooked),
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return children
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
