package discourse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

const (
	userCacheSize = 1000
	userCacheTTL  = time.Hour
)

type userCache = expirable.LRU[string, *domain.UserProfile]

func newUserCache() *userCache {
	return expirable.NewLRU[string, *domain.UserProfile](userCacheSize, nil, userCacheTTL)
}

// UserProfile returns a user's profile and activity summary, served from a
// per-source cache for an hour after the first lookup. A forum that hides
// the summary yields an empty one.
func (s *Source) UserProfile(ctx context.Context, username string) (*domain.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}

	key := s.instance.ID + ":" + strings.ToLower(username)
	if profile, ok := s.users.Get(key); ok {
		return profile, nil
	}

	var user userResponse
	if err := s.client.getJSON(ctx, s.client.UserURL(username), &user); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, username)
		}
		return nil, err
	}

	var summary userSummaryResponse
	if err := s.client.getJSON(ctx, s.client.UserSummaryURL(username), &summary); err != nil {
		if statusOf(err) != http.StatusNotFound {
			return nil, err
		}
	}

	u := user.User
	us := summary.UserSummary
	profile := &domain.UserProfile{
		InstanceID:     s.instance.ID,
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Title:          u.Title,
		AvatarTemplate: u.AvatarTemplate,
		TrustLevel:     u.TrustLevel,
		CreatedAt:      timeOrZero(u.CreatedAt),
		LastSeenAt:     timeOrZero(u.LastSeenAt),
		Summary: &domain.UserSummary{
			LikesGiven:    us.LikesGiven,
			LikesReceived: us.LikesReceived,
			TopicsEntered: us.TopicsEntered,
			PostsRead:     us.PostsReadCount,
			DaysVisited:   us.DaysVisited,
			TopicCount:    us.TopicCount,
			PostCount:     us.PostCount,
			TimeRead:      us.TimeRead,
		},
	}

	s.users.Add(key, profile)
	return profile, nil
}

func statusOf(err error) int {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
