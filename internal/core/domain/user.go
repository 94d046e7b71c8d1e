package domain

import "time"

// UserProfile is a forum user's public profile together with their
// activity summary. Summary is nil when the forum hides it.
type UserProfile struct {
	InstanceID     string    `json:"instance_id"`
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name,omitempty"`
	Title          string    `json:"title,omitempty"`
	AvatarTemplate string    `json:"avatar_template,omitempty"`
	TrustLevel     int       `json:"trust_level"`
	CreatedAt      time.Time `json:"created_at"`
	LastSeenAt     time.Time `json:"last_seen_at,omitempty"`

	Summary *UserSummary `json:"summary,omitempty"`
}

// UserSummary holds a forum user's activity counters.
type UserSummary struct {
	LikesGiven    int `json:"likes_given"`
	LikesReceived int `json:"likes_received"`
	TopicsEntered int `json:"topics_entered"`
	PostsRead     int `json:"posts_read_count"`
	DaysVisited   int `json:"days_visited"`
	TopicCount    int `json:"topic_count"`
	PostCount     int `json:"post_count"`
	TimeRead      int `json:"time_read"`
}
