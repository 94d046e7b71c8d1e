package discourse

import "time"

// latestResponse is the body of /latest.json.
type latestResponse struct {
	TopicList struct {
		MoreTopicsURL string         `json:"more_topics_url"`
		Topics        []topicListing `json:"topics"`
	} `json:"topic_list"`
}

type topicListing struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	PostsCount   int        `json:"posts_count"`
	LastPostedAt *time.Time `json:"last_posted_at"`
	BumpedAt     *time.Time `json:"bumped_at"`
}

// topicResponse is the body of /t/{id}.json?page=N.
type topicResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	PostsCount   int        `json:"posts_count"`
	Views        int        `json:"views"`
	LikeCount    int        `json:"like_count"`
	CategoryID   int        `json:"category_id"`
	Closed       bool       `json:"closed"`
	Archived     bool       `json:"archived"`
	CreatedAt    time.Time  `json:"created_at"`
	LastPostedAt *time.Time `json:"last_posted_at"`
	Details      struct {
		CreatedBy struct {
			Username string `json:"username"`
		} `json:"created_by"`
	} `json:"details"`
	PostStream struct {
		Posts []post `json:"posts"`
	} `json:"post_stream"`
}

type post struct {
	ID         int64     `json:"id"`
	PostNumber int       `json:"post_number"`
	Username   string    `json:"username"`
	UserID     int64     `json:"user_id"`
	Cooked     string    `json:"cooked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// userResponse is the body of /u/{username}.json.
type userResponse struct {
	User struct {
		ID             int64      `json:"id"`
		Username       string     `json:"username"`
		Name           string     `json:"name"`
		Title          string     `json:"title"`
		AvatarTemplate string     `json:"avatar_template"`
		TrustLevel     int        `json:"trust_level"`
		CreatedAt      *time.Time `json:"created_at"`
		LastSeenAt     *time.Time `json:"last_seen_at"`
	} `json:"user"`
}

// userSummaryResponse is the body of /u/{username}/summary.json.
type userSummaryResponse struct {
	UserSummary struct {
		LikesGiven     int `json:"likes_given"`
		LikesReceived  int `json:"likes_received"`
		TopicsEntered  int `json:"topics_entered"`
		PostsReadCount int `json:"posts_read_count"`
		DaysVisited    int `json:"days_visited"`
		TopicCount     int `json:"topic_count"`
		PostCount      int `json:"post_count"`
		TimeRead       int `json:"time_read"`
	} `json:"user_summary"`
}
