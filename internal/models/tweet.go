package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Engagement is the public interaction counters of a tweet.
type Engagement struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
}

type Tweet struct {
	bun.BaseModel   `bun:"table:tweet"`
	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	TweetID         string     `bun:"tweet_id" json:"tweet_id"`
	UserID          int64      `bun:"user_id" json:"user_id"`
	URL             string     `bun:"url" json:"url"`
	Content         *string    `bun:"content" json:"content"`
	Likes           int        `bun:"likes" json:"likes"`
	Retweets        int        `bun:"retweets" json:"retweets"`
	Replies         int        `bun:"replies" json:"replies"`
	TotalPoints     int        `bun:"total_points" json:"total_points"`
	SubmittedAt     time.Time  `bun:"submitted_at,default:current_timestamp" json:"submitted_at"`
	LastRefreshedAt *time.Time `bun:"last_refreshed_at" json:"last_refreshed_at"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

func (t *Tweet) Engagement() Engagement {
	return Engagement{Likes: t.Likes, Retweets: t.Retweets, Replies: t.Replies}
}
