package interfaces

import (
	"context"

	"layeredge/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// TweetDetail is what an engagement source can report about a tweet.
// Author and text come from every source; counts depend on it.
type TweetDetail struct {
	TweetID        string
	AuthorUsername string
	Text           string
	Engagement     models.Engagement
	// HasCounts is false for sources that can only see content, the
	// embed endpoint among them; callers keep the stored counters then.
	HasCounts bool
}

// EngagementSource abstracts the two ways of reading tweet engagement:
// the authenticated counts API and the public embed endpoint.
type EngagementSource interface {
	Name() string
	FetchTweet(ctx context.Context, tweetID string) (*TweetDetail, error)
}
