package services

import (
	"context"
	"errors"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/interfaces"
	"layeredge/internal/models"
	"layeredge/internal/pkg/caching"
	"layeredge/internal/twitter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

var (
	ErrAuthorMismatch = errors.New("tweet does not belong to the submitting account")
	ErrMissingKeyword = errors.New("tweet does not mention any required keyword")
)

type ServiceSubmission struct {
	container    *do.Injector
	redisDB      redis.UniversalClient
	redisDBCache redis.UniversalClient
	postgresDB   *bun.DB
	cache        caching.Cache
	limiter      interfaces.Limiter

	api    interfaces.EngagementSource
	oembed interfaces.EngagementSource
}

func NewServiceSubmission(container *do.Injector) (*ServiceSubmission, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	dbRedisCache, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	api, err := do.InvokeNamed[interfaces.EngagementSource](container, "engagement-api")
	if err != nil {
		return nil, err
	}

	oembed, err := do.InvokeNamed[interfaces.EngagementSource](container, "engagement-oembed")
	if err != nil {
		return nil, err
	}

	return &ServiceSubmission{container, db, dbRedisCache, postgresDB, cache, limiter, api, oembed}, nil
}

// Submit validates a candidate URL, scores it and records it. Every
// rejection states the rule that failed.
func (service *ServiceSubmission) Submit(ctx context.Context, user *models.User, rawURL string) (*models.Tweet, error) {
	err := service.limiter.Allow(ctx, LimitKeySubmit(user.ID), redis_rate.PerMinute(SUBMIT_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		return nil, errorx.Wrap(err, errorx.RateLimiting)
	}

	urlUsername, tweetID, err := twitter.ParseStatusURL(rawURL)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Validation)
	}

	exists, err := datastore.TweetExists(ctx, service.postgresDB, tweetID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if exists {
		return nil, errorx.Wrap(datastore.ErrDuplicateTweet, errorx.Validation)
	}

	detail, err := service.fetchDetail(ctx, tweetID)
	if err != nil {
		return nil, classifyFetchError(err)
	}

	// the fetched author is authoritative; the handle in the URL is
	// only a hint and can be spoofed by redirects
	author := detail.AuthorUsername
	if author == "" {
		author = urlUsername
	}
	if !twitter.SameUsername(author, user.Username) {
		return nil, errorx.Wrap(ErrAuthorMismatch, errorx.Validation)
	}

	if !twitter.ContainsKeyword(detail.Text, RequiredKeywords) {
		return nil, errorx.Wrap(ErrMissingKeyword, errorx.Validation)
	}

	points := CalculatePoints(detail.Engagement)
	tweet := &models.Tweet{
		TweetID:     tweetID,
		UserID:      user.ID,
		URL:         rawURL,
		Likes:       detail.Engagement.Likes,
		Retweets:    detail.Engagement.Retweets,
		Replies:     detail.Engagement.Replies,
		TotalPoints: points,
		SubmittedAt: time.Now(),
	}
	if detail.Text != "" {
		tweet.Content = &detail.Text
	}

	err = datastore.RecordSubmission(ctx, service.postgresDB, tweet, REASON_SUBMISSION)
	if errors.Is(err, datastore.ErrDuplicateTweet) {
		return nil, errorx.Wrap(err, errorx.Validation)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.invalidateAfterAward(ctx, user.ID)

	return tweet, nil
}

// ApplyRefresh routes a refreshed engagement reading through the
// delta-points path.
func (service *ServiceSubmission) ApplyRefresh(ctx context.Context, tweet *models.Tweet, detail *interfaces.TweetDetail) (int, error) {
	if !detail.HasCounts {
		// content-only source: keep stored counters, refresh text
		if detail.Text != "" && (tweet.Content == nil || *tweet.Content != detail.Text) {
			_, err := datastore.ApplyEngagement(ctx, service.postgresDB, tweet.TweetID, tweet.Engagement(), tweet.TotalPoints, &detail.Text, REASON_REFRESH)
			return 0, err
		}
		return 0, datastore.TouchTweetRefreshedAt(ctx, service.postgresDB, tweet.TweetID)
	}

	newPoints := CalculatePoints(detail.Engagement)
	var content *string
	if detail.Text != "" {
		content = &detail.Text
	}

	delta, err := datastore.ApplyEngagement(ctx, service.postgresDB, tweet.TweetID, detail.Engagement, newPoints, content, REASON_REFRESH)
	if err != nil {
		return 0, err
	}

	if delta != 0 {
		service.invalidateAfterAward(ctx, tweet.UserID)
	}

	return delta, nil
}

func (service *ServiceSubmission) GetRecentTweets(ctx context.Context, limit int, offset int) ([]*models.Tweet, error) {
	limit, offset = clampPage(limit, offset)

	callback := func() ([]*models.Tweet, error) {
		return datastore.GetRecentTweets(ctx, service.postgresDB, limit, offset)
	}

	return caching.UseCache(ctx, service.cache, DBKeyRecentTweets(limit, offset), CACHE_TTL_10_MINS, callback)
}

func (service *ServiceSubmission) GetUserTweets(ctx context.Context, userID int64, limit int, offset int) ([]*models.Tweet, error) {
	limit, offset = clampPage(limit, offset)

	callback := func() ([]*models.Tweet, error) {
		return datastore.GetTweetsByUser(ctx, service.postgresDB, userID, limit, offset)
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserTweets(userID, limit, offset), CACHE_TTL_1_MIN, callback)
}

// fetchDetail prefers the precise authenticated lookup and falls back
// to the embed document when the API quota is exhausted or the
// credentials are rejected.
func (service *ServiceSubmission) fetchDetail(ctx context.Context, tweetID string) (*interfaces.TweetDetail, error) {
	limited, _ := redis_store.IsRateLimited(ctx, service.redisDB, service.api.Name())
	if !limited {
		detail, err := service.api.FetchTweet(ctx, tweetID)
		if err == nil {
			return detail, nil
		}

		var rle *twitter.RateLimitError
		if errors.As(err, &rle) {
			//nolint:errcheck
			redis_store.SetRateLimitReset(ctx, service.redisDB, service.api.Name(), rle.Reset)
		} else if !errors.Is(err, twitter.ErrAuth) {
			return nil, err
		}
	}

	return service.oembed.FetchTweet(ctx, tweetID)
}

func (service *ServiceSubmission) invalidateAfterAward(ctx context.Context, userID int64) {
	serviceUser, err := do.Invoke[*ServiceUser](service.container)
	if err == nil {
		serviceUser.InvalidateUser(ctx, userID)
	}

	serviceLeaderboard, err := do.Invoke[*ServiceLeaderboard](service.container)
	if err == nil {
		//nolint:errcheck
		serviceLeaderboard.RefreshUser(ctx, userID)
	}

	caching.DeleteKeys(ctx, service.redisDBCache, "tweets:recent:*")
}

func classifyFetchError(err error) error {
	switch {
	case errors.Is(err, twitter.ErrNotFound):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, twitter.ErrAuth):
		return errorx.Wrap(err, errorx.Authn)
	default:
		var rle *twitter.RateLimitError
		if errors.As(err, &rle) {
			return errorx.Wrap(err, errorx.RateLimiting)
		}
		return errorx.Wrap(err, errorx.Service)
	}
}

func clampPage(limit int, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
