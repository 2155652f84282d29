package services

import (
	"context"
	"errors"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/interfaces"
	"layeredge/internal/models"
	"layeredge/internal/twitter"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// RefreshSummary is the per-cycle accounting returned to the scheduler.
type RefreshSummary struct {
	Selected    int `json:"selected"`
	Refreshed   int `json:"refreshed"`
	Unchanged   int `json:"unchanged"`
	Failed      int `json:"failed"`
	RateLimited int `json:"rate_limited"`
	NotFound    int `json:"not_found"`
}

type ServiceMonitor struct {
	container  *do.Injector
	redisDB    redis.UniversalClient
	postgresDB *bun.DB

	api    interfaces.EngagementSource
	oembed interfaces.EngagementSource

	serviceConfig     *ServiceConfig
	serviceSubmission *ServiceSubmission
}

func NewServiceMonitor(container *do.Injector) (*ServiceMonitor, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
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

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceSubmission, err := do.Invoke[*ServiceSubmission](container)
	if err != nil {
		return nil, err
	}

	return &ServiceMonitor{container, db, postgresDB, api, oembed, serviceConfig, serviceSubmission}, nil
}

// RefreshCycle re-reads engagement for the stalest stored submissions.
// The authenticated API serves a small prioritized slice of high-value
// owners; everything else goes through the embed endpoint. One failing
// item never aborts the remainder.
func (service *ServiceMonitor) RefreshCycle(ctx context.Context) (*RefreshSummary, error) {
	window, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_REFRESH_WINDOW_SIZE, REFRESH_DEFAULT_WINDOW_SIZE)
	minPoints, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_REFRESH_API_MIN_POINTS, REFRESH_DEFAULT_API_MIN_POINTS)
	apiSlots, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_REFRESH_API_SLOTS, REFRESH_DEFAULT_API_SLOTS)

	tweets, err := datastore.GetStalestTweets(ctx, service.postgresDB, window)
	if err != nil {
		return nil, err
	}

	summary := &RefreshSummary{Selected: len(tweets)}
	if len(tweets) == 0 {
		return summary, nil
	}

	apiEligible := service.apiEligibleOwners(ctx, minPoints, apiSlots)
	limited, _ := redis_store.IsRateLimited(ctx, service.redisDB, service.api.Name())

	for start := 0; start < len(tweets); start += REFRESH_BATCH_SIZE {
		end := start + REFRESH_BATCH_SIZE
		if end > len(tweets) {
			end = len(tweets)
		}

		service.refreshBatch(ctx, tweets[start:end], apiEligible, &limited, summary)

		if end < len(tweets) {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(REFRESH_BATCH_DELAY):
			}
		}
	}

	return summary, nil
}

func (service *ServiceMonitor) refreshBatch(ctx context.Context, batch []*models.Tweet, apiEligible map[int64]bool, limited *bool, summary *RefreshSummary) {
	type outcome struct {
		delta       int
		err         error
		rateLimited bool
	}

	outcomes := make([]outcome, len(batch))

	wg, wgCtx := errgroup.WithContext(ctx)
	for i, tweet := range batch {
		i, tweet := i, tweet

		source := service.oembed
		if apiEligible[tweet.UserID] && !*limited {
			source = service.api
		}

		wg.Go(func() error {
			detail, err := source.FetchTweet(wgCtx, tweet.TweetID)
			if err != nil {
				var rle *twitter.RateLimitError
				if errors.As(err, &rle) {
					//nolint:errcheck
					redis_store.SetRateLimitReset(wgCtx, service.redisDB, source.Name(), rle.Reset)
					outcomes[i] = outcome{err: err, rateLimited: true}
					return nil
				}
				outcomes[i] = outcome{err: err}
				return nil
			}

			delta, err := service.serviceSubmission.ApplyRefresh(wgCtx, tweet, detail)
			outcomes[i] = outcome{delta: delta, err: err}
			return nil
		})
	}
	//nolint:errcheck
	wg.Wait()

	for i, o := range outcomes {
		switch {
		case o.rateLimited:
			summary.RateLimited++
			*limited = true
		case errors.Is(o.err, twitter.ErrNotFound):
			// deleted or gone private, nothing further to refresh
			summary.NotFound++
			//nolint:errcheck
			datastore.TouchTweetRefreshedAt(ctx, service.postgresDB, batch[i].TweetID)
		case o.err != nil:
			summary.Failed++
		case o.delta != 0:
			summary.Refreshed++
		default:
			summary.Unchanged++
		}
	}
}

// apiEligibleOwners picks the owners whose tweets earn the precise
// authenticated lookup this cycle.
func (service *ServiceMonitor) apiEligibleOwners(ctx context.Context, minPoints int, slots int) map[int64]bool {
	eligible := map[int64]bool{}

	users, err := datastore.GetMonitoredUsers(ctx, service.postgresDB, minPoints, slots)
	if err != nil {
		return eligible
	}

	for _, user := range users {
		eligible[user.ID] = true
	}

	return eligible
}
