package services

import (
	"context"
	"fmt"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/models"
	"layeredge/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceLeaderboard struct {
	container    *do.Injector
	redisDB      redis.UniversalClient
	redisDBCache redis.UniversalClient
	postgresDB   *bun.DB
	cache        caching.Cache

	serviceUser   *ServiceUser
	serviceConfig *ServiceConfig
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
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

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, db, dbRedisCache, postgresDB, cache, serviceUser, serviceConfig}, nil
}

func (service *ServiceLeaderboard) GetOverallLeaderboard(ctx context.Context, user *models.User) (*models.LeaderboardResponse, error) {
	limit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)
	return service.getLeaderboard(ctx, user, LEADERBOARD_OVERALL, limit)
}

func (service *ServiceLeaderboard) ClearLeaderboardCache(ctx context.Context, leaderboardName string) error {
	caching.DeleteKeys(ctx, service.redisDBCache, fmt.Sprintf("leaderboard_by_user:%s*", leaderboardName))
	return nil
}

// RefreshUser re-scores one member of the redis mirror after a points
// mutation and drops the cached views.
func (service *ServiceLeaderboard) RefreshUser(ctx context.Context, userID int64) error {
	user, err := datastore.FindUserByID(ctx, service.postgresDB, userID)
	if err != nil {
		return err
	}

	score, err := redis_store.GetScore(ctx, service.redisDB, LEADERBOARD_OVERALL, user)
	if err == nil && score == float64(user.TotalPoints) {
		// nothing moved, keep the cached views
		return nil
	}

	_, err = redis_store.SetLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
		UserId: user.ID,
		Score:  float64(user.TotalPoints),
	})
	if err != nil {
		return err
	}

	//nolint:errcheck
	service.ClearLeaderboardCache(ctx, LEADERBOARD_OVERALL)

	return nil
}

// RebuildLeaderboard reloads the redis mirror from the user table,
// paged, then recomputes the rank column. Run from cron.
func (service *ServiceLeaderboard) RebuildLeaderboard(ctx context.Context) (int, error) {
	limit := 100
	offset := 0
	loaded := 0

	// drop members that no longer exist in the user table
	if err := redis_store.ClearLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL); err != nil {
		return 0, err
	}

	for {
		users, err := datastore.GetTopUsers(ctx, service.postgresDB, limit, offset)
		if err != nil {
			return loaded, err
		}

		if len(users) == 0 {
			break
		}

		for _, user := range users {
			_, err := redis_store.SetLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
				UserId: user.ID,
				Score:  float64(user.TotalPoints),
			})
			if err != nil {
				return loaded, err
			}
		}

		loaded += len(users)
		offset += limit
	}

	chunk, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_RANK_CHUNK_SIZE, RANK_DEFAULT_CHUNK_SIZE)
	if _, err := datastore.RecomputeRanks(ctx, service.postgresDB, chunk); err != nil {
		return loaded, err
	}

	//nolint:errcheck
	service.ClearLeaderboardCache(ctx, LEADERBOARD_OVERALL)

	return loaded, nil
}

func (service *ServiceLeaderboard) getLeaderboard(ctx context.Context, user *models.User, leaderboardName string, limit int) (*models.LeaderboardResponse, error) {
	callback := func() (*models.LeaderboardResponse, error) {
		// the user table is the source of truth for ordering: the redis
		// zset cannot break point ties by join time
		users, err := datastore.GetTopUsers(ctx, service.postgresDB, limit, 0)
		if err != nil {
			return nil, err
		}

		leaderboard := make([]*models.LeaderboardItem, 0, len(users))
		for i, u := range users {
			leaderboard = append(leaderboard, &models.LeaderboardItem{
				UserId:   u.ID,
				Username: u.Username,
				Score:    float64(u.TotalPoints),
				Rank:     i + 1,
				Avatar:   u.Avatar,
			})
		}

		me := &models.LeaderboardItem{
			UserId:   user.ID,
			Username: user.Username,
			Score:    float64(user.TotalPoints),
			Avatar:   user.Avatar,
		}
		rank, err := service.serviceUser.GetUserRank(ctx, user)
		if err == nil {
			me.Rank = rank
		}

		total, err := redis_store.GetLeaderboardParticipantsCount(ctx, service.redisDB, leaderboardName)
		if err != nil || total < int64(len(users)) {
			// mirror not built yet, count the table instead
			count, err := datastore.CountUsers(ctx, service.postgresDB)
			if err != nil {
				return nil, err
			}
			total = int64(count)
		}

		return &models.LeaderboardResponse{
			Leaderboard: leaderboard,
			Me:          me,
			Total:       total,
		}, nil
	}

	return caching.UseCache(ctx, service.cache, DBKeyLeaderboardByUser(leaderboardName, user.ID, limit), CACHE_TTL_10_MINS, callback)
}
