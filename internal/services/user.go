package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/models"
	"layeredge/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container    *do.Injector
	redisDB      redis.UniversalClient
	redisDBCache redis.UniversalClient
	postgresDB   *bun.DB
	cache        caching.Cache
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
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

	return &ServiceUser{container, db, dbRedisCache, postgresDB, cache}, nil
}

// FindOrCreateUser resolves the authenticated identity to a row,
// creating it on first login.
func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.UserFromAuth) (*models.User, error) {
	if userAuth == nil {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	user, err := datastore.FindUserByTwitterID(ctx, service.postgresDB, userAuth.TwitterID)
	if err == nil {
		// keep handle and avatar fresh: they can change upstream
		if !strings.EqualFold(user.Username, userAuth.Username) || user.DisplayName != userAuth.DisplayName {
			user.Username = userAuth.Username
			user.DisplayName = userAuth.DisplayName
			user, err = datastore.EditUser(ctx, service.postgresDB, user)
			if err != nil {
				return nil, errorx.Wrap(err, errorx.Service)
			}
			//nolint:errcheck
			service.cache.Delete(ctx, DBKeyUser(user.ID))
		}
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	user = &models.User{
		TwitterID:   userAuth.TwitterID,
		Username:    userAuth.Username,
		DisplayName: userAuth.DisplayName,
		Monitored:   true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if userAuth.Avatar != "" {
		user.Avatar = &userAuth.Avatar
	}

	user, err = datastore.CreateUser(ctx, service.postgresDB, user)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return user, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.postgresDB, userID)
	}

	return caching.UseCache(ctx, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, callback)
}

// GetUserRank returns the cached rank column when populated. Before the
// next recompute it falls back to the redis mirror, then to a live count
// of users with strictly more points, plus one. Neither fallback breaks
// point ties by join time.
func (service *ServiceUser) GetUserRank(ctx context.Context, user *models.User) (int, error) {
	if user.Rank != nil {
		return *user.Rank, nil
	}

	if mirrorRank, err := redis_store.GetRank(ctx, service.redisDB, LEADERBOARD_OVERALL, user); err == nil {
		return int(mirrorRank) + 1, nil
	}

	rank, err := datastore.ComputeUserRank(ctx, service.postgresDB, user)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.Service)
	}

	return rank, nil
}

func (service *ServiceUser) GetPointsHistory(ctx context.Context, userID int64, limit int, offset int) ([]*models.PointsHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := datastore.GetPointsHistory(ctx, service.postgresDB, userID, limit, offset)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return entries, nil
}

// InvalidateUser drops the per-user cached views after a points
// mutation.
func (service *ServiceUser) InvalidateUser(ctx context.Context, userID int64) {
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUser(userID))
	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyMe(userID))
	caching.DeleteKeys(ctx, service.redisDBCache, DBKeyUserQuests(userID))
}
