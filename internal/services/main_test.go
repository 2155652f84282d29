package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"layeredge/internal/datastore"
	"layeredge/internal/models"
	"layeredge/internal/pkg/caching"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestContainer wires the service graph against an in-memory sqlite
// database and a miniredis instance.
func newTestContainer(t *testing.T) *do.Injector {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := datastore.CreateTableUser(ctx, db); err != nil {
		t.Fatalf("create table user: %v", err)
	}
	if err := datastore.CreateTableTweet(ctx, db); err != nil {
		t.Fatalf("create table tweet: %v", err)
	}
	if err := datastore.CreateTablePointsHistory(ctx, db); err != nil {
		t.Fatalf("create table points_history: %v", err)
	}
	if err := datastore.CreateTableQuest(ctx, db); err != nil {
		t.Fatalf("create table quest: %v", err)
	}
	if err := datastore.CreateTableUserQuest(ctx, db); err != nil {
		t.Fatalf("create table user_quest: %v", err)
	}
	if err := datastore.CreateTableConfig(ctx, db); err != nil {
		t.Fatalf("create table config: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		_ = db.Close()
	})

	injector := do.New()
	do.ProvideValue(injector, db)
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", client)
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-cache", client)
	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheRedis(client, false)
	})
	do.ProvideValue(injector, redsync.New(goredis.NewPool(client)))
	do.Provide(injector, NewServiceUser)
	do.Provide(injector, NewServiceConfig)
	do.Provide(injector, NewServiceLeaderboard)
	do.Provide(injector, NewServiceQuest)

	return injector
}

func createTestUser(t *testing.T, db *bun.DB, twitterID string, username string, points int) *models.User {
	t.Helper()

	user := &models.User{
		TwitterID:   twitterID,
		Username:    username,
		DisplayName: username,
		TotalPoints: points,
		Monitored:   true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	user, err := datastore.CreateUser(context.Background(), db, user)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return user
}

func createTestQuest(t *testing.T, db *bun.DB, title string, questType models.QuestType, points int, requiresVerification bool) *models.Quest {
	t.Helper()

	quest := &models.Quest{
		Title:                title,
		Type:                 questType,
		Points:               points,
		Enabled:              true,
		RequiresVerification: requiresVerification,
	}
	if err := datastore.CreateQuest(context.Background(), db, quest); err != nil {
		t.Fatalf("create quest: %v", err)
	}

	return quest
}
