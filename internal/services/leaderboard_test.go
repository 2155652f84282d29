package services

import (
	"context"
	"errors"
	"testing"

	"layeredge/internal/datastore"
	"layeredge/internal/datastore/redis_store"
	"layeredge/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

func TestRebuildLeaderboardPrunesStaleMembers(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)
	db := do.MustInvoke[*bun.DB](container)
	redisDB := do.MustInvokeNamed[redis.UniversalClient](container, "redis-db")
	service := do.MustInvoke[*ServiceLeaderboard](container)

	alice := createTestUser(t, db, "100", "alice", 100)
	bob := createTestUser(t, db, "200", "bob", 50)

	// a member with no backing row, as if its user had been removed
	_, err := redis_store.SetLeaderboard(ctx, redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
		UserId: 999,
		Score:  9000,
	})
	if err != nil {
		t.Fatalf("seed stale member: %v", err)
	}

	loaded, err := service.RebuildLeaderboard(ctx)
	if err != nil {
		t.Fatalf("rebuild leaderboard: %v", err)
	}
	if loaded != 2 {
		t.Fatalf("expected 2 users loaded, got %d", loaded)
	}

	count, err := redis_store.GetLeaderboardParticipantsCount(ctx, redisDB, LEADERBOARD_OVERALL)
	if err != nil {
		t.Fatalf("participants count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 mirror members after rebuild, got %d", count)
	}

	_, err = redis_store.GetRank(ctx, redisDB, LEADERBOARD_OVERALL, &models.User{ID: 999})
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected stale member gone, got %v", err)
	}

	fresh, err := datastore.FindUserByID(ctx, db, alice.ID)
	if err != nil {
		t.Fatalf("find alice: %v", err)
	}
	if fresh.Rank == nil || *fresh.Rank != 1 {
		t.Fatalf("expected alice rank 1, got %v", fresh.Rank)
	}

	fresh, err = datastore.FindUserByID(ctx, db, bob.ID)
	if err != nil {
		t.Fatalf("find bob: %v", err)
	}
	if fresh.Rank == nil || *fresh.Rank != 2 {
		t.Fatalf("expected bob rank 2, got %v", fresh.Rank)
	}
}

func TestGetUserRankReadsMirrorBeforeCounting(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)
	db := do.MustInvoke[*bun.DB](container)
	redisDB := do.MustInvokeNamed[redis.UniversalClient](container, "redis-db")
	serviceUser := do.MustInvoke[*ServiceUser](container)

	for userID, score := range map[int64]float64{11: 300, 12: 200, 13: 100} {
		_, err := redis_store.SetLeaderboard(ctx, redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
			UserId: userID,
			Score:  score,
		})
		if err != nil {
			t.Fatalf("seed mirror: %v", err)
		}
	}

	// no rank column and no table rows: the mirror must answer
	rank, err := serviceUser.GetUserRank(ctx, &models.User{ID: 12, TotalPoints: 200})
	if err != nil {
		t.Fatalf("get user rank: %v", err)
	}
	if rank != 2 {
		t.Fatalf("expected mirror rank 2, got %d", rank)
	}

	// a user absent from the mirror falls back to the table count
	createTestUser(t, db, "100", "alice", 300)
	outsider := createTestUser(t, db, "200", "bob", 150)

	rank, err = serviceUser.GetUserRank(ctx, outsider)
	if err != nil {
		t.Fatalf("get user rank fallback: %v", err)
	}
	if rank != 2 {
		t.Fatalf("expected fallback rank 2, got %d", rank)
	}
}

func TestRefreshUserKeepsCachedViewWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)
	db := do.MustInvoke[*bun.DB](container)
	service := do.MustInvoke[*ServiceLeaderboard](container)

	alice := createTestUser(t, db, "100", "alice", 100)

	if _, err := service.RebuildLeaderboard(ctx); err != nil {
		t.Fatalf("rebuild leaderboard: %v", err)
	}

	view, err := service.GetOverallLeaderboard(ctx, alice)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if view.Total != 1 || len(view.Leaderboard) != 1 {
		t.Fatalf("expected a single-user view, got total %d, rows %d", view.Total, len(view.Leaderboard))
	}

	createTestUser(t, db, "200", "bob", 50)

	// same score, the cached view must survive
	if err := service.RefreshUser(ctx, alice.ID); err != nil {
		t.Fatalf("refresh unchanged user: %v", err)
	}

	view, err = service.GetOverallLeaderboard(ctx, alice)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if view.Total != 1 {
		t.Fatalf("expected the cached view, got total %d", view.Total)
	}

	// a score change drops it
	if err := datastore.GrantPoints(ctx, db, alice.ID, 50, "tweet_submission"); err != nil {
		t.Fatalf("grant points: %v", err)
	}
	if err := service.RefreshUser(ctx, alice.ID); err != nil {
		t.Fatalf("refresh changed user: %v", err)
	}

	view, err = service.GetOverallLeaderboard(ctx, alice)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if view.Total != 2 || len(view.Leaderboard) != 2 {
		t.Fatalf("expected a fresh two-user view, got total %d, rows %d", view.Total, len(view.Leaderboard))
	}
	if view.Leaderboard[0].UserId != alice.ID || view.Leaderboard[0].Score != 150 {
		t.Fatalf("unexpected top row: %+v", view.Leaderboard[0])
	}
}
