package datastore

import (
	"context"
	"testing"
	"time"
)

func TestRecomputeRanksTieBreak(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	early := seedUser(t, db, "1", "early", 100, base)
	late := seedUser(t, db, "2", "late", 100, base.Add(time.Hour))
	third := seedUser(t, db, "3", "third", 50, base)

	count, err := RecomputeRanks(ctx, db, 2)
	if err != nil {
		t.Fatalf("recompute ranks: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 users ranked, got %d", count)
	}

	want := map[int64]int{early.ID: 1, late.ID: 2, third.ID: 3}
	for id, rank := range want {
		user, err := FindUserByID(ctx, db, id)
		if err != nil {
			t.Fatalf("find user %d: %v", id, err)
		}
		if user.Rank == nil || *user.Rank != rank {
			t.Fatalf("user %s: expected rank %d, got %v", user.Username, rank, user.Rank)
		}
	}
}

func TestComputeUserRankFallback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	seedUser(t, db, "1", "top", 100, now)
	mid := seedUser(t, db, "2", "mid", 60, now)
	seedUser(t, db, "3", "low", 10, now)

	rank, err := ComputeUserRank(ctx, db, mid)
	if err != nil {
		t.Fatalf("compute rank: %v", err)
	}
	if rank != 2 {
		t.Fatalf("expected rank 2, got %d", rank)
	}
}

func TestGetTopUsersOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, db, "1", "late", 100, base.Add(time.Hour))
	seedUser(t, db, "2", "early", 100, base)
	seedUser(t, db, "3", "low", 10, base)

	users, err := GetTopUsers(ctx, db, 10, 0)
	if err != nil {
		t.Fatalf("get top users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[0].Username != "early" || users[1].Username != "late" || users[2].Username != "low" {
		t.Fatalf("unexpected order: %s, %s, %s", users[0].Username, users[1].Username, users[2].Username)
	}
}

func TestFindUserByUsernameCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, "1", "Alice", 0, time.Now())

	user, err := FindUserByUsername(ctx, db, "aLiCe")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if user.Username != "Alice" {
		t.Fatalf("expected Alice, got %s", user.Username)
	}
}
