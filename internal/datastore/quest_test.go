package datastore

import (
	"context"
	"errors"
	"testing"
	"time"

	"layeredge/internal/models"
)

func TestQuestLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Follow on X", models.QuestTypeFollow, 50)

	userQuest, err := StartQuest(ctx, db, user.ID, quest.ID)
	if err != nil {
		t.Fatalf("start quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusInProgress {
		t.Fatalf("expected in_progress, got %s", userQuest.Status)
	}

	userQuest, err = CompleteQuest(ctx, db, user.ID, quest.ID)
	if err != nil {
		t.Fatalf("complete quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusCompleted {
		t.Fatalf("expected completed, got %s", userQuest.Status)
	}

	userQuest, awarded, err := ClaimQuest(ctx, db, user.ID, quest)
	if err != nil {
		t.Fatalf("claim quest: %v", err)
	}
	if !awarded {
		t.Fatal("first claim must award points")
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed, got %s", userQuest.Status)
	}

	got, err := FindUserByID(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got.TotalPoints != 50 {
		t.Fatalf("expected 50 points, got %d", got.TotalPoints)
	}
}

func TestClaimQuestTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Follow on X", models.QuestTypeFollow, 50)

	if _, err := StartQuest(ctx, db, user.ID, quest.ID); err != nil {
		t.Fatalf("start quest: %v", err)
	}
	if _, err := CompleteQuest(ctx, db, user.ID, quest.ID); err != nil {
		t.Fatalf("complete quest: %v", err)
	}
	if _, _, err := ClaimQuest(ctx, db, user.ID, quest); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	userQuest, awarded, err := ClaimQuest(ctx, db, user.ID, quest)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if awarded {
		t.Fatal("second claim must not award points again")
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed, got %s", userQuest.Status)
	}

	got, err := FindUserByID(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got.TotalPoints != 50 {
		t.Fatalf("expected 50 points after double claim, got %d", got.TotalPoints)
	}

	sum, err := SumPointsHistory(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("sum points history: %v", err)
	}
	if sum != 50 {
		t.Fatalf("ledger sum %d, want 50", sum)
	}
}

func TestClaimQuestNotCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Follow on X", models.QuestTypeFollow, 50)

	if _, err := StartQuest(ctx, db, user.ID, quest.ID); err != nil {
		t.Fatalf("start quest: %v", err)
	}

	_, _, err := ClaimQuest(ctx, db, user.ID, quest)
	if !errors.Is(err, ErrQuestNotCompleted) {
		t.Fatalf("expected ErrQuestNotCompleted, got %v", err)
	}
}

func TestCompleteQuestNotStarted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Follow on X", models.QuestTypeFollow, 50)

	_, err := CompleteQuest(ctx, db, user.ID, quest.ID)
	if !errors.Is(err, ErrQuestNotStarted) {
		t.Fatalf("expected ErrQuestNotStarted, got %v", err)
	}
}

func TestRedirectQuestTwice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Visit the docs", models.QuestTypeRedirect, 20)

	userQuest, awarded, err := RedirectQuest(ctx, db, user.ID, quest)
	if err != nil {
		t.Fatalf("first redirect: %v", err)
	}
	if !awarded {
		t.Fatal("first redirect must award points")
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed, got %s", userQuest.Status)
	}

	_, awarded, err = RedirectQuest(ctx, db, user.ID, quest)
	if err != nil {
		t.Fatalf("second redirect: %v", err)
	}
	if awarded {
		t.Fatal("second redirect must not award points again")
	}

	got, err := FindUserByID(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if got.TotalPoints != 20 {
		t.Fatalf("expected 20 points, got %d", got.TotalPoints)
	}
}

func TestRedirectQuestAfterStart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "100", "alice", 0, time.Now())
	quest := seedQuest(t, db, "Visit the docs", models.QuestTypeRedirect, 20)

	// row already exists in a non-terminal state
	if _, err := StartQuest(ctx, db, user.ID, quest.ID); err != nil {
		t.Fatalf("start quest: %v", err)
	}

	userQuest, awarded, err := RedirectQuest(ctx, db, user.ID, quest)
	if err != nil {
		t.Fatalf("redirect: %v", err)
	}
	if !awarded {
		t.Fatal("redirect over in_progress row must still award once")
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed, got %s", userQuest.Status)
	}
}
