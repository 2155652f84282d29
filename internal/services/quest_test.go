package services

import (
	"context"
	"testing"

	"layeredge/internal/datastore"
	"layeredge/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

func TestVerificationQuestLifecycle(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)
	db := do.MustInvoke[*bun.DB](container)
	service := do.MustInvoke[*ServiceQuest](container)

	user := createTestUser(t, db, "100", "alice", 0)
	quest := createTestQuest(t, db, "Post about $EDGEN", models.QuestTypePost, 100, true)

	userQuest, err := service.Start(ctx, user, quest.ID)
	if err != nil {
		t.Fatalf("start quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusInProgress {
		t.Fatalf("expected in_progress after start, got %s", userQuest.Status)
	}

	// evidence submission does not complete a manually verified quest
	userQuest, err = service.Submit(ctx, user, quest.ID)
	if err != nil {
		t.Fatalf("submit quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusInProgress {
		t.Fatalf("expected in_progress after submit, got %s", userQuest.Status)
	}

	if _, err := service.Claim(ctx, user, quest.ID); err == nil {
		t.Fatal("expected claim to fail before verification")
	}
	row, err := datastore.GetUserQuest(ctx, db, user.ID, quest.ID)
	if err != nil {
		t.Fatalf("get user quest: %v", err)
	}
	if row.Status != models.QuestStatusInProgress {
		t.Fatalf("expected in_progress after rejected claim, got %s", row.Status)
	}

	userQuest, err = service.Verify(ctx, user.ID, quest.ID)
	if err != nil {
		t.Fatalf("verify quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusCompleted {
		t.Fatalf("expected completed after verification, got %s", userQuest.Status)
	}

	userQuest, err = service.Claim(ctx, user, quest.ID)
	if err != nil {
		t.Fatalf("claim quest: %v", err)
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed, got %s", userQuest.Status)
	}

	fresh, err := datastore.FindUserByID(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fresh.TotalPoints != 100 {
		t.Fatalf("expected 100 points after claim, got %d", fresh.TotalPoints)
	}

	// claiming again must not double-award
	userQuest, err = service.Claim(ctx, user, quest.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if userQuest.Status != models.QuestStatusClaimed {
		t.Fatalf("expected claimed on second claim, got %s", userQuest.Status)
	}

	fresh, err = datastore.FindUserByID(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fresh.TotalPoints != 100 {
		t.Fatalf("expected points unchanged after second claim, got %d", fresh.TotalPoints)
	}
}

func TestVerifyQuestNotStarted(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)
	db := do.MustInvoke[*bun.DB](container)
	service := do.MustInvoke[*ServiceQuest](container)

	user := createTestUser(t, db, "100", "alice", 0)
	quest := createTestQuest(t, db, "Post about $EDGEN", models.QuestTypePost, 100, true)

	if _, err := service.Verify(ctx, user.ID, quest.ID); err == nil {
		t.Fatal("expected verification of an unstarted quest to fail")
	}
}
