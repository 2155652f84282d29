package datastore

import (
	"context"
	"errors"
	"time"

	"layeredge/internal/models"

	"github.com/uptrace/bun"
)

var (
	ErrQuestNotStarted   = errors.New("quest not started")
	ErrQuestNotCompleted = errors.New("quest not completed yet")
	ErrQuestNotRedirect  = errors.New("quest is not a redirect quest")
	ErrQuestPending      = errors.New("quest pending manual verification")
)

func CreateTableQuest(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Quest)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableUserQuest(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*models.UserQuest)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "user" ("id") ON DELETE CASCADE`).
		ForeignKey(`("quest_id") REFERENCES "quest" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserQuest)(nil)).Index("index_user_quest_user_id_quest_id").Unique().IfNotExists().Column("user_id", "quest_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetQuestByID(ctx context.Context, db bun.IDB, questID int64) (*models.Quest, error) {
	var quest models.Quest
	err := db.NewSelect().Model(&quest).Where("id = ?", questID).Where("enabled = ?", true).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

func GetEnabledQuests(ctx context.Context, db bun.IDB) ([]models.Quest, error) {
	var quests []models.Quest
	err := db.NewSelect().Model(&quests).Where("enabled = ?", true).Order("priority DESC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return quests, nil
}

func CreateQuest(ctx context.Context, db bun.IDB, quest *models.Quest) error {
	_, err := db.NewInsert().Model(quest).Exec(ctx)
	return err
}

func GetUserQuest(ctx context.Context, db bun.IDB, userID int64, questID int64) (*models.UserQuest, error) {
	var userQuest models.UserQuest
	err := db.NewSelect().Model(&userQuest).Where("user_id = ?", userID).Where("quest_id = ?", questID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &userQuest, nil
}

func GetUserQuests(ctx context.Context, db bun.IDB, userID int64) ([]*models.UserQuest, error) {
	var userQuests []*models.UserQuest
	err := db.NewSelect().Model(&userQuests).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return userQuests, nil
}

// StartQuest moves (user, quest) to in_progress. Starting a quest that
// already has a row returns that row unchanged.
func StartQuest(ctx context.Context, db *bun.DB, userID int64, questID int64) (*models.UserQuest, error) {
	now := time.Now()
	userQuest := &models.UserQuest{
		UserID:    userID,
		QuestID:   questID,
		Status:    models.QuestStatusInProgress,
		StartedAt: &now,
	}

	_, err := db.NewInsert().
		Model(userQuest).
		On("CONFLICT (user_id, quest_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return GetUserQuest(ctx, db, userID, questID)
}

// CompleteQuest moves in_progress to completed. The guarded update is
// the transition check: zero rows affected means the quest was not in
// in_progress.
func CompleteQuest(ctx context.Context, db *bun.DB, userID int64, questID int64) (*models.UserQuest, error) {
	res, err := db.NewUpdate().
		Model((*models.UserQuest)(nil)).
		Set("status = ?", models.QuestStatusCompleted).
		Set("completed_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("quest_id = ?", questID).
		Where("status = ?", models.QuestStatusInProgress).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		userQuest, err := GetUserQuest(ctx, db, userID, questID)
		if err != nil {
			return nil, ErrQuestNotStarted
		}
		// already past in_progress: report current state, no error
		if userQuest.Status == models.QuestStatusCompleted || userQuest.Status == models.QuestStatusClaimed {
			return userQuest, nil
		}
		return nil, ErrQuestNotStarted
	}

	return GetUserQuest(ctx, db, userID, questID)
}

// ClaimQuest grants the quest reward exactly once: the completed->claimed
// update and the point grant share one transaction, and the guarded
// update makes a second claim a no-op that returns the existing row.
func ClaimQuest(ctx context.Context, db *bun.DB, userID int64, quest *models.Quest) (*models.UserQuest, bool, error) {
	var awarded bool
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.UserQuest)(nil)).
			Set("status = ?", models.QuestStatusClaimed).
			Set("claimed_at = ?", time.Now()).
			Where("user_id = ?", userID).
			Where("quest_id = ?", quest.ID).
			Where("status = ?", models.QuestStatusCompleted).
			Exec(ctx)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			userQuest, err := GetUserQuest(ctx, tx, userID, quest.ID)
			if err != nil {
				return ErrQuestNotStarted
			}
			if userQuest.Status == models.QuestStatusClaimed {
				return nil
			}
			return ErrQuestNotCompleted
		}

		awarded = true
		return grantPoints(ctx, tx, userID, quest.Points, questReason(quest))
	})
	if err != nil {
		return nil, false, err
	}

	userQuest, err := GetUserQuest(ctx, db, userID, quest.ID)
	if err != nil {
		return nil, awarded, err
	}

	return userQuest, awarded, nil
}

// RedirectQuest collapses complete and claim into one step for
// redirect-type quests: whatever non-terminal state the pair is in, it
// lands on claimed and the reward is granted at most once.
func RedirectQuest(ctx context.Context, db *bun.DB, userID int64, quest *models.Quest) (*models.UserQuest, bool, error) {
	var awarded bool
	now := time.Now()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		userQuest := &models.UserQuest{
			UserID:      userID,
			QuestID:     quest.ID,
			Status:      models.QuestStatusClaimed,
			StartedAt:   &now,
			CompletedAt: &now,
			ClaimedAt:   &now,
		}
		res, err := tx.NewInsert().
			Model(userQuest).
			On("CONFLICT (user_id, quest_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			// row exists: promote it unless it already reached claimed
			res, err = tx.NewUpdate().
				Model((*models.UserQuest)(nil)).
				Set("status = ?", models.QuestStatusClaimed).
				Set("completed_at = ?", now).
				Set("claimed_at = ?", now).
				Where("user_id = ?", userID).
				Where("quest_id = ?", quest.ID).
				Where("status != ?", models.QuestStatusClaimed).
				Exec(ctx)
			if err != nil {
				return err
			}
			n, err = res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
		}

		awarded = true
		return grantPoints(ctx, tx, userID, quest.Points, questReason(quest))
	})
	if err != nil {
		return nil, false, err
	}

	userQuest, err := GetUserQuest(ctx, db, userID, quest.ID)
	if err != nil {
		return nil, awarded, err
	}

	return userQuest, awarded, nil
}

func questReason(quest *models.Quest) string {
	return "quest:" + quest.Title
}
