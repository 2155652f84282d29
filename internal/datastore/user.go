package datastore

import (
	"context"
	"strings"
	"time"

	"layeredge/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_twitter_id").Unique().IfNotExists().Column("twitter_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_username").IfNotExists().Column("username").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_total_points").IfNotExists().Column("total_points").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindUserByID(ctx context.Context, db bun.IDB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByTwitterID(ctx context.Context, db bun.IDB, twitterID string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("twitter_id = ?", twitterID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// if the user is not found, return an error
func FindUserByUsername(ctx context.Context, db bun.IDB, username string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("lower(username) = ?", strings.ToLower(username)).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func CreateUser(ctx context.Context, db bun.IDB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func EditUser(ctx context.Context, db bun.IDB, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()
	_, err := db.NewUpdate().Model(user).WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func CountUsers(ctx context.Context, db bun.IDB) (int, error) {
	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ComputeUserRank is the fallback used when the cached rank column is
// stale: the number of users with strictly more points, plus one.
func ComputeUserRank(ctx context.Context, db bun.IDB, user *models.User) (int, error) {
	count, err := db.NewSelect().
		Model((*models.User)(nil)).
		Where("total_points > ?", user.TotalPoints).
		Count(ctx)
	if err != nil {
		return 0, err
	}

	return count + 1, nil
}

// RecomputeRanks is the source of truth for the rank column. Users are
// ordered by total_points descending, ties broken by the earlier
// created_at. Updates run chunked to bound transaction size.
func RecomputeRanks(ctx context.Context, db *bun.DB, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = 500
	}

	offset := 0
	updated := 0
	for {
		var users []*models.User
		err := db.NewSelect().
			Model(&users).
			Column("id").
			OrderExpr("total_points DESC, created_at ASC").
			Limit(chunkSize).
			Offset(offset).
			Scan(ctx)
		if err != nil {
			return updated, err
		}

		if len(users) == 0 {
			return updated, nil
		}

		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for i, user := range users {
				rank := offset + i + 1
				if _, err := tx.NewUpdate().
					Model((*models.User)(nil)).
					Set("rank = ?", rank).
					Where("id = ?", user.ID).
					Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return updated, err
		}

		updated += len(users)
		offset += chunkSize
	}
}

// GetTopUsers returns the leaderboard page straight from the user table.
func GetTopUsers(ctx context.Context, db bun.IDB, limit int, offset int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().
		Model(&users).
		OrderExpr("total_points DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// GetMonitoredUsers returns users eligible for the authenticated refresh
// path, best first.
func GetMonitoredUsers(ctx context.Context, db bun.IDB, minPoints int, limit int) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().
		Model(&users).
		Where("monitored = ?", true).
		Where("total_points >= ?", minPoints).
		OrderExpr("total_points DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}
