package datastore

import (
	"context"

	"layeredge/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePointsHistory(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PointsHistory)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointsHistory)(nil)).Index("index_points_history_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// grantPoints is the single point-granting primitive: it bumps the user
// aggregate and appends the matching ledger entry in the caller's
// transaction. Every mutation of total_points goes through here.
func grantPoints(ctx context.Context, tx bun.Tx, userID int64, points int, reason string) error {
	if _, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("total_points = total_points + ?", points).
		Where("id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	entry := &models.PointsHistory{
		UserID: userID,
		Points: points,
		Reason: reason,
	}
	if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
		return err
	}

	return nil
}

// GrantPoints awards standalone points (administrative corrections and
// the like) through the same ledger primitive.
func GrantPoints(ctx context.Context, db *bun.DB, userID int64, points int, reason string) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return grantPoints(ctx, tx, userID, points, reason)
	})
}

func GetPointsHistory(ctx context.Context, db bun.IDB, userID int64, limit int, offset int) ([]*models.PointsHistory, error) {
	var entries []*models.PointsHistory
	err := db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SumPointsHistory reconciles the ledger against user.total_points.
func SumPointsHistory(ctx context.Context, db bun.IDB, userID int64) (int, error) {
	var total int
	err := db.NewSelect().
		Model((*models.PointsHistory)(nil)).
		ColumnExpr("coalesce(sum(points), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
