package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"layeredge/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := CreateTableUser(ctx, db); err != nil {
		t.Fatalf("create table user: %v", err)
	}
	if err := CreateTableTweet(ctx, db); err != nil {
		t.Fatalf("create table tweet: %v", err)
	}
	if err := CreateTablePointsHistory(ctx, db); err != nil {
		t.Fatalf("create table points_history: %v", err)
	}
	if err := CreateTableQuest(ctx, db); err != nil {
		t.Fatalf("create table quest: %v", err)
	}
	if err := CreateTableUserQuest(ctx, db); err != nil {
		t.Fatalf("create table user_quest: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func seedUser(t *testing.T, db *bun.DB, twitterID string, username string, points int, createdAt time.Time) *models.User {
	t.Helper()

	user := &models.User{
		TwitterID:   twitterID,
		Username:    username,
		DisplayName: username,
		TotalPoints: points,
		Monitored:   true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	user, err := CreateUser(context.Background(), db, user)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedQuest(t *testing.T, db *bun.DB, title string, questType models.QuestType, points int) *models.Quest {
	t.Helper()

	quest := &models.Quest{
		Title:   title,
		Type:    questType,
		Points:  points,
		Enabled: true,
	}
	if err := CreateQuest(context.Background(), db, quest); err != nil {
		t.Fatalf("seed quest %s: %v", title, err)
	}
	return quest
}
