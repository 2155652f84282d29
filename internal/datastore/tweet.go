package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"layeredge/internal/models"

	"github.com/uptrace/bun"
)

var ErrDuplicateTweet = errors.New("tweet already submitted")

func CreateTableTweet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*models.Tweet)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "user" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Tweet)(nil)).Index("index_tweet_tweet_id").Unique().IfNotExists().Column("tweet_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Tweet)(nil)).Index("index_tweet_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindTweetByTweetID(ctx context.Context, db bun.IDB, tweetID string) (*models.Tweet, error) {
	var tweet models.Tweet
	err := db.NewSelect().Model(&tweet).Where("tweet_id = ?", tweetID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tweet, nil
}

func TweetExists(ctx context.Context, db bun.IDB, tweetID string) (bool, error) {
	exists, err := db.NewSelect().Model((*models.Tweet)(nil)).Where("tweet_id = ?", tweetID).Exists(ctx)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func GetTweetsByUser(ctx context.Context, db bun.IDB, userID int64, limit int, offset int) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	err := db.NewSelect().
		Model(&tweets).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tweets, nil
}

func GetRecentTweets(ctx context.Context, db bun.IDB, limit int, offset int) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	err := db.NewSelect().
		Model(&tweets).
		Relation("User").
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tweets, nil
}

// GetStalestTweets picks the refresh window for the monitoring cycle,
// least recently refreshed first.
func GetStalestTweets(ctx context.Context, db bun.IDB, limit int) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	err := db.NewSelect().
		Model(&tweets).
		OrderExpr("last_refreshed_at ASC NULLS FIRST").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tweets, nil
}

// RecordSubmission persists an accepted tweet and grants its points in a
// single transaction: tweet insert, user counter increment, ledger entry.
// A duplicate tweet_id fails the whole transaction with ErrDuplicateTweet.
func RecordSubmission(ctx context.Context, db *bun.DB, tweet *models.Tweet, reason string) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := TweetExists(ctx, tx, tweet.TweetID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateTweet
		}

		if _, err := tx.NewInsert().Model(tweet).Exec(ctx); err != nil {
			return err
		}

		return grantPoints(ctx, tx, tweet.UserID, tweet.TotalPoints, reason)
	})
}

// ApplyEngagement updates a stored tweet's counters after a refresh and
// adjusts the owner's aggregate by the delta between the new and the
// previously recorded score, not the new total.
func ApplyEngagement(ctx context.Context, db *bun.DB, tweetID string, engagement models.Engagement, newPoints int, content *string, reason string) (int, error) {
	var delta int
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tweet, err := FindTweetByTweetID(ctx, tx, tweetID)
		if err != nil {
			return err
		}

		delta = newPoints - tweet.TotalPoints
		now := time.Now()

		q := tx.NewUpdate().
			Model((*models.Tweet)(nil)).
			Set("likes = ?", engagement.Likes).
			Set("retweets = ?", engagement.Retweets).
			Set("replies = ?", engagement.Replies).
			Set("total_points = ?", newPoints).
			Set("last_refreshed_at = ?", now).
			Where("tweet_id = ?", tweetID)
		if content != nil {
			q = q.Set("content = ?", *content)
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}

		if delta == 0 {
			return nil
		}

		return grantPoints(ctx, tx, tweet.UserID, delta, reason)
	})
	if err != nil {
		return 0, err
	}

	return delta, nil
}

// TouchTweetRefreshedAt marks a refresh attempt whose counters did not
// change, so the staleness ordering moves on.
func TouchTweetRefreshedAt(ctx context.Context, db bun.IDB, tweetID string) error {
	_, err := db.NewUpdate().
		Model((*models.Tweet)(nil)).
		Set("last_refreshed_at = ?", time.Now()).
		Where("tweet_id = ?", tweetID).
		Exec(ctx)
	return err
}

func DeleteTweet(ctx context.Context, db bun.IDB, tweetID string) error {
	res, err := db.NewDelete().Model((*models.Tweet)(nil)).Where("tweet_id = ?", tweetID).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
