package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrQuestLock = errors.New("quest action locked")

const (
	CONFIG_SERVER_MODE            = "SERVER_MODE"
	CONFIG_LEADERBOARD_LIMIT      = "LEADERBOARD_LIMIT"
	CONFIG_RANK_CHUNK_SIZE        = "RANK_CHUNK_SIZE"
	CONFIG_REFRESH_WINDOW_SIZE    = "REFRESH_WINDOW_SIZE"
	CONFIG_REFRESH_API_MIN_POINTS = "REFRESH_API_MIN_POINTS"
	CONFIG_REFRESH_API_SLOTS      = "REFRESH_API_SLOTS"

	SERVER_MODE_DEVELOPMENT = "development"
	SERVER_MODE_STAGING     = "staging"
	SERVER_MODE_PRODUCTION  = "production"

	LEADERBOARD_OVERALL = "overall"

	LEADERBOARD_DEFAULT_LIMIT = 20
	RANK_DEFAULT_CHUNK_SIZE   = 500

	// refresh policy: how many submissions one cycle touches, which
	// owners qualify for the authenticated path, how many authenticated
	// lookups a cycle may spend
	REFRESH_DEFAULT_WINDOW_SIZE    = 100
	REFRESH_DEFAULT_API_MIN_POINTS = 500
	REFRESH_DEFAULT_API_SLOTS      = 20
	REFRESH_BATCH_SIZE             = 10
	REFRESH_BATCH_DELAY            = 2 * time.Second

	CACHE_TTL_1_MIN   = 1 * time.Minute
	CACHE_TTL_5_MINS  = 5 * time.Minute
	CACHE_TTL_10_MINS = 10 * time.Minute
	CACHE_TTL_1_HOUR  = 1 * time.Hour

	SUBMIT_RATE_LIMIT_PER_MINUTE = 5
	CHAT_RATE_LIMIT_PER_MINUTE   = 10

	REASON_SUBMISSION = "tweet_submission"
	REASON_REFRESH    = "engagement_refresh"
)

// RequiredKeywords is the token set a submitted tweet must mention.
var RequiredKeywords = []string{"@layeredge", "$EDGEN", "layeredge"}

func LockKeyUserQuest(userID int64, questID int64) string {
	return fmt.Sprintf("lock:user-quest:%d:%d", userID, questID)
}

// db
func DBKeyMe(userID int64) string {
	return fmt.Sprintf("me:%d", userID)
}

func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyLeaderboardByUser(name string, userID int64, limit int) string {
	return fmt.Sprintf("leaderboard_by_user:%s:%d:%d", strings.ToLower(name), userID, limit)
}

func DBKeyRecentTweets(limit int, offset int) string {
	return fmt.Sprintf("tweets:recent:%d:%d", limit, offset)
}

func DBKeyUserTweets(userID int64, limit int, offset int) string {
	return fmt.Sprintf("tweets:user:%d:%d:%d", userID, limit, offset)
}

func DBKeyUserQuests(userID int64) string {
	return fmt.Sprintf("quests:user:%d", userID)
}

func LimitKeySubmit(userID int64) string {
	return fmt.Sprintf("limit:submit:%d", userID)
}

func LimitKeyChat(userID int64) string {
	return fmt.Sprintf("limit:chat:%d", userID)
}
