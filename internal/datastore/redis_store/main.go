package redis_store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"layeredge/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	OAUTH_STATE_TTL   = 10 * time.Minute
	RATE_LIMIT_MARGIN = 5 * time.Second
)

func dbKeyLeaderboard(name string) string {
	return fmt.Sprintf("leaderboard:%s", strings.ToLower(name))
}

func dbKeyOAuthState(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

func dbKeyRateLimitReset(source string) string {
	return fmt.Sprintf("ratelimit:reset:%s", source)
}

func SetLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, v *models.LeaderboardItem) (*models.LeaderboardItem, error) {
	err := cmd.ZAdd(ctx, dbKeyLeaderboard(name), redis.Z{
		Score:  v.Score,
		Member: v.UserId,
	}).Err()

	if err != nil {
		return nil, err
	}

	return v, nil
}

func ClearLeaderboard(ctx context.Context, cmd redis.Cmdable, name string) error {
	return cmd.Del(ctx, dbKeyLeaderboard(name)).Err()
}

func GetLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, num int) ([]*models.LeaderboardItem, error) {
	// num always greater than 0
	items, err := cmd.ZRevRangeWithScores(ctx, dbKeyLeaderboard(name), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	var results []*models.LeaderboardItem
	for i, item := range items {
		id, _ := strconv.ParseInt(item.Member.(string), 10, 64)
		results = append(results, &models.LeaderboardItem{
			UserId: id,
			Score:  item.Score,
			Rank:   i + 1,
		})
	}

	return results, nil
}

func GetRank(ctx context.Context, cmd redis.Cmdable, name string, user *models.User) (int64, error) {
	rank, err := cmd.ZRevRank(ctx, dbKeyLeaderboard(name), strconv.FormatInt(user.ID, 10)).Result()
	if err != nil {
		return -1, err
	}

	return rank, nil
}

func GetScore(ctx context.Context, cmd redis.Cmdable, name string, user *models.User) (float64, error) {
	score, err := cmd.ZScore(ctx, dbKeyLeaderboard(name), strconv.FormatInt(user.ID, 10)).Result()
	if err != nil {
		return -1, err
	}

	return score, nil
}

func GetLeaderboardParticipantsCount(ctx context.Context, cmd redis.Cmdable, name string) (int64, error) {
	count, err := cmd.ZCard(ctx, dbKeyLeaderboard(name)).Result()
	if err != nil {
		return 0, err
	}

	return count, nil
}

// OAuthState carries the PKCE verifier across the login round trip.
type OAuthState struct {
	Verifier    string `msgpack:"verifier"`
	RedirectURI string `msgpack:"redirect_uri"`
}

func SetOAuthState(ctx context.Context, cmd redis.Cmdable, state string, v *OAuthState) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyOAuthState(state), b, OAUTH_STATE_TTL).Err()
}

// PopOAuthState consumes the state, a state can only be redeemed once.
func PopOAuthState(ctx context.Context, cmd redis.Cmdable, state string) (*OAuthState, error) {
	b, err := cmd.GetDel(ctx, dbKeyOAuthState(state)).Bytes()
	if err != nil {
		return nil, err
	}

	var v OAuthState
	err = msgpack.Unmarshal(b, &v)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// SetRateLimitReset remembers the upstream reset time so refresh cycles
// skip the authenticated path until it passes.
func SetRateLimitReset(ctx context.Context, cmd redis.Cmdable, source string, reset time.Time) error {
	ttl := time.Until(reset) + RATE_LIMIT_MARGIN
	if ttl <= 0 {
		return nil
	}

	return cmd.Set(ctx, dbKeyRateLimitReset(source), reset.Unix(), ttl).Err()
}

func IsRateLimited(ctx context.Context, cmd redis.Cmdable, source string) (bool, error) {
	_, err := cmd.Get(ctx, dbKeyRateLimitReset(source)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
