// Package cache keeps read projections in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	gamificationService "tutorhub/services/gamification"

	"github.com/redis/go-redis/v9"
)

const (
	keyLeaderboardScores = "tutorhub:leaderboard:scores:"
	keyLeaderboardInfo   = "tutorhub:leaderboard:info:"

	// A projection outlives one missed hourly rebuild, then readers fall back to SQL.
	leaderboardTTL = 150 * time.Minute
)

// Connect parses a redis:// URL and checks the server answers. An empty URL returns nil.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Leaderboard stores each period as a sorted set of user id to points plus a hash of
// entry details.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

var _ gamificationService.LeaderboardStore = (*Leaderboard)(nil)

// Replace swaps the whole period atomically.
func (l *Leaderboard) Replace(ctx context.Context, period string, entries []gamificationService.LeaderboardEntry) error {
	scoresKey := keyLeaderboardScores + period
	infoKey := keyLeaderboardInfo + period

	members := make([]redis.Z, 0, len(entries))
	info := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		id := strconv.FormatUint(uint64(e.UserID), 10)
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal leaderboard entry: %w", err)
		}
		members = append(members, redis.Z{Score: float64(e.Points), Member: id})
		info[id] = data
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scoresKey, infoKey)
		if len(members) == 0 {
			return nil
		}
		pipe.ZAdd(ctx, scoresKey, members...)
		pipe.HSet(ctx, infoKey, info)
		pipe.Expire(ctx, scoresKey, leaderboardTTL)
		pipe.Expire(ctx, infoKey, leaderboardTTL)
		return nil
	})
	return err
}

// Top returns the highest scores first. Ties keep the order Redis stores them in.
func (l *Leaderboard) Top(ctx context.Context, period string, limit int) ([]gamificationService.LeaderboardEntry, error) {
	ids, err := l.client.ZRevRange(ctx, keyLeaderboardScores+period, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := l.client.HMGet(ctx, keyLeaderboardInfo+period, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard info: %w", err)
	}

	entries := make([]gamificationService.LeaderboardEntry, 0, len(ids))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e gamificationService.LeaderboardEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry %s: %w", ids[i], err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, nil
}
