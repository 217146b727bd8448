package gamificationService

import (
	"context"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"

	"github.com/jinzhu/now"
)

const (
	PeriodAll  = "all"
	PeriodWeek = "week"

	// ProjectionSize is how many leaders a rebuild writes to the store.
	ProjectionSize = 100
)

var ErrInvalidPeriod = apperr.Validation("Period must be all or week!")

// weeks start on Monday, the same boundary the challenge rollover uses.
var weekConfig = &now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}

// WeekStart returns the beginning of the leaderboard week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	return weekConfig.With(t.UTC()).BeginningOfWeek().In(t.Location())
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank" gorm:"-"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// LeaderboardStore holds a precomputed leaderboard per period.
type LeaderboardStore interface {
	Replace(ctx context.Context, period string, entries []LeaderboardEntry) error
	Top(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error)
}

// Leaderboard returns the top users for a period. It reads the store when one is
// configured and populated and falls back to summing the ledger.
func (l *Ledger) Leaderboard(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodAll
	}
	if period != PeriodAll && period != PeriodWeek {
		return nil, ErrInvalidPeriod
	}
	if limit <= 0 || limit > ProjectionSize {
		limit = 10
	}

	if l.Store != nil {
		entries, err := l.Store.Top(ctx, period, limit)
		if err != nil {
			log.Printf("[GAMIFICATION] Leaderboard store read failed, using database: %v", err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}
	return l.computeLeaderboard(ctx, period, limit)
}

func (l *Ledger) computeLeaderboard(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	q := l.DB.WithContext(ctx).Table("point_entries AS p").
		Select("p.user_id AS user_id, u.name AS name, SUM(p.points) AS points").
		Joins("JOIN users u ON u.id = p.user_id AND u.deleted_at IS NULL").
		Where("p.deleted_at IS NULL")
	if period == PeriodWeek {
		q = q.Where("p.created_at >= ?", WeekStart(l.now()))
	}

	var entries []LeaderboardEntry
	err := q.Group("p.user_id, u.name").
		Order("points DESC, p.user_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, apperr.Internal("Failed to compute leaderboard!", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// RebuildLeaderboard recomputes every period into the store. It is a no-op without one.
func (l *Ledger) RebuildLeaderboard(ctx context.Context) error {
	if l.Store == nil {
		return nil
	}
	for _, period := range []string{PeriodAll, PeriodWeek} {
		entries, err := l.computeLeaderboard(ctx, period, ProjectionSize)
		if err != nil {
			return err
		}
		if err := l.Store.Replace(ctx, period, entries); err != nil {
			return apperr.Internal("Failed to store leaderboard!", err)
		}
	}
	return nil
}
