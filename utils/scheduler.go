package utils

import (
	"context"
	"log"
	"time"

	gamificationService "tutorhub/services/gamification"

	"github.com/robfig/cron/v3"
)

func logScheduler(message string, args ...interface{}) {
	log.Printf("[SCHEDULER %s] "+message, append([]interface{}{time.Now().Format(time.RFC3339)}, args...)...)
}

// StartLeaderboardScheduler rebuilds the leaderboard projection at the top of every hour.
func StartLeaderboardScheduler(c *cron.Cron, ledger *gamificationService.Ledger) {
	c.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ledger.RebuildLeaderboard(ctx); err != nil {
			logScheduler("Leaderboard rebuild failed: %v", err)
			return
		}
		logScheduler("Leaderboard projection rebuilt")
	})
	logScheduler("Leaderboard scheduler started - runs hourly")
}

// StartChallengeScheduler closes ended challenges every Monday at midnight.
func StartChallengeScheduler(c *cron.Cron, ledger *gamificationService.Ledger) {
	c.AddFunc("0 0 * * 1", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := ledger.ExpireChallenges(ctx)
		if err != nil {
			logScheduler("Challenge rollover failed: %v", err)
			return
		}
		logScheduler("Challenge rollover deactivated %d challenge(s)", n)
	})
	logScheduler("Challenge scheduler started - runs Mondays at 00:00")
}

// InitializeSchedulers starts every background job. The caller stops the returned cron.
func InitializeSchedulers(ledger *gamificationService.Ledger) *cron.Cron {
	logScheduler("Initializing schedulers...")

	c := cron.New(cron.WithLocation(time.UTC))

	if ledger.Store != nil {
		StartLeaderboardScheduler(c, ledger)
	}
	StartChallengeScheduler(c, ledger)

	c.Start()

	logScheduler("All schedulers initialized successfully")
	return c
}
