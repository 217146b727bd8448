package gamificationService

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"
	gamificationModels "tutorhub/models/gamification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrChallengeNotFound  = apperr.NotFound("Challenge not found!")
	ErrChallengeClosed    = apperr.Conflict("Challenge is not open!")
	ErrChallengeCompleted = apperr.Conflict("Challenge already completed!")
)

type ChallengeInput struct {
	Title        string
	Description  string
	RewardPoints int64
	StartsAt     time.Time
	EndsAt       time.Time
}

func (l *Ledger) CreateChallenge(ctx context.Context, in ChallengeInput) (*gamificationModels.Challenge, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "title is required"
	}
	if in.RewardPoints <= 0 {
		fields["reward_points"] = "reward_points must be positive"
	}
	if in.StartsAt.IsZero() {
		fields["starts_at"] = "starts_at is required"
	}
	if !in.EndsAt.After(in.StartsAt) {
		fields["ends_at"] = "ends_at must be after starts_at"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	challenge := gamificationModels.Challenge{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		RewardPoints: in.RewardPoints,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		IsActive:     true,
	}
	if err := l.DB.WithContext(ctx).Create(&challenge).Error; err != nil {
		return nil, apperr.Internal("Failed to create challenge!", err)
	}
	return &challenge, nil
}

// ListChallenges returns challenges newest first. openOnly limits the list to those
// accepting completions now.
func (l *Ledger) ListChallenges(ctx context.Context, openOnly bool) ([]gamificationModels.Challenge, error) {
	q := l.DB.WithContext(ctx).Order("starts_at DESC, id DESC")
	if openOnly {
		now := l.now()
		q = q.Where("is_active = ? AND starts_at <= ? AND ends_at > ?", true, now, now)
	}
	var challenges []gamificationModels.Challenge
	if err := q.Find(&challenges).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch challenges!", err)
	}
	return challenges, nil
}

// CompleteChallenge records that the user finished an open challenge and credits its
// reward. Each user completes a challenge at most once.
func (l *Ledger) CompleteChallenge(ctx context.Context, challengeID, userID uint) (*gamificationModels.ChallengeCompletion, error) {
	var completion gamificationModels.ChallengeCompletion
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge gamificationModels.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&challenge, challengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return apperr.Internal("Failed to load challenge!", err)
		}
		now := l.now()
		if !challenge.OpenAt(now) {
			return ErrChallengeClosed
		}

		var done int64
		if err := tx.Model(&gamificationModels.ChallengeCompletion{}).
			Where("challenge_id = ? AND user_id = ?", challenge.ID, userID).Count(&done).Error; err != nil {
			return apperr.Internal("Failed to check completion!", err)
		}
		if done > 0 {
			return ErrChallengeCompleted
		}

		completion = gamificationModels.ChallengeCompletion{ChallengeID: challenge.ID, UserID: userID, CompletedAt: now}
		if err := tx.Create(&completion).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrChallengeCompleted
			}
			return apperr.Internal("Failed to record completion!", err)
		}

		_, _, err := l.credit(tx, CreditInput{
			UserID:  userID,
			Points:  challenge.RewardPoints,
			Reason:  gamificationModels.ReasonChallenge,
			RefType: "challenge",
			RefID:   challenge.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// ExpireChallenges deactivates challenges whose period has ended.
func (l *Ledger) ExpireChallenges(ctx context.Context) (int64, error) {
	res := l.DB.WithContext(ctx).Model(&gamificationModels.Challenge{}).
		Where("is_active = ? AND ends_at <= ?", true, l.now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, apperr.Internal("Failed to expire challenges!", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("[GAMIFICATION] Deactivated %d ended challenges", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
