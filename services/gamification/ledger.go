// Package gamificationService keeps the points ledger and everything derived from it:
// achievements, challenge completions and the leaderboard.
package gamificationService

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"
	"tutorhub/models"
	chatModels "tutorhub/models/chat"
	enrollmentModels "tutorhub/models/enrollment"
	gamificationModels "tutorhub/models/gamification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EnrollmentPoints int64 = 50
	MessagePoints    int64 = 1
)

var (
	ErrUserNotFound = apperr.NotFound("User not found!")
	ErrZeroPoints   = apperr.Validation("Points must not be zero!")
	ErrNoReason     = apperr.Validation("Reason is required!")
)

type Ledger struct {
	DB    *gorm.DB
	Store LeaderboardStore
	Now   func() time.Time
}

func NewLedger(db *gorm.DB, store LeaderboardStore) *Ledger {
	return &Ledger{DB: db, Store: store}
}

type CreditInput struct {
	UserID   uint
	Points   int64
	Reason   string
	RefType  string
	RefID    uint
	Metadata map[string]interface{}
}

// Credit appends a ledger entry and awards any achievements it unlocks. Negative points
// deduct.
func (l *Ledger) Credit(ctx context.Context, in CreditInput) (*gamificationModels.PointEntry, []gamificationModels.Achievement, error) {
	var (
		entry  *gamificationModels.PointEntry
		earned []gamificationModels.Achievement
	)
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, earned, err = l.credit(tx, in)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	for _, a := range earned {
		log.Printf("[GAMIFICATION] User %d earned achievement %s", in.UserID, a.Code)
	}
	return entry, earned, nil
}

func (l *Ledger) credit(tx *gorm.DB, in CreditInput) (*gamificationModels.PointEntry, []gamificationModels.Achievement, error) {
	if in.Points == 0 {
		return nil, nil, ErrZeroPoints
	}
	in.Reason = strings.ToUpper(strings.TrimSpace(in.Reason))
	if in.Reason == "" {
		return nil, nil, ErrNoReason
	}

	var user models.User
	if err := tx.Select("id").First(&user, in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, apperr.Internal("Failed to load user!", err)
	}

	entry := gamificationModels.PointEntry{
		UserID:   in.UserID,
		Points:   in.Points,
		Reason:   in.Reason,
		RefType:  in.RefType,
		RefID:    in.RefID,
		Metadata: datatypes.JSONMap(in.Metadata),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, nil, apperr.Internal("Failed to record points!", err)
	}

	earned, err := l.evaluate(tx, in.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &entry, earned, nil
}

// evaluate awards every achievement the user now qualifies for. Rewards are ledger
// credits themselves, so it repeats until a pass awards nothing.
func (l *Ledger) evaluate(tx *gorm.DB, userID uint) ([]gamificationModels.Achievement, error) {
	var earned []gamificationModels.Achievement
	for {
		var pending []gamificationModels.Achievement
		owned := tx.Model(&gamificationModels.UserAchievement{}).Select("achievement_id").Where("user_id = ?", userID)
		if err := tx.Where("id NOT IN (?)", owned).Order("id").Find(&pending).Error; err != nil {
			return nil, apperr.Internal("Failed to load achievements!", err)
		}
		if len(pending) == 0 {
			return earned, nil
		}

		stats, err := userStats(tx, userID)
		if err != nil {
			return nil, err
		}

		awarded := false
		for _, a := range pending {
			criteria := a.Criteria.Data()
			if criteria.Threshold <= 0 || stats[criteria.Metric] < criteria.Threshold {
				continue
			}
			if err := tx.Create(&gamificationModels.UserAchievement{
				UserID:        userID,
				AchievementID: a.ID,
				AwardedAt:     l.now(),
			}).Error; err != nil {
				return nil, apperr.Internal("Failed to award achievement!", err)
			}
			if a.RewardPoints != 0 {
				if err := tx.Create(&gamificationModels.PointEntry{
					UserID:  userID,
					Points:  a.RewardPoints,
					Reason:  gamificationModels.ReasonAchievement,
					RefType: "achievement",
					RefID:   a.ID,
				}).Error; err != nil {
					return nil, apperr.Internal("Failed to record points!", err)
				}
			}
			earned = append(earned, a)
			awarded = true
		}
		if !awarded {
			return earned, nil
		}
	}
}

func userStats(tx *gorm.DB, userID uint) (map[string]int64, error) {
	var points int64
	if err := tx.Model(&gamificationModels.PointEntry{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").Scan(&points).Error; err != nil {
		return nil, apperr.Internal("Failed to sum points!", err)
	}
	var enrollments int64
	if err := tx.Model(&enrollmentModels.CourseEnrollment{}).Where("student_id = ?", userID).Count(&enrollments).Error; err != nil {
		return nil, apperr.Internal("Failed to count enrollments!", err)
	}
	var messages int64
	if err := tx.Model(&chatModels.Message{}).Where("sender_id = ?", userID).Count(&messages).Error; err != nil {
		return nil, apperr.Internal("Failed to count messages!", err)
	}
	return map[string]int64{
		gamificationModels.MetricPointsTotal: points,
		gamificationModels.MetricEnrollments: enrollments,
		gamificationModels.MetricMessages:    messages,
	}, nil
}

// AwardEnrollment credits a student for a new enrollment.
func (l *Ledger) AwardEnrollment(ctx context.Context, studentID, enrollmentID uint) error {
	_, _, err := l.Credit(ctx, CreditInput{
		UserID:  studentID,
		Points:  EnrollmentPoints,
		Reason:  gamificationModels.ReasonEnrollment,
		RefType: "enrollment",
		RefID:   enrollmentID,
	})
	return err
}

// AwardMessage credits the sender of a chat message.
func (l *Ledger) AwardMessage(ctx context.Context, userID, messageID uint) error {
	_, _, err := l.Credit(ctx, CreditInput{
		UserID:  userID,
		Points:  MessagePoints,
		Reason:  gamificationModels.ReasonMessage,
		RefType: "message",
		RefID:   messageID,
	})
	return err
}

// Total is the sum of the user's ledger entries.
func (l *Ledger) Total(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := l.DB.WithContext(ctx).Model(&gamificationModels.PointEntry{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").Scan(&total).Error
	if err != nil {
		return 0, apperr.Internal("Failed to sum points!", err)
	}
	return total, nil
}

// History returns the user's most recent ledger entries.
func (l *Ledger) History(ctx context.Context, userID uint, limit int) ([]gamificationModels.PointEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []gamificationModels.PointEntry
	if err := l.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch points history!", err)
	}
	return entries, nil
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
