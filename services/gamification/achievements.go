package gamificationService

import (
	"context"
	"errors"
	"strings"
	"time"

	"tutorhub/apperr"
	gamificationModels "tutorhub/models/gamification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAchievementNotFound = apperr.NotFound("Achievement not found!")
	ErrDuplicateCode       = apperr.Conflict("Achievement code already exists!")
)

var achievementMetrics = []string{
	gamificationModels.MetricPointsTotal,
	gamificationModels.MetricEnrollments,
	gamificationModels.MetricMessages,
}

type AchievementInput struct {
	Code         string
	Title        string
	Description  string
	Metric       string
	Threshold    int64
	RewardPoints int64
}

func (in AchievementInput) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(in.Code) == "" {
		fields["code"] = "code is required"
	}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "title is required"
	}
	found := false
	for _, m := range achievementMetrics {
		if m == in.Metric {
			found = true
		}
	}
	if !found {
		fields["metric"] = "metric must be one of " + strings.Join(achievementMetrics, ", ")
	}
	if in.Threshold <= 0 {
		fields["threshold"] = "threshold must be positive"
	}
	if in.RewardPoints < 0 {
		fields["reward_points"] = "reward_points must not be negative"
	}
	return fields
}

func (l *Ledger) CreateAchievement(ctx context.Context, in AchievementInput) (*gamificationModels.Achievement, error) {
	if fields := in.validate(); len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}
	achievement := gamificationModels.Achievement{
		Code:         strings.ToLower(strings.TrimSpace(in.Code)),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Criteria:     datatypes.NewJSONType(gamificationModels.Criteria{Metric: in.Metric, Threshold: in.Threshold}),
		RewardPoints: in.RewardPoints,
	}
	if err := l.DB.WithContext(ctx).Create(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, apperr.Internal("Failed to create achievement!", err)
	}
	return &achievement, nil
}

func (l *Ledger) ListAchievements(ctx context.Context) ([]gamificationModels.Achievement, error) {
	var achievements []gamificationModels.Achievement
	if err := l.DB.WithContext(ctx).Order("id").Find(&achievements).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch achievements!", err)
	}
	return achievements, nil
}

// DeleteAchievement removes the definition and every award of it.
func (l *Ledger) DeleteAchievement(ctx context.Context, id uint) error {
	return l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&gamificationModels.Achievement{}, id)
		if res.Error != nil {
			return apperr.Internal("Failed to delete achievement!", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAchievementNotFound
		}
		if err := tx.Unscoped().Where("achievement_id = ?", id).Delete(&gamificationModels.UserAchievement{}).Error; err != nil {
			return apperr.Internal("Failed to delete achievement awards!", err)
		}
		return nil
	})
}

// EarnedAchievement is an achievement together with when the user earned it.
type EarnedAchievement struct {
	gamificationModels.Achievement
	AwardedAt time.Time `json:"awarded_at"`
}

func (l *Ledger) UserAchievements(ctx context.Context, userID uint) ([]EarnedAchievement, error) {
	var awards []gamificationModels.UserAchievement
	db := l.DB.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Order("awarded_at, id").Find(&awards).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch achievements!", err)
	}
	if len(awards) == 0 {
		return []EarnedAchievement{}, nil
	}

	ids := make([]uint, 0, len(awards))
	for _, a := range awards {
		ids = append(ids, a.AchievementID)
	}
	var achievements []gamificationModels.Achievement
	if err := db.Where("id IN ?", ids).Find(&achievements).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch achievements!", err)
	}
	byID := make(map[uint]gamificationModels.Achievement, len(achievements))
	for _, a := range achievements {
		byID[a.ID] = a
	}

	earned := make([]EarnedAchievement, 0, len(awards))
	for _, award := range awards {
		if a, ok := byID[award.AchievementID]; ok {
			earned = append(earned, EarnedAchievement{Achievement: a, AwardedAt: award.AwardedAt})
		}
	}
	return earned, nil
}
