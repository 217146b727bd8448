package gamificationValidator

import (
	"time"

	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type AwardPointsBody struct {
	UserID uint   `json:"user_id" validate:"required,gt=0"`
	Points int64  `json:"points" validate:"required,ne=0"`
	Reason string `json:"reason" validate:"required,max=100"`
	Note   string `json:"note" validate:"max=500"`
}

func AwardPoints() fiber.Handler {
	return validators.Body[AwardPointsBody]("validatedPoints")
}

type AchievementBody struct {
	Code         string `json:"code" validate:"required,max=50"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	Metric       string `json:"metric" validate:"required,oneof=points_total enrollments messages"`
	Threshold    int64  `json:"threshold" validate:"required,gt=0"`
	RewardPoints int64  `json:"reward_points" validate:"gte=0"`
}

func Achievement() fiber.Handler {
	return validators.Body[AchievementBody]("validatedAchievement")
}

type ChallengeBody struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=2000"`
	RewardPoints int64     `json:"reward_points" validate:"required,gt=0"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func Challenge() fiber.Handler {
	return validators.Body[ChallengeBody]("validatedChallenge")
}

type ChallengeListQuery struct {
	Open bool `query:"open"`
}

func ChallengeList() fiber.Handler {
	return validators.Query[ChallengeListQuery]("validatedList")
}

type LeaderboardQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=all week"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

func Leaderboard() fiber.Handler {
	return validators.Query[LeaderboardQuery]("validatedLeaderboard")
}

type HistoryQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

func History() fiber.Handler {
	return validators.Query[HistoryQuery]("validatedHistory")
}
