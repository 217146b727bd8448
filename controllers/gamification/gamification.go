package gamificationController

import (
	"log"

	"tutorhub/middleware"
	gamificationService "tutorhub/services/gamification"
	gamificationValidator "tutorhub/validators/gamification"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Ledger *gamificationService.Ledger
}

func New(ledger *gamificationService.Ledger) *Controller {
	return &Controller{Ledger: ledger}
}

// AwardPoints lets staff credit or deduct points by hand.
func (ctl *Controller) AwardPoints(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedPoints").(*gamificationValidator.AwardPointsBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	metadata := map[string]interface{}{"awarded_by": actor.ID}
	if reqData.Note != "" {
		metadata["note"] = reqData.Note
	}
	entry, earned, err := ctl.Ledger.Credit(c.UserContext(), gamificationService.CreditInput{
		UserID:   reqData.UserID,
		Points:   reqData.Points,
		Reason:   reqData.Reason,
		RefType:  "manual",
		Metadata: metadata,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}

	log.Printf("[GAMIFICATION] %s %d credited %d points to user %d", actor.Role, actor.ID, reqData.Points, reqData.UserID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Points awarded successfully!", fiber.Map{
		"entry":        entry,
		"achievements": earned,
	})
}

func (ctl *Controller) CreateAchievement(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAchievement").(*gamificationValidator.AchievementBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	achievement, err := ctl.Ledger.CreateAchievement(c.UserContext(), gamificationService.AchievementInput{
		Code:         reqData.Code,
		Title:        reqData.Title,
		Description:  reqData.Description,
		Metric:       reqData.Metric,
		Threshold:    reqData.Threshold,
		RewardPoints: reqData.RewardPoints,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Achievement created successfully!", achievement)
}

func (ctl *Controller) ListAchievements(c *fiber.Ctx) error {
	achievements, err := ctl.Ledger.ListAchievements(c.UserContext())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievements fetched successfully!", achievements)
}

func (ctl *Controller) DeleteAchievement(c *fiber.Ctx) error {
	achievementId, _ := c.Locals("id").(uint)
	if err := ctl.Ledger.DeleteAchievement(c.UserContext(), achievementId); err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievement deleted successfully!", nil)
}

func (ctl *Controller) CreateChallenge(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedChallenge").(*gamificationValidator.ChallengeBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	challenge, err := ctl.Ledger.CreateChallenge(c.UserContext(), gamificationService.ChallengeInput{
		Title:        reqData.Title,
		Description:  reqData.Description,
		RewardPoints: reqData.RewardPoints,
		StartsAt:     reqData.StartsAt,
		EndsAt:       reqData.EndsAt,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Challenge created successfully!", challenge)
}

func (ctl *Controller) ListChallenges(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*gamificationValidator.ChallengeListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	challenges, err := ctl.Ledger.ListChallenges(c.UserContext(), reqData.Open)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Challenges fetched successfully!", challenges)
}

func (ctl *Controller) CompleteChallenge(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	challengeId, _ := c.Locals("id").(uint)

	completion, err := ctl.Ledger.CompleteChallenge(c.UserContext(), challengeId, userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Challenge completed successfully!", completion)
}

func (ctl *Controller) Leaderboard(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLeaderboard").(*gamificationValidator.LeaderboardQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	entries, err := ctl.Ledger.Leaderboard(c.UserContext(), reqData.Period, reqData.Limit)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched successfully!", entries)
}

func (ctl *Controller) MyPoints(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedHistory").(*gamificationValidator.HistoryQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	total, err := ctl.Ledger.Total(c.UserContext(), userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	history, err := ctl.Ledger.History(c.UserContext(), userId, reqData.Limit)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Points fetched successfully!", fiber.Map{
		"total":   total,
		"history": history,
	})
}

func (ctl *Controller) MyAchievements(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	achievements, err := ctl.Ledger.UserAchievements(c.UserContext(), userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievements fetched successfully!", achievements)
}
