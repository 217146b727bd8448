package authController

import (
	"errors"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"
	"tutorhub/config"
	"tutorhub/middleware"
	"tutorhub/models"
	"tutorhub/utils"
	authValidator "tutorhub/validators/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	maxFailedLogins = 3
	blockDuration   = 5 * time.Minute
	failureWindow   = 15 * time.Minute
)

type Controller struct {
	DB  *gorm.DB
	Now func() time.Time
}

func New(db *gorm.DB) *Controller {
	return &Controller{DB: db, Now: time.Now}
}

func (ctl *Controller) Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := ctl.DB.WithContext(c.UserContext())

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to Signup user!", err))
	}
	if existing > 0 {
		return middleware.HandleError(c, apperr.Conflict("Email is already registered!"))
	}

	hashedPassword, err := utils.HashPassword(reqData.Password, config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Phone:    reqData.Phone,
		Role:     models.RoleStudent,
		Password: hashedPassword,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.HandleError(c, apperr.Conflict("Email is already registered!"))
		}
		return middleware.HandleError(c, apperr.Internal("Failed to Signup user!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

// Login checks credentials, blocking the account for a while after repeated failures, and
// opens a session carried both in the response and in the session cookie.
func (ctl *Controller) Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.LoginBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := ctl.DB.WithContext(c.UserContext())
	now := ctl.Now()

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] failed to load user %s: %v", reqData.Email, err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(now) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily blocked. Try again later.", nil)
	}

	if user.LastFailedLogin != nil && now.Sub(*user.LastFailedLogin) > failureWindow {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	if !utils.CheckPassword(user.Password, reqData.Password) {
		user.FailedLoginAttempts++
		user.LastFailedLogin = &now
		if user.FailedLoginAttempts >= maxFailedLogins {
			unblockTime := now.Add(blockDuration)
			user.IsBlocked = true
			user.BlockedUntil = &unblockTime
			log.Printf("[AUTH] user %d blocked until %s", user.ID, unblockTime.Format(time.RFC3339))
		}
		if err := db.Save(&user).Error; err != nil {
			log.Printf("[AUTH] failed to record failed login for user %d: %v", user.ID, err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.IsBlocked = false
	user.BlockedUntil = nil
	if err := db.Save(&user).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}

	loginTracking := models.LoginTracking{
		UserID:     user.ID,
		Role:       user.Role,
		IPAddress:  utils.ClientIP(c),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
		LoggedInAt: now,
	}
	if err := db.Create(&loginTracking).Error; err != nil {
		log.Printf("Error saving login tracking details: %v", err)
	}

	token, expiresAt, err := middleware.GenerateJWT(user)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}

// Logout drops the session cookie. Bearer tokens simply expire.
func (ctl *Controller) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully.", nil)
}

func (ctl *Controller) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", user)
}

func (ctl *Controller) UpdateProfile(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedProfile").(*authValidator.ProfileBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		updates["name"] = strings.TrimSpace(*reqData.Name)
	}
	if reqData.Phone != nil {
		updates["phone"] = strings.TrimSpace(*reqData.Phone)
	}
	if reqData.Bio != nil {
		updates["bio"] = *reqData.Bio
	}
	if reqData.Subjects != nil {
		updates["subjects"] = *reqData.Subjects
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Nothing to update.", user)
	}

	if err := ctl.DB.WithContext(c.UserContext()).Model(&user).Updates(updates).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to update profile!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

func (ctl *Controller) LoginHistoryList(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedLoginHistory").(*authValidator.LoginHistoryQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()

	query := ctl.DB.WithContext(c.UserContext()).Model(&models.LoginTracking{}).Where("user_id = ?", userId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch login history!", err))
	}

	var history []models.LoginTracking
	if err := query.Order("logged_in_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&history).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch login history!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login history fetched successfully!", fiber.Map{
		"history":    history,
		"pagination": utils.Paginate(total, page, limit),
	})
}

func (ctl *Controller) ChangePassword(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedPassword").(*authValidator.ChangePasswordBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if !utils.CheckPassword(user.Password, reqData.CurrentPassword) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	}

	hashedPassword, err := utils.HashPassword(reqData.NewPassword, config.AppConfig.SaltRound)
	if err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to process your request!", err))
	}
	if err := ctl.DB.WithContext(c.UserContext()).Model(&user).Update("password", hashedPassword).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to change password!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully!", nil)
}
