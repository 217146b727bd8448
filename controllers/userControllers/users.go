package userController

import (
	"errors"
	"log"
	"strings"

	"tutorhub/apperr"
	"tutorhub/config"
	"tutorhub/middleware"
	"tutorhub/models"
	chatModels "tutorhub/models/chat"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"
	gamificationModels "tutorhub/models/gamification"
	"tutorhub/utils"
	userValidator "tutorhub/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errUserNotFound     = apperr.NotFound("User not found!")
	errEmailTaken       = apperr.Conflict("Email is already registered!")
	errDeleteSelf       = apperr.Conflict("You cannot delete your own account!")
	errActiveEnrollment = apperr.Conflict("User has active enrollments!")
	errOwnsCourses      = apperr.Conflict("User still owns courses!")
	errOwnerOnly        = apperr.Forbidden("Only an owner can manage owner accounts!")
)

type Controller struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// guardOwner keeps non-owners from creating, promoting to or touching OWNER accounts.
func guardOwner(actor models.User, roles ...string) error {
	if actor.Role == models.RoleOwner {
		return nil
	}
	for _, role := range roles {
		if role == models.RoleOwner {
			return errOwnerOnly
		}
	}
	return nil
}

func (ctl *Controller) load(c *fiber.Ctx, userId uint) (*models.User, error) {
	var user models.User
	err := ctl.DB.WithContext(c.UserContext()).First(&user, userId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch user!", err)
	}
	return &user, nil
}

func (ctl *Controller) ListUsers(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*userValidator.UserListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()

	query := ctl.DB.WithContext(c.UserContext()).Model(&models.User{})
	if reqData.Role != "" {
		query = query.Where("role = ?", reqData.Role)
	}
	if search := strings.TrimSpace(reqData.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to count users!", err))
	}

	var users []models.User
	if err := query.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch users!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users":      users,
		"pagination": utils.Paginate(total, page, limit),
	})
}

func (ctl *Controller) GetUser(c *fiber.Ctx) error {
	userId, _ := c.Locals("id").(uint)
	user, err := ctl.load(c, userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", user)
}

func (ctl *Controller) CreateUser(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedUser").(*userValidator.CreateUserBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if err := guardOwner(actor, reqData.Role); err != nil {
		return middleware.HandleError(c, err)
	}

	hashedPassword, err := utils.HashPassword(reqData.Password, config.AppConfig.SaltRound)
	if err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to process your request!", err))
	}

	user := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Phone:    reqData.Phone,
		Role:     reqData.Role,
		Password: hashedPassword,
		Bio:      reqData.Bio,
		Subjects: reqData.Subjects,
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.HandleError(c, errEmailTaken)
		}
		return middleware.HandleError(c, apperr.Internal("Failed to create user!", err))
	}

	log.Printf("[USERS] %s %d created %s user %d", actor.Role, actor.ID, user.Role, user.ID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User created successfully!", user)
}

func (ctl *Controller) UpdateUser(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	userId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedUser").(*userValidator.UpdateUserBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := ctl.load(c, userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	updates := map[string]interface{}{}
	roles := []string{user.Role}
	if reqData.Role != nil {
		roles = append(roles, *reqData.Role)
		updates["role"] = *reqData.Role
	}
	if err := guardOwner(actor, roles...); err != nil {
		return middleware.HandleError(c, err)
	}
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
	if reqData.Password != nil {
		hashedPassword, err := utils.HashPassword(*reqData.Password, config.AppConfig.SaltRound)
		if err != nil {
			return middleware.HandleError(c, apperr.Internal("Failed to hash password!", err))
		}
		updates["password"] = hashedPassword
	}

	if err := ctl.DB.WithContext(c.UserContext()).Model(user).Updates(updates).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to update user!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User updated successfully!", user)
}

// DeleteUser hard-deletes the account with the rows that only make sense for it. Users who
// hold ACTIVE enrollments, as student or tutor, must be released first, and course owners
// must have their courses deleted first.
func (ctl *Controller) DeleteUser(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	userId, _ := c.Locals("id").(uint)
	if userId == actor.ID {
		return middleware.HandleError(c, errDeleteSelf)
	}

	user, err := ctl.load(c, userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	if err := guardOwner(actor, user.Role); err != nil {
		return middleware.HandleError(c, err)
	}

	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&enrollmentModels.CourseEnrollment{}).
			Where("(student_id = ? OR tutor_id = ?) AND status = ?", user.ID, user.ID, enrollmentModels.StatusActive).
			Count(&active).Error; err != nil {
			return apperr.Internal("Failed to check enrollments!", err)
		}
		if active > 0 {
			return errActiveEnrollment
		}

		var courses int64
		if err := tx.Model(&courseModels.Course{}).Where("created_by_id = ?", user.ID).Count(&courses).Error; err != nil {
			return apperr.Internal("Failed to check courses!", err)
		}
		if courses > 0 {
			return errOwnsCourses
		}

		owned := []interface{}{
			&chatModels.Participant{},
			&gamificationModels.PointEntry{},
			&gamificationModels.UserAchievement{},
			&gamificationModels.ChallengeCompletion{},
			&models.LoginTracking{},
		}
		for _, model := range owned {
			if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return apperr.Internal("Failed to delete user data!", err)
			}
		}
		if err := tx.Unscoped().Delete(user).Error; err != nil {
			return apperr.Internal("Failed to delete user!", err)
		}
		return nil
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}

	log.Printf("[USERS] %s %d deleted user %d", actor.Role, actor.ID, user.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User deleted successfully!", nil)
}
