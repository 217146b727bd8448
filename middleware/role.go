package middleware

import (
	"errors"
	"log"

	"tutorhub/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRoles loads the session user and rejects it unless it holds one of roles.
// With no roles any authenticated user passes. The loaded user is stored under "user".
func RequireRoles(db *gorm.DB, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
			}
			log.Printf("[AUTH] failed to load user %d: %v", userID, err)
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		if len(roles) > 0 && !user.HasRole(roles...) {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireRoles.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("user").(models.User)
	return user, ok
}
