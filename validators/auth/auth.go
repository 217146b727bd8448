package authValidator

import (
	"strings"

	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type SignupBody struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return validators.Body[SignupBody]("validatedUser", func(req *SignupBody, errs map[string]string) {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	})
}

type LoginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login validator middleware
func Login() fiber.Handler {
	return validators.Body[LoginBody]("validatedUser", func(req *LoginBody, errs map[string]string) {
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	})
}

type LoginHistoryQuery struct {
	validators.Pagination
}

func LoginHistoryList() fiber.Handler {
	return validators.Query[LoginHistoryQuery]("validatedLoginHistory")
}

type ChangePasswordBody struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func ChangePassword() fiber.Handler {
	return validators.Body[ChangePasswordBody]("validatedPassword", func(req *ChangePasswordBody, errs map[string]string) {
		if req.CurrentPassword != "" && req.CurrentPassword == req.NewPassword {
			errs["new_password"] = "new_password must differ from the current password"
		}
	})
}

type ProfileBody struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	Subjects *string `json:"subjects" validate:"omitempty,max=500"`
}

func UpdateProfile() fiber.Handler {
	return validators.Body[ProfileBody]("validatedProfile")
}
