package userValidator

import (
	"strings"

	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type UserListQuery struct {
	Role   string `query:"role" validate:"omitempty,oneof=STUDENT TUTOR ADMIN OWNER MANAGER"`
	Search string `query:"q" validate:"max=100"`
	validators.Pagination
}

func UserList() fiber.Handler {
	return validators.Query[UserListQuery]("validatedList")
}

type CreateUserBody struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Role     string `json:"role" validate:"required,oneof=STUDENT TUTOR ADMIN OWNER MANAGER"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Bio      string `json:"bio" validate:"max=2000"`
	Subjects string `json:"subjects" validate:"max=500"`
}

func CreateUser() fiber.Handler {
	return validators.Body[CreateUserBody]("validatedUser", func(req *CreateUserBody, errs map[string]string) {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	})
}

type UpdateUserBody struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Role     *string `json:"role" validate:"omitempty,oneof=STUDENT TUTOR ADMIN OWNER MANAGER"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	Subjects *string `json:"subjects" validate:"omitempty,max=500"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func UpdateUser() fiber.Handler {
	return validators.Body[UpdateUserBody]("validatedUser", func(req *UpdateUserBody, errs map[string]string) {
		if req.Name == nil && req.Phone == nil && req.Role == nil && req.Bio == nil && req.Subjects == nil && req.Password == nil {
			errs["_"] = "at least one field is required"
		}
	})
}
