// Package validators holds the helpers every route validator is built from. A validator
// parses the request, checks it and stores the typed result in c.Locals for the controller.
package validators

import (
	"reflect"
	"strconv"
	"strings"

	"tutorhub/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var Validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// FieldErrors turns validator errors into {field: message}.
func FieldErrors(err error) map[string]string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return field + " must be a valid URL"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "ne":
		return field + " must not be " + fe.Param()
	case "gtfield":
		return field + " must be after " + fe.Param()
	}
	return field + " is invalid"
}

// Check is an extra rule run after struct validation. It adds entries to errs.
type Check[T any] func(req *T, errs map[string]string)

// Body parses the JSON body into T, validates it and stores *T under key. An empty body
// validates the zero T.
func Body[T any](key string, checks ...Check[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if len(c.Body()) == 0 {
			return finish(c, key, req, checks)
		}
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		return finish(c, key, req, checks)
	}
}

// Query parses the query string into T, validates it and stores *T under key.
func Query[T any](key string, checks ...Check[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.QueryParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		return finish(c, key, req, checks)
	}
}

func finish[T any](c *fiber.Ctx, key string, req *T, checks []Check[T]) error {
	errs := map[string]string{}
	if err := Validate.Struct(req); err != nil {
		errs = FieldErrors(err)
	}
	for _, check := range checks {
		check(req, errs)
	}
	if len(errs) > 0 {
		return middleware.ValidationErrorResponse(c, errs)
	}
	c.Locals(key, req)
	return c.Next()
}

// ParamID validates that route params are positive integers and stores each as a uint
// under its own name.
func ParamID(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errs := map[string]string{}
		for _, name := range names {
			id, err := strconv.ParseUint(c.Params(name), 10, 64)
			if err != nil || id == 0 {
				errs[name] = name + " must be a positive integer"
				continue
			}
			c.Locals(name, uint(id))
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		return c.Next()
	}
}

// Pagination is embedded by list queries.
type Pagination struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// Normalized returns the page and limit with defaults applied.
func (p Pagination) Normalized() (page, limit int) {
	page, limit = p.Page, p.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}
