package courseValidator

import (
	"fmt"
	"strings"

	courseModels "tutorhub/models/course"
	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type CatalogQuery struct {
	Search string `query:"q" validate:"max=100"`
	validators.Pagination
}

func CourseList() fiber.Handler {
	return validators.Query[CatalogQuery]("validatedList")
}

type CreateCourseBody struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price" validate:"gte=0"`
	MaxStudents int    `json:"max_students" validate:"gte=0"`
	TutorID     uint   `json:"tutor_id"` // staff only, defaults to the caller
}

func CreateCourse() fiber.Handler {
	return validators.Body[CreateCourseBody]("validatedCourse", func(req *CreateCourseBody, errs map[string]string) {
		req.Title = strings.TrimSpace(req.Title)
	})
}

type UpdateCourseBody struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,gte=0"`
}

func UpdateCourse() fiber.Handler {
	return validators.Body[UpdateCourseBody]("validatedCourse", func(req *UpdateCourseBody, errs map[string]string) {
		if req.Title == nil && req.Description == nil && req.Price == nil && req.MaxStudents == nil {
			errs["_"] = "at least one field is required"
		}
	})
}

type PublishBody struct {
	Status string `json:"status" validate:"required,oneof=DRAFT ACTIVE"`
}

func PublishCourse() fiber.Handler {
	return validators.Body[PublishBody]("validatedPublish")
}

type TopicBody struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

func Topic() fiber.Handler {
	return validators.Body[TopicBody]("validatedTopic")
}

type SubtopicBody struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

func Subtopic() fiber.Handler {
	return validators.Body[SubtopicBody]("validatedSubtopic")
}

type MaterialBody struct {
	Title      string `json:"title" validate:"required,max=200"`
	Type       string `json:"type" validate:"required,oneof=TEXT VIDEO FILE LINK"`
	URL        string `json:"url" validate:"omitempty,url"`
	Body       string `json:"body"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

func Material() fiber.Handler {
	return validators.Body[MaterialBody]("validatedMaterial", func(req *MaterialBody, errs map[string]string) {
		switch {
		case req.Type == courseModels.MaterialText && strings.TrimSpace(req.Body) == "":
			errs["body"] = "body is required for TEXT materials"
		case req.Type != "" && req.Type != courseModels.MaterialText && req.URL == "":
			errs["url"] = "url is required for " + req.Type + " materials"
		}
	})
}

type QuestionBody struct {
	Prompt  string   `json:"prompt" validate:"required"`
	Options []string `json:"options" validate:"min=2,dive,required"`
	Answer  int      `json:"answer" validate:"gte=0"`
}

type TestBody struct {
	Title     string         `json:"title" validate:"required,max=200"`
	PassScore int            `json:"pass_score" validate:"gte=0,max=100"`
	Questions []QuestionBody `json:"questions" validate:"required,min=1,dive"`
}

func Test() fiber.Handler {
	return validators.Body[TestBody]("validatedTest", func(req *TestBody, errs map[string]string) {
		for i, q := range req.Questions {
			if q.Answer >= len(q.Options) {
				errs[fmt.Sprintf("questions[%d].answer", i)] = "answer must point at one of the options"
			}
		}
	})
}
