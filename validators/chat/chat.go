package chatValidator

import (
	"strings"

	"tutorhub/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateChatBody struct {
	Type           string `json:"type" validate:"required,oneof=DIRECT COURSE direct course"`
	Title          string `json:"title" validate:"max=200"`
	CourseID       *uint  `json:"course_id" validate:"omitempty,gt=0"`
	ParticipantIDs []uint `json:"participant_ids" validate:"max=200,dive,gt=0"`
}

func CreateChat() fiber.Handler {
	return validators.Body[CreateChatBody]("validatedChat", func(req *CreateChatBody, errs map[string]string) {
		req.Type = strings.ToUpper(req.Type)
		if req.Type == "DIRECT" && len(req.ParticipantIDs) != 1 {
			errs["participant_ids"] = "a DIRECT chat needs exactly one other participant"
		}
		if req.Type == "COURSE" && req.CourseID == nil {
			errs["course_id"] = "course_id is required for COURSE chats"
		}
	})
}

type MessageListQuery struct {
	BeforeID uint `query:"before_id"`
	Limit    int  `query:"limit" validate:"omitempty,min=1,max=100"`
}

func MessageList() fiber.Handler {
	return validators.Query[MessageListQuery]("validatedList")
}

type AttachmentBody struct {
	Name string `json:"name" validate:"required,max=200"`
	URL  string `json:"url" validate:"required,url"`
}

type PostMessageBody struct {
	Body        string           `json:"body" validate:"max=10000"`
	Attachments []AttachmentBody `json:"attachments" validate:"max=10,dive"`
}

func PostMessage() fiber.Handler {
	return validators.Body[PostMessageBody]("validatedMessage", func(req *PostMessageBody, errs map[string]string) {
		if strings.TrimSpace(req.Body) == "" && len(req.Attachments) == 0 {
			errs["body"] = "body or attachments are required"
		}
	})
}

type MarkReadBody struct {
	MessageID uint `json:"message_id"` // 0 marks everything read
}

func MarkRead() fiber.Handler {
	return validators.Body[MarkReadBody]("validatedRead")
}

type ParticipantBody struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

func AddParticipant() fiber.Handler {
	return validators.Body[ParticipantBody]("validatedParticipant")
}
