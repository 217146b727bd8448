package chatController

import (
	"tutorhub/middleware"
	chatModels "tutorhub/models/chat"
	chatService "tutorhub/services/chat"
	chatValidator "tutorhub/validators/chat"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service *chatService.Service
}

func New(svc *chatService.Service) *Controller {
	return &Controller{Service: svc}
}

// CreateChat answers 200 instead of 201 when an existing DIRECT chat is reused.
func (ctl *Controller) CreateChat(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	reqData, ok := c.Locals("validatedChat").(*chatValidator.CreateChatBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	chat, created, err := ctl.Service.Create(c.UserContext(), chatService.CreateInput{
		CreatorID:      userId,
		Type:           reqData.Type,
		Title:          reqData.Title,
		CourseID:       reqData.CourseID,
		ParticipantIDs: reqData.ParticipantIDs,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	if !created {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Chat fetched successfully!", chat)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Chat created successfully!", chat)
}

func (ctl *Controller) ListChats(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)

	chats, err := ctl.Service.List(c.UserContext(), userId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chats fetched successfully!", chats)
}

func (ctl *Controller) ListMessages(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	chatId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedList").(*chatValidator.MessageListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	messages, err := ctl.Service.Messages(c.UserContext(), chatId, userId, reqData.BeforeID, reqData.Limit)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Messages fetched successfully!", messages)
}

func (ctl *Controller) PostMessage(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	chatId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedMessage").(*chatValidator.PostMessageBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	attachments := make([]chatModels.Attachment, 0, len(reqData.Attachments))
	for _, a := range reqData.Attachments {
		attachments = append(attachments, chatModels.Attachment{Name: a.Name, URL: a.URL})
	}

	message, err := ctl.Service.Post(c.UserContext(), chatId, userId, reqData.Body, attachments)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message sent successfully!", message)
}

func (ctl *Controller) MarkRead(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	chatId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedRead").(*chatValidator.MarkReadBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	marker, err := ctl.Service.MarkRead(c.UserContext(), chatId, userId, reqData.MessageID)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chat marked as read!", fiber.Map{
		"last_read_message_id": marker,
	})
}

func (ctl *Controller) AddParticipant(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	chatId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedParticipant").(*chatValidator.ParticipantBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	participant, err := ctl.Service.AddParticipant(c.UserContext(), chatId, actor, reqData.UserID)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Participant added successfully!", participant)
}
