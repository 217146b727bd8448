// Package chatService implements direct and course chats with per-participant read markers.
package chatService

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tutorhub/apperr"
	"tutorhub/models"
	chatModels "tutorhub/models/chat"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrChatNotFound       = apperr.NotFound("Chat not found!")
	ErrUserNotFound       = apperr.NotFound("User not found!")
	ErrCourseNotFound     = apperr.NotFound("Course not found!")
	ErrMessageNotFound    = apperr.NotFound("Message not found!")
	ErrNotParticipant     = apperr.Forbidden("You are not a participant of this chat!")
	ErrCannotManage       = apperr.Forbidden("Only the chat creator or staff can add participants!")
	ErrNotCourseMember    = apperr.Forbidden("Course chats are limited to the course's tutors, students and staff!")
	ErrAlreadyParticipant = apperr.Conflict("User is already a participant!")
	ErrDirectIsClosed     = apperr.Conflict("Direct chats cannot have more participants!")
	ErrEmptyMessage       = apperr.Validation("Message body or attachments are required!")
)

// MessageAwarder credits points for a posted message.
type MessageAwarder interface {
	AwardMessage(ctx context.Context, userID, messageID uint) error
}

type Service struct {
	DB     *gorm.DB
	Points MessageAwarder
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type CreateInput struct {
	CreatorID      uint
	Type           string
	Title          string
	CourseID       *uint
	ParticipantIDs []uint
}

// directKey identifies the one DIRECT chat two users share.
func directKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Create opens a chat. A DIRECT chat between the same two users is reused, in which case
// created is false.
func (s *Service) Create(ctx context.Context, in CreateInput) (chat *chatModels.Chat, created bool, err error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	members := uniqueMembers(in.CreatorID, in.ParticipantIDs)

	switch in.Type {
	case chatModels.TypeDirect:
		if len(members) != 2 {
			return nil, false, apperr.ValidationFields(map[string]string{
				"participant_ids": "a direct chat needs exactly one other participant",
			})
		}
		key := directKey(members[0], members[1])
		if existing, err := s.findDirect(ctx, key); err != nil || existing != nil {
			return existing, false, err
		}
		chat = &chatModels.Chat{Type: chatModels.TypeDirect, Title: strings.TrimSpace(in.Title), DirectKey: &key}
	case chatModels.TypeCourse:
		if in.CourseID == nil {
			return nil, false, apperr.ValidationFields(map[string]string{"course_id": "course_id is required for course chats"})
		}
		chat = &chatModels.Chat{Type: chatModels.TypeCourse, Title: strings.TrimSpace(in.Title), CourseID: in.CourseID}
	default:
		return nil, false, apperr.ValidationFields(map[string]string{"type": "type must be DIRECT or COURSE"})
	}
	chat.PublicID = uuid.NewString()
	chat.CreatedByID = in.CreatorID

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if chat.CourseID != nil {
			var course courseModels.Course
			if err := tx.Select("id", "title", "created_by_id").First(&course, *chat.CourseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCourseNotFound
				}
				return apperr.Internal("Failed to load course!", err)
			}
			if chat.Title == "" {
				chat.Title = course.Title
			}
		}

		var found int64
		if err := tx.Model(&models.User{}).Where("id IN ?", members).Count(&found).Error; err != nil {
			return apperr.Internal("Failed to load participants!", err)
		}
		if int(found) != len(members) {
			return ErrUserNotFound
		}
		if chat.CourseID != nil {
			if err := requireCourseMembers(tx, *chat.CourseID, members); err != nil {
				return err
			}
		}

		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		now := time.Now()
		participants := make([]chatModels.Participant, 0, len(members))
		for _, id := range members {
			participants = append(participants, chatModels.Participant{ChatID: chat.ID, UserID: id, JoinedAt: now})
		}
		if err := tx.Create(&participants).Error; err != nil {
			return apperr.Internal("Failed to add participants!", err)
		}
		return nil
	})
	if err != nil {
		// Another request created the same direct chat first.
		if errors.Is(err, gorm.ErrDuplicatedKey) && chat.DirectKey != nil {
			existing, findErr := s.findDirect(ctx, *chat.DirectKey)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Internal("Failed to create chat!", err)
		}
		return nil, false, err
	}

	log.Printf("[CHAT] Chat %d (%s) created by user %d", chat.ID, chat.Type, in.CreatorID)
	return chat, true, nil
}

func (s *Service) findDirect(ctx context.Context, key string) (*chatModels.Chat, error) {
	var chat chatModels.Chat
	err := s.DB.WithContext(ctx).Where("direct_key = ?", key).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load chat!", err)
	}
	return &chat, nil
}

func uniqueMembers(creatorID uint, ids []uint) []uint {
	seen := map[uint]bool{creatorID: true}
	members := []uint{creatorID}
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	return members
}

// participant loads the caller's membership row, failing with ErrNotParticipant.
func (s *Service) participant(db *gorm.DB, chatID, userID uint) (*chatModels.Participant, error) {
	var chat chatModels.Chat
	if err := db.Select("id").First(&chat, chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, apperr.Internal("Failed to load chat!", err)
	}
	var p chatModels.Participant
	if err := db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, apperr.Internal("Failed to load participant!", err)
	}
	return &p, nil
}

// Summary is a chat as listed for one user.
type Summary struct {
	chatModels.Chat
	Participants []uint              `json:"participants"`
	Unread       int64               `json:"unread"`
	LastMessage  *chatModels.Message `json:"last_message"`
}

// List returns the user's chats, most recently active first.
func (s *Service) List(ctx context.Context, userID uint) ([]Summary, error) {
	db := s.DB.WithContext(ctx)

	var memberships []chatModels.Participant
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch chats!", err)
	}
	if len(memberships) == 0 {
		return []Summary{}, nil
	}
	lastRead := make(map[uint]uint, len(memberships))
	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		lastRead[m.ChatID] = m.LastReadMessageID
		ids = append(ids, m.ChatID)
	}

	var chats []chatModels.Chat
	if err := db.Where("id IN ?", ids).Order("COALESCE(last_message_at, created_at) DESC, id DESC").Find(&chats).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch chats!", err)
	}

	var everyone []chatModels.Participant
	if err := db.Where("chat_id IN ?", ids).Order("id").Find(&everyone).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch participants!", err)
	}
	members := map[uint][]uint{}
	for _, p := range everyone {
		members[p.ChatID] = append(members[p.ChatID], p.UserID)
	}

	summaries := make([]Summary, 0, len(chats))
	for _, chat := range chats {
		summary := Summary{Chat: chat, Participants: members[chat.ID]}
		if err := db.Model(&chatModels.Message{}).
			Where("chat_id = ? AND id > ? AND sender_id <> ?", chat.ID, lastRead[chat.ID], userID).
			Count(&summary.Unread).Error; err != nil {
			return nil, apperr.Internal("Failed to count unread messages!", err)
		}
		var last chatModels.Message
		err := db.Where("chat_id = ?", chat.ID).Order("id DESC").Limit(1).Find(&last).Error
		if err != nil {
			return nil, apperr.Internal("Failed to load last message!", err)
		}
		if last.ID != 0 {
			summary.LastMessage = &last
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Messages pages backwards through a chat. beforeID 0 starts from the newest message.
// The page is returned oldest first.
func (s *Service) Messages(ctx context.Context, chatID, userID, beforeID uint, limit int) ([]chatModels.Message, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.participant(db, chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := db.Where("chat_id = ?", chatID)
	if beforeID != 0 {
		q = q.Where("id < ?", beforeID)
	}
	var page []chatModels.Message
	if err := q.Order("id DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch messages!", err)
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// Post appends a message. The sender's read marker moves to it.
func (s *Service) Post(ctx context.Context, chatID, senderID uint, body string, attachments []chatModels.Attachment) (*chatModels.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	msg := chatModels.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Body:        body,
		Attachments: datatypes.NewJSONType(attachments),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.participant(tx, chatID, senderID)
		if err != nil {
			return err
		}
		if err := tx.Create(&msg).Error; err != nil {
			return apperr.Internal("Failed to save message!", err)
		}
		if err := tx.Model(&chatModels.Chat{}).Where("id = ?", chatID).Update("last_message_at", msg.CreatedAt).Error; err != nil {
			return apperr.Internal("Failed to update chat!", err)
		}
		return advanceMarker(tx, p.ID, msg.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.Points != nil {
		if err := s.Points.AwardMessage(ctx, senderID, msg.ID); err != nil {
			log.Printf("[CHAT] Failed to award points for message %d: %v", msg.ID, err)
		}
	}
	return &msg, nil
}

// MarkRead moves the caller's read marker to upToID, or to the newest message when
// upToID is 0. The marker never moves backwards. It returns the resulting marker.
func (s *Service) MarkRead(ctx context.Context, chatID, userID, upToID uint) (uint, error) {
	var marker uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.participant(tx, chatID, userID)
		if err != nil {
			return err
		}

		target := upToID
		if target == 0 {
			var latest chatModels.Message
			if err := tx.Where("chat_id = ?", chatID).Order("id DESC").Limit(1).Find(&latest).Error; err != nil {
				return apperr.Internal("Failed to load messages!", err)
			}
			target = latest.ID
		} else {
			var n int64
			if err := tx.Model(&chatModels.Message{}).Where("id = ? AND chat_id = ?", target, chatID).Count(&n).Error; err != nil {
				return apperr.Internal("Failed to load message!", err)
			}
			if n == 0 {
				return ErrMessageNotFound
			}
		}

		if err := advanceMarker(tx, p.ID, target); err != nil {
			return err
		}
		marker = p.LastReadMessageID
		if target > marker {
			marker = target
		}
		return nil
	})
	return marker, err
}

func advanceMarker(tx *gorm.DB, participantID, messageID uint) error {
	err := tx.Model(&chatModels.Participant{}).
		Where("id = ? AND last_read_message_id < ?", participantID, messageID).
		Update("last_read_message_id", messageID).Error
	if err != nil {
		return apperr.Internal("Failed to update read marker!", err)
	}
	return nil
}

// AddParticipant adds userID to a COURSE chat. Only the chat creator and staff may do so,
// and the new participant must belong to the course.
func (s *Service) AddParticipant(ctx context.Context, chatID uint, actor models.User, userID uint) (*chatModels.Participant, error) {
	var p chatModels.Participant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat chatModels.Chat
		if err := tx.First(&chat, chatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChatNotFound
			}
			return apperr.Internal("Failed to load chat!", err)
		}
		if chat.CreatedByID != actor.ID && !actor.HasRole(models.StaffRoles...) {
			return ErrCannotManage
		}
		if chat.Type == chatModels.TypeDirect {
			return ErrDirectIsClosed
		}

		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return apperr.Internal("Failed to load user!", err)
		}

		if chat.CourseID != nil {
			if err := requireCourseMembers(tx, *chat.CourseID, []uint{user.ID}); err != nil {
				return err
			}
		}

		var n int64
		if err := tx.Model(&chatModels.Participant{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&n).Error; err != nil {
			return apperr.Internal("Failed to load participant!", err)
		}
		if n > 0 {
			return ErrAlreadyParticipant
		}

		p = chatModels.Participant{ChatID: chatID, UserID: userID, JoinedAt: time.Now()}
		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyParticipant
			}
			return apperr.Internal("Failed to add participant!", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// requireCourseMembers checks that every user is the course creator, a staff account, or
// holds an ACTIVE enrollment on the course as student or tutor.
func requireCourseMembers(tx *gorm.DB, courseID uint, userIDs []uint) error {
	var course courseModels.Course
	if err := tx.Select("id", "created_by_id").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return apperr.Internal("Failed to load course!", err)
	}

	allowed := map[uint]bool{course.CreatedByID: true}

	var staff []uint
	if err := tx.Model(&models.User{}).Where("id IN ? AND role IN ?", userIDs, models.StaffRoles).Pluck("id", &staff).Error; err != nil {
		return apperr.Internal("Failed to load participants!", err)
	}
	for _, id := range staff {
		allowed[id] = true
	}

	var enrollments []enrollmentModels.CourseEnrollment
	if err := tx.Select("student_id", "tutor_id").
		Where("course_id = ? AND status = ? AND (student_id IN ? OR tutor_id IN ?)", courseID, enrollmentModels.StatusActive, userIDs, userIDs).
		Find(&enrollments).Error; err != nil {
		return apperr.Internal("Failed to load course enrollments!", err)
	}
	for _, e := range enrollments {
		allowed[e.StudentID] = true
		allowed[e.TutorID] = true
	}

	for _, id := range userIDs {
		if !allowed[id] {
			return ErrNotCourseMember
		}
	}
	return nil
}
