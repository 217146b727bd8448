package chat

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TypeDirect = "DIRECT"
	TypeCourse = "COURSE"
)

type Chat struct {
	gorm.Model
	PublicID      string     `json:"public_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Type          string     `json:"type" gorm:"type:varchar(10);not null"`
	Title         string     `json:"title"`
	CourseID      *uint      `json:"course_id" gorm:"index"`
	CreatedByID   uint       `json:"created_by_id" gorm:"not null"`
	DirectKey     *string    `json:"-" gorm:"type:varchar(64);uniqueIndex"` // "<lowID>:<highID>" for DIRECT chats
	LastMessageAt *time.Time `json:"last_message_at"`
}

// Participant tracks membership and read state. LastReadMessageID only moves forward.
type Participant struct {
	gorm.Model
	ChatID            uint      `json:"chat_id" gorm:"uniqueIndex:idx_chat_participant;not null"`
	UserID            uint      `json:"user_id" gorm:"uniqueIndex:idx_chat_participant;index;not null"`
	LastReadMessageID uint      `json:"last_read_message_id" gorm:"default:0"`
	JoinedAt          time.Time `json:"joined_at"`
}

func (Participant) TableName() string {
	return "chat_participants"
}

// Attachment is one entry of Message.Attachments
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Message is append-only.
type Message struct {
	gorm.Model
	ChatID      uint                             `json:"chat_id" gorm:"index;not null"`
	SenderID    uint                             `json:"sender_id" gorm:"index;not null"`
	Body        string                           `json:"body" gorm:"type:text;not null"`
	Attachments datatypes.JSONType[[]Attachment] `json:"attachments"`
}

func (Message) TableName() string {
	return "chat_messages"
}
