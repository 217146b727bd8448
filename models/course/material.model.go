package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaterialText  = "TEXT"
	MaterialVideo = "VIDEO"
	MaterialFile  = "FILE"
	MaterialLink  = "LINK"
)

// Material is a single piece of content under a subtopic. Uploads live elsewhere, only URLs are kept.
type Material struct {
	gorm.Model
	SubtopicID uint   `json:"subtopic_id" gorm:"index;not null"`
	Title      string `json:"title"`
	Type       string `json:"type" gorm:"type:varchar(10);default:'TEXT'"`
	URL        string `json:"url"`
	Body       string `json:"body" gorm:"type:text"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

// TestQuestion is one entry of Test.Questions
type TestQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// Test is a quiz attached to a topic
type Test struct {
	gorm.Model
	TopicID   uint                               `json:"topic_id" gorm:"index;not null"`
	Title     string                             `json:"title"`
	PassScore int                                `json:"pass_score" gorm:"default:0"`
	Questions datatypes.JSONType[[]TestQuestion] `json:"questions"`
}
