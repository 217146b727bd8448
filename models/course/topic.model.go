package course

import "gorm.io/gorm"

// Topic represents a section within a course
type Topic struct {
	gorm.Model
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OrderIndex  int        `json:"order_index" gorm:"default:0"`
	Subtopics   []Subtopic `json:"subtopics,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Tests       []Test     `json:"tests,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Subtopic groups materials inside a topic
type Subtopic struct {
	gorm.Model
	TopicID    uint       `json:"topic_id" gorm:"index;not null"`
	Title      string     `json:"title"`
	Content    string     `json:"content" gorm:"type:text"`
	OrderIndex int        `json:"order_index" gorm:"default:0"`
	Materials  []Material `json:"materials,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
