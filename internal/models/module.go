package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GameModule struct {
	ID         uuid.UUID       `json:"id"`
	TeacherID  uuid.UUID       `json:"teacher_id"`
	Title      string          `json:"title"`
	Subject    string          `json:"subject"`
	Grade      string          `json:"grade"`
	ClassLevel string          `json:"class_level"` // "primary" | "secondary"
	Template   string          `json:"template"`    // game template id
	Status     string          `json:"status"`      // "draft" | "published"
	LessonNote string          `json:"lesson_note"`
	LevelsJSON json.RawMessage `json:"levels"`
	LevelCount int             `json:"level_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Level is one playable activity inside a module. Content fields are
// populated according to Type.
type Level struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"` // "quiz" | "flashcards" | "matching" | "fill_blank"
	Points    int             `json:"points"`
	Challenge string          `json:"challenge,omitempty"`
	Concept   string          `json:"concept,omitempty"`
	Question  string          `json:"question,omitempty"`
	Options   []LevelOption   `json:"options,omitempty"`
	Cards     []Flashcard     `json:"flashcards,omitempty"`
	Pairs     []MatchingPair  `json:"pairs,omitempty"`
	Sentence  string          `json:"sentence,omitempty"`
	Answer    string          `json:"correct_answer,omitempty"`
}

type LevelOption struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type Flashcard struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type MatchingPair struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type CreateModuleRequest struct {
	Title      string          `json:"title"`
	Subject    string          `json:"subject"`
	Grade      string          `json:"grade"`
	ClassLevel string          `json:"class_level"`
	Template   string          `json:"template"`
	LessonNote string          `json:"lesson_note"`
	Levels     json.RawMessage `json:"levels"`
}

type GenerateLevelsRequest struct {
	ActivityType string `json:"activity_type"` // "quiz" | "flashcards" | "matching" | "fill_blank"
	LessonNote   string `json:"lesson_note"`
	Subject      string `json:"subject"`
	ClassLevel   string `json:"class_level"`
}
