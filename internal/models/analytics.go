package models

import "time"

// CBTResult is one completed assessment attempt. Append-only; the
// aggregator folds results into rankings but never mutates past records.
type CBTResult struct {
	StudentName string    `json:"student_name"`
	ModuleID    string    `json:"module_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	WrongTopics []string  `json:"wrong_topics"`
	CompletedAt time.Time `json:"completed_at"`
}

// TopicCount is one entry of the weak-topics ranking.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}
