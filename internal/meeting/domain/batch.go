package domain

import "time"

// EventSummary describes one created event in a batch report.
type EventSummary struct {
	EmailID   string `json:"email_id"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EventID   string `json:"event_id"`
	Link      string `json:"link"`
}

// BatchResult accumulates the outcome of one pipeline run. It is owned by
// the orchestrator and mutated only from its single processing goroutine.
type BatchResult struct {
	GroupsSeen        int            `json:"groups_seen"`
	EmailsSeen        int            `json:"emails_seen"`
	MeetingsFound     int            `json:"meetings_found"`
	EventsCreated     int            `json:"events_created"`
	EventsFailed      int            `json:"events_failed"`
	EmailsSkipped     int            `json:"emails_skipped"`
	DuplicatesSkipped int            `json:"duplicates_skipped"`
	Created           []EventSummary `json:"created"`
}

// Batch run lifecycle states persisted to run history.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// BatchRun is the persisted record of one pipeline invocation.
type BatchRun struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"index;not null"`
	Label             string    `json:"label"`
	GroupsSeen        int       `json:"groups_seen"`
	EmailsSeen        int       `json:"emails_seen"`
	MeetingsFound     int       `json:"meetings_found"`
	EventsCreated     int       `json:"events_created"`
	EventsFailed      int       `json:"events_failed"`
	EmailsSkipped     int       `json:"emails_skipped"`
	DuplicatesSkipped int       `json:"duplicates_skipped"`
	Status            string    `json:"status"`
	Error             string    `json:"error,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}
