package domain

import (
	"time"

	"golang.org/x/oauth2"
)

// Unknown is the sentinel the extraction oracle reports for any field it
// cannot determine. It is distinct from an empty string: empty means the
// oracle violated the schema, Unknown means it answered "I don't know".
const Unknown = "UNKNOWN"

// BodyPreviewLimit bounds the candidate body carried into fallbacks and
// event descriptions.
const BodyPreviewLimit = 200

// Default values applied when a meeting candidate is missing usable data.
const (
	DefaultLocation    = "Online"
	DefaultDescription = "No Description"
	DefaultStartTime   = "09:00"
	NoSubject          = "No Subject"
)

// Fixed reminder policy, minutes before the event start.
const (
	ReminderEmailMinutes = 120
	ReminderPopupMinutes = 10
)

// TokenUpdateFunc is a callback that persists refreshed OAuth tokens.
type TokenUpdateFunc func(token *oauth2.Token) error

// EmailRecord is one email as returned by a source adapter, already decoded
// to plain text. It is never mutated after creation.
type EmailRecord struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Date    string `json:"date"` // raw header value, not guaranteed parseable
	Body    string `json:"body"`
}

// MeetingCandidate is the structured result of one extraction attempt.
// When HasMeeting is false no calendar event is derived from it.
type MeetingCandidate struct {
	HasMeeting  bool   `json:"has_meeting"`
	Sender      string `json:"sender"`
	Date        string `json:"date"`       // DD/MM/YYYY or Unknown
	StartTime   string `json:"start_time"` // HH:MM 24-hour or Unknown
	EndTime     string `json:"end_time"`   // HH:MM 24-hour or Unknown
	Body        string `json:"body"`
	MeetingLink string `json:"meeting_link"`
}

// FallbackCandidate builds the fully-sentineled candidate used when the
// oracle call or its output validation fails. Every field is Unknown except
// the body, which keeps a bounded prefix of the source email for reporting.
func FallbackCandidate(emailBody string) *MeetingCandidate {
	body := emailBody
	if len(body) > BodyPreviewLimit {
		body = body[:BodyPreviewLimit]
	}
	if body == "" {
		body = Unknown
	}
	return &MeetingCandidate{
		HasMeeting: false,
		Sender:     Unknown,
		Date:       Unknown,
		StartTime:  Unknown,
		EndTime:    Unknown,
		Body:       body,
	}
}

// CalendarEvent is the descriptor handed to the calendar sink. Start and end
// are offset-qualified local timestamps (e.g. "2025-08-13T16:30:00+01:00").
type CalendarEvent struct {
	Subject        string `json:"subject"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	StartDateTime  string `json:"start_datetime"`
	EndDateTime    string `json:"end_datetime"`
	TimeZone       string `json:"time_zone"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreatedEvent is the sink's acknowledgement of an inserted event.
type CreatedEvent struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// IdempotencyKey derives the deterministic per-email event key.
func IdempotencyKey(emailID string) string {
	return "meeting-" + emailID
}

// CreatedEventRecord is the persisted idempotency ledger entry: one row per
// calendar event this service has ever created, keyed by the source email.
type CreatedEventRecord struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index;uniqueIndex:idx_user_event_key;not null"`
	EmailID        string    `json:"email_id" gorm:"not null"`
	IdempotencyKey string    `json:"idempotency_key" gorm:"uniqueIndex:idx_user_event_key;not null"`
	EventID        string    `json:"event_id"`
	Link           string    `json:"link"`
	Subject        string    `json:"subject"`
	CreatedAt      time.Time `json:"created_at"`
}
