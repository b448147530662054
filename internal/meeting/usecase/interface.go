package usecase

import (
	"context"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// MeetingUsecase drives the email-to-calendar pipeline.
type MeetingUsecase interface {
	// ProcessBatch runs one full pipeline pass for the user. Only a fetch or
	// authentication failure returns an error; everything else is absorbed
	// into the BatchResult.
	ProcessBatch(ctx context.Context, userID string) (*meetingdomain.BatchResult, error)
	// PreviewThreads fetches and groups the user's meeting emails without
	// extracting or dispatching anything.
	PreviewThreads(ctx context.Context, userID string) (map[string][]*meetingdomain.EmailRecord, error)
	GetRuns(userID string, limit, offset int) ([]*meetingdomain.BatchRun, int64, error)
	GetRunByID(userID, runID string) (*meetingdomain.BatchRun, error)
}

// EmailSource lists label-filtered emails for an OAuth-connected account.
// An empty result is an empty slice, never an error; missing or invalid
// credentials are an error and abort the batch.
type EmailSource interface {
	ListThreadEmails(ctx context.Context, accessToken, refreshToken, label string, onTokenRefresh meetingdomain.TokenUpdateFunc) ([]*meetingdomain.EmailRecord, error)
}

// MailboxSource lists emails from an IMAP mailbox for password accounts.
type MailboxSource interface {
	ListMailboxEmails(ctx context.Context, host, username, password, mailbox string) ([]*meetingdomain.EmailRecord, error)
}

// CalendarSink inserts one event and reports the sink-side id and link.
type CalendarSink interface {
	CreateEvent(ctx context.Context, accessToken, refreshToken string, event *meetingdomain.CalendarEvent, onTokenRefresh meetingdomain.TokenUpdateFunc) (*meetingdomain.CreatedEvent, error)
}
