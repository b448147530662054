package usecase

import (
	"context"
	"fmt"
	"log"

	meetingdomain "meetsync-backend/internal/meeting/domain"
	"meetsync-backend/pkg/ai"
)

// Extraction is the typed outcome of one extraction attempt. Degraded marks
// the fallback path: the oracle call or its output validation failed and the
// candidate carries only sentinels. Callers can branch on Degraded instead
// of re-deriving it from field values.
type Extraction struct {
	Candidate *meetingdomain.MeetingCandidate
	Degraded  bool
	Reason    string
}

// Extractor turns one email into a meeting candidate via the extraction
// oracle. It keeps no state between calls.
type Extractor struct {
	parser ai.MeetingParser
}

func NewExtractor(parser ai.MeetingParser) *Extractor {
	return &Extractor{parser: parser}
}

// Extract makes exactly one oracle attempt for the email. Any failure (call
// or schema) degrades to a fully-sentineled candidate; it never returns a
// partially-filled one and never errors.
func (e *Extractor) Extract(ctx context.Context, email *meetingdomain.EmailRecord) Extraction {
	content := fmt.Sprintf("Subject: %s\nFrom: %s\nDate: %s\nBody: %s",
		email.Subject, email.Sender, email.Date, email.Body)

	candidate, err := e.parser.ParseMeeting(ctx, content)
	if err != nil {
		log.Printf("[Extractor] extraction failed for email %s: %v", email.ID, err)
		return Extraction{
			Candidate: meetingdomain.FallbackCandidate(email.Body),
			Degraded:  true,
			Reason:    err.Error(),
		}
	}

	return Extraction{Candidate: candidate}
}
