package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

type fakeParser struct {
	candidate *meetingdomain.MeetingCandidate
	err       error
	calls     int
	lastText  string
}

func (f *fakeParser) ParseMeeting(ctx context.Context, emailText string) (*meetingdomain.MeetingCandidate, error) {
	f.calls++
	f.lastText = emailText
	if f.err != nil {
		return nil, f.err
	}
	return f.candidate, nil
}

func TestExtractSuccess(t *testing.T) {
	want := &meetingdomain.MeetingCandidate{
		HasMeeting: true,
		Sender:     "alice@example.com",
		Date:       "13/08/2025",
		StartTime:  "16:30",
		EndTime:    "17:00",
		Body:       "Review session",
	}
	parser := &fakeParser{candidate: want}
	e := NewExtractor(parser)

	email := &meetingdomain.EmailRecord{
		ID:      "m1",
		Subject: "Review",
		Sender:  "alice@example.com",
		Date:    "Wed, 13 Aug 2025 10:00:00 +0000",
		Body:    "Let's meet at 16:30.",
	}

	got := e.Extract(context.Background(), email)
	if got.Degraded {
		t.Fatalf("unexpected degraded extraction: %s", got.Reason)
	}
	if got.Candidate != want {
		t.Errorf("candidate = %+v, want %+v", got.Candidate, want)
	}
	if parser.calls != 1 {
		t.Errorf("parser called %d times, want exactly 1", parser.calls)
	}
	if !strings.Contains(parser.lastText, "Subject: Review") || !strings.Contains(parser.lastText, "Body: Let's meet at 16:30.") {
		t.Errorf("oracle input missing email fields: %q", parser.lastText)
	}
}

func TestExtractDegradesOnFailure(t *testing.T) {
	parser := &fakeParser{err: errors.New("model unavailable")}
	e := NewExtractor(parser)

	email := &meetingdomain.EmailRecord{ID: "m2", Subject: "Sync", Body: "some body text"}

	got := e.Extract(context.Background(), email)
	if !got.Degraded {
		t.Fatal("expected degraded extraction")
	}
	if got.Candidate == nil {
		t.Fatal("degraded extraction must still carry a candidate")
	}
	if got.Candidate.HasMeeting {
		t.Error("degraded candidate must not report a meeting")
	}
	if got.Candidate.Sender != meetingdomain.Unknown || got.Candidate.Date != meetingdomain.Unknown {
		t.Errorf("degraded fields not sentineled: %+v", got.Candidate)
	}
	if got.Candidate.Body != "some body text" {
		t.Errorf("degraded body = %q, want source body preview", got.Candidate.Body)
	}
	if parser.calls != 1 {
		t.Errorf("parser called %d times, want exactly 1 (no retry)", parser.calls)
	}
}

func TestExtractDegradedBodyBounded(t *testing.T) {
	parser := &fakeParser{err: errors.New("timeout")}
	e := NewExtractor(parser)

	email := &meetingdomain.EmailRecord{ID: "m3", Body: strings.Repeat("x", 500)}

	got := e.Extract(context.Background(), email)
	if len(got.Candidate.Body) != meetingdomain.BodyPreviewLimit {
		t.Errorf("body length = %d, want %d", len(got.Candidate.Body), meetingdomain.BodyPreviewLimit)
	}
}
