package domain

import (
	"strings"
	"testing"
)

const validJSON = `{
	"has_meeting": true,
	"sender": "alice@example.com",
	"date": "13/08/2025",
	"start_time": "16:30",
	"end_time": "17:00",
	"body": "Project review",
	"meeting_link": "https://meet.example.com/xyz"
}`

func TestParseCandidateJSON(t *testing.T) {
	candidate, err := ParseCandidateJSON(validJSON)
	if err != nil {
		t.Fatalf("ParseCandidateJSON: %v", err)
	}

	if !candidate.HasMeeting {
		t.Error("has_meeting = false, want true")
	}
	if candidate.Sender != "alice@example.com" {
		t.Errorf("sender = %q", candidate.Sender)
	}
	if candidate.Date != "13/08/2025" || candidate.StartTime != "16:30" || candidate.EndTime != "17:00" {
		t.Errorf("schedule fields = %q %q %q", candidate.Date, candidate.StartTime, candidate.EndTime)
	}
	if candidate.MeetingLink != "https://meet.example.com/xyz" {
		t.Errorf("meeting_link = %q", candidate.MeetingLink)
	}
}

func TestParseCandidateJSONWrappedInProse(t *testing.T) {
	wrapped := "Sure! Here is the extraction:\n```json\n" + validJSON + "\n```\nLet me know if you need anything else."

	candidate, err := ParseCandidateJSON(wrapped)
	if err != nil {
		t.Fatalf("ParseCandidateJSON: %v", err)
	}
	if !candidate.HasMeeting {
		t.Error("has_meeting = false, want true")
	}
}

func TestParseCandidateJSONUnknownSentinels(t *testing.T) {
	text := `{
		"has_meeting": false,
		"sender": "bob@example.com",
		"date": "UNKNOWN",
		"start_time": "UNKNOWN",
		"end_time": "UNKNOWN",
		"body": "newsletter content",
		"meeting_link": "UNKNOWN"
	}`

	candidate, err := ParseCandidateJSON(text)
	if err != nil {
		t.Fatalf("ParseCandidateJSON: %v", err)
	}
	if candidate.Date != Unknown || candidate.StartTime != Unknown || candidate.EndTime != Unknown {
		t.Errorf("sentinels not preserved: %+v", candidate)
	}
	// An UNKNOWN link means no link.
	if candidate.MeetingLink != "" {
		t.Errorf("meeting_link = %q, want empty", candidate.MeetingLink)
	}
}

func TestParseCandidateJSONRejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json at all", "I could not find a meeting in this email."},
		{"not an object", "[1, 2, 3]"},
		{"missing has_meeting", strings.Replace(validJSON, `"has_meeting": true,`, "", 1)},
		{"missing sender", strings.Replace(validJSON, `"sender": "alice@example.com",`, "", 1)},
		{"empty sender", strings.Replace(validJSON, `"alice@example.com"`, `""`, 1)},
		{"missing body", strings.Replace(validJSON, `"body": "Project review",`, "", 1)},
		{"american date", strings.Replace(validJSON, "13/08/2025", "08/13/25", 1)},
		{"prose date", strings.Replace(validJSON, "13/08/2025", "next Tuesday", 1)},
		{"twelve hour time", strings.Replace(validJSON, `"16:30"`, `"4:30 PM"`, 1)},
		{"malformed json", "{not json}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCandidateJSON(tt.text); err == nil {
				t.Errorf("expected an error for %s", tt.name)
			}
		})
	}
}

func TestFallbackCandidate(t *testing.T) {
	c := FallbackCandidate("short body")
	if c.HasMeeting {
		t.Error("fallback must not report a meeting")
	}
	if c.Sender != Unknown || c.Date != Unknown || c.StartTime != Unknown || c.EndTime != Unknown {
		t.Errorf("fallback fields not sentineled: %+v", c)
	}
	if c.Body != "short body" {
		t.Errorf("body = %q", c.Body)
	}

	long := strings.Repeat("z", BodyPreviewLimit+50)
	if got := FallbackCandidate(long); len(got.Body) != BodyPreviewLimit {
		t.Errorf("body length = %d, want %d", len(got.Body), BodyPreviewLimit)
	}

	if got := FallbackCandidate(""); got.Body != Unknown {
		t.Errorf("empty body = %q, want %s", got.Body, Unknown)
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := IdempotencyKey("abc123"); got != "meeting-abc123" {
		t.Errorf("IdempotencyKey = %q", got)
	}
}
