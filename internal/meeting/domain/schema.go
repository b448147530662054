package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FormatInstructions is appended to every extraction prompt. It pins the
// output schema the parsers validate against.
const FormatInstructions = `Return a single JSON object with exactly these fields:
- has_meeting: boolean, true only if the email sets up a meeting
- sender: the sender of the email
- date: the meeting date in european format DD/MM/YYYY, e.g. 13/08/2025
- start_time: the start time in 24-hour format HH:MM, e.g. 16:30
- end_time: the end time in 24-hour format HH:MM, e.g. 17:00
- body: the body of the email
- meeting_link: the video conference link, or "" if there is none

If you do not know a value, use the literal string UNKNOWN.
Return ONLY the JSON object, no other text.`

var (
	dateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// rawCandidate uses pointers so a missing key is distinguishable from an
// empty value.
type rawCandidate struct {
	HasMeeting  *bool   `json:"has_meeting"`
	Sender      *string `json:"sender"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Body        *string `json:"body"`
	MeetingLink *string `json:"meeting_link"`
}

// ParseCandidateJSON extracts the JSON object from raw model output and
// validates it against the candidate schema. Any violation is an error; the
// caller degrades to FallbackCandidate rather than keeping a partial result.
func ParseCandidateJSON(text string) (*MeetingCandidate, error) {
	// Models tend to wrap the object in prose or code fences.
	text = strings.TrimSpace(text)
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	text = text[jsonStart : jsonEnd+1]

	var raw rawCandidate
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse candidate JSON: %v", err)
	}

	if raw.HasMeeting == nil {
		return nil, fmt.Errorf("missing field: has_meeting")
	}
	if raw.Sender == nil || *raw.Sender == "" {
		return nil, fmt.Errorf("missing field: sender")
	}
	if raw.Date == nil || raw.StartTime == nil || raw.EndTime == nil {
		return nil, fmt.Errorf("missing date/time fields")
	}
	if raw.Body == nil {
		return nil, fmt.Errorf("missing field: body")
	}

	if *raw.Date != Unknown && !dateRe.MatchString(*raw.Date) {
		return nil, fmt.Errorf("invalid date %q: want DD/MM/YYYY or %s", *raw.Date, Unknown)
	}
	if *raw.StartTime != Unknown && !timeRe.MatchString(*raw.StartTime) {
		return nil, fmt.Errorf("invalid start_time %q: want HH:MM or %s", *raw.StartTime, Unknown)
	}
	if *raw.EndTime != Unknown && !timeRe.MatchString(*raw.EndTime) {
		return nil, fmt.Errorf("invalid end_time %q: want HH:MM or %s", *raw.EndTime, Unknown)
	}

	candidate := &MeetingCandidate{
		HasMeeting: *raw.HasMeeting,
		Sender:     *raw.Sender,
		Date:       *raw.Date,
		StartTime:  *raw.StartTime,
		EndTime:    *raw.EndTime,
		Body:       *raw.Body,
	}
	if raw.MeetingLink != nil && *raw.MeetingLink != Unknown {
		candidate.MeetingLink = *raw.MeetingLink
	}
	return candidate, nil
}
