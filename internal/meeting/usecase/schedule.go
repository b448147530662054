package usecase

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// DefaultDurationMinutes is used whenever start/end times are unknown,
// malformed, or inverted.
const DefaultDurationMinutes = 60

// parseClock parses "HH:MM" (seconds tolerated and ignored) into minutes
// since midnight.
func parseClock(value string) (int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// ComputeDuration returns the meeting length in minutes. Unknown sentinels,
// malformed times, and non-positive spans all fall back to the default; this
// function never propagates a parse failure.
func ComputeDuration(startTime, endTime string) int {
	if startTime == meetingdomain.Unknown || endTime == meetingdomain.Unknown {
		return DefaultDurationMinutes
	}

	start, ok := parseClock(startTime)
	if !ok {
		return DefaultDurationMinutes
	}
	end, ok := parseClock(endTime)
	if !ok {
		return DefaultDurationMinutes
	}

	duration := end - start
	if duration <= 0 {
		return DefaultDurationMinutes
	}
	return duration
}

// NormalizeDate converts DD/MM/YYYY into the sink's YYYY-MM-DD form. A date
// that does not parse falls back to the given processing date; the second
// return reports whether the fallback was taken so the caller can log it.
func NormalizeDate(date string, now time.Time) (string, bool) {
	parsed, err := time.Parse("02/01/2006", date)
	if err != nil {
		return now.Format("2006-01-02"), true
	}
	return parsed.Format("2006-01-02"), false
}

// ComposeDateTime joins a normalized date, a clock time and a fixed UTC
// offset into an offset-qualified timestamp. Seconds are appended only when
// the time does not carry them already.
func ComposeDateTime(date, clock, offset string) string {
	if strings.Count(clock, ":") == 1 {
		return date + "T" + clock + ":00" + offset
	}
	return date + "T" + clock + offset
}

// EventBuilder maps a validated meeting candidate onto a calendar event
// descriptor. The UTC offset and time zone are fixed per deployment.
type EventBuilder struct {
	UTCOffset string
	TimeZone  string
	Now       func() time.Time
}

func NewEventBuilder(utcOffset, timeZone string) *EventBuilder {
	return &EventBuilder{
		UTCOffset: utcOffset,
		TimeZone:  timeZone,
		Now:       time.Now,
	}
}

// Build returns the event for a candidate, or nil when the candidate has no
// meeting. HasMeeting is the sole gate controlling event creation.
func (b *EventBuilder) Build(candidate *meetingdomain.MeetingCandidate, email *meetingdomain.EmailRecord) *meetingdomain.CalendarEvent {
	if candidate == nil || !candidate.HasMeeting {
		return nil
	}

	date, fellBack := NormalizeDate(candidate.Date, b.Now())
	if fellBack {
		log.Printf("[EventBuilder] invalid meeting date %q for email %s, using current date %s", candidate.Date, email.ID, date)
	}

	startClock := candidate.StartTime
	if _, ok := parseClock(startClock); !ok {
		startClock = meetingdomain.DefaultStartTime
	}
	startMinutes, _ := parseClock(startClock)

	// Same-day arithmetic only: the end never rolls into the next date.
	endMinutes := startMinutes + ComputeDuration(candidate.StartTime, candidate.EndTime)
	if endMinutes > 23*60+59 {
		endMinutes = 23*60 + 59
	}
	endClock := fmt.Sprintf("%02d:%02d", endMinutes/60, endMinutes%60)

	subject := strings.TrimSpace(email.Subject)
	if subject == "" {
		subject = meetingdomain.NoSubject
	}

	description := candidate.Body
	if len(description) > meetingdomain.BodyPreviewLimit {
		description = description[:meetingdomain.BodyPreviewLimit]
	}
	if description == "" {
		description = meetingdomain.DefaultDescription
	}
	if candidate.MeetingLink != "" {
		description += "\n\nMeeting link: " + candidate.MeetingLink
	}

	return &meetingdomain.CalendarEvent{
		Subject:        subject,
		Location:       meetingdomain.DefaultLocation,
		Description:    description,
		StartDateTime:  ComposeDateTime(date, startClock, b.UTCOffset),
		EndDateTime:    ComposeDateTime(date, endClock, b.UTCOffset),
		TimeZone:       b.TimeZone,
		IdempotencyKey: meetingdomain.IdempotencyKey(email.ID),
	}
}
