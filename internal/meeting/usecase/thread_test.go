package usecase

import (
	"testing"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"plain", "Team Sync", "Team Sync"},
		{"reply prefix", "Re: Team Sync", "Team Sync"},
		{"forward prefix", "Fwd: Team Sync", "Team Sync"},
		{"short forward prefix", "FW: Team Sync", "Team Sync"},
		{"reply word", "Reply: Team Sync", "Team Sync"},
		{"forward word", "Forward: Team Sync", "Team Sync"},
		{"stacked prefixes", "Fwd: Re: Team Sync", "Team Sync"},
		{"triple stacked", "Re: Fwd: Re: Team Sync", "Team Sync"},
		{"mixed case", "rE: fWd: Team Sync", "Team Sync"},
		{"inner whitespace collapsed", "Team    Sync   Notes", "Team Sync Notes"},
		{"surrounding whitespace", "  Team Sync  ", "Team Sync"},
		{"empty", "", meetingdomain.NoSubject},
		{"whitespace only", "   ", meetingdomain.NoSubject},
		{"prefixes only", "Re: Fwd:", meetingdomain.NoSubject},
		{"prefix not at front", "Team Re: Sync", "Team Re: Sync"},
		{"prefix without colon kept", "Regarding budget", "Regarding budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSubject(tt.subject)
			if got != tt.want {
				t.Errorf("NormalizeSubject(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

func TestNormalizeSubjectIdempotent(t *testing.T) {
	subjects := []string{
		"Re: Fwd: Team Sync",
		"  Budget   review ",
		"",
		"Re:",
		"Plain subject",
	}

	for _, subject := range subjects {
		once := NormalizeSubject(subject)
		twice := NormalizeSubject(once)
		if once != twice {
			t.Errorf("NormalizeSubject not idempotent for %q: first %q, second %q", subject, once, twice)
		}
	}
}

func TestGroupBySubject(t *testing.T) {
	emails := []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Team Sync", Date: "2025-08-10"},
		{ID: "2", Subject: "Re: Team Sync", Date: "2025-08-12"},
		{ID: "3", Subject: "Budget", Date: "2025-08-11"},
		{ID: "4", Subject: "Fwd: Re: Team Sync", Date: "2025-08-11"},
	}

	groups := GroupBySubject(emails)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	sync, ok := groups["Team Sync"]
	if !ok {
		t.Fatal("expected a Team Sync group")
	}
	if len(sync) != 3 {
		t.Fatalf("expected 3 emails in Team Sync group, got %d", len(sync))
	}

	// Newest raw date string first.
	wantOrder := []string{"2", "4", "1"}
	for i, email := range sync {
		if email.ID != wantOrder[i] {
			t.Errorf("position %d: got email %s, want %s", i, email.ID, wantOrder[i])
		}
	}

	if len(groups["Budget"]) != 1 {
		t.Errorf("expected 1 email in Budget group, got %d", len(groups["Budget"]))
	}
}

// Sorting compares raw date headers as strings. With RFC-style headers this
// is not chronological; the test pins the behavior so a change is deliberate.
func TestGroupBySubjectLexicographicOrder(t *testing.T) {
	emails := []*meetingdomain.EmailRecord{
		{ID: "a", Subject: "Sync", Date: "Mon, 11 Aug 2025 09:00:00 +0000"},
		{ID: "b", Subject: "Sync", Date: "Tue, 12 Aug 2025 09:00:00 +0000"},
	}

	groups := GroupBySubject(emails)
	bucket := groups["Sync"]

	// "Tue" > "Mon" lexicographically, which here happens to agree with
	// chronology. "Wed" before "Thu" would not.
	if bucket[0].ID != "b" {
		t.Errorf("expected email b first, got %s", bucket[0].ID)
	}
}

func TestGroupBySubjectPreservesCount(t *testing.T) {
	emails := []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "One"},
		{ID: "2", Subject: "Re: One"},
		{ID: "3", Subject: ""},
		{ID: "4", Subject: "Two"},
		{ID: "5", Subject: "   "},
	}

	groups := GroupBySubject(emails)

	total := 0
	for _, bucket := range groups {
		total += len(bucket)
	}
	if total != len(emails) {
		t.Errorf("grouping changed email count: got %d, want %d", total, len(emails))
	}

	// Empty and whitespace subjects land in the shared sentinel bucket.
	if len(groups[meetingdomain.NoSubject]) != 2 {
		t.Errorf("expected 2 emails in %q group, got %d", meetingdomain.NoSubject, len(groups[meetingdomain.NoSubject]))
	}
}

func TestSortedGroupKeys(t *testing.T) {
	groups := map[string][]*meetingdomain.EmailRecord{
		"Zebra": nil,
		"Alpha": nil,
		"Mango": nil,
	}

	keys := sortedGroupKeys(groups)
	want := []string{"Alpha", "Mango", "Zebra"}
	for i, key := range keys {
		if key != want[i] {
			t.Errorf("position %d: got %q, want %q", i, key, want[i])
		}
	}
}
