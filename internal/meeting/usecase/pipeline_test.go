package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "meetsync-backend/internal/auth/domain"
	meetingdomain "meetsync-backend/internal/meeting/domain"
	"meetsync-backend/pkg/config"
)

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func (f *fakeUserRepo) Create(user *authdomain.User) error { return nil }
func (f *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUserRepo) FindByID(id string) (*authdomain.User, error) { return f.users[id], nil }
func (f *fakeUserRepo) Update(user *authdomain.User) error           { return nil }
func (f *fakeUserRepo) ListConnected() ([]*authdomain.User, error) {
	users := make([]*authdomain.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}
func (f *fakeUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error { return nil }
func (f *fakeUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteRefreshToken(token string) error { return nil }

type fakeLedger struct {
	records map[string]*meetingdomain.CreatedEventRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*meetingdomain.CreatedEventRecord)}
}

func (f *fakeLedger) FindByKey(userID, key string) (*meetingdomain.CreatedEventRecord, error) {
	return f.records[userID+"/"+key], nil
}

func (f *fakeLedger) Record(record *meetingdomain.CreatedEventRecord) error {
	f.records[record.UserID+"/"+record.IdempotencyKey] = record
	return nil
}

type fakeRunStore struct {
	runs []*meetingdomain.BatchRun
}

func (f *fakeRunStore) Save(run *meetingdomain.BatchRun) error {
	f.runs = append(f.runs, run)
	return nil
}
func (f *fakeRunStore) FindByUserID(userID string, limit, offset int) ([]*meetingdomain.BatchRun, int64, error) {
	return f.runs, int64(len(f.runs)), nil
}
func (f *fakeRunStore) FindByID(id string) (*meetingdomain.BatchRun, error) {
	for _, run := range f.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, nil
}

type fakeSource struct {
	emails []*meetingdomain.EmailRecord
	err    error
}

func (f *fakeSource) ListThreadEmails(ctx context.Context, accessToken, refreshToken, label string, onTokenRefresh meetingdomain.TokenUpdateFunc) ([]*meetingdomain.EmailRecord, error) {
	return f.emails, f.err
}

type fakeMailbox struct{}

func (f *fakeMailbox) ListMailboxEmails(ctx context.Context, host, username, password, mailbox string) ([]*meetingdomain.EmailRecord, error) {
	return nil, nil
}

type fakeSink struct {
	created []*meetingdomain.CalendarEvent
	failOn  map[string]bool // keyed by event subject
}

func (f *fakeSink) CreateEvent(ctx context.Context, accessToken, refreshToken string, event *meetingdomain.CalendarEvent, onTokenRefresh meetingdomain.TokenUpdateFunc) (*meetingdomain.CreatedEvent, error) {
	if f.failOn[event.Subject] {
		return nil, errors.New("calendar unavailable")
	}
	f.created = append(f.created, event)
	return &meetingdomain.CreatedEvent{ID: "ev-" + event.IdempotencyKey, Link: "https://calendar.example.com/" + event.IdempotencyKey}, nil
}

// scriptedParser returns a per-email result keyed by the subject line of
// the oracle input, failing for subjects listed in failSubjects.
type scriptedParser struct {
	results      map[string]*meetingdomain.MeetingCandidate
	failSubjects map[string]bool
	calls        int
}

func (p *scriptedParser) ParseMeeting(ctx context.Context, emailText string) (*meetingdomain.MeetingCandidate, error) {
	p.calls++
	for subject, fail := range p.failSubjects {
		if fail && containsLine(emailText, "Subject: "+subject) {
			return nil, errors.New("oracle failure")
		}
	}
	for subject, candidate := range p.results {
		if containsLine(emailText, "Subject: "+subject) {
			return candidate, nil
		}
	}
	return &meetingdomain.MeetingCandidate{HasMeeting: false, Sender: "x", Date: meetingdomain.Unknown, StartTime: meetingdomain.Unknown, EndTime: meetingdomain.Unknown, Body: "n/a"}, nil
}

func containsLine(text, line string) bool {
	for len(text) > 0 {
		idx := 0
		for idx < len(text) && text[idx] != '\n' {
			idx++
		}
		if text[:idx] == line {
			return true
		}
		if idx == len(text) {
			break
		}
		text = text[idx+1:]
	}
	return false
}

func testConfig() *config.Config {
	return &config.Config{
		MeetingLabel:     "meetings",
		CalendarID:       "primary",
		UTCOffset:        "+01:00",
		CalendarTimeZone: "Europe/Paris",
		ProcessInterval:  30 * time.Minute,
	}
}

func newTestUsecase(source *fakeSource, sink *fakeSink, parser *scriptedParser, ledger *fakeLedger, runs *fakeRunStore) MeetingUsecase {
	users := &fakeUserRepo{users: map[string]*authdomain.User{
		"u1": {ID: "u1", Email: "u1@example.com", Provider: "google", GoogleAccessToken: "at"},
	}}
	return NewMeetingUsecase(users, ledger, runs, source, &fakeMailbox{}, sink, parser, testConfig())
}

func meetingAt(start, end string) *meetingdomain.MeetingCandidate {
	return &meetingdomain.MeetingCandidate{
		HasMeeting: true,
		Sender:     "a@example.com",
		Date:       "13/08/2025",
		StartTime:  start,
		EndTime:    end,
		Body:       "meeting body",
	}
}

func TestProcessBatchHappyPath(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Planning", Date: "2025-08-13", Body: "b1"},
		{ID: "2", Subject: "Re: Planning", Date: "2025-08-14", Body: "b2"},
	}}
	parser := &scriptedParser{
		results: map[string]*meetingdomain.MeetingCandidate{
			"Planning":     meetingAt("10:00", "11:00"),
			"Re: Planning": meetingAt("14:00", "15:00"),
		},
	}
	sink := &fakeSink{}
	runs := &fakeRunStore{}

	uc := newTestUsecase(source, sink, parser, newFakeLedger(), runs)

	result, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.EmailsSeen != 2 || result.GroupsSeen != 1 {
		t.Errorf("seen = %d emails / %d groups, want 2 / 1", result.EmailsSeen, result.GroupsSeen)
	}
	if result.EventsCreated != 2 || result.EventsFailed != 0 {
		t.Errorf("created=%d failed=%d, want 2 / 0", result.EventsCreated, result.EventsFailed)
	}
	if len(sink.created) != 2 {
		t.Errorf("sink received %d events, want 2", len(sink.created))
	}
	if len(result.Created) != 2 {
		t.Errorf("result lists %d created events, want 2", len(result.Created))
	}

	if len(runs.runs) != 1 || runs.runs[0].Status != meetingdomain.RunStatusCompleted {
		t.Errorf("expected one completed run record, got %+v", runs.runs)
	}
}

// One oracle failure mid-batch is absorbed: the failing email counts as a
// failure and every other email is still processed.
func TestProcessBatchItemIsolation(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Standup", Date: "a", Body: "b1"},
		{ID: "2", Subject: "Broken", Date: "b", Body: "b2"},
		{ID: "3", Subject: "Retro", Date: "c", Body: "b3"},
	}}
	parser := &scriptedParser{
		results: map[string]*meetingdomain.MeetingCandidate{
			"Standup": meetingAt("09:00", "09:15"),
			"Retro":   meetingAt("17:00", "18:00"),
		},
		failSubjects: map[string]bool{"Broken": true},
	}
	sink := &fakeSink{}

	uc := newTestUsecase(source, sink, parser, newFakeLedger(), &fakeRunStore{})

	result, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.EventsCreated != 2 {
		t.Errorf("created = %d, want 2", result.EventsCreated)
	}
	if result.EventsFailed != 1 {
		t.Errorf("failed = %d, want 1", result.EventsFailed)
	}
	if parser.calls != 3 {
		t.Errorf("parser calls = %d, want 3 (one per email, no retries)", parser.calls)
	}
}

func TestProcessBatchFetchFailureIsFatal(t *testing.T) {
	source := &fakeSource{err: errors.New("gmail unreachable")}
	runs := &fakeRunStore{}

	uc := newTestUsecase(source, &fakeSink{}, &scriptedParser{}, newFakeLedger(), runs)

	if _, err := uc.ProcessBatch(context.Background(), "u1"); err == nil {
		t.Fatal("expected a fatal error when fetching fails")
	}

	if len(runs.runs) != 1 || runs.runs[0].Status != meetingdomain.RunStatusFailed {
		t.Errorf("expected one failed run record, got %+v", runs.runs)
	}
}

func TestProcessBatchSkipsNonMeetings(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Newsletter", Date: "a", Body: "no meetings here"},
	}}
	sink := &fakeSink{}

	uc := newTestUsecase(source, sink, &scriptedParser{}, newFakeLedger(), &fakeRunStore{})

	result, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.EmailsSkipped != 1 || result.EventsCreated != 0 || result.EventsFailed != 0 {
		t.Errorf("skipped=%d created=%d failed=%d, want 1 / 0 / 0", result.EmailsSkipped, result.EventsCreated, result.EventsFailed)
	}
	if len(sink.created) != 0 {
		t.Errorf("sink received %d events, want none", len(sink.created))
	}
}

func TestProcessBatchDeduplicatesAcrossRuns(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Planning", Date: "a", Body: "b"},
	}}
	parser := &scriptedParser{results: map[string]*meetingdomain.MeetingCandidate{
		"Planning": meetingAt("10:00", "11:00"),
	}}
	sink := &fakeSink{}
	ledger := newFakeLedger()

	uc := newTestUsecase(source, sink, parser, ledger, &fakeRunStore{})

	first, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.EventsCreated != 1 || second.EventsCreated != 0 {
		t.Errorf("created = %d then %d, want 1 then 0", first.EventsCreated, second.EventsCreated)
	}
	if second.DuplicatesSkipped != 1 {
		t.Errorf("duplicates skipped = %d, want 1", second.DuplicatesSkipped)
	}
	if len(sink.created) != 1 {
		t.Errorf("sink received %d events across both runs, want 1", len(sink.created))
	}
}

func TestProcessBatchSinkFailureCounted(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Planning", Date: "a", Body: "b"},
		{ID: "2", Subject: "Review", Date: "a", Body: "b"},
	}}
	parser := &scriptedParser{results: map[string]*meetingdomain.MeetingCandidate{
		"Planning": meetingAt("10:00", "11:00"),
		"Review":   meetingAt("12:00", "13:00"),
	}}
	sink := &fakeSink{failOn: map[string]bool{"Review": true}}
	ledger := newFakeLedger()

	uc := newTestUsecase(source, sink, parser, ledger, &fakeRunStore{})

	result, err := uc.ProcessBatch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.EventsCreated != 1 || result.EventsFailed != 1 {
		t.Errorf("created=%d failed=%d, want 1 / 1", result.EventsCreated, result.EventsFailed)
	}

	// The failed email left no ledger entry, so a later run can retry it.
	if rec, _ := ledger.FindByKey("u1", meetingdomain.IdempotencyKey("2")); rec != nil {
		t.Error("failed dispatch must not be recorded in the ledger")
	}
}

func TestProcessBatchUnknownUser(t *testing.T) {
	uc := newTestUsecase(&fakeSource{}, &fakeSink{}, &scriptedParser{}, newFakeLedger(), &fakeRunStore{})

	if _, err := uc.ProcessBatch(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestPreviewThreads(t *testing.T) {
	source := &fakeSource{emails: []*meetingdomain.EmailRecord{
		{ID: "1", Subject: "Planning", Date: "a", Body: "b"},
		{ID: "2", Subject: "Re: Planning", Date: "b", Body: "b"},
	}}
	parser := &scriptedParser{}

	uc := newTestUsecase(source, &fakeSink{}, parser, newFakeLedger(), &fakeRunStore{})

	groups, err := uc.PreviewThreads(context.Background(), "u1")
	if err != nil {
		t.Fatalf("PreviewThreads: %v", err)
	}
	if len(groups["Planning"]) != 2 {
		t.Errorf("expected 2 emails in Planning group, got %d", len(groups["Planning"]))
	}
	if parser.calls != 0 {
		t.Errorf("preview must not call the oracle, got %d calls", parser.calls)
	}
}
