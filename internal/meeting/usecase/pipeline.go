package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	authdomain "meetsync-backend/internal/auth/domain"
	authrepo "meetsync-backend/internal/auth/repository"
	meetingdomain "meetsync-backend/internal/meeting/domain"
	"meetsync-backend/internal/meeting/repository"
	"meetsync-backend/pkg/ai"
	"meetsync-backend/pkg/config"

	"golang.org/x/oauth2"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSourceNotConnected = errors.New("no email source connected for this account")
)

// meetingUsecase implements MeetingUsecase. Processing is sequential: one
// email at a time, group by group, so the batch accumulator needs no
// locking. An item failure is folded into the result and never stops the
// remaining items; only a fetch failure aborts the whole batch.
type meetingUsecase struct {
	userRepo      authrepo.UserRepository
	createdEvents repository.CreatedEventRepository
	batchRuns     repository.BatchRunRepository
	gmailSource   EmailSource
	imapSource    MailboxSource
	sink          CalendarSink
	extractor     *Extractor
	builder       *EventBuilder
	cfg           *config.Config
}

// NewMeetingUsecase creates a new instance of meetingUsecase
func NewMeetingUsecase(
	userRepo authrepo.UserRepository,
	createdEvents repository.CreatedEventRepository,
	batchRuns repository.BatchRunRepository,
	gmailSource EmailSource,
	imapSource MailboxSource,
	sink CalendarSink,
	parser ai.MeetingParser,
	cfg *config.Config,
) MeetingUsecase {
	return &meetingUsecase{
		userRepo:      userRepo,
		createdEvents: createdEvents,
		batchRuns:     batchRuns,
		gmailSource:   gmailSource,
		imapSource:    imapSource,
		sink:          sink,
		extractor:     NewExtractor(parser),
		builder:       NewEventBuilder(cfg.UTCOffset, cfg.CalendarTimeZone),
		cfg:           cfg,
	}
}

func (u *meetingUsecase) ProcessBatch(ctx context.Context, userID string) (*meetingdomain.BatchResult, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	startedAt := time.Now()

	// FETCHING: the only state whose failure is fatal to the batch.
	emails, err := u.fetchEmails(ctx, user)
	if err != nil {
		u.saveRun(user.ID, &meetingdomain.BatchResult{}, startedAt, err)
		return nil, fmt.Errorf("fetch meeting emails: %w", err)
	}

	// GROUPING is pure and cannot fail.
	groups := GroupBySubject(emails)

	result := &meetingdomain.BatchResult{
		GroupsSeen: len(groups),
		EmailsSeen: len(emails),
	}

	log.Printf("[Pipeline] user %s: %d emails in %d thread groups", user.ID, len(emails), len(groups))

	for _, subject := range sortedGroupKeys(groups) {
		for _, email := range groups[subject] {
			u.processEmail(ctx, user, email, result)
		}
	}

	u.saveRun(user.ID, result, startedAt, nil)

	log.Printf("[Pipeline] user %s: created=%d failed=%d skipped=%d duplicates=%d",
		user.ID, result.EventsCreated, result.EventsFailed, result.EmailsSkipped, result.DuplicatesSkipped)
	return result, nil
}

// processEmail runs extraction, building and dispatch for one email. Every
// failure is absorbed here: one item's outcome never affects another's.
func (u *meetingUsecase) processEmail(ctx context.Context, user *authdomain.User, email *meetingdomain.EmailRecord, result *meetingdomain.BatchResult) {
	extraction := u.extractor.Extract(ctx, email)
	if extraction.Degraded {
		// Oracle or schema failure: counted as a failure, item skipped,
		// batch continues. No retry.
		result.EventsFailed++
		return
	}

	candidate := extraction.Candidate
	if !candidate.HasMeeting {
		result.EmailsSkipped++
		return
	}
	result.MeetingsFound++

	key := meetingdomain.IdempotencyKey(email.ID)
	existing, err := u.createdEvents.FindByKey(user.ID, key)
	if err != nil {
		log.Printf("[Pipeline] ledger lookup failed for email %s: %v", email.ID, err)
		result.EventsFailed++
		return
	}
	if existing != nil {
		log.Printf("[Pipeline] event already created for email %s (%s), skipping", email.ID, existing.EventID)
		result.DuplicatesSkipped++
		return
	}

	event := u.builder.Build(candidate, email)
	if event == nil {
		result.EmailsSkipped++
		return
	}

	created, err := u.sink.CreateEvent(ctx, user.GoogleAccessToken, user.GoogleRefreshToken, event, u.tokenUpdater(user))
	if err != nil {
		log.Printf("[Pipeline] create event failed for email %s: %v", email.ID, err)
		result.EventsFailed++
		return
	}

	record := &meetingdomain.CreatedEventRecord{
		UserID:         user.ID,
		EmailID:        email.ID,
		IdempotencyKey: key,
		EventID:        created.ID,
		Link:           created.Link,
		Subject:        event.Subject,
	}
	if err := u.createdEvents.Record(record); err != nil {
		// The event exists in the sink; losing the ledger entry only risks a
		// duplicate on a later run, so count the creation anyway.
		log.Printf("[Pipeline] failed to record created event for email %s: %v", email.ID, err)
	}

	result.EventsCreated++
	result.Created = append(result.Created, meetingdomain.EventSummary{
		EmailID:   email.ID,
		Subject:   event.Subject,
		Date:      candidate.Date,
		StartTime: candidate.StartTime,
		EventID:   created.ID,
		Link:      created.Link,
	})
}

func (u *meetingUsecase) PreviewThreads(ctx context.Context, userID string) (map[string][]*meetingdomain.EmailRecord, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	emails, err := u.fetchEmails(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("fetch meeting emails: %w", err)
	}
	return GroupBySubject(emails), nil
}

func (u *meetingUsecase) GetRuns(userID string, limit, offset int) ([]*meetingdomain.BatchRun, int64, error) {
	return u.batchRuns.FindByUserID(userID, limit, offset)
}

func (u *meetingUsecase) GetRunByID(userID, runID string) (*meetingdomain.BatchRun, error) {
	run, err := u.batchRuns.FindByID(runID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.UserID != userID {
		return nil, nil
	}
	return run, nil
}

// fetchEmails picks the source adapter for the user's provider.
func (u *meetingUsecase) fetchEmails(ctx context.Context, user *authdomain.User) ([]*meetingdomain.EmailRecord, error) {
	if !user.Connected() {
		return nil, ErrSourceNotConnected
	}

	if user.Provider == "imap" {
		mailbox := user.IMAPMailbox
		if mailbox == "" {
			mailbox = u.cfg.MeetingLabel
		}
		return u.imapSource.ListMailboxEmails(ctx, user.IMAPHost, user.IMAPUsername, user.IMAPPassword, mailbox)
	}

	return u.gmailSource.ListThreadEmails(ctx, user.GoogleAccessToken, user.GoogleRefreshToken, u.cfg.MeetingLabel, u.tokenUpdater(user))
}

// tokenUpdater persists refreshed Google tokens back onto the user.
func (u *meetingUsecase) tokenUpdater(user *authdomain.User) meetingdomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		user.GoogleAccessToken = token.AccessToken
		if token.RefreshToken != "" {
			user.GoogleRefreshToken = token.RefreshToken
		}
		return u.userRepo.Update(user)
	}
}

func (u *meetingUsecase) saveRun(userID string, result *meetingdomain.BatchResult, startedAt time.Time, runErr error) {
	run := &meetingdomain.BatchRun{
		UserID:            userID,
		Label:             u.cfg.MeetingLabel,
		GroupsSeen:        result.GroupsSeen,
		EmailsSeen:        result.EmailsSeen,
		MeetingsFound:     result.MeetingsFound,
		EventsCreated:     result.EventsCreated,
		EventsFailed:      result.EventsFailed,
		EmailsSkipped:     result.EmailsSkipped,
		DuplicatesSkipped: result.DuplicatesSkipped,
		Status:            meetingdomain.RunStatusCompleted,
		StartedAt:         startedAt,
		FinishedAt:        time.Now(),
	}
	if runErr != nil {
		run.Status = meetingdomain.RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := u.batchRuns.Save(run); err != nil {
		log.Printf("[Pipeline] failed to save batch run for user %s: %v", userID, err)
	}
}
