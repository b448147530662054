package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	authrepo "meetsync-backend/internal/auth/repository"
	"meetsync-backend/internal/meeting/usecase"
	"meetsync-backend/pkg/fcm"
)

// BatchScheduler runs the pipeline for every connected user on a fixed
// interval. Users are processed one after another; a failing user never
// blocks the others.
type BatchScheduler struct {
	meetingUsecase usecase.MeetingUsecase
	userRepo       authrepo.UserRepository
	deviceRepo     authrepo.DeviceTokenRepository
	fcmClient      *fcm.Client
	interval       time.Duration
	stopChan       chan struct{}
}

// NewBatchScheduler creates a new scheduler
func NewBatchScheduler(
	meetingUsecase usecase.MeetingUsecase,
	userRepo authrepo.UserRepository,
	deviceRepo authrepo.DeviceTokenRepository,
	fcmClient *fcm.Client,
	interval time.Duration,
) *BatchScheduler {
	return &BatchScheduler{
		meetingUsecase: meetingUsecase,
		userRepo:       userRepo,
		deviceRepo:     deviceRepo,
		fcmClient:      fcmClient,
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *BatchScheduler) Start() {
	log.Printf("[Scheduler] Starting batch scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runAll()
			case <-s.stopChan:
				log.Println("[Scheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *BatchScheduler) Stop() {
	close(s.stopChan)
}

// runAll processes every connected user once.
func (s *BatchScheduler) runAll() {
	users, err := s.userRepo.ListConnected()
	if err != nil {
		log.Printf("[Scheduler] Error listing connected users: %v", err)
		return
	}

	if len(users) == 0 {
		return
	}

	log.Printf("[Scheduler] Processing %d connected users", len(users))

	for _, user := range users {
		result, err := s.meetingUsecase.ProcessBatch(context.Background(), user.ID)
		if err != nil {
			log.Printf("[Scheduler] Pipeline run failed for user %s: %v", user.ID, err)
			continue
		}

		if result.EventsCreated > 0 {
			s.notifyUser(user.ID, result.EventsCreated)
		}
	}
}

func (s *BatchScheduler) notifyUser(userID string, created int) {
	if s.fcmClient == nil || s.deviceRepo == nil {
		return
	}

	tokens, err := s.deviceRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[Scheduler] Error getting device tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	body := fmt.Sprintf("%d meeting events added to your calendar", created)
	if created == 1 {
		body = "1 meeting event added to your calendar"
	}

	failedTokens, err := s.fcmClient.SendToDevices(context.Background(), tokenStrings, fcm.NotificationData{
		Title: "Meetings scheduled",
		Body:  body,
		Data: map[string]string{
			"type":           "batch_complete",
			"events_created": fmt.Sprintf("%d", created),
		},
	})
	if err != nil {
		log.Printf("[Scheduler] Error sending notification to user %s: %v", userID, err)
		return
	}

	for _, token := range failedTokens {
		if err := s.deviceRepo.DeleteToken(token); err != nil {
			log.Printf("[Scheduler] Failed to prune dead token: %v", err)
		}
	}
}
