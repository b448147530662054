package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	authrepo "meetsync-backend/internal/auth/repository"
	meetingusecase "meetsync-backend/internal/meeting/usecase"
	"meetsync-backend/pkg/fcm"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the Pub/Sub topic.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service consumes Gmail push notifications and triggers a pipeline run for
// the affected user. It complements the interval scheduler: the scheduler
// guarantees eventual processing, push makes it prompt.
type Service struct {
	pubsubClient   *pubsub.Client
	userRepo       authrepo.UserRepository
	deviceRepo     authrepo.DeviceTokenRepository
	fcmClient      *fcm.Client
	meetingUsecase meetingusecase.MeetingUsecase
	topicName      string
	subName        string

	// Track last historyId per user to drop duplicate notifications.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName, credentialsFile string, userRepo authrepo.UserRepository, deviceRepo authrepo.DeviceTokenRepository, fcmClient *fcm.Client, meetingUsecase meetingusecase.MeetingUsecase) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:   client,
		userRepo:       userRepo,
		deviceRepo:     deviceRepo,
		fcmClient:      fcmClient,
		meetingUsecase: meetingUsecase,
		topicName:      topicName,
		subName:        topicName + "-sub",
		lastHistoryID:  make(map[string]uint64),
	}, nil
}

// Start blocks receiving messages until the context is cancelled. Run it on
// its own goroutine.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	user, err := s.userRepo.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding user by email %s: %v", notification.EmailAddress, err)
		return
	}
	if user == nil {
		log.Printf("[PubSub] User not found for email: %s", notification.EmailAddress)
		return
	}

	if s.isDuplicate(user.ID, notification.HistoryID) {
		return
	}

	log.Printf("[PubSub] New mail for user %s (historyId %d), running pipeline", user.ID, notification.HistoryID)

	result, err := s.meetingUsecase.ProcessBatch(ctx, user.ID)
	if err != nil {
		log.Printf("[PubSub] Pipeline run failed for user %s: %v", user.ID, err)
		return
	}

	if result.EventsCreated > 0 {
		s.notifyUser(ctx, user.ID, result.EventsCreated)
	}
}

func (s *Service) isDuplicate(userID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[userID]; ok && historyID <= last {
		return true
	}
	s.lastHistoryID[userID] = historyID
	return false
}

func (s *Service) notifyUser(ctx context.Context, userID string, created int) {
	if s.fcmClient == nil || s.deviceRepo == nil {
		return
	}

	tokens, err := s.deviceRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Error getting device tokens for user %s: %v", userID, err)
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

	failed, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title: "Meetings scheduled",
		Body:  body,
		Data:  map[string]string{"events_created": fmt.Sprintf("%d", created)},
	})
	if err != nil {
		log.Printf("[FCM] Failed to notify user %s: %v", userID, err)
		return
	}

	for _, token := range failed {
		if err := s.deviceRepo.DeleteToken(token); err != nil {
			log.Printf("[FCM] Failed to prune dead token: %v", err)
		}
	}
}
