package gcal

import (
	"context"
	"fmt"
	"log"
	"time"

	meetingdomain "meetsync-backend/internal/meeting/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = meetingdomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
	calendarID   string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Calendar] failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, calendarID string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		calendarID:   calendarID,
	}
}

func (s *Service) getCalendarService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return srv, nil
}

// CreateEvent inserts one event with the fixed reminder policy. The
// idempotency key travels in the event's private extended properties so the
// origin email stays traceable from the calendar side.
func (s *Service) CreateEvent(ctx context.Context, accessToken, refreshToken string, event *meetingdomain.CalendarEvent, onTokenRefresh TokenUpdateFunc) (*meetingdomain.CreatedEvent, error) {
	srv, err := s.getCalendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	calEvent := &calendar.Event{
		Summary:     event.Subject,
		Location:    event.Location,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.StartDateTime,
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.EndDateTime,
			TimeZone: event.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: meetingdomain.ReminderEmailMinutes},
				{Method: "popup", Minutes: meetingdomain.ReminderPopupMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"idempotencyKey": event.IdempotencyKey,
			},
		},
	}

	created, err := srv.Events.Insert(s.calendarID, calEvent).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to insert event: %v", err)
	}

	log.Printf("[Calendar] created event %s (%s)", created.Id, event.Subject)
	return &meetingdomain.CreatedEvent{
		ID:   created.Id,
		Link: created.HtmlLink,
	}, nil
}
