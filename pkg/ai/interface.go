package ai

import (
	"context"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// MeetingParser is the extraction oracle interface. Implement it to add new
// providers (Gemini, Ollama, OpenAI, etc.). A parser makes exactly one
// attempt and returns an error both when the call fails and when the model
// output does not validate against the candidate schema.
type MeetingParser interface {
	ParseMeeting(ctx context.Context, emailText string) (*meetingdomain.MeetingCandidate, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
