package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// FallbackService routes extraction between providers:
// Gemini first (better structured output), Ollama when Gemini is
// unreachable or out of quota.
//
// Note for pipeline callers: the whole fallback chain still counts as the
// single oracle attempt for an email; there is no per-email retry above it.
type FallbackService struct {
	gemini MeetingParser
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini MeetingParser, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// ParseMeeting tries Gemini first, falls back to Ollama on quota or
// connection errors.
func (f *FallbackService) ParseMeeting(ctx context.Context, emailText string) (*meetingdomain.MeetingCandidate, error) {
	if f.gemini != nil {
		candidate, err := f.gemini.ParseMeeting(ctx, emailText)
		if err == nil {
			return candidate, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		candidate, err := f.ollama.ParseMeeting(ctx, emailText)
		if err == nil {
			return candidate, nil
		}

		// If Ollama is not reachable locally, give Gemini one more chance
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.ParseMeeting(ctx, emailText)
		}

		return nil, fmt.Errorf("ollama extraction failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for meeting extraction")
}
