package usecase

import (
	"context"

	authdomain "meetsync-backend/internal/auth/domain"
	authdto "meetsync-backend/internal/auth/dto"
)

// AuthUsecase defines authentication and account-connection operations
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// GoogleAuthURL returns the consent URL requesting Gmail read and
	// Calendar write scopes.
	GoogleAuthURL(state string) string
	// GoogleCallback exchanges the authorization code and binds the Google
	// account to the user, then registers the mailbox watch if a Pub/Sub
	// topic is configured.
	GoogleCallback(ctx context.Context, userID, code string) (*authdomain.User, error)
	ConnectIMAP(ctx context.Context, userID string, req *authdto.ConnectIMAPRequest) (*authdomain.User, error)

	RegisterDevice(userID, token, deviceInfo string) error
	UnregisterDevice(token string) error

	// Optional collaborators, wired after construction.
	SetGmailWatcher(w GmailWatcher)
	SetMailboxVerifier(v MailboxVerifier)
}
