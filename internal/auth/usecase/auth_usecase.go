package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	authdomain "meetsync-backend/internal/auth/domain"
	authdto "meetsync-backend/internal/auth/dto"
	"meetsync-backend/internal/auth/repository"
	meetingdomain "meetsync-backend/internal/meeting/domain"
	"meetsync-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleScopes is everything the pipeline needs: read mail, write events.
var googleScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
}

// GmailWatcher registers a mailbox for push notifications.
type GmailWatcher interface {
	Watch(ctx context.Context, accessToken, refreshToken, topicName string, onTokenRefresh meetingdomain.TokenUpdateFunc) error
}

// MailboxVerifier checks IMAP credentials by listing the target mailbox.
type MailboxVerifier interface {
	ListMailboxEmails(ctx context.Context, host, username, password, mailbox string) ([]*meetingdomain.EmailRecord, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo        repository.UserRepository
	deviceTokenRepo repository.DeviceTokenRepository
	config          *config.Config
	oauthConfig     *oauth2.Config
	gmailWatcher    GmailWatcher
	mailboxVerifier MailboxVerifier
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, deviceTokenRepo repository.DeviceTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:        userRepo,
		deviceTokenRepo: deviceTokenRepo,
		config:          cfg,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// SetGmailWatcher wires the optional mailbox watch registration.
func (u *authUsecase) SetGmailWatcher(w GmailWatcher) {
	u.gmailWatcher = w
}

// SetMailboxVerifier wires IMAP credential verification.
func (u *authUsecase) SetMailboxVerifier(v MailboxVerifier) {
	u.mailboxVerifier = v
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "email",
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	return u.generateTokens(user)
}

func (u *authUsecase) GoogleAuthURL(state string) string {
	// AccessTypeOffline plus forced consent so Google always returns a
	// refresh token, not only on the first authorization.
	return u.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (u *authUsecase) GoogleCallback(ctx context.Context, userID, code string) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	token, err := u.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("failed to exchange authorization code: " + err.Error())
	}

	user.Provider = "google"
	user.GoogleAccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.GoogleRefreshToken = token.RefreshToken
	}

	if err := u.userRepo.Update(user); err != nil {
		return nil, err
	}

	if u.gmailWatcher != nil && u.config.GmailPubSubTopic != "" {
		onRefresh := func(t *oauth2.Token) error {
			user.GoogleAccessToken = t.AccessToken
			if t.RefreshToken != "" {
				user.GoogleRefreshToken = t.RefreshToken
			}
			return u.userRepo.Update(user)
		}
		if err := u.gmailWatcher.Watch(ctx, user.GoogleAccessToken, user.GoogleRefreshToken, u.config.GmailPubSubTopic, onRefresh); err != nil {
			// The connection itself succeeded; push is a convenience on top
			// of the scheduler, so a watch failure is not fatal.
			log.Printf("[Auth] failed to register mailbox watch for user %s: %v", user.ID, err)
		}
	}

	return user, nil
}

func (u *authUsecase) ConnectIMAP(ctx context.Context, userID string, req *authdto.ConnectIMAPRequest) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	mailbox := req.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}

	if u.mailboxVerifier != nil {
		if _, err := u.mailboxVerifier.ListMailboxEmails(ctx, req.Host, req.Username, req.Password, mailbox); err != nil {
			return nil, errors.New("IMAP connection failed: " + err.Error())
		}
	}

	user.Provider = "imap"
	user.IMAPHost = req.Host
	user.IMAPUsername = req.Username
	user.IMAPPassword = req.Password
	user.IMAPMailbox = mailbox

	if err := u.userRepo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("refresh token expired")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(refreshToken)
}

func (u *authUsecase) RegisterDevice(userID, token, deviceInfo string) error {
	return u.deviceTokenRepo.SaveToken(userID, token, deviceInfo)
}

func (u *authUsecase) UnregisterDevice(token string) error {
	return u.deviceTokenRepo.DeleteToken(token)
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.SaveRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}
