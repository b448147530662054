package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Never return password in JSON
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider"` // "email", "google" or "imap"

	// Google OAuth tokens used by the Gmail source and Calendar sink.
	GoogleAccessToken  string `json:"-"`
	GoogleRefreshToken string `json:"-"`

	// IMAP account for users on the imap provider.
	IMAPHost     string `json:"imap_host,omitempty"`
	IMAPUsername string `json:"imap_username,omitempty"`
	IMAPPassword string `json:"-"`
	IMAPMailbox  string `json:"imap_mailbox,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connected reports whether the user has a working email source for the
// pipeline to fetch from.
func (u *User) Connected() bool {
	if u.Provider == "imap" {
		return u.IMAPHost != "" && u.IMAPUsername != ""
	}
	return u.GoogleAccessToken != ""
}

type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeviceToken is a push-notification device registration (FCM).
type DeviceToken struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index;not null"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	DeviceInfo string    `json:"device_info"`                   // Browser/device metadata
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
