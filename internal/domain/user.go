package domain

import (
	"time"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is the persisted user row. PII (email, phone, addresses) is stored
// only as AES-GCM ciphertext; the plaintext email never reaches the database.
// EmailHash is the sole lookup key for email-based queries.
type User struct {
	ID              string `json:"user_id"`
	EmailHash       string `json:"-"`
	EmailCipher     string `json:"-"`
	PhoneCipher     string `json:"-"`
	AddressesCipher string `json:"-"`

	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`

	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Language        string `json:"language"`
	DefaultCurrency string `json:"default_currency"`
	IsMember        bool   `json:"is_member"`

	Status         string `json:"status"`
	DisabledReason string `json:"disabled_reason,omitempty"`

	CreatedIP   string     `json:"-"`
	UserAgent   string     `json:"-"`
	LastLoginIP string     `json:"-"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	AddressesVersion int64     `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsDisabled reports whether the account is blocked from authenticating.
func (u *User) IsDisabled() bool {
	return u.Status != StatusActive
}

// PasswordEpoch returns the unix seconds of the last password change,
// or 0 if the password was never changed. Embedded in access tokens so
// verification can reject tokens minted before a change.
func (u *User) PasswordEpoch() int64 {
	if u.PasswordChangedAt == nil {
		return 0
	}
	return u.PasswordChangedAt.Unix()
}

// Profile is the decrypted, client-facing view of a user. Email, phone
// and addresses are plaintext here and must never be persisted or logged.
type Profile struct {
	UserID          string    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Addresses       []Address `json:"addresses"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	Language        string    `json:"language"`
	DefaultCurrency string    `json:"default_currency"`
	IsMember        bool      `json:"is_member"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// RefreshToken is the persisted record of an opaque refresh secret. Only
// the SHA-256 hash of the secret is stored; rows are revoked, never deleted.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	UserAgent string     `json:"-"`
	IPAddress string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Usable reports whether the token can still be redeemed at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// TokenPair holds a freshly minted access token and refresh secret.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}

// ClientInfo carries request provenance recorded on registration, login
// and refresh-token rows.
type ClientInfo struct {
	IP        string
	UserAgent string
}
