package domain

import (
	"time"
)

// ProfilePatch is a partial update of a user's profile. Only non-nil fields
// are applied. Email and Password trigger derived work in the service layer
// (hash recomputation, ciphertext refresh, refresh-token revocation); the
// remaining fields map straight to user columns.
type ProfilePatch struct {
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	FirstName       *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url,max=512"`
	Language        *string `json:"language,omitempty" validate:"omitempty,len=2"`
	DefaultCurrency *string `json:"default_currency,omitempty" validate:"omitempty,len=3"`
	IsMember        *bool   `json:"is_member,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (p *ProfilePatch) Empty() bool {
	return p.Email == nil && p.Password == nil && p.FirstName == nil &&
		p.LastName == nil && p.Phone == nil && p.ProfileImageURL == nil &&
		p.Language == nil && p.DefaultCurrency == nil && p.IsMember == nil
}

// UserUpdate carries the resolved column values for a user row update after
// the service has done its derived work. Nil pointers leave columns untouched.
// The address blob is deliberately absent: it is written only through the
// versioned UpdateAddresses path.
type UserUpdate struct {
	EmailHash         *string
	EmailCipher       *string
	PhoneCipher       *string
	PasswordHash      *string
	PasswordChangedAt *time.Time // set together with PasswordHash
	FirstName         *string
	LastName          *string
	ProfileImageURL   *string
	Language          *string
	DefaultCurrency   *string
	IsMember          *bool
}
