package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Access token verification errors. Handlers map all of them to 401 with a
// uniform message; the distinction exists for logging and tests.
var (
	ErrTokenMalformed        = errors.New("auth: token malformed")
	ErrTokenSignatureInvalid = errors.New("auth: token signature invalid")
	ErrTokenExpired          = errors.New("auth: token expired")
	ErrTokenInvalidated      = errors.New("auth: token issued before password change")
)

// Claims are the access-token claims. PasswordEpoch mirrors the user's
// password_changed_at (unix seconds, 0 if never changed) so a token minted
// before a password change can be rejected without a revocation list.
type Claims struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailHash     string `json:"email_hash"`
	PasswordEpoch int64  `json:"pwd"`
	jwt.RegisteredClaims
}

// JWTManager mints and verifies HS256 access tokens.
type JWTManager struct {
	secret       []byte
	accessExpiry time.Duration
	issuer       string

	// now is swappable in tests.
	now func() time.Time
}

// NewJWTManager creates a manager signing with the given secret.
func NewJWTManager(secret string, accessExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
		issuer:       "identity-service",
		now:          time.Now,
	}
}

// GenerateAccessToken signs an access token for the user. passwordEpoch is
// the unix time of the last password change, or 0.
func (m *JWTManager) GenerateAccessToken(userID, firstName, lastName, emailHash string, passwordEpoch int64) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		FirstName:     firstName,
		LastName:      lastName,
		EmailHash:     emailHash,
		PasswordEpoch: passwordEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken parses and validates an access token. Beyond signature
// and expiry it enforces the claim-internal guard iat >= pwd; the service
// layer additionally cross-checks iat against the user's current
// password_changed_at so stale tokens die even when their pwd claim agrees
// with itself.
func (m *JWTManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}
	if claims.IssuedAt.Unix() < claims.PasswordEpoch {
		return nil, ErrTokenInvalidated
	}

	return claims, nil
}

// IssuedBefore reports whether the token was minted before the given
// password change. Used by the service layer against the user's current
// password_changed_at.
func (c *Claims) IssuedBefore(passwordChangedAt time.Time) bool {
	if c.IssuedAt == nil {
		return true
	}
	return c.IssuedAt.Unix() < passwordChangedAt.Unix()
}
