package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/IdentityGo/pkg/errors"

	"github.com/utafrali/IdentityGo/internal/auth"
	"github.com/utafrali/IdentityGo/internal/crypto"
	"github.com/utafrali/IdentityGo/internal/domain"
	"github.com/utafrali/IdentityGo/internal/encryption"
	"github.com/utafrali/IdentityGo/internal/event"
	"github.com/utafrali/IdentityGo/internal/repository"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// invalidCredentials is the uniform 401 message for login failures. Unknown
// email and wrong password are indistinguishable to the caller.
const invalidCredentials = "invalid email or password"

// EventPublisher is the audit-event surface the service depends on.
// *event.Producer satisfies it.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, data event.AuditData) error
	PublishUserLogin(ctx context.Context, data event.AuditData) error
	PublishTokenRefreshed(ctx context.Context, data event.AuditData) error
	PublishUserLoggedOut(ctx context.Context, data event.AuditData) error
	PublishPasswordChanged(ctx context.Context, data event.AuditData) error
	PublishProfileUpdated(ctx context.Context, data event.ProfileUpdatedData) error
}

// IdentityService implements the credential lifecycle: registration, login,
// token rotation, revocation and profile management over encrypted PII.
type IdentityService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	jwt    *auth.JWTManager
	hasher *auth.PasswordHasher
	cipher *encryption.FieldCipher
	events EventPublisher
	logger *slog.Logger

	refreshExpiry time.Duration
	strictDecrypt bool

	// now is swappable in tests.
	now func() time.Time
}

// Config holds the service-level knobs.
type Config struct {
	RefreshExpiry time.Duration
	// StrictDecrypt makes profile reads fail on undecryptable PII instead
	// of degrading the field to empty.
	StrictDecrypt bool
}

// NewIdentityService creates the identity service.
func NewIdentityService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	hasher *auth.PasswordHasher,
	cipher *encryption.FieldCipher,
	events EventPublisher,
	logger *slog.Logger,
	cfg Config,
) *IdentityService {
	if cfg.RefreshExpiry <= 0 {
		cfg.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &IdentityService{
		users:         users,
		tokens:        tokens,
		jwt:           jwtManager,
		hasher:        hasher,
		cipher:        cipher,
		events:        events,
		logger:        logger,
		refreshExpiry: cfg.RefreshExpiry,
		strictDecrypt: cfg.StrictDecrypt,
		now:           time.Now,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Phone           string
	Addresses       []domain.Address
	ProfileImageURL string
	Language        string
	DefaultCurrency string
	IsMember        bool
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// --- Auth operations ---

// Register creates a new user account with encrypted PII and returns the
// user together with a fresh token pair.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput, client domain.ClientInfo) (*domain.User, *domain.TokenPair, error) {
	email := crypto.NormalizeEmail(input.Email)
	if email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.FirstName == "" {
		return nil, nil, apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, nil, apperrors.InvalidInput("last name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	emailCipher, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt email: %w", err)
	}

	var phoneCipher string
	if input.Phone != "" {
		if phoneCipher, err = s.cipher.Encrypt(input.Phone); err != nil {
			return nil, nil, fmt.Errorf("encrypt phone: %w", err)
		}
	}

	var addressesCipher string
	if len(input.Addresses) > 0 {
		list := make([]domain.Address, len(input.Addresses))
		for i, a := range input.Addresses {
			a.ID = uuid.New().String()
			list[i] = a
		}
		if addressesCipher, err = s.encryptAddresses(list); err != nil {
			return nil, nil, err
		}
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:              uuid.New().String(),
		EmailHash:       crypto.EmailHash(email),
		EmailCipher:     emailCipher,
		PhoneCipher:     phoneCipher,
		AddressesCipher: addressesCipher,
		PasswordHash:    passwordHash,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		ProfileImageURL: input.ProfileImageURL,
		Language:        defaultString(input.Language, "en"),
		DefaultCurrency: defaultString(input.DefaultCurrency, "USD"),
		IsMember:        input.IsMember,
		Status:          domain.StatusActive,
		CreatedIP:       client.IP,
		UserAgent:       client.UserAgent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.publishAudit(ctx, "user.registered", func() error {
		return s.events.PublishUserRegistered(ctx, s.auditData(user, client))
	})

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email_hash", user.EmailHash),
	)

	return user, tokens, nil
}

// Login authenticates a user and returns a fresh token pair. Unknown email
// and wrong password produce the same 401.
func (s *IdentityService) Login(ctx context.Context, input LoginInput, client domain.ClientInfo) (*domain.User, *domain.TokenPair, error) {
	email := crypto.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, nil, apperrors.Unauthorized(invalidCredentials)
	}

	user, err := s.users.GetByEmailHash(ctx, crypto.EmailHash(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Check(input.Password, user.PasswordHash) {
		return nil, nil, apperrors.Unauthorized(invalidCredentials)
	}
	if user.IsDisabled() {
		return nil, nil, apperrors.Unauthorized("account is disabled")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, client.IP); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	tokens, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.publishAudit(ctx, "user.login", func() error {
		return s.events.PublishUserLogin(ctx, s.auditData(user, client))
	})

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// Refresh rotates a refresh secret: the presented secret is permanently
// retired and a new token pair is issued. Any replay of the old secret,
// concurrent or later, gets a 401.
func (s *IdentityService) Refresh(ctx context.Context, secret string, client domain.ClientInfo) (*domain.TokenPair, error) {
	if secret == "" {
		return nil, apperrors.Unauthorized("refresh token is required")
	}

	tokenHash := crypto.HashRefreshSecret(secret)
	stored, err := s.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if stored.RevokedAt != nil {
		return nil, apperrors.Unauthorized("refresh token has been revoked")
	}

	if !s.now().UTC().Before(stored.ExpiresAt) {
		// Lazy revocation of expired tokens keeps the table honest.
		if err := s.tokens.Revoke(ctx, tokenHash); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to revoke expired refresh token",
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.Unauthorized("refresh token has expired")
	}

	// The conditional revoke is the rotation gate: under concurrent use of
	// the same secret exactly one caller succeeds here.
	if err := s.tokens.Revoke(ctx, tokenHash); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("refresh token has been revoked")
		}
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get user for refresh: %w", err)
	}
	if user.IsDisabled() {
		return nil, apperrors.Unauthorized("account is disabled")
	}

	tokens, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.publishAudit(ctx, "user.token_refreshed", func() error {
		return s.events.PublishTokenRefreshed(ctx, s.auditData(user, client))
	})

	return tokens, nil
}

// Logout revokes the presented refresh secret. It is idempotent and always
// succeeds: a missing, unknown or already-revoked secret is not an error.
func (s *IdentityService) Logout(ctx context.Context, secret string, client domain.ClientInfo) {
	if secret == "" {
		return
	}

	tokenHash := crypto.HashRefreshSecret(secret)
	stored, err := s.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		return
	}

	if err := s.tokens.Revoke(ctx, tokenHash); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to revoke refresh token on logout",
			slog.String("user_id", stored.UserID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.publishAudit(ctx, "user.logged_out", func() error {
		return s.events.PublishUserLoggedOut(ctx, event.AuditData{
			UserID:    stored.UserID,
			IP:        client.IP,
			UserAgent: client.UserAgent,
		})
	})
}

// Authenticate verifies an access token and returns its claims. Beyond
// signature and expiry it cross-checks the issue time against the user's
// current password_changed_at, so tokens minted before a password change
// are rejected even while unexpired.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwt.VerifyAccessToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	if user.IsDisabled() {
		return nil, apperrors.Unauthorized("account is disabled")
	}
	if user.PasswordChangedAt != nil && claims.IssuedBefore(*user.PasswordChangedAt) {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	return claims, nil
}

// --- Profile operations ---

// GetCurrentUser returns the decrypted profile of the user. Undecryptable
// PII fields degrade to empty unless strict decryption is enabled.
func (s *IdentityService) GetCurrentUser(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.buildProfile(ctx, user)
}

// UpdateProfile applies a partial profile update. An email change refreshes
// the lookup hash and ciphertext; a password change stamps
// password_changed_at and revokes every refresh token of the user.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, patch *domain.ProfilePatch) (*domain.Profile, error) {
	if patch.Empty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	update := &domain.UserUpdate{
		FirstName:       patch.FirstName,
		LastName:        patch.LastName,
		ProfileImageURL: patch.ProfileImageURL,
		Language:        patch.Language,
		DefaultCurrency: patch.DefaultCurrency,
		IsMember:        patch.IsMember,
	}
	var changed []string

	if patch.FirstName != nil {
		if *patch.FirstName == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		changed = append(changed, "first_name")
	}
	if patch.LastName != nil {
		if *patch.LastName == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		changed = append(changed, "last_name")
	}
	if patch.ProfileImageURL != nil {
		changed = append(changed, "profile_image_url")
	}
	if patch.Language != nil {
		changed = append(changed, "language")
	}
	if patch.DefaultCurrency != nil {
		changed = append(changed, "default_currency")
	}
	if patch.IsMember != nil {
		changed = append(changed, "is_member")
	}

	if patch.Email != nil {
		email := crypto.NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		emailHash := crypto.EmailHash(email)
		emailCipher, err := s.cipher.Encrypt(email)
		if err != nil {
			return nil, fmt.Errorf("encrypt email: %w", err)
		}
		update.EmailHash = &emailHash
		update.EmailCipher = &emailCipher
		changed = append(changed, "email")
	}

	if patch.Phone != nil {
		phoneCipher := ""
		if *patch.Phone != "" {
			var err error
			if phoneCipher, err = s.cipher.Encrypt(*patch.Phone); err != nil {
				return nil, fmt.Errorf("encrypt phone: %w", err)
			}
		}
		update.PhoneCipher = &phoneCipher
		changed = append(changed, "phone")
	}

	passwordChanged := patch.Password != nil
	if passwordChanged {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		passwordHash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changedAt := s.now().UTC()
		update.PasswordHash = &passwordHash
		update.PasswordChangedAt = &changedAt
		changed = append(changed, "password")
	}

	if err := s.users.Update(ctx, userID, update); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if passwordChanged {
		// Every outstanding session dies with the old password.
		if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password change",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		s.publishAudit(ctx, "user.password_changed", func() error {
			return s.events.PublishPasswordChanged(ctx, event.AuditData{UserID: userID})
		})
	}

	s.publishAudit(ctx, "user.profile_updated", func() error {
		return s.events.PublishProfileUpdated(ctx, event.ProfileUpdatedData{
			UserID: userID,
			Fields: changed,
		})
	})

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", userID),
	)

	return s.GetCurrentUser(ctx, userID)
}

// --- Address operations ---

// AddAddress appends an address to the user's encrypted address list and
// returns the server-generated id.
func (s *IdentityService) AddAddress(ctx context.Context, userID string, addr domain.Address) (string, error) {
	user, list, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return "", err
	}

	addr.ID = uuid.New().String()
	list = append(list, addr)

	if err := s.storeAddresses(ctx, user, list); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "address added",
		slog.String("user_id", userID),
		slog.String("address_id", addr.ID),
	)

	return addr.ID, nil
}

// UpdateAddress applies a partial update to one address of the list.
func (s *IdentityService) UpdateAddress(ctx context.Context, userID, addressID string, patch *domain.AddressPatch) error {
	user, list, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for i := range list {
		if list[i].ID == addressID {
			patch.Apply(&list[i])
			found = true
			break
		}
	}
	if !found {
		return apperrors.NotFound("address", addressID)
	}

	if err := s.storeAddresses(ctx, user, list); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "address updated",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)

	return nil
}

// DeleteAddress removes one address from the list. Deleting an unknown id
// is a 404, so a second delete of the same id fails.
func (s *IdentityService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	user, list, err := s.loadAddresses(ctx, userID)
	if err != nil {
		return err
	}

	kept := make([]domain.Address, 0, len(list))
	for _, a := range list {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(list) {
		return apperrors.NotFound("address", addressID)
	}

	if err := s.storeAddresses(ctx, user, kept); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "address deleted",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)

	return nil
}

// --- Helpers ---

// issueTokens mints an access token and a new refresh secret, persisting
// the secret's hash with request provenance.
func (s *IdentityService) issueTokens(ctx context.Context, user *domain.User, client domain.ClientInfo) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.FirstName, user.LastName, user.EmailHash, user.PasswordEpoch())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	secret, err := crypto.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: crypto.HashRefreshSecret(secret),
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
		ExpiresAt: now.Add(s.refreshExpiry),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: secret,
	}, nil
}

// buildProfile decrypts the user's PII into a client-facing profile.
func (s *IdentityService) buildProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	profile := &domain.Profile{
		UserID:          user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Addresses:       []domain.Address{},
		ProfileImageURL: user.ProfileImageURL,
		Language:        user.Language,
		DefaultCurrency: user.DefaultCurrency,
		IsMember:        user.IsMember,
		Status:          user.Status,
		CreatedAt:       user.CreatedAt,
	}

	email, err := s.decryptField(ctx, user.ID, "email", user.EmailCipher)
	if err != nil {
		return nil, err
	}
	profile.Email = email

	phone, err := s.decryptField(ctx, user.ID, "phone", user.PhoneCipher)
	if err != nil {
		return nil, err
	}
	profile.Phone = phone

	if user.AddressesCipher != "" {
		raw, err := s.decryptField(ctx, user.ID, "addresses", user.AddressesCipher)
		if err != nil {
			return nil, err
		}
		if raw != "" {
			var list []domain.Address
			if err := json.Unmarshal([]byte(raw), &list); err == nil {
				profile.Addresses = list
			} else if s.strictDecrypt {
				return nil, apperrors.Internal(fmt.Errorf("decode addresses: %w", err))
			}
		}
	}

	return profile, nil
}

// decryptField opens one PII ciphertext. An empty ciphertext means the
// field was never set. Failures degrade to empty unless strict mode is on.
func (s *IdentityService) decryptField(ctx context.Context, userID, field, ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		if s.strictDecrypt {
			return "", apperrors.Internal(fmt.Errorf("decrypt %s: %w", field, err))
		}
		s.logger.WarnContext(ctx, "undecryptable PII field, returning empty",
			slog.String("user_id", userID),
			slog.String("field", field),
		)
		return "", nil
	}

	return plaintext, nil
}

// loadAddresses fetches the user and decrypts their address list.
func (s *IdentityService) loadAddresses(ctx context.Context, userID string) (*domain.User, []domain.Address, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("user", userID)
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	list := []domain.Address{}
	if user.AddressesCipher != "" {
		raw, err := s.decryptField(ctx, userID, "addresses", user.AddressesCipher)
		if err != nil {
			return nil, nil, err
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				if s.strictDecrypt {
					return nil, nil, apperrors.Internal(fmt.Errorf("decode addresses: %w", err))
				}
				list = []domain.Address{}
			}
		}
	}

	return user, list, nil
}

// storeAddresses re-encrypts the list and writes it guarded by the version
// the user row was read at. A lost race surfaces as a 409.
func (s *IdentityService) storeAddresses(ctx context.Context, user *domain.User, list []domain.Address) error {
	cipher, err := s.encryptAddresses(list)
	if err != nil {
		return err
	}

	if err := s.users.UpdateAddresses(ctx, user.ID, cipher, user.AddressesVersion); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.Conflict("addresses were modified concurrently")
		}
		return fmt.Errorf("store addresses: %w", err)
	}

	return nil
}

func (s *IdentityService) encryptAddresses(list []domain.Address) (string, error) {
	raw, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode addresses: %w", err)
	}
	cipher, err := s.cipher.Encrypt(string(raw))
	if err != nil {
		return "", fmt.Errorf("encrypt addresses: %w", err)
	}
	return cipher, nil
}

func (s *IdentityService) auditData(user *domain.User, client domain.ClientInfo) event.AuditData {
	return event.AuditData{
		UserID:    user.ID,
		EmailHash: user.EmailHash,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	}
}

// publishAudit runs one publish call and logs failures. Audit delivery is
// best-effort and never fails the request.
func (s *IdentityService) publishAudit(ctx context.Context, name string, publish func() error) {
	if s.events == nil {
		return
	}
	if err := publish(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
	}
}

// validatePassword enforces only a minimum length. Any characters are
// acceptable; composition rules are a client concern.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
