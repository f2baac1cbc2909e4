package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/IdentityGo/pkg/errors"

	"github.com/utafrali/IdentityGo/internal/auth"
	"github.com/utafrali/IdentityGo/internal/crypto"
	"github.com/utafrali/IdentityGo/internal/domain"
	"github.com/utafrali/IdentityGo/internal/encryption"
	"github.com/utafrali/IdentityGo/internal/event"
)

// --- Mock user repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	args := m.Called(ctx, emailHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, id string, update *domain.UserUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id, ip string) error {
	args := m.Called(ctx, id, ip)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateAddresses(ctx context.Context, id, addressesCipher string, expectedVersion int64) error {
	args := m.Called(ctx, id, addressesCipher, expectedVersion)
	return args.Error(0)
}

// --- Mock refresh token repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock event publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserRegistered(ctx context.Context, data event.AuditData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishUserLogin(ctx context.Context, data event.AuditData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishTokenRefreshed(ctx context.Context, data event.AuditData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishUserLoggedOut(ctx context.Context, data event.AuditData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishPasswordChanged(ctx context.Context, data event.AuditData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishProfileUpdated(ctx context.Context, data event.ProfileUpdatedData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

// --- Fixture ---

type fixture struct {
	svc    *IdentityService
	users  *mockUserRepository
	tokens *mockRefreshTokenRepository
	events *mockEventPublisher
	cipher *encryption.FieldCipher
	jwt    *auth.JWTManager
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cipher, err := encryption.NewFieldCipher(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)

	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	events := new(mockEventPublisher)
	jwtManager := auth.NewJWTManager("test-secret-key-at-least-32-chars!!", 15*time.Minute)

	svc := NewIdentityService(
		users,
		tokens,
		jwtManager,
		auth.NewPasswordHasher(bcrypt.MinCost),
		cipher,
		events,
		newTestLogger(),
		Config{RefreshExpiry: 7 * 24 * time.Hour},
	)

	events.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishUserLogin", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishTokenRefreshed", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishUserLoggedOut", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishPasswordChanged", mock.Anything, mock.Anything).Return(nil).Maybe()
	events.On("PublishProfileUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()

	return &fixture{svc: svc, users: users, tokens: tokens, events: events, cipher: cipher, jwt: jwtManager}
}

func (f *fixture) sampleUser(t *testing.T, email, password string) *domain.User {
	t.Helper()

	normalized := crypto.NormalizeEmail(email)
	emailCipher, err := f.cipher.Encrypt(normalized)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &domain.User{
		ID:              "u-1",
		EmailHash:       crypto.EmailHash(normalized),
		EmailCipher:     emailCipher,
		PasswordHash:    string(hash),
		FirstName:       "Ana",
		LastName:        "Silva",
		Language:        "en",
		DefaultCurrency: "USD",
		Status:          domain.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var testClient = domain.ClientInfo{IP: "203.0.113.9", UserAgent: "test-agent"}

func strPtr(s string) *string { return &s }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	f.tokens.On("Create", ctx, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	user, tokens, err := f.svc.Register(ctx, RegisterInput{
		Email:     "  Ana@Example.COM ",
		Password:  "SecurePass123",
		FirstName: "Ana",
		LastName:  "Silva",
		Phone:     "+351912345678",
	}, testClient)

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, crypto.EmailHash("ana@example.com"), user.EmailHash)
	assert.Equal(t, domain.StatusActive, user.Status)
	assert.Equal(t, "en", user.Language)
	assert.Equal(t, "USD", user.DefaultCurrency)
	assert.Equal(t, testClient.IP, user.CreatedIP)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// PII is stored encrypted, never as plaintext.
	assert.NotContains(t, user.EmailCipher, "ana@example.com")
	email, err := f.cipher.Decrypt(user.EmailCipher)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)

	phone, err := f.cipher.Decrypt(user.PhoneCipher)
	require.NoError(t, err)
	assert.Equal(t, "+351912345678", phone)

	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email"))

	_, _, err := f.svc.Register(ctx, RegisterInput{
		Email:     "ana@example.com",
		Password:  "SecurePass123",
		FirstName: "Ana",
		LastName:  "Silva",
	}, testClient)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegister_DuplicateDetectionIgnoresCasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var captured *domain.User
	f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.User) }).
		Return(nil)
	f.tokens.On("Create", ctx, mock.Anything).Return(nil)

	_, _, err := f.svc.Register(ctx, RegisterInput{
		Email:     "  ANA@Example.Com ",
		Password:  "SecurePass123",
		FirstName: "Ana",
		LastName:  "Silva",
	}, testClient)
	require.NoError(t, err)

	// Casing and whitespace variants hash to the same lookup key, so the
	// unique index catches them as duplicates.
	assert.Equal(t, crypto.EmailHash("ana@example.com"), captured.EmailHash)
}

func TestRegister_MissingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "SecurePass123", FirstName: "A", LastName: "B"}},
		{"missing first name", RegisterInput{Email: "a@b.com", Password: "SecurePass123", LastName: "B"}},
		{"missing last name", RegisterInput{Email: "a@b.com", Password: "SecurePass123", FirstName: "A"}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.Register(ctx, tc.input, testClient)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestRegister_SimplePasswordAccepted(t *testing.T) {
	// Only length is enforced. Lowercase-and-digits passwords are valid.
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	f.tokens.On("Create", ctx, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	_, tokens, err := f.svc.Register(ctx, RegisterInput{
		Email:     "ana@example.com",
		Password:  "pw123456",
		FirstName: "Ana",
		LastName:  "Silva",
	}, testClient)

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestRegister_AddressesGetServerIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var captured *domain.User
	f.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*domain.User) }).
		Return(nil)
	f.tokens.On("Create", ctx, mock.Anything).Return(nil)

	_, _, err := f.svc.Register(ctx, RegisterInput{
		Email:     "ana@example.com",
		Password:  "SecurePass123",
		FirstName: "Ana",
		LastName:  "Silva",
		Addresses: []domain.Address{
			{ID: "client-supplied", AddressLine1: "Rua A 1", City: "Lisbon", PostalCode: "1000-001", CountryCode: "PT"},
		},
	}, testClient)
	require.NoError(t, err)

	raw, err := f.cipher.Decrypt(captured.AddressesCipher)
	require.NoError(t, err)
	assert.Contains(t, raw, "Rua A 1")
	assert.NotContains(t, raw, "client-supplied")
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	f.users.On("GetByEmailHash", ctx, user.EmailHash).Return(user, nil)
	f.users.On("UpdateLastLogin", ctx, user.ID, testClient.IP).Return(nil)
	f.tokens.On("Create", ctx, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	got, tokens, err := f.svc.Login(ctx, LoginInput{Email: "Ana@Example.com", Password: "SecurePass123"}, testClient)

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	f.users.AssertExpectations(t)
}

func TestLogin_UniformFailureMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	f.users.On("GetByEmailHash", ctx, user.EmailHash).Return(user, nil)
	f.users.On("GetByEmailHash", ctx, crypto.EmailHash("ghost@example.com")).Return(nil, apperrors.ErrNotFound)

	_, _, errWrongPassword := f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "WrongPass123"}, testClient)
	_, _, errUnknownEmail := f.svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "SecurePass123"}, testClient)

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownEmail)
	assert.ErrorIs(t, errWrongPassword, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, errUnknownEmail, apperrors.ErrUnauthorized)

	// Unknown email and wrong password must be indistinguishable.
	var appErr1, appErr2 *apperrors.AppError
	require.ErrorAs(t, errWrongPassword, &appErr1)
	require.ErrorAs(t, errUnknownEmail, &appErr2)
	assert.Equal(t, appErr1.Message, appErr2.Message)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	user.Status = domain.StatusDisabled
	f.users.On("GetByEmailHash", ctx, user.EmailHash).Return(user, nil)

	_, _, err := f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "SecurePass123"}, testClient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Refresh ---

func TestRefresh_RotatesSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	secret, err := crypto.NewRefreshSecret()
	require.NoError(t, err)
	hash := crypto.HashRefreshSecret(secret)

	now := time.Now().UTC()
	stored := &domain.RefreshToken{
		ID:        "t-1",
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now.Add(-time.Hour),
	}

	f.tokens.On("GetByHash", ctx, hash).Return(stored, nil)
	f.tokens.On("Revoke", ctx, hash).Return(nil)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)
	f.tokens.On("Create", ctx, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	pair, err := f.svc.Refresh(ctx, secret, testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, secret, pair.RefreshToken)
	f.tokens.AssertCalled(t, "Revoke", ctx, hash)
}

func TestRefresh_UnknownSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tokens.On("GetByHash", ctx, mock.Anything).Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.Refresh(ctx, "unknown-secret", testClient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_RevokedSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	revokedAt := now.Add(-time.Minute)
	stored := &domain.RefreshToken{
		ID:        "t-1",
		UserID:    "u-1",
		ExpiresAt: now.Add(24 * time.Hour),
		RevokedAt: &revokedAt,
	}
	f.tokens.On("GetByHash", ctx, mock.Anything).Return(stored, nil)

	_, err := f.svc.Refresh(ctx, "replayed-secret", testClient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRefresh_ExpiredSecretLazilyRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	stored := &domain.RefreshToken{
		ID:        "t-1",
		UserID:    "u-1",
		TokenHash: crypto.HashRefreshSecret("old-secret"),
		ExpiresAt: now.Add(-time.Hour),
	}
	f.tokens.On("GetByHash", ctx, stored.TokenHash).Return(stored, nil)
	f.tokens.On("Revoke", ctx, stored.TokenHash).Return(nil)

	_, err := f.svc.Refresh(ctx, "old-secret", testClient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.tokens.AssertCalled(t, "Revoke", ctx, stored.TokenHash)
	f.tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRefresh_ConcurrentLoserGetsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	hash := crypto.HashRefreshSecret("raced-secret")
	stored := &domain.RefreshToken{
		ID:        "t-1",
		UserID:    "u-1",
		TokenHash: hash,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	f.tokens.On("GetByHash", ctx, hash).Return(stored, nil)
	// Another request won the conditional revoke first.
	f.tokens.On("Revoke", ctx, hash).Return(apperrors.ErrNotFound)

	_, err := f.svc.Refresh(ctx, "raced-secret", testClient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Logout ---

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash := crypto.HashRefreshSecret("active-secret")
	stored := &domain.RefreshToken{ID: "t-1", UserID: "u-1", TokenHash: hash}
	f.tokens.On("GetByHash", ctx, hash).Return(stored, nil)
	f.tokens.On("Revoke", ctx, hash).Return(nil)

	f.svc.Logout(ctx, "active-secret", testClient)
	f.tokens.AssertCalled(t, "Revoke", ctx, hash)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No secret at all: nothing happens, no error.
	f.svc.Logout(ctx, "", testClient)
	f.tokens.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)

	// Unknown secret: still no error.
	f.tokens.On("GetByHash", ctx, mock.Anything).Return(nil, apperrors.ErrNotFound)
	f.svc.Logout(ctx, "unknown-secret", testClient)

	// Already revoked: swallowed.
	hash := crypto.HashRefreshSecret("dead-secret")
	revokedAt := time.Now().UTC()
	f.tokens.ExpectedCalls = nil
	f.tokens.On("GetByHash", ctx, hash).Return(&domain.RefreshToken{TokenHash: hash, RevokedAt: &revokedAt}, nil)
	f.tokens.On("Revoke", ctx, hash).Return(apperrors.ErrNotFound)
	f.svc.Logout(ctx, "dead-secret", testClient)
}

// --- Authenticate ---

func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	token, err := f.jwt.GenerateAccessToken(user.ID, user.FirstName, user.LastName, user.EmailHash, user.PasswordEpoch())
	require.NoError(t, err)

	claims, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, user.EmailHash, claims.EmailHash)
}

func TestAuthenticate_RejectsTokenMintedBeforePasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")

	// Token minted now with pwd epoch 0.
	token, err := f.jwt.GenerateAccessToken(user.ID, user.FirstName, user.LastName, user.EmailHash, 0)
	require.NoError(t, err)

	// Password changed after issuance: the unexpired token must die.
	changed := time.Now().UTC().Add(time.Minute)
	user.PasswordChangedAt = &changed
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_RejectsDisabledAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	user.Status = domain.StatusDisabled
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	token, err := f.jwt.GenerateAccessToken(user.ID, user.FirstName, user.LastName, user.EmailHash, 0)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- GetCurrentUser ---

func TestGetCurrentUser_DecryptsPII(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "Ana@Example.com", "SecurePass123")
	phoneCipher, err := f.cipher.Encrypt("+351912345678")
	require.NoError(t, err)
	user.PhoneCipher = phoneCipher
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	profile, err := f.svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, "+351912345678", profile.Phone)
	assert.Equal(t, []domain.Address{}, profile.Addresses)
}

func TestGetCurrentUser_FailOpenOnUndecryptableField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	user.EmailCipher = "garbage-not-a-token"
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	profile, err := f.svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
}

func TestGetCurrentUser_StrictModeFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.svc.strictDecrypt = true
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	user.EmailCipher = "garbage-not-a-token"
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := f.svc.GetCurrentUser(ctx, user.ID)
	assert.Error(t, err)
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.GetCurrentUser(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpdateProfile ---

func TestUpdateProfile_Names(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")

	var captured *domain.UserUpdate
	f.users.On("Update", ctx, user.ID, mock.AnythingOfType("*domain.UserUpdate")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(*domain.UserUpdate) }).
		Return(nil)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := f.svc.UpdateProfile(ctx, user.ID, &domain.ProfilePatch{FirstName: strPtr("Beatriz")})
	require.NoError(t, err)

	require.NotNil(t, captured.FirstName)
	assert.Equal(t, "Beatriz", *captured.FirstName)
	assert.Nil(t, captured.PasswordHash)
	assert.Nil(t, captured.EmailHash)
	f.tokens.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, mock.Anything)
}

func TestUpdateProfile_EmailChangeRecomputesHashAndCipher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")

	var captured *domain.UserUpdate
	f.users.On("Update", ctx, user.ID, mock.AnythingOfType("*domain.UserUpdate")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(*domain.UserUpdate) }).
		Return(nil)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := f.svc.UpdateProfile(ctx, user.ID, &domain.ProfilePatch{Email: strPtr("  New@Example.COM ")})
	require.NoError(t, err)

	require.NotNil(t, captured.EmailHash)
	assert.Equal(t, crypto.EmailHash("new@example.com"), *captured.EmailHash)
	require.NotNil(t, captured.EmailCipher)
	decrypted, err := f.cipher.Decrypt(*captured.EmailCipher)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", decrypted)
}

func TestUpdateProfile_PasswordChangeRevokesAllTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.sampleUser(t, "ana@example.com", "SecurePass123")

	var captured *domain.UserUpdate
	f.users.On("Update", ctx, user.ID, mock.AnythingOfType("*domain.UserUpdate")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(*domain.UserUpdate) }).
		Return(nil)
	f.tokens.On("RevokeAllForUser", ctx, user.ID).Return(nil)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	_, err := f.svc.UpdateProfile(ctx, user.ID, &domain.ProfilePatch{Password: strPtr("NewSecure456")})
	require.NoError(t, err)

	require.NotNil(t, captured.PasswordHash)
	require.NotNil(t, captured.PasswordChangedAt)
	f.tokens.AssertCalled(t, "RevokeAllForUser", ctx, user.ID)
	f.events.AssertCalled(t, "PublishPasswordChanged", mock.Anything, mock.Anything)
}

func TestUpdateProfile_EmptyPatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateProfile(context.Background(), "u-1", &domain.ProfilePatch{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Addresses ---

func addressFixtureUser(t *testing.T, f *fixture, addresses []domain.Address, version int64) *domain.User {
	t.Helper()
	user := f.sampleUser(t, "ana@example.com", "SecurePass123")
	user.AddressesVersion = version
	if addresses != nil {
		cipher, err := f.svc.encryptAddresses(addresses)
		require.NoError(t, err)
		user.AddressesCipher = cipher
	}
	return user
}

func TestAddAddress_AssignsID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := addressFixtureUser(t, f, nil, 2)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	var storedCipher string
	f.users.On("UpdateAddresses", ctx, user.ID, mock.AnythingOfType("string"), int64(2)).
		Run(func(args mock.Arguments) { storedCipher = args.Get(2).(string) }).
		Return(nil)

	id, err := f.svc.AddAddress(ctx, user.ID, domain.Address{
		AddressLine1: "Rua A 1",
		City:         "Lisbon",
		PostalCode:   "1000-001",
		CountryCode:  "PT",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	raw, err := f.cipher.Decrypt(storedCipher)
	require.NoError(t, err)
	assert.Contains(t, raw, id)
	assert.Contains(t, raw, "Rua A 1")
}

func TestAddAddress_SparseObjectAccepted(t *testing.T) {
	// Clients track wildly different address shapes; a single line is enough.
	f := newFixture(t)
	ctx := context.Background()

	user := addressFixtureUser(t, f, nil, 0)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	var storedCipher string
	f.users.On("UpdateAddresses", ctx, user.ID, mock.AnythingOfType("string"), int64(0)).
		Run(func(args mock.Arguments) { storedCipher = args.Get(2).(string) }).
		Return(nil)

	id, err := f.svc.AddAddress(ctx, user.ID, domain.Address{AddressLine1: "1 Main"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	raw, err := f.cipher.Decrypt(storedCipher)
	require.NoError(t, err)
	assert.Contains(t, raw, id)
	assert.Contains(t, raw, "1 Main")
}

func TestUpdateAddress_UnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := addressFixtureUser(t, f, []domain.Address{
		{ID: "a-1", AddressLine1: "Rua A 1", City: "Lisbon", PostalCode: "1000-001", CountryCode: "PT"},
	}, 1)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)

	err := f.svc.UpdateAddress(ctx, user.ID, "missing", &domain.AddressPatch{City: strPtr("Porto")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteAddress_ThenSecondDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	addr := domain.Address{ID: "a-1", AddressLine1: "Rua A 1", City: "Lisbon", PostalCode: "1000-001", CountryCode: "PT"}

	withAddr := addressFixtureUser(t, f, []domain.Address{addr}, 1)
	f.users.On("GetByID", ctx, withAddr.ID).Return(withAddr, nil).Once()
	f.users.On("UpdateAddresses", ctx, withAddr.ID, mock.AnythingOfType("string"), int64(1)).Return(nil).Once()

	require.NoError(t, f.svc.DeleteAddress(ctx, withAddr.ID, "a-1"))

	withoutAddr := addressFixtureUser(t, f, []domain.Address{}, 2)
	f.users.On("GetByID", ctx, withoutAddr.ID).Return(withoutAddr, nil).Once()

	err := f.svc.DeleteAddress(ctx, withoutAddr.ID, "a-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStoreAddresses_VersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := addressFixtureUser(t, f, nil, 5)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)
	f.users.On("UpdateAddresses", ctx, user.ID, mock.AnythingOfType("string"), int64(5)).
		Return(apperrors.Conflict("addresses were modified concurrently"))

	_, err := f.svc.AddAddress(ctx, user.ID, domain.Address{
		AddressLine1: "Rua A 1",
		City:         "Lisbon",
		PostalCode:   "1000-001",
		CountryCode:  "PT",
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
