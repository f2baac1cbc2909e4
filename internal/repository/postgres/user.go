package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/utafrali/IdentityGo/pkg/errors"

	"github.com/utafrali/IdentityGo/internal/domain"
)

const userColumns = `user_id, email_hash, email_cipher, phone_cipher, addresses_cipher,
		password_hash, password_changed_at, first_name, last_name, profile_image_url,
		language, default_currency, is_member, status, disabled_reason,
		created_ip, user_agent, last_login_ip, last_login_at,
		addresses_version, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (user_id, email_hash, email_cipher, phone_cipher, addresses_cipher,
			password_hash, password_changed_at, first_name, last_name, profile_image_url,
			language, default_currency, is_member, status, disabled_reason,
			created_ip, user_agent, addresses_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.EmailHash,
		u.EmailCipher,
		u.PhoneCipher,
		u.AddressesCipher,
		u.PasswordHash,
		u.PasswordChangedAt,
		u.FirstName,
		u.LastName,
		u.ProfileImageURL,
		u.Language,
		u.DefaultCurrency,
		u.IsMember,
		u.Status,
		u.DisabledReason,
		u.CreatedIP,
		u.UserAgent,
		u.AddressesVersion,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmailHash retrieves a user by the lookup hash of their email.
func (r *UserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_hash = $1`
	return r.scanUser(ctx, query, emailHash)
}

// Update applies the non-nil fields of the update to the user row. The
// address blob is excluded; it is written only through UpdateAddresses.
func (r *UserRepository) Update(ctx context.Context, id string, update *domain.UserUpdate) error {
	sets := make([]string, 0, 12)
	args := make([]any, 0, 13)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.EmailHash != nil {
		add("email_hash", *update.EmailHash)
	}
	if update.EmailCipher != nil {
		add("email_cipher", *update.EmailCipher)
	}
	if update.PhoneCipher != nil {
		add("phone_cipher", *update.PhoneCipher)
	}
	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	if update.PasswordChangedAt != nil {
		add("password_changed_at", *update.PasswordChangedAt)
	}
	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.ProfileImageURL != nil {
		add("profile_image_url", *update.ProfileImageURL)
	}
	if update.Language != nil {
		add("language", *update.Language)
	}
	if update.DefaultCurrency != nil {
		add("default_currency", *update.DefaultCurrency)
	}
	if update.IsMember != nil {
		add("is_member", *update.IsMember)
	}

	if len(sets) == 0 {
		return nil
	}

	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := "UPDATE users SET " + strings.Join(sets, ", ") +
		" WHERE user_id = $" + strconv.Itoa(len(args))

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email")
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// UpdateLastLogin records login provenance for the user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id, ip string) error {
	query := `UPDATE users SET last_login_ip = $1, last_login_at = $2, updated_at = $2 WHERE user_id = $3`

	ct, err := r.db.Exec(ctx, query, ip, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// UpdateAddresses writes the encrypted address blob guarded by the version
// counter. A concurrent writer that got there first leaves zero rows
// matching, which surfaces as a Conflict error.
func (r *UserRepository) UpdateAddresses(ctx context.Context, id, addressesCipher string, expectedVersion int64) error {
	query := `
		UPDATE users
		SET addresses_cipher = $1, addresses_version = addresses_version + 1, updated_at = $2
		WHERE user_id = $3 AND addresses_version = $4`

	ct, err := r.db.Exec(ctx, query, addressesCipher, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("update addresses: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("addresses were modified concurrently")
	}

	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.EmailHash,
		&u.EmailCipher,
		&u.PhoneCipher,
		&u.AddressesCipher,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.FirstName,
		&u.LastName,
		&u.ProfileImageURL,
		&u.Language,
		&u.DefaultCurrency,
		&u.IsMember,
		&u.Status,
		&u.DisabledReason,
		&u.CreatedIP,
		&u.UserAgent,
		&u.LastLoginIP,
		&u.LastLoginAt,
		&u.AddressesVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
