// Package services is the persistence layer: raw SQL over a pgx pool, plus
// the account operations that are pure CRUD glue. The license and otp
// managers consume the narrow store interfaces this Service satisfies.
package services

import (
	"context"
	"errors"
	"time"

	"astrapilot/internal/config"
	"astrapilot/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUserExists          = errors.New("username or email already exists")
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrUserDisabled        = errors.New("user account is disabled")
	ErrStripeNotConfigured = errors.New("stripe not configured")
)

type Service struct {
	pool *pgxpool.Pool
	cfg  config.Config
}

func New(pool *pgxpool.Pool, cfg config.Config) *Service {
	return &Service{pool: pool, cfg: cfg}
}

const userColumns = `id, username, email, password_hash, is_active, is_superuser,
	email_verified, otp_code, otp_expires, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.IsSuperuser, &u.EmailVerified, &u.OTPCode, &u.OTPExpires, &u.CreatedAt)
	return u, err
}

func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, ErrInvalidRequest
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, email, string(passwordHash)))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

// AuthenticateUser checks credentials and account state. Email verification
// is required before login succeeds.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrUserDisabled
	}
	if !user.EmailVerified {
		return models.User{}, ErrEmailNotVerified
	}
	return user, nil
}

// UserByID adapts GetUserByID to the otp manager's store contract, where a
// missing user is an ok=false rather than an error.
func (s *Service) UserByID(ctx context.Context, id int64) (models.User, bool, error) {
	user, err := s.GetUserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

// SetUserOTP writes the code pair together; it overwrites any pending code.
func (s *Service) SetUserOTP(ctx context.Context, userID int64, code string, expires time.Time) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE users SET otp_code = $1, otp_expires = $2
		WHERE id = $3`, code, expires, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearUserOTP clears the code pair together.
func (s *Service) ClearUserOTP(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET otp_code = NULL, otp_expires = NULL
		WHERE id = $1`, userID)
	return err
}

// MarkEmailVerified flips the flag and clears the code pair in one write.
func (s *Service) MarkEmailVerified(ctx context.Context, userID int64) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE users SET email_verified = true, otp_code = NULL, otp_expires = NULL
		WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
