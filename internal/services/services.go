package services

import (
	"context"
	"errors"

	"github.com/feanor306/task-app-api/internal/models"
	"github.com/feanor306/task-app-api/internal/postgres"
)

var (
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidCredentials is returned for an unknown email and for a
	// wrong password alike, so a caller cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidImage       = errors.New("invalid image")
	ErrImageTooLarge      = errors.New("image too large")
)

type UserService interface {
	// Register creates the user with a hashed password and its first
	// session token in one transaction, then queues a welcome email.
	//
	// It returns ErrEmailTaken if the email is already registered.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login verifies the email and password and issues a new session
	// token. Previously issued tokens stay valid.
	//
	// It returns ErrInvalidCredentials both when the email is unknown
	// and when the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// Update applies the non-nil fields to the user. A new password is
	// hashed before it is written; the raw value never reaches storage.
	//
	// It returns ErrUserNotFound if the user doesn't exist or
	// ErrEmailTaken if the new email is already registered.
	Update(ctx context.Context, userID string, params UpdateParams) (*models.User, error)

	// Delete removes the user, all of its session tokens and all of its
	// tasks in one transaction, then queues a cancellation email.
	//
	// It returns ErrUserNotFound if the user doesn't exist.
	Delete(ctx context.Context, userID string) error
}

type TokenService interface {
	// Issue signs a session token for the user and persists it through
	// the given querier, so callers can bind the insert to their own
	// transaction.
	Issue(ctx context.Context, q postgres.Querier, userID string) (string, error)

	// Validate checks the token signature and resolves the owning user.
	//
	// It returns ErrInvalidToken if the signature is invalid, the user
	// is gone or the token has been revoked.
	Validate(ctx context.Context, token string) (*models.User, error)

	// Revoke invalidates a single session token.
	Revoke(ctx context.Context, userID, token string) error

	// RevokeAll invalidates every session token of the user.
	RevokeAll(ctx context.Context, userID string) error
}

type AvatarService interface {
	// Upload decodes the image, normalizes it to a fixed-size PNG and
	// stores it on the user record.
	//
	// It returns ErrInvalidImage if the payload isn't a decodable image
	// or ErrImageTooLarge if it exceeds the upload limit.
	Upload(ctx context.Context, userID string, data []byte) error

	// Delete clears the stored avatar.
	Delete(ctx context.Context, userID string) error

	// GetByUserID returns the stored PNG bytes or ErrUserNotFound if
	// the user doesn't exist or has no avatar.
	GetByUserID(ctx context.Context, userID string) ([]byte, error)
}

// Notifier is the account lifecycle notification sink. Implementations
// must not block the caller and must swallow delivery failures.
type Notifier interface {
	SendWelcome(email, name string)
	SendCancellation(email, name string)
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Age      int
}

type LoginParams struct {
	Email    string
	Password string
}

type UpdateParams struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

type AuthResult struct {
	User  *models.User
	Token string
}
