package storage

import (
	"context"
	"io"

	"github.com/iudanet/authapi/internal/models"
)

// UserStorage defines interface for user data persistence.
// Emails are expected to be normalized by the caller (validation.NormalizeEmail).
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email is already taken.
	// Uniqueness is enforced by the database, so concurrent inserts
	// with the same email cannot both succeed.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by exact email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetActiveUserByEmail retrieves user by email only if the user is active
	// Returns ErrUserNotFound if user doesn't exist or is inactive
	GetActiveUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Store is a UserStorage that owns a database connection
type Store interface {
	UserStorage
	io.Closer

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error
}
