package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off the store so a transaction scoped
// store hands out transaction scoped repositories.
type Store interface {
	Users() Users

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. An error from fn rolls the
	// transaction back, nil commits it. Errors are returned unchanged so
	// callers can match ErrNotFound and ErrAlreadyExists.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by its system assigned id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByLoginID returns the user whose login id matches exactly.
	GetUserByLoginID(ctx context.Context, loginID string) (domain.User, error)

	// CreateUser inserts u and returns it with ID and CreatedAt filled in.
	// A duplicate login id yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// ListUsers returns every user ordered by id.
	ListUsers(ctx context.Context) ([]domain.User, error)
}
