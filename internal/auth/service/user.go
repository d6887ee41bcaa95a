package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/store"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// GetUserByLoginID fetches a user by directory login id.
func (s *UserService) GetUserByLoginID(ctx context.Context, loginID string) (domain.User, error) {
	return s.Store.Users().GetUserByLoginID(ctx, loginID)
}

// ListUsers returns every known user.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// Reconcile returns the local record for loginID, creating it from identity
// on first login. An existing record is returned unchanged.
//
// Returning users are read without a transaction. Two first logins racing
// on the same id both see no record; the loser's insert hits the unique
// index and is answered with the winner's row.
func (s *UserService) Reconcile(ctx context.Context, loginID string, identity domain.DirectoryIdentity) (domain.User, error) {
	log := slogx.FromContext(ctx)

	existing, err := s.Store.Users().GetUserByLoginID(ctx, loginID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to look up user", "username", loginID, "err", err)
		return domain.User{}, fmt.Errorf("%w: look up user: %w", ErrInternal, err)
	}

	var (
		user    domain.User
		created bool
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByLoginID(ctx, loginID)
		if err == nil {
			user = u
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		user, err = tx.Users().CreateUser(ctx, domain.NewUserFromDirectory(loginID, identity))
		created = err == nil
		return err
	})

	if errors.Is(err, store.ErrAlreadyExists) {
		log.Info("user created concurrently, reusing record", "username", loginID)
		user, err = s.Store.Users().GetUserByLoginID(ctx, loginID)
	}
	if err != nil {
		log.Error("failed to reconcile user", "username", loginID, "err", err)
		return domain.User{}, fmt.Errorf("%w: reconcile user: %w", ErrInternal, err)
	}

	if created {
		log.Info("new user created", "username", loginID, "user_id", user.ID)
	}
	return user, nil
}
