package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/store"
	"github.com/aussiebroadwan/dirauth/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

// txCountingStore records how often a transaction is opened.
type txCountingStore struct {
	store.Store
	txs atomic.Int32
}

func (s *txCountingStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.txs.Add(1)
	return s.Store.WithTx(ctx, fn)
}

// failingUsers fails every lookup with err.
type failingUsers struct {
	store.Users
	err error
}

func (u failingUsers) GetUserByLoginID(context.Context, string) (domain.User, error) {
	return domain.User{}, u.err
}

type failingStore struct {
	*txCountingStore
	users store.Users
}

func (s failingStore) Users() store.Users { return s.users }

func newCountingStore(t *testing.T) *txCountingStore {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(context.Background()))
	return &txCountingStore{Store: s}
}

func TestReconcile_TransactionOnlyForNewUsers(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore(t)
	svc := &UserService{Store: st}

	num := int64(42)
	created, err := svc.Reconcile(ctx, "dave", domain.DirectoryIdentity{EmployeeNumber: &num})
	require.NoError(t, err)
	require.Equal(t, int32(1), st.txs.Load(), "first login inserts inside a transaction")
	require.Equal(t, &num, created.EmployeeNumber)

	for range 3 {
		got, err := svc.Reconcile(ctx, "dave", domain.DirectoryIdentity{})
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	}
	require.Equal(t, int32(1), st.txs.Load(), "returning users never open a transaction")
}

func TestReconcile_LookupFailureIsInternal(t *testing.T) {
	st := newCountingStore(t)
	boom := errors.New("disk on fire")
	svc := &UserService{Store: failingStore{txCountingStore: st, users: failingUsers{err: boom}}}

	_, err := svc.Reconcile(context.Background(), "erin", domain.DirectoryIdentity{})
	require.ErrorIs(t, err, ErrInternal)
	require.ErrorIs(t, err, boom)
	require.Zero(t, st.txs.Load())
}
