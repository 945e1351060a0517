package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/datastore"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

// --- helpers ---

type testStore struct {
	mu       sync.Mutex
	conn     datastore.Conn
	down     bool
	reported []error
}

func newTestStore() *testStore {
	return &testStore{conn: datastore.NewMemoryStore()}
}

// newOwnedStore returns a store with two registered users, the owners the
// credential tests write under.
func newOwnedStore(t *testing.T) (store *testStore, owner, other string) {
	t.Helper()
	store = newTestStore()
	ctx := context.Background()

	a, err := store.conn.Users().Create(ctx, &models.User{Email: "owner@example.com", Name: "Owner"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	b, err := store.conn.Users().Create(ctx, &models.User{Email: "other@example.com", Name: "Other"})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	return store, a.ID, b.ID
}

func (s *testStore) Conn() (datastore.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, fmt.Errorf("%w: datastore is disconnected", common.ErrorUnavailable)
	}
	return s.conn, nil
}

func (s *testStore) ReportFailure(err error) {
	s.mu.Lock()
	s.reported = append(s.reported, err)
	s.mu.Unlock()
}

func (s *testStore) Reported() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.reported...)
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour}
}

func newUserService(t *testing.T, store Store) *UserService {
	t.Helper()
	return NewUserService(store, testConfig(), logging.Nop())
}

// brokenConn fails every repository call with err.
type brokenConn struct{ err error }

func (b brokenConn) Ping(context.Context) error          { return b.err }
func (b brokenConn) Close(context.Context) error         { return nil }
func (b brokenConn) Users() users.Repository             { return brokenUsers{b.err} }
func (b brokenConn) Credentials() credentials.Repository { return brokenCredentials{b.err} }

type brokenUsers struct{ err error }

func (b brokenUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, b.err }
func (b brokenUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, b.err
}
func (b brokenUsers) GetUserByID(context.Context, string) (*models.User, error) { return nil, b.err }

type brokenCredentials struct{ err error }

func (b brokenCredentials) List(context.Context, string) ([]*models.Credential, error) {
	return nil, b.err
}
func (b brokenCredentials) Create(context.Context, *models.Credential) (*models.Credential, error) {
	return nil, b.err
}
func (b brokenCredentials) Update(context.Context, *models.Credential) (*models.Credential, error) {
	return nil, b.err
}
func (b brokenCredentials) Delete(context.Context, string, string) (*models.Credential, error) {
	return nil, b.err
}
