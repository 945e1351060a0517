package datastore

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/passvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

// ErrStoreDown is returned by a MemoryStore that has been switched off.
var ErrStoreDown = errors.New("datastore is down")

// MemoryStore is an in-process store. Data survives reconnects; SetDown
// simulates an outage for Connect and Ping.
type MemoryStore struct {
	down        atomic.Bool
	users       *users.MemoryRepository
	credentials *credentials.MemoryRepository
}

func NewMemoryStore() *MemoryStore {
	ur := users.NewMemoryRepository()
	return &MemoryStore{
		users:       ur,
		credentials: credentials.NewMemoryRepository(ur),
	}
}

func (m *MemoryStore) Backend() string { return "memory" }

// SetDown switches the simulated outage on or off.
func (m *MemoryStore) SetDown(down bool) { m.down.Store(down) }

func (m *MemoryStore) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.down.Load() {
		return nil, ErrStoreDown
	}
	return m, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	if m.down.Load() {
		return ErrStoreDown
	}
	return ctx.Err()
}

func (m *MemoryStore) Close(context.Context) error         { return nil }
func (m *MemoryStore) Users() users.Repository             { return m.users }
func (m *MemoryStore) Credentials() credentials.Repository { return m.credentials }
