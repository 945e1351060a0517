// Package datastore opens connections to the backing store and hands out
// repositories bound to a live connection.
//
// The backend is picked from the DSN scheme: postgres:// and postgresql://
// use pgx with goose migrations, mongodb:// and mongodb+srv:// use the
// official MongoDB driver, memory:// keeps everything in process.
package datastore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/passvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultDatabaseName is used for MongoDB when no database name is configured.
const DefaultDatabaseName = "passvault"

// Conn is an open datastore handle.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Users() users.Repository
	Credentials() credentials.Repository
}

// Connector opens new Conn values. Each call makes one attempt.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Backend() string
}

// Settings describe how to reach the store.
type Settings struct {
	DSN            string
	DatabaseName   string
	ConnectTimeout time.Duration
}

// NewConnector picks a Connector for s.DSN.
func NewConnector(s Settings) (Connector, error) {
	scheme, _, ok := strings.Cut(s.DSN, "://")
	if !ok {
		return nil, fmt.Errorf("invalid datastore dsn: missing scheme")
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return NewPostgresConnector(s.DSN), nil
	case "mongodb", "mongodb+srv":
		name := s.DatabaseName
		if name == "" {
			name = DefaultDatabaseName
		}
		return NewMongoConnector(s.DSN, name, s.ConnectTimeout), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported datastore scheme %q", scheme)
	}
}

// IsUnavailable reports whether err looks like the store went away rather
// than a problem with the request itself.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreDown) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
