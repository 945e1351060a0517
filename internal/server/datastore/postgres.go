package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/server/migrations"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// PostgresConnector opens pgx-backed database/sql pools.
type PostgresConnector struct {
	dsn string
}

func NewPostgresConnector(dsn string) *PostgresConnector {
	return &PostgresConnector{dsn: dsn}
}

func (c *PostgresConnector) Backend() string { return "postgres" }

func (c *PostgresConnector) Connect(ctx context.Context) (Conn, error) {
	db, err := sqlOpen("pgx", c.dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return &postgresConn{
		db:          db,
		users:       users.NewPostgresRepository(db),
		credentials: credentials.NewPostgresRepository(db),
	}, nil
}

type postgresConn struct {
	db          *sql.DB
	users       *users.PostgresRepository
	credentials *credentials.PostgresRepository
}

func (p *postgresConn) Ping(ctx context.Context) error      { return p.db.PingContext(ctx) }
func (p *postgresConn) Close(context.Context) error         { return p.db.Close() }
func (p *postgresConn) Users() users.Repository             { return p.users }
func (p *postgresConn) Credentials() credentials.Repository { return p.credentials }
