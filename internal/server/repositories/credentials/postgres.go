package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	query :=
		`SELECT id, owner_id, site, username, secret, created_at, updated_at FROM passwords
		 WHERE owner_id = $1
		 ORDER BY seq
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		if dbx.IsInvalidInput(err) {
			return []*models.Credential{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Credential, 0)
	for rows.Next() {
		c := &models.Credential{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Site, &c.Username, &c.Secret, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	query :=
		`INSERT INTO passwords (id, owner_id, site, username, secret)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.ID, c.OwnerID, c.Site, c.Username, c.Secret).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return nil, common.ErrorAlreadyExists
		case dbx.IsForeignKeyViolation(err), dbx.IsInvalidInput(err):
			// owner vanished or is not a valid id
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	query :=
		`UPDATE passwords SET site = $3, username = $4, secret = $5, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, owner_id, site, username, secret, created_at, updated_at
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, c.ID, c.OwnerID, c.Site, c.Username, c.Secret))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) (*models.Credential, error) {
	query :=
		`DELETE FROM passwords
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, owner_id, site, username, secret, created_at, updated_at
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Credential, error) {
	c := &models.Credential{}
	err := row.Scan(&c.ID, &c.OwnerID, &c.Site, &c.Username, &c.Secret, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
