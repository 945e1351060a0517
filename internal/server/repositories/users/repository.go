// Package users provides persistence for accounts. Email uniqueness is
// enforced by the backing store; Create reports a collision as
// common.ErrorAlreadyExists.
package users

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
