// Package credentials persists owner-scoped credential records.
//
// Every method takes the owner id and never touches records belonging to a
// different owner. A record owned by someone else is reported exactly like a
// missing one, with common.ErrorNotFound.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type Repository interface {
	// List returns the owner's credentials in insertion order.
	List(ctx context.Context, ownerID string) ([]*models.Credential, error)
	// Create stores a new credential; common.ErrorAlreadyExists if (ID, OwnerID) is taken.
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)
	// Update replaces site, username and secret in place.
	Update(ctx context.Context, c *models.Credential) (*models.Credential, error)
	// Delete removes the credential and returns it as it was.
	Delete(ctx context.Context, ownerID, id string) (*models.Credential, error)
}

// Owners resolves owner ids. Backends without a foreign key from credentials
// to users consult it before inserting.
type Owners interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

func checkOwner(ctx context.Context, owners Owners, ownerID string) error {
	if owners == nil {
		return nil
	}
	if _, err := owners.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: owner %s", common.ErrorNotFound, ownerID)
		}
		return err
	}
	return nil
}
