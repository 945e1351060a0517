package client

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/client/models"
)

// Client is the passvault API surface used by the CLI.
type Client interface {
	Register(ctx context.Context, name, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Logout()
	LoggedIn() bool
	Ping(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)
	Update(ctx context.Context, c *models.Credential) (*models.Credential, error)
	Delete(ctx context.Context, id string) (*models.Credential, error)
	Export(ctx context.Context) (*models.Export, error)
}
