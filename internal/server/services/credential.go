package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// CredentialService manages credentials on behalf of an authenticated owner.
// Every call is scoped to ownerID; credentials of other owners behave as if
// they did not exist.
type CredentialService struct {
	store    Store
	codec    cryptox.Codec
	exporter Exporter
	logger   logging.Logger
}

// NewCredentialService wires the service. A nil codec stores secrets as
// received; a nil exporter disables Export.
func NewCredentialService(store Store, codec cryptox.Codec, exporter Exporter, logger logging.Logger) *CredentialService {
	if codec == nil {
		codec = cryptox.Plaintext{}
	}
	return &CredentialService{
		store:    store,
		codec:    codec,
		exporter: exporter,
		logger:   logger.With("module", "credentials"),
	}
}

// List returns the owner's credentials in insertion order.
func (s *CredentialService) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	items, err := conn.Credentials().List(ctx, ownerID)
	if err != nil {
		return nil, storeError(s.store, err)
	}

	for _, c := range items {
		if err := s.open(c); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Create stores a new credential under id for ownerID.
func (s *CredentialService) Create(ctx context.Context, ownerID, id string, f models.CredentialFields) (*models.Credential, error) {
	id = strings.TrimSpace(id)
	if err := validate(id, f); err != nil {
		return nil, err
	}

	sealed, err := s.codec.Seal(f.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	c, err := conn.Credentials().Create(ctx, &models.Credential{
		ID:       id,
		OwnerID:  ownerID,
		Site:     f.Site,
		Username: f.Username,
		Secret:   sealed,
	})
	if err != nil {
		return nil, credentialError(s.store, err, id)
	}

	c.Secret = f.Secret
	return c, nil
}

// Update replaces site, username and secret of an existing credential.
func (s *CredentialService) Update(ctx context.Context, ownerID, id string, f models.CredentialFields) (*models.Credential, error) {
	id = strings.TrimSpace(id)
	if err := validate(id, f); err != nil {
		return nil, err
	}

	sealed, err := s.codec.Seal(f.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	c, err := conn.Credentials().Update(ctx, &models.Credential{
		ID:       id,
		OwnerID:  ownerID,
		Site:     f.Site,
		Username: f.Username,
		Secret:   sealed,
	})
	if err != nil {
		return nil, credentialError(s.store, err, id)
	}

	c.Secret = f.Secret
	return c, nil
}

// Delete removes a credential and returns it as it was.
func (s *CredentialService) Delete(ctx context.Context, ownerID, id string) (*models.Credential, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", common.ErrorValidation)
	}

	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	c, err := conn.Credentials().Delete(ctx, ownerID, id)
	if err != nil {
		return nil, credentialError(s.store, err, id)
	}

	if err := s.open(c); err != nil {
		return nil, err
	}
	return c, nil
}

// exportDocument is the JSON written by Export.
type exportDocument struct {
	OwnerID     string               `json:"ownerId"`
	ExportedAt  time.Time            `json:"exportedAt"`
	Credentials []*models.Credential `json:"credentials"`
}

// Export writes all of the owner's credentials to object storage and
// returns a short-lived download link.
func (s *CredentialService) Export(ctx context.Context, ownerID string) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("%w: export storage is not configured", common.ErrorUnavailable)
	}

	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(exportDocument{
		OwnerID:     ownerID,
		ExportedAt:  time.Now().UTC(),
		Credentials: items,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	res, err := s.exporter.Export(ctx, ownerID, payload)
	if err != nil {
		s.logger.Error(ctx, "export failed", "owner_id", ownerID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "vault exported", "owner_id", ownerID, "count", len(items))
	return res, nil
}

func (s *CredentialService) open(c *models.Credential) error {
	plain, err := s.codec.Open(c.Secret)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	c.Secret = plain
	return nil
}

func validate(id string, f models.CredentialFields) error {
	err := f.Validate()
	if strings.TrimSpace(id) != "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("%w: missing id", common.ErrorValidation)
	}
	return fmt.Errorf("%w; missing id", err)
}

func credentialError(store Store, err error, id string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%w: credential %q not found", common.ErrorNotFound, id)
	case errors.Is(err, common.ErrorAlreadyExists):
		return fmt.Errorf("%w: credential %q already exists", common.ErrorAlreadyExists, id)
	}
	return storeError(store, err)
}
