package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(site, user, secret string) models.CredentialFields {
	return models.CredentialFields{Site: site, Username: user, Secret: secret}
}

func TestCredentials_CreateAndList(t *testing.T) {
	store, owner, other := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	c, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)
	assert.Equal(t, owner, c.OwnerID)
	assert.Equal(t, "p1", c.Secret)

	_, err = svc.Create(ctx, owner, "c2", fields("y.com", "b", "p2"))
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, "x.com", list[0].Site)
	assert.Equal(t, "a", list[0].Username)
	assert.Equal(t, "p1", list[0].Secret)
	assert.Equal(t, "c2", list[1].ID)

	foreign, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestCredentials_Conflict(t *testing.T) {
	store, owner, other := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner, "c1", fields("y.com", "b", "p2"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = svc.Create(ctx, other, "c1", fields("y.com", "b", "p2"))
	assert.NoError(t, err)
}

func TestCredentials_CrossUserIsNotFound(t *testing.T) {
	store, owner, other := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	_, errForeign := svc.Update(ctx, other, "c1", fields("evil.com", "e", "e"))
	assert.ErrorIs(t, errForeign, common.ErrorNotFound)
	_, errMissing := svc.Update(ctx, other, "nope", fields("evil.com", "e", "e"))
	assert.ErrorIs(t, errMissing, common.ErrorNotFound)

	_, err = svc.Delete(ctx, other, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "x.com", list[0].Site)
}

func TestCredentials_UpdateReplacesMutableFields(t *testing.T) {
	store, owner, _ := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, "c1", fields("y.com", "b", "p2"))
	require.NoError(t, err)
	assert.Equal(t, "c1", updated.ID)
	assert.Equal(t, owner, updated.OwnerID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "y.com", updated.Site)
	assert.Equal(t, "b", updated.Username)
	assert.Equal(t, "p2", updated.Secret)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].Secret)
}

func TestCredentials_Delete(t *testing.T) {
	store, owner, _ := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner, "c1")
	require.NoError(t, err)
	assert.Equal(t, "p1", deleted.Secret)

	_, err = svc.Delete(ctx, owner, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCredentials_Validation(t *testing.T) {
	store := newTestStore()
	store.down = true
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "c1", fields("", "a", "p"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Create(ctx, "u1", "c1", fields("x", "a", ""))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Update(ctx, "u1", "", fields("x", "a", "p"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Update(ctx, "u1", " ", fields("", "", ""))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.Delete(ctx, "u1", "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.List(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}

func TestCredentials_SealedAtRest(t *testing.T) {
	store, owner, _ := newOwnedStore(t)
	sealer, err := cryptox.NewSecretSealer("passphrase")
	require.NoError(t, err)
	svc := NewCredentialService(store, sealer, nil, logging.Nop())
	ctx := context.Background()

	_, err = svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	raw, err := store.conn.Credentials().List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.True(t, strings.HasPrefix(raw[0].Secret, cryptox.SealedPrefix))
	assert.NotContains(t, raw[0].Secret, "p1")

	// legacy rows written before sealing was enabled stay readable
	_, err = store.conn.Credentials().Create(ctx, &models.Credential{ID: "c0", OwnerID: owner, Site: "old.com", Username: "o", Secret: "plain"})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].Secret)
	assert.Equal(t, "plain", list[1].Secret)
}

type fakeExporter struct {
	ownerID string
	payload []byte
	err     error
}

func (f *fakeExporter) Export(_ context.Context, ownerID string, payload []byte) (*ExportResult, error) {
	f.ownerID, f.payload = ownerID, payload
	if f.err != nil {
		return nil, f.err
	}
	return &ExportResult{URL: "https://s3.example/export"}, nil
}

func TestCredentials_Export(t *testing.T) {
	exp := &fakeExporter{}
	store, owner, _ := newOwnedStore(t)
	svc := NewCredentialService(store, nil, exp, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	require.NoError(t, err)

	res, err := svc.Export(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/export", res.URL)
	assert.Equal(t, owner, exp.ownerID)

	var doc struct {
		OwnerID     string               `json:"ownerId"`
		Credentials []*models.Credential `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal(exp.payload, &doc))
	assert.Equal(t, owner, doc.OwnerID)
	require.Len(t, doc.Credentials, 1)
	assert.Equal(t, "p1", doc.Credentials[0].Secret)

	exp.err = errors.New("bucket gone")
	_, err = svc.Export(ctx, owner)
	assert.ErrorContains(t, err, "bucket gone")
}

func TestCredentials_IDIsTrimmed(t *testing.T) {
	store, owner, _ := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	c, err := svc.Create(ctx, owner, " k1 ", fields("x.com", "a", "p1"))
	require.NoError(t, err)
	assert.Equal(t, "k1", c.ID)

	updated, err := svc.Update(ctx, owner, " k1 ", fields("y.com", "b", "p2"))
	require.NoError(t, err)
	assert.Equal(t, "k1", updated.ID)

	deleted, err := svc.Delete(ctx, owner, "\tk1 ")
	require.NoError(t, err)
	assert.Equal(t, "y.com", deleted.Site)
}

func TestCredentials_UnknownOwner(t *testing.T) {
	store, owner, _ := newOwnedStore(t)
	svc := NewCredentialService(store, nil, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, "ghost-user", "c1", fields("x.com", "a", "p1"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := svc.List(ctx, "ghost-user")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, owner, "c1", fields("x.com", "a", "p1"))
	assert.NoError(t, err)
}

func TestCredentials_ExportNotConfigured(t *testing.T) {
	svc := NewCredentialService(newTestStore(), nil, nil, logging.Nop())
	_, err := svc.Export(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}
