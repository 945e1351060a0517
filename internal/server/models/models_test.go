package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserView_OmitsHash(t *testing.T) {
	u := &User{ID: "u1", Email: "a@x.com", PasswordHash: "$2a$10$abc", Name: "A", CreatedAt: time.Unix(0, 0).UTC()}

	b, err := json.Marshal(u.View())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "$2a$10$abc")
	assert.Contains(t, string(b), `"email":"a@x.com"`)

	b, err = json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "abc")
}

func TestCredentialFields_Validate(t *testing.T) {
	assert.NoError(t, CredentialFields{Site: "x.com", Username: "a", Secret: "p1"}.Validate())

	err := CredentialFields{Site: " ", Secret: ""}.Validate()
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.ErrorContains(t, err, "site, username, password")
}
