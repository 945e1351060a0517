package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// Credential is a stored (site, username, secret) triple owned by one user.
// (ID, OwnerID) is unique; ID alone is not.
type Credential struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Secret    string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CredentialFields are the mutable parts of a Credential.
type CredentialFields struct {
	Site     string
	Username string
	Secret   string
}

// Validate checks that every mutable field is present.
func (f CredentialFields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Site) == "" {
		missing = append(missing, "site")
	}
	if strings.TrimSpace(f.Username) == "" {
		missing = append(missing, "username")
	}
	if f.Secret == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorValidation, strings.Join(missing, ", "))
	}
	return nil
}
