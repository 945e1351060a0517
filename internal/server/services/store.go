// Package services contains server-side business logic: authentication,
// owner-scoped credential management and vault export. Services reach the
// datastore through a Store and never hold a connection across calls.
package services

import (
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/datastore"
)

// Store hands out the live datastore connection. resilience.Manager
// implements it.
type Store interface {
	Conn() (datastore.Conn, error)
	ReportFailure(err error)
}

// storeError turns connectivity failures into common.ErrorUnavailable and
// reports them to the store; other errors pass through.
func storeError(store Store, err error) error {
	if !datastore.IsUnavailable(err) {
		return err
	}
	store.ReportFailure(err)
	return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
}
