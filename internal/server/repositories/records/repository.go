// Package records stores the rows of every user-facing collection
// (journal entries, todos) through one repository driven by a per-collection
// schema whitelist. Only whitelisted tables and columns ever reach SQL.
package records

import (
	"context"

	"github.com/dmitrijs2005/afterlog/internal/models"
)

// Repository reads and writes collection rows. Every call is scoped to an
// owner; rows of other owners behave as if they did not exist.
type Repository interface {
	// Insert stores rec under id and ownerID and returns the stored row.
	Insert(ctx context.Context, collection, ownerID, id string, rec models.Record) (models.Record, error)
	// Update applies patch to the row and returns it. A missing row yields
	// common.ErrorNotFound.
	Update(ctx context.Context, collection, ownerID, id string, patch models.Record) (models.Record, error)
	// Delete removes the row. A missing row yields common.ErrorNotFound.
	Delete(ctx context.Context, collection, ownerID, id string) error
	// Query runs q. Callers are responsible for the owner filter.
	Query(ctx context.Context, q models.Query) ([]models.Record, error)
}
