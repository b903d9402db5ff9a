package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RecordService serves collection reads and writes on behalf of one
// authenticated user. Rows always belong to the caller: the owner is forced
// on insert and on every query.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newID       func() string
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m, newID: uuid.NewString}
}

// claimOwner strips owner_id from rec. A value naming anyone but userID is
// rejected.
func claimOwner(userID string, rec models.Record) (models.Record, error) {
	v, ok := rec[models.ColOwnerID]
	if !ok {
		return rec, nil
	}
	if v != userID {
		return nil, common.ErrorForbidden
	}
	out := rec.Clone()
	delete(out, models.ColOwnerID)
	return out, nil
}

// Insert stores rec under a fresh id.
func (s *RecordService) Insert(ctx context.Context, userID, collection string, rec models.Record) (models.Record, error) {
	rec, err := claimOwner(userID, rec)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).Insert(ctx, collection, userID, s.newID(), rec)
}

func (s *RecordService) Update(ctx context.Context, userID, collection, id string, patch models.Record) (models.Record, error) {
	patch, err := claimOwner(userID, patch)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", common.ErrInvalidValue)
	}
	return s.repomanager.Records(s.db).Update(ctx, collection, userID, id, patch)
}

func (s *RecordService) Delete(ctx context.Context, userID, collection, id string) error {
	return s.repomanager.Records(s.db).Delete(ctx, collection, userID, id)
}

// Query runs q restricted to the caller's rows. An owner filter that
// names another user, or ranges over owners, is rejected.
func (s *RecordService) Query(ctx context.Context, userID string, q models.Query) ([]models.Record, error) {
	scoped, err := scopeQuery(userID, q)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).Query(ctx, scoped)
}

func scopeQuery(userID string, q models.Query) (models.Query, error) {
	filters := []models.Filter{models.Eq(models.ColOwnerID, userID)}
	for _, f := range q.Filters {
		if f.Column != models.ColOwnerID {
			filters = append(filters, f)
			continue
		}
		if f.Op != models.OpEq || f.Value != userID {
			return models.Query{}, common.ErrorForbidden
		}
	}
	q.Filters = filters
	return q, nil
}
