package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/dbx"
	"github.com/dmitrijs2005/afterlog/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// argList accumulates positional arguments.
type argList []any

func (a *argList) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func (r *PostgresRepository) Insert(ctx context.Context, collection, ownerID, id string, rec models.Record) (models.Record, error) {
	s, err := Lookup(collection)
	if err != nil {
		return nil, err
	}

	if err := checkKeys(s, ownerID, id); err != nil {
		return nil, err
	}

	var args argList
	cols := []string{models.ColID, models.ColOwnerID}
	vals := []string{args.add(id), args.add(ownerID)}

	for _, c := range s.Columns {
		if c.Required {
			if _, ok := rec[c.Name]; !ok {
				return nil, fmt.Errorf("%w: %s is required", common.ErrInvalidValue, c.Name)
			}
		}
	}

	for _, k := range sortedKeys(rec) {
		c, err := writable(s, k)
		if err != nil {
			return nil, err
		}
		a, err := toArg(c, rec[k])
		if err != nil {
			return nil, err
		}
		ph := args.add(a)
		cols = append(cols, k)
		vals = append(vals, ph)
		for _, st := range s.stamped(k) {
			cols = append(cols, st.Name)
			vals = append(vals, fmt.Sprintf("CASE WHEN %s::boolean THEN now() END", ph))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.Table, strings.Join(cols, ", "), strings.Join(vals, ", "), strings.Join(s.Names(), ", "))

	row := r.db.QueryRowContext(ctx, query, args...)
	return scanRecord(s.Columns, row.Scan)
}

func (r *PostgresRepository) Update(ctx context.Context, collection, ownerID, id string, patch models.Record) (models.Record, error) {
	s, err := Lookup(collection)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(s, ownerID, id); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", common.ErrInvalidValue)
	}

	var args argList
	var set []string
	for _, k := range sortedKeys(patch) {
		c, err := writable(s, k)
		if err != nil {
			return nil, err
		}
		a, err := toArg(c, patch[k])
		if err != nil {
			return nil, err
		}
		ph := args.add(a)
		set = append(set, fmt.Sprintf("%s = %s", k, ph))
		for _, st := range s.stamped(k) {
			set = append(set, fmt.Sprintf("%s = CASE WHEN %s::boolean THEN COALESCE(%s, now()) ELSE NULL END", st.Name, ph, st.Name))
		}
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s AND owner_id = %s RETURNING %s",
		s.Table, strings.Join(set, ", "), args.add(id), args.add(ownerID), strings.Join(s.Names(), ", "))

	row := r.db.QueryRowContext(ctx, query, args...)
	return scanRecord(s.Columns, row.Scan)
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, ownerID, id string) error {
	s, err := Lookup(collection)
	if err != nil {
		return err
	}
	if err := checkKeys(s, ownerID, id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND owner_id = $2", s.Table)
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

var sqlOps = map[models.Op]string{
	models.OpEq:  "=",
	models.OpGte: ">=",
	models.OpLte: "<=",
}

func (r *PostgresRepository) Query(ctx context.Context, q models.Query) ([]models.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s, err := Lookup(q.Collection)
	if err != nil {
		return nil, err
	}

	names := q.Columns
	if len(names) == 0 {
		names = s.Names()
	}
	proj := make([]Column, 0, len(names))
	for _, n := range names {
		c, ok := s.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownColumn, n)
		}
		proj = append(proj, c)
	}

	var args argList
	var where []string
	for _, f := range q.Filters {
		c, ok := s.Column(f.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownColumn, f.Column)
		}
		if c.Kind == KindTags {
			return nil, fmt.Errorf("%w: cannot filter on %s", common.ErrInvalidValue, c.Name)
		}
		if f.Value == nil {
			if f.Op != models.OpEq {
				return nil, fmt.Errorf("%w: range filter on null", common.ErrInvalidValue)
			}
			where = append(where, c.Name+" IS NULL")
			continue
		}
		a, err := toArg(c, f.Value)
		if err != nil {
			return nil, err
		}
		where = append(where, fmt.Sprintf("%s %s %s", c.Name, sqlOps[f.Op], args.add(a)))
	}

	var order []string
	for _, o := range q.Order {
		if _, ok := s.Column(o.Column); !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownColumn, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		order = append(order, o.Column+" "+dir)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(names, ", "), s.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if len(order) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	if q.Range.Count > 0 {
		b.WriteString(" LIMIT " + args.add(q.Range.Count))
	}
	if q.Range.Start > 0 {
		b.WriteString(" OFFSET " + args.add(q.Range.Start))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", q.Collection, err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(proj, rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRecord(cols []Column, scan func(dest ...any) error) (models.Record, error) {
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec := make(models.Record, len(cols))
	for i, c := range cols {
		v, err := fromDB(c, raw[i])
		if err != nil {
			return nil, err
		}
		rec[c.Name] = v
	}
	return rec, nil
}

func writable(s Schema, name string) (Column, error) {
	c, ok := s.Column(name)
	if !ok {
		return Column{}, fmt.Errorf("%w: %s", common.ErrUnknownColumn, name)
	}
	if !c.Writable {
		return Column{}, fmt.Errorf("%w: %s", common.ErrReadOnlyColumn, name)
	}
	return c, nil
}

func checkKeys(s Schema, ownerID, id string) error {
	for name, v := range map[string]string{models.ColID: id, models.ColOwnerID: ownerID} {
		c, _ := s.Column(name)
		if _, err := toArg(c, v); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(r models.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
