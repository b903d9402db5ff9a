package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/dates"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/google/uuid"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindUUID
	KindDate
	KindTimestamp
	KindBool
	// KindTags is a jsonb array of strings.
	KindTags
)

// Column describes one column of a collection.
type Column struct {
	Name     string
	Kind     Kind
	Writable bool
	Nullable bool
	// Required columns must be present on insert.
	Required bool
	// MaxItems caps KindTags lists. Zero means no cap.
	MaxItems int
	// StampedBy names a bool column. The store sets this timestamp column
	// to its own clock when that column turns true and clears it when it
	// turns false.
	StampedBy string
}

// Schema whitelists the table and columns behind a collection.
type Schema struct {
	Table   string
	Columns []Column
}

// Column returns the column called name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names lists every column in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// stamped returns the columns maintained from driver.
func (s Schema) stamped(driver string) []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.StampedBy == driver {
			out = append(out, c)
		}
	}
	return out
}

// MaxTags is the tag limit of journal entries.
const MaxTags = 12

// Schemas maps collection names to their storage.
var Schemas = map[string]Schema{
	models.CollectionJournal: {
		Table: "journal_entries",
		Columns: []Column{
			{Name: models.ColID, Kind: KindUUID},
			{Name: models.ColOwnerID, Kind: KindUUID},
			{Name: models.ColEntryDate, Kind: KindDate, Writable: true, Required: true},
			{Name: models.ColContent, Kind: KindText, Writable: true, Required: true},
			{Name: models.ColMood, Kind: KindText, Writable: true, Nullable: true},
			{Name: models.ColTags, Kind: KindTags, Writable: true, MaxItems: MaxTags},
			{Name: models.ColCreatedAt, Kind: KindTimestamp},
		},
	},
	models.CollectionTodos: {
		Table: "todos",
		Columns: []Column{
			{Name: models.ColID, Kind: KindUUID},
			{Name: models.ColOwnerID, Kind: KindUUID},
			{Name: models.ColContent, Kind: KindText, Writable: true, Required: true},
			{Name: models.ColDueDate, Kind: KindDate, Writable: true, Nullable: true},
			{Name: models.ColCompleted, Kind: KindBool, Writable: true},
			{Name: models.ColDoneAt, Kind: KindTimestamp, Nullable: true, StampedBy: models.ColCompleted},
			{Name: models.ColCreatedAt, Kind: KindTimestamp},
		},
	},
}

// Lookup returns the schema of collection.
func Lookup(collection string) (Schema, error) {
	s, ok := Schemas[collection]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
	return s, nil
}

// toArg converts a wire value into a database/sql argument for c.
func toArg(c Column, v any) (any, error) {
	if v == nil {
		if !c.Nullable && c.Kind != KindTags {
			return nil, fmt.Errorf("%w: %s cannot be null", common.ErrInvalidValue, c.Name)
		}
		if c.Kind == KindTags {
			return "[]", nil
		}
		return nil, nil
	}

	bad := func() error {
		return fmt.Errorf("%w: %s got %T", common.ErrInvalidValue, c.Name, v)
	}

	switch c.Kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		return s, nil
	case KindUUID:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("%w: %s is not a uuid", common.ErrInvalidValue, c.Name)
		}
		return s, nil
	case KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		d, err := dates.ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidValue, c.Name, err)
		}
		return d.Time(time.UTC), nil
	case KindTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		return models.ParseTime(s)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, bad()
		}
		return b, nil
	case KindTags:
		tags := models.Record{c.Name: v}.Strings(c.Name)
		list, ok := v.([]any)
		if !ok || len(tags) != len(list) {
			return nil, bad()
		}
		if c.MaxItems > 0 && len(tags) > c.MaxItems {
			return nil, fmt.Errorf("%w: %s has more than %d items", common.ErrInvalidValue, c.Name, c.MaxItems)
		}
		b, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, bad()
}

// fromDB converts a scanned driver value of c into its wire value.
func fromDB(c Column, v any) (any, error) {
	if v == nil {
		if c.Kind == KindTags {
			return []any{}, nil
		}
		return nil, nil
	}

	switch c.Kind {
	case KindText, KindUUID:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case [16]byte:
			return uuid.UUID(x).String(), nil
		}
	case KindDate:
		switch x := v.(type) {
		case time.Time:
			return x.Format(dates.Layout), nil
		case string:
			return x, nil
		}
	case KindTimestamp:
		if t, ok := v.(time.Time); ok {
			return models.FormatTime(t), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTags:
		var raw []byte
		switch x := v.(type) {
		case []byte:
			raw = x
		case string:
			raw = []byte(x)
		default:
			return nil, fmt.Errorf("column %s: unexpected %T", c.Name, v)
		}
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		out := make([]any, len(tags))
		for i, t := range tags {
			out[i] = t
		}
		return out, nil
	}
	return nil, fmt.Errorf("column %s: unexpected %T", c.Name, v)
}
