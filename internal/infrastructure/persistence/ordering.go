package persistence

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SortKey names one ORDER BY term by struct field or column name
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSortKeys reads a comma separated ordering such as "Country, city desc".
// Directions are case insensitive and default to ascending.
func ParseSortKeys(s string) ([]SortKey, error) {
	var keys []SortKey
	for _, term := range strings.Split(s, ",") {
		parts := strings.Fields(term)
		switch {
		case len(parts) == 0:
			return nil, fmt.Errorf("empty sort term in %q", s)
		case len(parts) > 2:
			return nil, fmt.Errorf("invalid sort term %q", strings.TrimSpace(term))
		}
		key := SortKey{Field: parts[0]}
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				key.Desc = true
			default:
				return nil, fmt.Errorf("invalid sort direction %q", parts[1])
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// OrderBy appends keys to q's ORDER BY. Fields are resolved against the
// schema of q's model, so only mapped columns can be ordered on and each
// column is qualified with the model's table.
func OrderBy(q *gorm.DB, keys ...SortKey) (*gorm.DB, error) {
	if q.Statement.Model == nil {
		return nil, fmt.Errorf("ordering requires a query with a model")
	}
	if err := q.Statement.Parse(q.Statement.Model); err != nil {
		return nil, fmt.Errorf("failed to parse model schema: %w", err)
	}
	columns := make([]clause.OrderByColumn, 0, len(keys))
	for _, k := range keys {
		f := q.Statement.Schema.LookUpField(k.Field)
		if f == nil || f.DBName == "" {
			return nil, fmt.Errorf("%s has no column %q", q.Statement.Schema.Name, k.Field)
		}
		columns = append(columns, clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: f.DBName},
			Desc:   k.Desc,
		})
	}
	return q.Order(clause.OrderBy{Columns: columns}), nil
}

// OrderByString parses s with ParseSortKeys and applies it with OrderBy
func OrderByString(q *gorm.DB, s string) (*gorm.DB, error) {
	keys, err := ParseSortKeys(s)
	if err != nil {
		return nil, err
	}
	return OrderBy(q, keys...)
}
