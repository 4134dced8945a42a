package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []SortKey
		wantErr  bool
	}{
		{"single field", "name", []SortKey{{Field: "name"}}, false},
		{"explicit ASC", "name ASC", []SortKey{{Field: "name"}}, false},
		{"lowercase desc", "name desc", []SortKey{{Field: "name", Desc: true}}, false},
		{"several terms", "Kind, name DESC , id", []SortKey{{Field: "Kind"}, {Field: "name", Desc: true}, {Field: "id"}}, false},
		{"empty string", "", nil, true},
		{"trailing comma", "name,", nil, true},
		{"invalid direction", "name sideways", nil, true},
		{"sql injection attempt", "name; DROP TABLE users;--", nil, true},
		{"too many words", "name desc nulls", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := ParseSortKeys(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, keys)
		})
	}
}

func TestOrderBy_QualifiesSchemaColumns(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "test_animals" ORDER BY "test_animals"."name" DESC,"test_animals"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "name"}).
			AddRow(2, "kiwi", "Brown").
			AddRow(1, "eagle", "Alpine"))

	s := db.NewSession(context.Background())
	q, err := OrderByString(Set[testAnimal](s), "Name desc, id")
	require.NoError(t, err)
	rows, err := ToList[testAnimal](q)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Brown", rows[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderBy_RejectsUnknownColumns(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	s := db.NewSession(context.Background())

	_, err := OrderBy(Set[testAnimal](s), SortKey{Field: "weight"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight")

	_, err = OrderBy(s.DB(), SortKey{Field: "name"})
	require.Error(t, err)

	_, err = OrderByString(Set[testAnimal](s), "name up")
	require.Error(t, err)
}
