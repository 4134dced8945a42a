package spatial

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/testutil"
)

func TestGeometry_ValueScan(t *testing.T) {
	tests := []struct {
		name string
		geom Geometry
		text any
	}{
		{"point", Geometry{orb.Point{3, 4}}, "POINT(3 4)"},
		{"line string", Geometry{orb.LineString{{0, 0}, {1, 0}}}, "LINESTRING(0 0,1 0)"},
		{"empty line string", Geometry{orb.LineString{}}, "LINESTRING EMPTY"},
		{"null", Geometry{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.geom.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.text, v)

			var back Geometry
			require.NoError(t, back.Scan(v))
			assert.True(t, tt.geom.Equal(back), "expected %s, got %s", tt.geom, back)
		})
	}
}

func TestGeometry_ScanErrors(t *testing.T) {
	var g Geometry
	assert.Error(t, g.Scan(42))
	assert.Error(t, g.Scan("CIRCLE(1 1)"))
	require.NoError(t, g.Scan([]byte("POINT(1 2)")))
	assert.Equal(t, orb.Point{1, 2}, g.Geometry)
}

func TestGeometry_IsEmpty(t *testing.T) {
	assert.True(t, Geometry{orb.LineString{}}.IsEmpty())
	assert.False(t, Geometry{orb.LineString{{0, 0}}}.IsEmpty())
	assert.False(t, Geometry{orb.Point{0, 0}}.IsEmpty())
	assert.False(t, Geometry{}.IsEmpty())
}

func TestFixture_RoundTrip(t *testing.T) {
	db := testutil.SeededSQLite(t, NewFixture())
	s := db.NewSession(context.Background())

	points, err := persistence.ToList[PointEntity](persistence.Set[PointEntity](s))
	require.NoError(t, err)
	require.Len(t, points, 4)

	lines, err := persistence.ToList[LineStringEntity](persistence.Set[LineStringEntity](s).Order("id"))
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.True(t, lines[2].LineString.IsEmpty())
	assert.False(t, lines[3].LineString.Valid())

	empty, err := persistence.Count(persistence.Set[LineStringEntity](s).Where("line_string LIKE ?", "% EMPTY"))
	require.NoError(t, err)
	assert.Equal(t, 1, empty)
}
