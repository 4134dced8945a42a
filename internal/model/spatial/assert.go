package spatial

import (
	"github.com/stretchr/testify/assert"

	"github.com/ormspec/queryspec/internal/oracle"
)

func PointKey(p PointEntity) oracle.SortKey { return oracle.Key(p.ID.String()) }

func LineStringKey(l LineStringEntity) oracle.SortKey { return oracle.Key(l.ID) }

// AssertGeometry compares geometries by their points
func AssertGeometry(t oracle.TestingT, e, a Geometry) {
	t.Helper()
	if !e.Equal(a) {
		t.Errorf("geometry: expected %s, got %s", e, a)
	}
}

func AssertPoint(t oracle.TestingT, e, a PointEntity) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Group, a.Group)
	AssertGeometry(t, e.Point, a.Point)
}

func AssertLineString(t oracle.TestingT, e, a LineStringEntity) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	AssertGeometry(t, e.LineString, a.LineString)
}

func NewRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	oracle.RegisterEntity(r, PointKey, AssertPoint)
	oracle.RegisterEntity(r, LineStringKey, AssertLineString)
	return r
}
