package spatial

import (
	"slices"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

var pointNamespace = uuid.MustParse("5b0b6f7e-3c1a-4f7e-b1f4-8a2d9c0e7d31")

// PointID returns the id of the n-th point entity
func PointID(n int) uuid.UUID {
	return uuid.NewSHA1(pointNamespace, []byte{byte(n)})
}

// Origin is the reference point distance scenarios measure from
var Origin = orb.Point{0, 0}

type Dataset struct {
	Points      []PointEntity
	LineStrings []LineStringEntity
}

func Generate() *Dataset {
	return &Dataset{
		Points: []PointEntity{
			{ID: PointID(1), Group: "A", Point: Geometry{orb.Point{0, 0}}},
			{ID: PointID(2), Group: "A", Point: Geometry{orb.Point{1, 1}}},
			{ID: PointID(3), Group: "B", Point: Geometry{orb.Point{3, 4}}},
			{ID: PointID(4), Group: "B"},
		},
		LineStrings: []LineStringEntity{
			{ID: 1, LineString: Geometry{orb.LineString{{0, 0}, {1, 0}}}},
			{ID: 2, LineString: Geometry{orb.LineString{{1, 1}, {2, 2}, {3, 3}}}},
			{ID: 3, LineString: Geometry{orb.LineString{}}},
			{ID: 4},
		},
	}
}

// Expected returns copies of the rows; spatial entities have no navigations
func (d *Dataset) Expected() *Dataset {
	return &Dataset{Points: slices.Clone(d.Points), LineStrings: slices.Clone(d.LineStrings)}
}
