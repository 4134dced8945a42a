package querytest

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/spatial"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

type pointText struct {
	ID  uuid.UUID
	WKT *string
}

type pointDistance struct {
	ID       uuid.UUID
	Distance *float64
}

type lineLength struct {
	ID     int
	Length *float64
}

func pointKey(id uuid.UUID) oracle.SortKey { return oracle.Key(id.String()) }

func distanceFromOrigin(p spatial.PointEntity) pointDistance {
	d := pointDistance{ID: p.ID}
	if pt, ok := p.Point.Geometry.(orb.Point); ok {
		v := planar.Distance(spatial.Origin, pt)
		d.Distance = &v
	}
	return d
}

func lengthOf(l spatial.LineStringEntity) lineLength {
	r := lineLength{ID: l.ID}
	if l.LineString.Valid() {
		v := planar.Length(l.LineString.Geometry)
		r.Length = &v
	}
	return r
}

// Spatial covers geometry columns. Operators without a portable SQL form
// run on the client after the rows are read.
func Spatial() Suite {
	return Suite{Name: "Spatial", Scenarios: []Scenario{
		{Name: "SimpleSelect", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.PointEntity](persistence.ToList[spatial.PointEntity]),
				oracle.Over(identity[spatial.PointEntity]),
				oracle.EntryCount(4))
		}},
		{Name: "AsText", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.PointEntity](func(q *gorm.DB) ([]pointText, error) {
					return persistence.ToList[pointText](q.Select("id, point AS wkt"))
				}),
				oracle.Over(func(ps []spatial.PointEntity) []pointText {
					return seq.Select(ps, func(p spatial.PointEntity) pointText {
						r := pointText{ID: p.ID}
						if p.Point.Valid() {
							text := p.Point.WKT()
							r.WKT = &text
						}
						return r
					})
				}),
				oracle.ElementSorter(func(r pointText) oracle.SortKey { return pointKey(r.ID) }))
		}},
		{Name: "Distance_on_client", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.PointEntity](func(q *gorm.DB) ([]pointDistance, error) {
					ps, err := persistence.ToList[spatial.PointEntity](q)
					return seq.Select(ps, distanceFromOrigin), err
				}),
				oracle.Over(func(ps []spatial.PointEntity) []pointDistance { return seq.Select(ps, distanceFromOrigin) }),
				oracle.ElementSorter(func(r pointDistance) oracle.SortKey { return pointKey(r.ID) }),
				oracle.EntryCount(4))
		}},
		{Name: "Where_group", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// group is a reserved word, so the condition goes through gorm's quoting
			oracle.AssertQuery(t, a,
				oracle.From[spatial.PointEntity](func(q *gorm.DB) ([]spatial.PointEntity, error) {
					return persistence.ToList[spatial.PointEntity](q.Where(&spatial.PointEntity{Group: "B"}))
				}),
				oracle.Over(func(ps []spatial.PointEntity) []spatial.PointEntity {
					return seq.Where(ps, func(p spatial.PointEntity) bool { return p.Group == "B" })
				}),
				oracle.EntryCount(2))
		}},
		{Name: "Where_null_geometry", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.PointEntity](func(q *gorm.DB) ([]spatial.PointEntity, error) {
					return persistence.ToList[spatial.PointEntity](q.Where("point IS NULL"))
				}),
				oracle.Over(func(ps []spatial.PointEntity) []spatial.PointEntity {
					return seq.Where(ps, func(p spatial.PointEntity) bool { return !p.Point.Valid() })
				}))
		}},
		{Name: "IsEmpty", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.LineStringEntity](func(q *gorm.DB) ([]spatial.LineStringEntity, error) {
					return persistence.ToList[spatial.LineStringEntity](q.Where("line_string LIKE ?", "% EMPTY"))
				}),
				oracle.Over(func(ls []spatial.LineStringEntity) []spatial.LineStringEntity {
					return seq.Where(ls, func(l spatial.LineStringEntity) bool { return l.LineString.IsEmpty() })
				}),
				oracle.EntryCount(1))
		}},
		{Name: "Length_on_client", Fixture: spatial.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[spatial.LineStringEntity](func(q *gorm.DB) ([]lineLength, error) {
					ls, err := persistence.ToList[spatial.LineStringEntity](q)
					return seq.Select(ls, lengthOf), err
				}),
				oracle.Over(func(ls []spatial.LineStringEntity) []lineLength { return seq.Select(ls, lengthOf) }),
				oracle.ElementSorter(func(r lineLength) oracle.SortKey { return oracle.Key(r.ID) }))
		}},
	}}
}
