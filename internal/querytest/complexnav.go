package querytest

import (
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/complexnav"
	"github.com/ormspec/queryspec/internal/oracle"
	"github.com/ormspec/queryspec/internal/seq"
)

type levelName struct {
	ID           int
	OptionalName *string
}

type levelCount struct {
	ID            int
	OptionalCount int64
}

type levelPair struct {
	ID     int
	Level3 *int
}

func level1s(q *gorm.DB) ([]complexnav.Level1, error) {
	return persistence.ToList[complexnav.Level1](q)
}

// chainLength counts the entities loaded along the optional chain below l
func chainLength(l complexnav.Level1) int {
	n := 1
	if l2 := l.OneToOneOptionalFK; l2 != nil {
		n++
		if l3 := l2.OneToOneOptionalFK; l3 != nil {
			n++
			if l3.OneToOneOptionalFK != nil {
				n++
			}
		}
	}
	return n
}

// ComplexNavigations covers optional, required and shared-key relationships
// several levels deep
func ComplexNavigations() Suite {
	return Suite{Name: "ComplexNavigations", Scenarios: []Scenario{
		{Name: "Entities_level1", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level1](level1s),
				oracle.Over(identity[complexnav.Level1]),
				oracle.EntryCount(complexnav.Level1Count))
		}},
		{Name: "Include_optional_reference", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			ls := oracle.Rows[complexnav.Level1](a.Expected())
			want := len(ls) + seq.CountWhere(ls, func(l complexnav.Level1) bool { return l.OneToOneOptionalFK != nil })
			oracle.AssertIncludeQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Preload("OneToOneOptionalFK"))
				}),
				oracle.Over(identity[complexnav.Level1]),
				oracle.Include("OneToOneOptionalFK"),
				oracle.EntryCount(want))
		}},
		{Name: "Include_optional_chain_three_levels", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			want := seq.Sum(oracle.Rows[complexnav.Level1](a.Expected()), chainLength)
			oracle.AssertIncludeQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Preload("OneToOneOptionalFK.OneToOneOptionalFK.OneToOneOptionalFK"))
				}),
				oracle.Over(identity[complexnav.Level1]),
				oracle.Include("OneToOneOptionalFK.OneToOneOptionalFK.OneToOneOptionalFK"),
				oracle.EntryCount(want))
		}},
		{Name: "Include_required_shared_key", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertIncludeQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Preload("OneToOneRequiredPK"))
				}),
				oracle.Over(identity[complexnav.Level1]),
				oracle.Include("OneToOneRequiredPK"),
				oracle.EntryCount(complexnav.Level1Count+complexnav.Level2Count))
		}},
		{Name: "Include_self_reference", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertIncludeQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Preload("OneToOneOptionalSelf"))
				}),
				oracle.Over(identity[complexnav.Level1]),
				oracle.Include("OneToOneOptionalSelf"),
				oracle.EntryCount(complexnav.Level1Count))
		}},
		{Name: "Include_collection_then_reference", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertIncludeQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Preload("OneToManyOptional.OneToOneOptionalFK"))
				}),
				oracle.Over(identity[complexnav.Level1]),
				oracle.Include("OneToManyOptional"),
				oracle.Include("OneToManyOptional.OneToOneOptionalFK"))
		}},
		{Name: "Select_optional_navigation_scalar", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]levelName, error) {
					return persistence.ToList[levelName](q.Select("level1s.id, level2s.name AS optional_name").
						Joins("LEFT JOIN level2s ON level2s.level1_optional_id = level1s.id"))
				}),
				oracle.Over(func(ls []complexnav.Level1) []levelName {
					return seq.Select(ls, func(l complexnav.Level1) levelName {
						return levelName{
							ID:           l.ID,
							OptionalName: oracle.MaybeScalar(l.OneToOneOptionalFK, func(l2 *complexnav.Level2) string { return l2.Name }),
						}
					})
				}),
				oracle.ElementSorter(func(r levelName) oracle.SortKey { return oracle.Key(r.ID) }))
		}},
		{Name: "Select_nested_optional_navigation", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// a missing middle level makes the whole path null
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]levelPair, error) {
					return persistence.ToList[levelPair](q.Select("level1s.id, level3s.id AS level3").
						Joins("LEFT JOIN level2s ON level2s.level1_optional_id = level1s.id").
						Joins("LEFT JOIN level3s ON level3s.level2_optional_id = level2s.id"))
				}),
				oracle.Over(func(ls []complexnav.Level1) []levelPair {
					return seq.Select(ls, func(l complexnav.Level1) levelPair {
						l3 := oracle.Maybe(l.OneToOneOptionalFK, func(l2 *complexnav.Level2) *complexnav.Level3 { return l2.OneToOneOptionalFK })
						return levelPair{ID: l.ID, Level3: oracle.MaybeScalar(l3, func(l3 *complexnav.Level3) int { return l3.ID })}
					})
				}),
				oracle.ElementSorter(func(r levelPair) oracle.SortKey { return oracle.Key(r.ID) }))
		}},
		{Name: "Where_optional_navigation_is_null", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]complexnav.Level1, error) {
					return level1s(q.Where("NOT EXISTS (SELECT 1 FROM level2s WHERE level2s.level1_optional_id = level1s.id)"))
				}),
				oracle.Over(func(ls []complexnav.Level1) []complexnav.Level1 {
					return seq.Where(ls, func(l complexnav.Level1) bool { return l.OneToOneOptionalFK == nil })
				}))
		}},
		{Name: "Where_required_navigation", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level2](func(q *gorm.DB) ([]complexnav.Level2, error) {
					return persistence.ToList[complexnav.Level2](q.
						Joins("JOIN level1s ON level1s.id = level2s.level1_required_id").
						Where("level1s.name > ?", "L1 05"))
				}),
				oracle.Over(func(ls []complexnav.Level2) []complexnav.Level2 {
					return seq.Where(ls, func(l complexnav.Level2) bool { return l.OneToOneRequiredFKInverse.Name > "L1 05" })
				}))
		}},
		{Name: "Select_collection_count", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level1](func(q *gorm.DB) ([]levelCount, error) {
					return persistence.ToList[levelCount](q.Select(
						"level1s.id, (SELECT COUNT(*) FROM level2s WHERE level2s.one_to_many_optional_inverse_id = level1s.id) AS optional_count"))
				}),
				oracle.Over(func(ls []complexnav.Level1) []levelCount {
					return seq.Select(ls, func(l complexnav.Level1) levelCount {
						return levelCount{ID: l.ID, OptionalCount: int64(len(l.OneToManyOptional))}
					})
				}),
				oracle.ElementSorter(func(r levelCount) oracle.SortKey { return oracle.Key(r.ID) }))
		}},
		{Name: "SelectMany_required_collection", Fixture: complexnav.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[complexnav.Level2](func(q *gorm.DB) ([]complexnav.Level2, error) {
					return persistence.ToList[complexnav.Level2](q.
						Joins("JOIN level1s ON level1s.id = level2s.one_to_many_required_inverse_id").
						Where("level1s.id <= ?", 2))
				}),
				oracle.Over(func(ls []complexnav.Level1) []complexnav.Level2 {
					small := seq.Where(ls, func(l complexnav.Level1) bool { return l.ID <= 2 })
					return seq.SelectMany(small, func(l complexnav.Level1) []complexnav.Level2 { return l.OneToManyRequired })
				}))
		}},
	}}
}
