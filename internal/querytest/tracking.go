package querytest

import (
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
	"github.com/ormspec/queryspec/internal/model/northwind"
	"github.com/ormspec/queryspec/internal/oracle"
)

// Tracking covers the session identity map: which reads are tracked, how
// repeated reads resolve and how changes are detected
func Tracking() Suite {
	return Suite{Name: "Tracking", Scenarios: []Scenario{
		{Name: "AsNoTracking_gives_zero_entries", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			cs, err := persistence.ToList[northwind.Customer](persistence.NoTracking(persistence.Set[northwind.Customer](s).Preload("Orders")))
			require.NoError(t, err)
			assert.Len(t, cs, northwind.CustomerCount)
			assert.Zero(t, s.Tracker().Count())
		}},
		{Name: "AsNoTracking_matches_tracked_results", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			oracle.AssertQuery(t, a,
				oracle.From[northwind.Employee](func(q *gorm.DB) ([]northwind.Employee, error) {
					return persistence.ToList[northwind.Employee](persistence.NoTracking(q))
				}),
				oracle.Over(identity[northwind.Employee]))
		}},
		{Name: "Identity_resolution_across_queries", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			first, err := persistence.First[northwind.Customer](persistence.Set[northwind.Customer](s).Where("id = ?", "ALFKI"))
			require.NoError(t, err)
			again, err := persistence.Single[northwind.Customer](persistence.Set[northwind.Customer](s).Where("id = ?", "ALFKI"))
			require.NoError(t, err)
			assert.Equal(t, first.ID, again.ID)
			assert.Equal(t, 1, s.Tracker().Count())

			_, err = persistence.ToList[northwind.Customer](persistence.Set[northwind.Customer](s))
			require.NoError(t, err)
			assert.Equal(t, northwind.CustomerCount, s.Tracker().Count())
		}},
		{Name: "Identity_resolution_through_navigation", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			// every customer reached through an order is tracked once
			oracle.AssertIncludeQuery(t, a,
				oracle.From2[northwind.Customer, northwind.Order](func(customers, orders *gorm.DB) ([]northwind.Order, error) {
					if _, err := persistence.ToList[northwind.Customer](customers); err != nil {
						return nil, err
					}
					return persistence.ToList[northwind.Order](orders.Preload("Customer"))
				}),
				oracle.Over(identity[northwind.Order]),
				oracle.Include("Customer"),
				oracle.EntryCount(northwind.CustomerCount+northwind.OrderCount))
		}},
		{Name: "DetectChanges_reports_modified_columns", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			cs, err := persistence.ToList[northwind.Customer](persistence.Set[northwind.Customer](s).Order("id").Limit(3))
			require.NoError(t, err)
			require.Len(t, cs, 3)
			require.Zero(t, s.Tracker().DetectChanges())

			cs[1].City = lo.ToPtr("Changed City")
			assert.Equal(t, 1, s.Tracker().DetectChanges())

			entry, ok := s.Tracker().Entry(&cs[1])
			require.True(t, ok)
			assert.Equal(t, persistence.Modified, entry.State())
			assert.Equal(t, []string{"city"}, entry.ModifiedColumns(s.Context()))

			untouched, ok := s.Tracker().Entry(&cs[0])
			require.True(t, ok)
			assert.Equal(t, persistence.Unchanged, untouched.State())
		}},
		{Name: "Projection_is_not_tracked", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			rows, err := persistence.ToList[customerContact](persistence.Set[northwind.Customer](s).Select("id, contact_name, city"))
			require.NoError(t, err)
			assert.Len(t, rows, northwind.CustomerCount)
			assert.Zero(t, s.Tracker().Count())
		}},
		{Name: "Projection_of_entity_is_tracked", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			rows, err := persistence.ToList[orderWithCity](persistence.Set[northwind.Order](s).
				Select("orders.*, customers.city AS customer_city").
				Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
				Where("orders.id < ?", northwind.FirstOrderID+10))
			require.NoError(t, err)
			assert.Len(t, rows, 10)
			assert.Equal(t, 10, s.Tracker().Count())
		}},
		{Name: "Clear_forgets_entries", Fixture: northwind.Name, Run: func(t oracle.TestingT, a *oracle.Asserter) {
			s := a.NewSession()
			_, err := persistence.ToList[northwind.Product](persistence.Set[northwind.Product](s))
			require.NoError(t, err)
			assert.Equal(t, northwind.ProductCount, s.Tracker().Count())
			s.Tracker().Clear()
			assert.Zero(t, s.Tracker().Count())
		}},
	}}
}
