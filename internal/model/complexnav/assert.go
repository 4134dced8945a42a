package complexnav

import (
	"github.com/stretchr/testify/assert"

	"github.com/ormspec/queryspec/internal/oracle"
)

func Level1Key(l Level1) oracle.SortKey { return oracle.Key(l.ID) }

func Level2Key(l Level2) oracle.SortKey { return oracle.Key(l.ID) }

func Level3Key(l Level3) oracle.SortKey { return oracle.Key(l.ID) }

func Level4Key(l Level4) oracle.SortKey { return oracle.Key(l.ID) }

func AssertLevel1(t oracle.TestingT, e, a Level1) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.True(t, e.Date.Equal(a.Date), "level1 %d date: expected %s, got %s", e.ID, e.Date, a.Date)
	assert.Equal(t, e.OneToOneOptionalSelfID, a.OneToOneOptionalSelfID, "level1 %d", e.ID)
}

func AssertLevel2(t oracle.TestingT, e, a Level2) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.True(t, e.Date.Equal(a.Date), "level2 %d date: expected %s, got %s", e.ID, e.Date, a.Date)
	assert.Equal(t, e.Level1OptionalID, a.Level1OptionalID, "level2 %d", e.ID)
	assert.Equal(t, e.Level1RequiredID, a.Level1RequiredID, "level2 %d", e.ID)
	assert.Equal(t, e.OneToManyOptionalInverseID, a.OneToManyOptionalInverseID, "level2 %d", e.ID)
	assert.Equal(t, e.OneToManyRequiredInverseID, a.OneToManyRequiredInverseID, "level2 %d", e.ID)
}

func AssertLevel3(t oracle.TestingT, e, a Level3) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.Equal(t, e.Level2OptionalID, a.Level2OptionalID, "level3 %d", e.ID)
	assert.Equal(t, e.Level2RequiredID, a.Level2RequiredID, "level3 %d", e.ID)
	assert.Equal(t, e.OneToManyOptionalInverseID, a.OneToManyOptionalInverseID, "level3 %d", e.ID)
}

func AssertLevel4(t oracle.TestingT, e, a Level4) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.Equal(t, e.Level3OptionalID, a.Level3OptionalID, "level4 %d", e.ID)
	assert.Equal(t, e.Level3RequiredID, a.Level3RequiredID, "level4 %d", e.ID)
	assert.Equal(t, e.OneToManyOptionalInverseID, a.OneToManyOptionalInverseID, "level4 %d", e.ID)
}

// NewRegistry returns the sorters and asserters of every level
func NewRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	oracle.RegisterEntity(r, Level1Key, AssertLevel1)
	oracle.RegisterEntity(r, Level2Key, AssertLevel2)
	oracle.RegisterEntity(r, Level3Key, AssertLevel3)
	oracle.RegisterEntity(r, Level4Key, AssertLevel4)
	return r
}
