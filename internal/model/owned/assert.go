package owned

import (
	"github.com/stretchr/testify/assert"

	"github.com/ormspec/queryspec/internal/oracle"
)

func PersonKey(p OwnedPerson) oracle.SortKey { return oracle.Key(p.ID) }

func BranchKey(b Branch) oracle.SortKey { return oracle.Key(b.ID) }

func LeafAKey(l LeafA) oracle.SortKey { return oracle.Key(l.ID) }

func LeafBKey(l LeafB) oracle.SortKey { return oracle.Key(l.ID) }

func OrderKey(o OwnedOrder) oracle.SortKey { return oracle.Key(o.ClientID, o.ID.String()) }

// AssertAddress compares owned values field by field
func AssertAddress(t oracle.TestingT, e, a Address) {
	t.Helper()
	assert.Equal(t, e.AddressLine, a.AddressLine)
	assert.Equal(t, e.ZipCode, a.ZipCode, "address %q", e.AddressLine)
	assert.Equal(t, e.Country, a.Country, "address %q", e.AddressLine)
}

func AssertPerson(t oracle.TestingT, e, a OwnedPerson) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.Name, a.Name)
	assert.Equal(t, e.Discriminator, a.Discriminator, "person %d", e.ID)
	AssertAddress(t, e.PersonAddress, a.PersonAddress)
}

func AssertBranch(t oracle.TestingT, e, a Branch) {
	t.Helper()
	AssertPerson(t, e.OwnedPerson, a.OwnedPerson)
	AssertAddress(t, e.BranchAddress, a.BranchAddress)
}

func AssertLeafA(t oracle.TestingT, e, a LeafA) {
	t.Helper()
	AssertBranch(t, e.Branch, a.Branch)
	AssertAddress(t, e.LeafAAddress, a.LeafAAddress)
}

func AssertLeafB(t oracle.TestingT, e, a LeafB) {
	t.Helper()
	AssertPerson(t, e.OwnedPerson, a.OwnedPerson)
	AssertAddress(t, e.LeafBAddress, a.LeafBAddress)
}

func AssertOrder(t oracle.TestingT, e, a OwnedOrder) {
	t.Helper()
	assert.Equal(t, e.ID, a.ID)
	assert.Equal(t, e.ClientID, a.ClientID)
	assert.True(t, e.OrderDate.Equal(a.OrderDate), "order %s date: expected %s, got %s", e.ID, e.OrderDate, a.OrderDate)
}

func NewRegistry() *oracle.Registry {
	r := oracle.NewRegistry()
	oracle.RegisterEntity(r, PersonKey, AssertPerson)
	oracle.RegisterEntity(r, BranchKey, AssertBranch)
	oracle.RegisterEntity(r, LeafAKey, AssertLeafA)
	oracle.RegisterEntity(r, LeafBKey, AssertLeafB)
	oracle.RegisterEntity(r, OrderKey, AssertOrder)
	return r
}
