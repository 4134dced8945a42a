// Package owned models people whose addresses are owned value objects
// stored in the columns of their owner. The people form a
// table-per-hierarchy tree and each type adds an address of its own.
package owned

import (
	"time"

	"github.com/google/uuid"
)

// Discriminator values of the owned_people table
const (
	PersonKind = "OwnedPerson"
	BranchKind = "Branch"
	LeafAKind  = "LeafA"
	LeafBKind  = "LeafB"
)

const discriminatorColumn = "discriminator"

// Country is owned by an Address
type Country struct {
	Name     string
	PlanetID int
}

// Address is owned by a person
type Address struct {
	AddressLine string
	ZipCode     *int
	Country     Country `gorm:"embedded;embeddedPrefix:country_"`
}

type OwnedPerson struct {
	ID            int    `gorm:"primaryKey;autoIncrement:false"`
	Name          string `gorm:"not null"`
	Discriminator string `gorm:"size:16;not null;index"`
	PersonAddress Address `gorm:"embedded;embeddedPrefix:person_address_"`

	Orders []OwnedOrder `gorm:"foreignKey:ClientID"`
}

func (OwnedPerson) TableName() string           { return "owned_people" }
func (OwnedPerson) DiscriminatorColumn() string { return discriminatorColumn }
func (OwnedPerson) DiscriminatorValues() []string {
	return []string{PersonKind, BranchKind, LeafAKind, LeafBKind}
}

type Branch struct {
	OwnedPerson
	BranchAddress Address `gorm:"embedded;embeddedPrefix:branch_address_"`
}

func (Branch) TableName() string             { return "owned_people" }
func (Branch) DiscriminatorColumn() string   { return discriminatorColumn }
func (Branch) DiscriminatorValues() []string { return []string{BranchKind, LeafAKind} }

type LeafA struct {
	Branch
	LeafAAddress Address `gorm:"embedded;embeddedPrefix:leaf_a_address_"`
}

func (LeafA) TableName() string             { return "owned_people" }
func (LeafA) DiscriminatorColumn() string   { return discriminatorColumn }
func (LeafA) DiscriminatorValues() []string { return []string{LeafAKind} }

type LeafB struct {
	OwnedPerson
	LeafBAddress Address `gorm:"embedded;embeddedPrefix:leaf_b_address_"`
}

func (LeafB) TableName() string             { return "owned_people" }
func (LeafB) DiscriminatorColumn() string   { return discriminatorColumn }
func (LeafB) DiscriminatorValues() []string { return []string{LeafBKind} }

// OwnedOrder is a regular entity referenced by its client
type OwnedOrder struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	ClientID  int       `gorm:"not null;index"`
	OrderDate time.Time
}

// Models lists the entity types in migration order
func Models() []any {
	return []any{&OwnedPerson{}, &Branch{}, &LeafA{}, &LeafB{}, &OwnedOrder{}}
}
