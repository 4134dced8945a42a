// Package inheritance holds two table-per-hierarchy models: a three level
// entity hierarchy and the collection items it owns, which are themselves
// split into a base and a derived type.
package inheritance

// Discriminator values stored in the discriminator columns
const (
	BaseKind    = "InheritanceBase"
	DerivedKind = "InheritanceDerived"
	LeafKind    = "InheritanceLeaf"

	BaseItemKind    = "BaseCollectionItem"
	DerivedItemKind = "DerivedCollectionItem"
)

const discriminatorColumn = "discriminator"

type InheritanceBase struct {
	ID            int    `gorm:"primaryKey;autoIncrement:false"`
	Name          string `gorm:"not null"`
	Discriminator string `gorm:"size:32;not null;index"`

	BaseCollection []BaseCollectionItem `gorm:"foreignKey:BaseParentID"`
}

func (InheritanceBase) TableName() string           { return "inheritance_bases" }
func (InheritanceBase) DiscriminatorColumn() string { return discriminatorColumn }
func (InheritanceBase) DiscriminatorValues() []string {
	return []string{BaseKind, DerivedKind, LeafKind}
}

type InheritanceDerived struct {
	InheritanceBase
	DerivedData string
}

func (InheritanceDerived) TableName() string           { return "inheritance_bases" }
func (InheritanceDerived) DiscriminatorColumn() string { return discriminatorColumn }
func (InheritanceDerived) DiscriminatorValues() []string {
	return []string{DerivedKind, LeafKind}
}

type InheritanceLeaf struct {
	InheritanceDerived
	LeafData string
}

func (InheritanceLeaf) TableName() string             { return "inheritance_bases" }
func (InheritanceLeaf) DiscriminatorColumn() string   { return discriminatorColumn }
func (InheritanceLeaf) DiscriminatorValues() []string { return []string{LeafKind} }

type BaseCollectionItem struct {
	ID            int `gorm:"primaryKey;autoIncrement:false"`
	BaseParentID  *int
	Name          string `gorm:"not null"`
	Discriminator string `gorm:"size:32;not null;index"`
}

func (BaseCollectionItem) TableName() string           { return "base_collection_items" }
func (BaseCollectionItem) DiscriminatorColumn() string { return discriminatorColumn }
func (BaseCollectionItem) DiscriminatorValues() []string {
	return []string{BaseItemKind, DerivedItemKind}
}

type DerivedCollectionItem struct {
	BaseCollectionItem
	DerivedProperty *int
}

func (DerivedCollectionItem) TableName() string             { return "base_collection_items" }
func (DerivedCollectionItem) DiscriminatorColumn() string   { return discriminatorColumn }
func (DerivedCollectionItem) DiscriminatorValues() []string { return []string{DerivedItemKind} }

// Models lists the entity types in migration order; later types of a
// hierarchy add their columns to the shared table
func Models() []any {
	return []any{
		&InheritanceBase{}, &InheritanceDerived{}, &InheritanceLeaf{},
		&BaseCollectionItem{}, &DerivedCollectionItem{},
	}
}
