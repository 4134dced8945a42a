// Package complexnav is a four level chain of entities joined by every kind
// of relationship: optional and required foreign keys, shared primary keys,
// a self reference and one-to-many collections.
package complexnav

import "time"

type Level1 struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"not null"`
	Date time.Time

	OneToOneOptionalSelfID *int

	OneToOneOptionalSelf *Level1  `gorm:"foreignKey:OneToOneOptionalSelfID"`
	OneToOneRequiredPK   *Level2  `gorm:"foreignKey:ID;references:ID"`
	OneToOneOptionalFK   *Level2  `gorm:"foreignKey:Level1OptionalID"`
	OneToOneRequiredFK   *Level2  `gorm:"foreignKey:Level1RequiredID"`
	OneToManyOptional    []Level2 `gorm:"foreignKey:OneToManyOptionalInverseID"`
	OneToManyRequired    []Level2 `gorm:"foreignKey:OneToManyRequiredInverseID"`
}

type Level2 struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"not null"`
	Date time.Time

	Level1OptionalID           *int
	Level1RequiredID           int
	OneToManyOptionalInverseID *int
	OneToManyRequiredInverseID int

	OneToOneOptionalFKInverse *Level1  `gorm:"foreignKey:Level1OptionalID"`
	OneToOneRequiredFKInverse *Level1  `gorm:"foreignKey:Level1RequiredID"`
	OneToOneOptionalFK        *Level3  `gorm:"foreignKey:Level2OptionalID"`
	OneToOneRequiredFK        *Level3  `gorm:"foreignKey:Level2RequiredID"`
	OneToManyOptional         []Level3 `gorm:"foreignKey:OneToManyOptionalInverseID"`
}

type Level3 struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"not null"`

	Level2OptionalID           *int
	Level2RequiredID           int
	OneToManyOptionalInverseID *int

	OneToOneOptionalFKInverse *Level2  `gorm:"foreignKey:Level2OptionalID"`
	OneToOneRequiredFKInverse *Level2  `gorm:"foreignKey:Level2RequiredID"`
	OneToOneOptionalFK        *Level4  `gorm:"foreignKey:Level3OptionalID"`
	OneToManyOptional         []Level4 `gorm:"foreignKey:OneToManyOptionalInverseID"`
}

type Level4 struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"not null"`

	Level3OptionalID           *int
	Level3RequiredID           int
	OneToManyOptionalInverseID *int

	OneToOneOptionalFKInverse *Level3 `gorm:"foreignKey:Level3OptionalID"`
	OneToOneRequiredFKInverse *Level3 `gorm:"foreignKey:Level3RequiredID"`
}

// Models lists the entity types in migration order
func Models() []any {
	return []any{&Level1{}, &Level2{}, &Level3{}, &Level4{}}
}
