// Package spatial holds entities with geometry columns. Geometries are
// stored as WKT so every provider can hold them; spatial operators are
// evaluated client side with orb.
package spatial

import "github.com/google/uuid"

type PointEntity struct {
	ID    uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	Group string    `gorm:"size:16;not null"`
	Point Geometry
}

type LineStringEntity struct {
	ID         int `gorm:"primaryKey;autoIncrement:false"`
	LineString Geometry
}

func Models() []any {
	return []any{&PointEntity{}, &LineStringEntity{}}
}
