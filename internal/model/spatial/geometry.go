package spatial

import (
	"database/sql/driver"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Geometry stores an orb geometry as WKT text. A nil Geometry maps to NULL.
type Geometry struct {
	orb.Geometry
}

// Valid reports whether the value holds a geometry
func (g Geometry) Valid() bool { return g.Geometry != nil }

// WKT returns the text form, or "" for NULL
func (g Geometry) WKT() string {
	if g.Geometry == nil {
		return ""
	}
	return wkt.MarshalString(g.Geometry)
}

// IsEmpty reports whether the geometry has no points
func (g Geometry) IsEmpty() bool {
	switch v := g.Geometry.(type) {
	case nil:
		return false
	case orb.LineString:
		return len(v) == 0
	case orb.MultiPoint:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	default:
		return false
	}
}

// Equal compares two geometries point by point
func (g Geometry) Equal(other Geometry) bool {
	if g.Geometry == nil || other.Geometry == nil {
		return g.Geometry == nil && other.Geometry == nil
	}
	return orb.Equal(g.Geometry, other.Geometry)
}

func (g Geometry) String() string {
	if g.Geometry == nil {
		return "NULL"
	}
	return g.WKT()
}

func (g Geometry) Value() (driver.Value, error) {
	if g.Geometry == nil {
		return nil, nil
	}
	return g.WKT(), nil
}

func (g *Geometry) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		g.Geometry = nil
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot scan %T into geometry", src)
	}
	geom, err := wkt.Unmarshal(text)
	if err != nil {
		return fmt.Errorf("failed to parse geometry %q: %w", text, err)
	}
	g.Geometry = geom
	return nil
}

func (Geometry) GormDataType() string { return "text" }
