package feature

import (
	"github.com/go-spatial/geom"
)

// GeometryType is the closed set of geometry families a Feature can carry.
type GeometryType int

const (
	Unknown GeometryType = iota
	Point
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
	GeometryCollection
)

var geometryTypeNames = [...]string{
	Unknown:            "GEOMETRY",
	Point:              "POINT",
	LineString:         "LINESTRING",
	Polygon:            "POLYGON",
	MultiPoint:         "MULTIPOINT",
	MultiLineString:    "MULTILINESTRING",
	MultiPolygon:       "MULTIPOLYGON",
	GeometryCollection: "GEOMETRYCOLLECTION",
}

func (t GeometryType) String() string {
	if t < 0 || int(t) >= len(geometryTypeNames) {
		return geometryTypeNames[Unknown]
	}
	return geometryTypeNames[t]
}

// IsMulti reports whether the family holds an ordered sequence of parts.
func (t GeometryType) IsMulti() bool {
	switch t {
	case MultiPoint, MultiLineString, MultiPolygon, GeometryCollection:
		return true
	default:
		return false
	}
}

// Single returns the part family of a multi-part family.
func (t GeometryType) Single() GeometryType {
	switch t {
	case MultiPoint:
		return Point
	case MultiLineString:
		return LineString
	case MultiPolygon:
		return Polygon
	default:
		return t
	}
}

// TypeOf resolves the family of a go-spatial geometry.
func TypeOf(g geom.Geometry) GeometryType {
	switch g.(type) {
	case geom.Point, *geom.Point:
		return Point
	case geom.LineString, *geom.LineString:
		return LineString
	case geom.Polygon, *geom.Polygon:
		return Polygon
	case geom.MultiPoint, *geom.MultiPoint:
		return MultiPoint
	case geom.MultiLineString, *geom.MultiLineString:
		return MultiLineString
	case geom.MultiPolygon, *geom.MultiPolygon:
		return MultiPolygon
	case geom.Collection, *geom.Collection:
		return GeometryCollection
	default:
		return Unknown
	}
}

// Normalize dereferences pointer geometries so callers can switch on value types only.
// A nil pointer becomes a nil geometry.
func Normalize(g geom.Geometry) geom.Geometry {
	switch gg := g.(type) {
	case *geom.Point:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.LineString:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.Polygon:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.MultiPoint:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.MultiLineString:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.MultiPolygon:
		if gg == nil {
			return nil
		}
		return *gg
	case *geom.Collection:
		if gg == nil {
			return nil
		}
		return *gg
	default:
		return g
	}
}
