// Package simplify reduces the number of vertices of a geometry within a tolerance,
// either with plain Douglas-Peucker or with a topology preserving variant.
// The structural family of the input (single or multi-part) is kept.
package simplify

import (
	"context"
	"errors"
	"math"

	"github.com/go-spatial/geom"
	"github.com/pdok/generalize/feature"
)

var (
	// ErrUnsupportedGeometry signals a geometry the simplifier does not handle, such as a
	// geometry collection. Callers skip the feature instead of failing.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrNilGeometry         = errors.New("geometry is nil")
	ErrNegativeTolerance   = errors.New("tolerance must be a non-negative number")
)

// Simplify returns a simplified copy of g. With preserveTopology the result never
// self-intersects and rings never collapse, otherwise Douglas-Peucker is applied and
// collapsed rings and parts are removed, which may leave an empty geometry.
func Simplify(ctx context.Context, g geom.Geometry, tolerance float64, preserveTopology bool) (geom.Geometry, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, ErrNegativeTolerance
	}
	in := feature.Normalize(g)
	if in == nil {
		return nil, ErrNilGeometry
	}

	var out geom.Geometry
	var err error
	if preserveTopology {
		out, err = topologyPreserving(ctx, in, tolerance)
	} else {
		out, err = douglasPeucker(ctx, in, tolerance)
	}
	if err != nil {
		return nil, err
	}
	return restoreStructure(in, out), nil
}

// restoreStructure re-wraps a single part into a multi geometry when the algorithm
// degraded a multi-part input to its part type.
func restoreStructure(in, out geom.Geometry) geom.Geometry {
	family := feature.TypeOf(in)
	if !family.IsMulti() || family.Single() != feature.TypeOf(out) {
		return out
	}
	switch part := out.(type) {
	case geom.Polygon:
		return geom.MultiPolygon{part}
	case geom.LineString:
		return geom.MultiLineString{part}
	case geom.Point:
		return geom.MultiPoint{part}
	}
	return out
}

func clonePoints(pts [][2]float64) [][2]float64 {
	if pts == nil {
		return nil
	}
	c := make([][2]float64, len(pts))
	copy(c, pts)
	return c
}
