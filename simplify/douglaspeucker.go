package simplify

import (
	"context"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/planar"
	planarsimplify "github.com/go-spatial/geom/planar/simplify"
	"github.com/pdok/generalize/geomhelp"
)

// segmentDistance measures to the segment, not to the infinite line through it.
var segmentDistance planar.PointLineDistanceFunc = func(line [2][2]float64, pt [2]float64) float64 {
	return geomhelp.PointSegmentDistance(pt, line)
}

type dpReducer struct {
	ctx context.Context
	dp  planarsimplify.DouglasPeucker
}

// douglasPeucker simplifies every line and ring on its own. Like a geometry factory
// building from a list of parts, a multi geometry left with a single part comes back
// as that part.
func douglasPeucker(ctx context.Context, g geom.Geometry, tolerance float64) (geom.Geometry, error) {
	r := dpReducer{ctx: ctx, dp: planarsimplify.DouglasPeucker{Tolerance: tolerance, Dist: segmentDistance}}
	switch gg := g.(type) {
	case geom.Point:
		return gg, nil
	case geom.MultiPoint:
		return geom.MultiPoint(clonePoints(gg)), nil
	case geom.LineString:
		line, err := r.line(gg)
		if err != nil {
			return nil, err
		}
		return geom.LineString(line), nil
	case geom.MultiLineString:
		lines := make([][][2]float64, 0, len(gg))
		for _, l := range gg {
			line, err := r.line(l)
			if err != nil {
				return nil, err
			}
			if len(line) > 0 {
				lines = append(lines, line)
			}
		}
		if len(lines) == 1 {
			return geom.LineString(lines[0]), nil
		}
		return geom.MultiLineString(lines), nil
	case geom.Polygon:
		p, err := r.polygon(gg)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return geom.Polygon{}, nil
		}
		return geom.Polygon(p), nil
	case geom.MultiPolygon:
		polygons := make([][][][2]float64, 0, len(gg))
		for _, p := range gg {
			reduced, err := r.polygon(p)
			if err != nil {
				return nil, err
			}
			if reduced != nil {
				polygons = append(polygons, reduced)
			}
		}
		if len(polygons) == 1 {
			return geom.Polygon(polygons[0]), nil
		}
		return geom.MultiPolygon(polygons), nil
	default:
		return nil, ErrUnsupportedGeometry
	}
}

func (r dpReducer) line(pts [][2]float64) ([][2]float64, error) {
	if len(pts) < 3 {
		return clonePoints(pts), nil
	}
	return r.dp.Simplify(r.ctx, clonePoints(pts), false)
}

// polygon returns nil when the shell collapses. Collapsed holes are dropped.
func (r dpReducer) polygon(rings [][][2]float64) ([][][2]float64, error) {
	if len(rings) == 0 {
		return nil, nil
	}
	reduced := make([][][2]float64, 0, len(rings))
	for i, ring := range rings {
		rr, err := r.ring(ring)
		if err != nil {
			return nil, err
		}
		if rr == nil {
			if i == 0 {
				return nil, nil
			}
			continue
		}
		reduced = append(reduced, rr)
	}
	return reduced, nil
}

// ring splits a ring at the vertex farthest from its start, so both halves are
// open chains that keep their end points, and joins them again after reduction.
// A ring left with fewer than 3 distinct vertices or without area yields nil.
func (r dpReducer) ring(ring [][2]float64) ([][2]float64, error) {
	closed := len(ring) > 1 && ring[0] == ring[len(ring)-1]
	open := ring
	if closed {
		open = ring[:len(ring)-1]
	}
	if len(open) < 3 {
		return nil, nil
	}

	far, maxDist := 0, 0.0
	for i := 1; i < len(open); i++ {
		if d := geomhelp.Distance(open[0], open[i]); d > maxDist {
			far, maxDist = i, d
		}
	}
	if far == 0 {
		return nil, nil
	}

	first := clonePoints(open[:far+1])
	second := make([][2]float64, 0, len(open)-far+1)
	second = append(second, open[far:]...)
	second = append(second, open[0])

	a, err := r.dp.Simplify(r.ctx, first, false)
	if err != nil {
		return nil, err
	}
	b, err := r.dp.Simplify(r.ctx, second, false)
	if err != nil {
		return nil, err
	}

	reduced := make([][2]float64, 0, len(a)+len(b))
	reduced = append(reduced, a...)
	if len(b) > 2 {
		reduced = append(reduced, b[1:len(b)-1]...)
	}
	if len(reduced) < 3 || geomhelp.Shoelace(reduced) == 0 {
		return nil, nil
	}
	if closed {
		reduced = append(reduced, reduced[0])
	}
	return reduced, nil
}
