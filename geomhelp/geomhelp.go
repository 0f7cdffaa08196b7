package geomhelp

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
)

// https://en.wikipedia.org/wiki/Shoelace_formula
func Shoelace(pts [][2]float64) float64 {
	sum := 0.
	if len(pts) == 0 {
		return 0.
	}

	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// VertexCount counts all coordinates of a geometry, closing points of rings included.
func VertexCount(g geom.Geometry) int {
	switch gg := g.(type) {
	case nil:
		return 0
	case geom.Point:
		return 1
	case *geom.Point:
		if gg == nil {
			return 0
		}
		return 1
	case geom.MultiPoint:
		return len(gg)
	case *geom.MultiPoint:
		if gg == nil {
			return 0
		}
		return len(*gg)
	case geom.LineString:
		return len(gg)
	case *geom.LineString:
		if gg == nil {
			return 0
		}
		return len(*gg)
	case geom.MultiLineString:
		return countRings(gg)
	case *geom.MultiLineString:
		if gg == nil {
			return 0
		}
		return countRings(*gg)
	case geom.Polygon:
		return countRings(gg)
	case *geom.Polygon:
		if gg == nil {
			return 0
		}
		return countRings(*gg)
	case geom.MultiPolygon:
		n := 0
		for _, p := range gg {
			n += countRings(p)
		}
		return n
	case *geom.MultiPolygon:
		if gg == nil {
			return 0
		}
		return VertexCount(*gg)
	case geom.Collection:
		n := 0
		for _, c := range gg {
			n += VertexCount(c)
		}
		return n
	case *geom.Collection:
		if gg == nil {
			return 0
		}
		return VertexCount(*gg)
	default:
		return 0
	}
}

func countRings(rings [][][2]float64) int {
	n := 0
	for _, r := range rings {
		n += len(r)
	}
	return n
}

// IsEmpty reports whether a geometry has no coordinates at all.
func IsEmpty(g geom.Geometry) bool {
	return VertexCount(g) == 0
}

func Distance(a, b [2]float64) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// PointSegmentDistance is the distance from pt to the closest point of the segment.
func PointSegmentDistance(pt [2]float64, seg [2][2]float64) float64 {
	a, b := seg[0], seg[1]
	dx, dy := b[0]-a[0], b[1]-a[1]
	if dx == 0 && dy == 0 {
		return Distance(pt, a)
	}
	t := ((pt[0]-a[0])*dx + (pt[1]-a[1])*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return Distance(pt, [2]float64{a[0] + t*dx, a[1] + t*dy})
}

func orientation(p, q, r [2]float64) float64 {
	return (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// within reports whether r, known to be collinear with p-q, lies inside the bounding box of p-q.
func within(p, q, r [2]float64) bool {
	return math.Min(p[0], q[0]) <= r[0] && r[0] <= math.Max(p[0], q[0]) &&
		math.Min(p[1], q[1]) <= r[1] && r[1] <= math.Max(p[1], q[1])
}

func isEndpoint(seg [2][2]float64, pt [2]float64) bool {
	return seg[0] == pt || seg[1] == pt
}

// SegmentsConflict reports whether two segments share any point other than
// a point that is an end point of both.
//
//nolint:cyclop
func SegmentsConflict(a, b [2][2]float64) bool {
	if math.Max(a[0][0], a[1][0]) < math.Min(b[0][0], b[1][0]) ||
		math.Max(b[0][0], b[1][0]) < math.Min(a[0][0], a[1][0]) ||
		math.Max(a[0][1], a[1][1]) < math.Min(b[0][1], b[1][1]) ||
		math.Max(b[0][1], b[1][1]) < math.Min(a[0][1], a[1][1]) {
		return false
	}
	o1 := sign(orientation(a[0], a[1], b[0]))
	o2 := sign(orientation(a[0], a[1], b[1]))
	o3 := sign(orientation(b[0], b[1], a[0]))
	o4 := sign(orientation(b[0], b[1], a[1]))

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	if o1 == 0 && o2 == 0 && o3 == 0 && o4 == 0 {
		return collinearConflict(a, b)
	}
	for _, pt := range b {
		if sign(orientation(a[0], a[1], pt)) == 0 && within(a[0], a[1], pt) && !isEndpoint(a, pt) {
			return true
		}
	}
	for _, pt := range a {
		if sign(orientation(b[0], b[1], pt)) == 0 && within(b[0], b[1], pt) && !isEndpoint(b, pt) {
			return true
		}
	}
	return false
}

func collinearConflict(a, b [2][2]float64) bool {
	axis := 0
	if math.Abs(a[1][1]-a[0][1])+math.Abs(b[1][1]-b[0][1]) > math.Abs(a[1][0]-a[0][0])+math.Abs(b[1][0]-b[0][0]) {
		axis = 1
	}
	lo := math.Max(math.Min(a[0][axis], a[1][axis]), math.Min(b[0][axis], b[1][axis]))
	hi := math.Min(math.Max(a[0][axis], a[1][axis]), math.Max(b[0][axis], b[1][axis]))
	switch {
	case lo > hi:
		return false
	case lo < hi:
		return true
	default:
		shared := isEndpoint(a, b[0]) && isEndpoint(b, b[0]) || isEndpoint(a, b[1]) && isEndpoint(b, b[1])
		return !shared
	}
}

// WktMustEncode renders a geometry for log lines, truncated to maxLen characters (0 means no limit).
// Geometries the encoder rejects are rendered with %v.
func WktMustEncode(g geom.Geometry, maxLen uint) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = wktTruncate(fmt.Sprintf("%T%v", g, g), maxLen)
		}
	}()
	return wktTruncate(wkt.MustEncode(g), maxLen)
}

func wktTruncate(s string, width uint) string {
	if width == 0 {
		return s
	}
	return truncate.StringWithTail(s, width, "...")
}
