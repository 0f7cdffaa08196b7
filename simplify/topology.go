package simplify

import (
	"context"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/planar/intersect"
	"github.com/pdok/generalize/geomhelp"
	"github.com/pdok/generalize/mapslicehelp"
)

// minRingSize is the smallest closed ring: 3 distinct vertices plus the closing one.
const minRingSize = 4

type taggedLine struct {
	pts     [][2]float64 // rings always include the closing point here
	ring    bool
	reclose bool // ring came without closing point, strip it again on output
	removed map[int]struct{}
	size    int
}

func (l *taggedLine) result() [][2]float64 {
	out := mapslicehelp.DeleteFromSliceByIndex(l.pts, l.removed, 0)
	if l.reclose && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out
}

type segmentRef struct {
	line, from, to int
}

// topologySimplifier flattens a section of a line to a single segment only when all
// its vertices lie within tolerance and the new segment neither crosses another segment
// nor jumps over another vertex. Rings keep at least minRingSize points.
type topologySimplifier struct {
	tolerance float64
	lines     []*taggedLine
	segments  map[segmentRef]struct{}
}

func topologyPreserving(ctx context.Context, g geom.Geometry, tolerance float64) (geom.Geometry, error) {
	s := &topologySimplifier{tolerance: tolerance, segments: make(map[segmentRef]struct{})}
	switch gg := g.(type) {
	case geom.Point:
		return gg, nil
	case geom.MultiPoint:
		return geom.MultiPoint(clonePoints(gg)), nil
	case geom.LineString:
		l := s.addLine(gg, false)
		if err := s.run(ctx); err != nil {
			return nil, err
		}
		return geom.LineString(l.result()), nil
	case geom.MultiLineString:
		lines := make([]*taggedLine, len(gg))
		for i := range gg {
			lines[i] = s.addLine(gg[i], false)
		}
		if err := s.run(ctx); err != nil {
			return nil, err
		}
		out := make(geom.MultiLineString, len(lines))
		for i := range lines {
			out[i] = lines[i].result()
		}
		return out, nil
	case geom.Polygon:
		rings := s.addPolygon(gg)
		if err := s.run(ctx); err != nil {
			return nil, err
		}
		return geom.Polygon(ringResults(rings)), nil
	case geom.MultiPolygon:
		polygons := make([][]*taggedLine, len(gg))
		for i := range gg {
			polygons[i] = s.addPolygon(gg[i])
		}
		if err := s.run(ctx); err != nil {
			return nil, err
		}
		out := make(geom.MultiPolygon, len(polygons))
		for i := range polygons {
			out[i] = ringResults(polygons[i])
		}
		return out, nil
	default:
		return nil, ErrUnsupportedGeometry
	}
}

func ringResults(rings []*taggedLine) [][][2]float64 {
	out := make([][][2]float64, len(rings))
	for i := range rings {
		out[i] = rings[i].result()
	}
	return out
}

func (s *topologySimplifier) addPolygon(rings [][][2]float64) []*taggedLine {
	lines := make([]*taggedLine, len(rings))
	for i := range rings {
		lines[i] = s.addLine(rings[i], true)
	}
	return lines
}

func (s *topologySimplifier) addLine(pts [][2]float64, ring bool) *taggedLine {
	l := &taggedLine{
		pts:     clonePoints(pts),
		ring:    ring,
		removed: make(map[int]struct{}),
	}
	if ring && len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		l.pts = append(l.pts, pts[0])
		l.reclose = true
	}
	l.size = len(l.pts)
	idx := len(s.lines)
	s.lines = append(s.lines, l)
	for i := 0; i+1 < len(l.pts); i++ {
		s.segments[segmentRef{line: idx, from: i, to: i + 1}] = struct{}{}
	}
	return l
}

func (s *topologySimplifier) run(ctx context.Context) error {
	for i, l := range s.lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.ring && l.size < minRingSize {
			continue
		}
		s.simplifySection(i, 0, len(l.pts)-1)
	}
	return nil
}

func (s *topologySimplifier) simplifySection(lineIdx, i, j int) {
	if j-i < 2 {
		return
	}
	l := s.lines[lineIdx]
	candidate := [2][2]float64{l.pts[i], l.pts[j]}
	far, maxDist := i+1, -1.0
	for k := i + 1; k < j; k++ {
		if d := geomhelp.PointSegmentDistance(l.pts[k], candidate); d > maxDist {
			far, maxDist = k, d
		}
	}
	if maxDist <= s.tolerance && s.canFlatten(lineIdx, i, j) {
		s.flatten(lineIdx, i, j)
		return
	}
	s.simplifySection(lineIdx, i, far)
	s.simplifySection(lineIdx, far, j)
}

func (s *topologySimplifier) canFlatten(lineIdx, i, j int) bool {
	l := s.lines[lineIdx]
	if l.ring && l.size-(j-i-1) < minRingSize {
		return false
	}
	candidate := [2][2]float64{l.pts[i], l.pts[j]}
	for ref := range s.segments {
		if ref.line == lineIdx && ref.from >= i && ref.to <= j {
			continue
		}
		other := s.lines[ref.line]
		if geomhelp.SegmentsConflict(candidate, [2][2]float64{other.pts[ref.from], other.pts[ref.to]}) {
			return false
		}
	}
	return !s.cutsOffVertex(lineIdx, i, j)
}

// cutsOffVertex reports whether any vertex outside section i..j lies strictly inside
// the area enclosed by the section and its candidate segment. Flattening would move
// such a vertex, a whole hole for instance, to the other side of the line.
func (s *topologySimplifier) cutsOffVertex(lineIdx, i, j int) bool {
	l := s.lines[lineIdx]
	section := make([][2]float64, 0, j-i+1)
	for k := i; k <= j; k++ {
		if _, gone := l.removed[k]; !gone {
			section = append(section, l.pts[k])
		}
	}
	if len(section) > 1 && section[0] == section[len(section)-1] {
		section = section[:len(section)-1]
	}
	if len(section) < 3 {
		return false
	}
	area := intersect.NewRingFromPoints(section...)
	for idx, other := range s.lines {
		for k, pt := range other.pts {
			if idx == lineIdx && k >= i && k <= j {
				continue
			}
			if _, gone := other.removed[k]; gone {
				continue
			}
			if area.ContainsPoint(pt) {
				return true
			}
		}
	}
	return false
}

func (s *topologySimplifier) flatten(lineIdx, i, j int) {
	l := s.lines[lineIdx]
	for ref := range s.segments {
		if ref.line == lineIdx && ref.from >= i && ref.to <= j {
			delete(s.segments, ref)
		}
	}
	s.segments[segmentRef{line: lineIdx, from: i, to: j}] = struct{}{}
	for k := i + 1; k < j; k++ {
		l.removed[k] = struct{}{}
	}
	l.size -= j - i - 1
}
