package simplify

import (
	"context"
	"math"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/generalize/feature"
	"github.com/pdok/generalize/geomhelp"
)

func circle(cx, cy, r float64, n int) [][2]float64 {
	ring := make([][2]float64, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return append(ring, ring[0])
}

func square(x, y, size float64) [][2]float64 {
	return [][2]float64{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}
}

func TestSimplify_douglasPeucker(t *testing.T) {
	tests := []struct {
		name      string
		geometry  geom.Geometry
		tolerance float64
		want      geom.Geometry
	}{
		{
			name:      "line within tolerance",
			geometry:  geom.LineString{{0, 0}, {5, 1}, {10, 0}},
			tolerance: 2,
			want:      geom.LineString{{0, 0}, {10, 0}},
		},
		{
			name:      "line outside tolerance",
			geometry:  geom.LineString{{0, 0}, {5, 1}, {10, 0}},
			tolerance: 0.5,
			want:      geom.LineString{{0, 0}, {5, 1}, {10, 0}},
		},
		{
			name:      "pointer input",
			geometry:  &geom.LineString{{0, 0}, {5, 1}, {10, 0}},
			tolerance: 2,
			want:      geom.LineString{{0, 0}, {10, 0}},
		},
		{
			name:      "point unchanged",
			geometry:  geom.Point{1, 2},
			tolerance: 10,
			want:      geom.Point{1, 2},
		},
		{
			name:      "multipoint unchanged",
			geometry:  geom.MultiPoint{{1, 2}, {1.1, 2}},
			tolerance: 10,
			want:      geom.MultiPoint{{1, 2}, {1.1, 2}},
		},
		{
			name:      "ring vertex on edge removed",
			geometry:  geom.Polygon{{{0, 0}, {5, 0.1}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
			tolerance: 1,
			want:      geom.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
		},
		{
			name:      "collapsed polygon is empty",
			geometry:  geom.Polygon{square(0, 0, 10)},
			tolerance: 100,
			want:      geom.Polygon{},
		},
		{
			name: "collapsed hole dropped",
			geometry: geom.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {5, 11}, {0, 10}, {0, 0}},
				{{4, 9.5}, {6, 9.5}, {5, 10.5}, {4, 9.5}},
			},
			tolerance: 1.5,
			want:      geom.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
		},
		{
			name:      "backtracking vertex kept",
			geometry:  geom.LineString{{0, 0}, {100, 0}, {50, 0.5}},
			tolerance: 2,
			want:      geom.LineString{{0, 0}, {100, 0}, {50, 0.5}},
		},
		{
			name:      "multipolygon keeps its family with one part left",
			geometry:  geom.MultiPolygon{{square(0, 0, 100)}, {square(200, 200, 1)}},
			tolerance: 5,
			want:      geom.MultiPolygon{{square(0, 0, 100)}},
		},
		{
			name:      "multilinestring keeps its family with one part left",
			geometry:  geom.MultiLineString{{{0, 0}, {5, 1}, {10, 0}}, {}},
			tolerance: 2,
			want:      geom.MultiLineString{{{0, 0}, {10, 0}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(context.Background(), tt.geometry, tt.tolerance, false)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, got)
		})
	}
}

func TestSimplify_topologyPreserving(t *testing.T) {
	tests := []struct {
		name      string
		geometry  geom.Geometry
		tolerance float64
		want      geom.Geometry
	}{
		{
			name:      "line within tolerance",
			geometry:  geom.LineString{{0, 0}, {5, 1}, {10, 0}},
			tolerance: 2,
			want:      geom.LineString{{0, 0}, {10, 0}},
		},
		{
			name:      "line kept where flattening would cross another line",
			geometry:  geom.MultiLineString{{{0, 0}, {5, 1}, {10, 0}}, {{5, -1}, {5, 0.5}}},
			tolerance: 2,
			want:      geom.MultiLineString{{{0, 0}, {5, 1}, {10, 0}}, {{5, -1}, {5, 0.5}}},
		},
		{
			name:      "ring never collapses",
			geometry:  geom.Polygon{square(0, 0, 10)},
			tolerance: 100,
			want:      geom.Polygon{{{0, 0}, {10, 10}, {0, 10}, {0, 0}}},
		},
		{
			name: "shell kept where flattening would cross a hole",
			geometry: geom.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {5, 11}, {0, 10}, {0, 0}},
				{{4, 9.5}, {6, 9.5}, {5, 10.5}, {4, 9.5}},
			},
			tolerance: 1.5,
			want: geom.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {5, 11}, {0, 10}, {0, 0}},
				{{4, 9.5}, {6, 9.5}, {5, 10.5}, {4, 9.5}},
			},
		},
		{
			name: "shell kept where flattening would cut off a hole",
			geometry: geom.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {5, 11}, {0, 10}, {0, 0}},
				{{4, 10.2}, {6, 10.2}, {5, 10.7}, {4, 10.2}},
			},
			tolerance: 2,
			want: geom.Polygon{
				{{0, 0}, {10, 0}, {10, 10}, {5, 11}, {0, 10}, {0, 0}},
				{{4, 10.2}, {6, 10.2}, {5, 10.7}, {4, 10.2}},
			},
		},
		{
			name:      "line kept where flattening would cut off another line",
			geometry:  geom.MultiLineString{{{0, 0}, {5, 1}, {10, 0}}, {{4.5, 0.3}, {5.5, 0.3}}},
			tolerance: 2,
			want:      geom.MultiLineString{{{0, 0}, {5, 1}, {10, 0}}, {{4.5, 0.3}, {5.5, 0.3}}},
		},
		{
			name:      "ring without closing point stays open",
			geometry:  geom.Polygon{{{0, 0}, {5, 0.1}, {10, 0}, {10, 10}, {0, 10}}},
			tolerance: 1,
			want:      geom.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(context.Background(), tt.geometry, tt.tolerance, true)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, got)
		})
	}
}

func TestSimplify_circleInMultiPolygon(t *testing.T) {
	in := geom.MultiPolygon{{circle(0, 0, 100, 49)}}
	require.Equal(t, 50, geomhelp.VertexCount(in))

	for _, preserveTopology := range []bool{false, true} {
		got, err := Simplify(context.Background(), in, 10, preserveTopology)
		require.NoError(t, err)
		mp, ok := got.(geom.MultiPolygon)
		require.True(t, ok, "got %T", got)
		require.Len(t, mp, 1)
		n := geomhelp.VertexCount(mp)
		assert.Less(t, n, 50)
		assert.GreaterOrEqual(t, n, 4)
		assert.Equal(t, mp[0][0][0], mp[0][0][len(mp[0][0])-1])
	}
}

func TestSimplify_familyPreserved(t *testing.T) {
	inputs := []geom.Geometry{
		geom.Point{0, 0},
		geom.MultiPoint{{0, 0}, {1, 1}},
		geom.LineString{{0, 0}, {1, 0.01}, {2, 0}},
		geom.MultiLineString{{{0, 0}, {1, 0.01}, {2, 0}}},
		geom.Polygon{circle(0, 0, 10, 20)},
		geom.MultiPolygon{{circle(0, 0, 10, 20)}, {circle(50, 0, 10, 20)}},
		geom.MultiPolygon{{circle(0, 0, 10, 20)}},
	}
	for _, in := range inputs {
		for _, preserveTopology := range []bool{false, true} {
			got, err := Simplify(context.Background(), in, 1, preserveTopology)
			require.NoError(t, err)
			assert.Equal(t, feature.TypeOf(in), feature.TypeOf(got), "%T topology=%v", in, preserveTopology)
			assert.LessOrEqual(t, geomhelp.VertexCount(got), geomhelp.VertexCount(in))
		}
	}
}

func TestSimplify_zeroTolerance(t *testing.T) {
	inputs := []geom.Geometry{
		geom.LineString{{0, 0}, {1, 0.01}, {2, 0}, {3, 5}},
		geom.Polygon{circle(0, 0, 10, 12)},
		geom.MultiPolygon{{circle(0, 0, 10, 12)}},
	}
	for _, in := range inputs {
		for _, preserveTopology := range []bool{false, true} {
			got, err := Simplify(context.Background(), in, 0, preserveTopology)
			require.NoError(t, err)
			assert.Equal(t, geomhelp.VertexCount(in), geomhelp.VertexCount(got), "%T topology=%v", in, preserveTopology)
		}
	}
}

func TestSimplify_doesNotModifyInput(t *testing.T) {
	in := geom.Polygon{{{0, 0}, {5, 0.1}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	want := geom.Polygon{{{0, 0}, {5, 0.1}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	for _, preserveTopology := range []bool{false, true} {
		_, err := Simplify(context.Background(), in, 1, preserveTopology)
		require.NoError(t, err)
		assert.Equal(t, want, in)
	}
}

func TestSimplify_errors(t *testing.T) {
	tests := []struct {
		name      string
		geometry  geom.Geometry
		tolerance float64
		wantErr   error
	}{
		{name: "collection", geometry: geom.Collection{geom.Point{0, 0}}, tolerance: 1, wantErr: ErrUnsupportedGeometry},
		{name: "nil", geometry: nil, tolerance: 1, wantErr: ErrNilGeometry},
		{name: "nil pointer", geometry: (*geom.Polygon)(nil), tolerance: 1, wantErr: ErrNilGeometry},
		{name: "negative tolerance", geometry: geom.Point{0, 0}, tolerance: -1, wantErr: ErrNegativeTolerance},
		{name: "NaN tolerance", geometry: geom.Point{0, 0}, tolerance: math.NaN(), wantErr: ErrNegativeTolerance},
	}
	for _, tt := range tests {
		for _, preserveTopology := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Simplify(context.Background(), tt.geometry, tt.tolerance, preserveTopology)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	}
}

func TestSimplify_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simplify(ctx, geom.Polygon{circle(0, 0, 10, 20)}, 1, true)
	assert.ErrorIs(t, err, context.Canceled)
}
