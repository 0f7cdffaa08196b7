package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/generalize/processing"
)

func writeJob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	job, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1000, job.PageSize)
	assert.Equal(t, "http://www.pdok.nl/generalize", job.Namespace)
	assert.Equal(t, "info", job.LogLevel)
	assert.Error(t, job.Validate(), "source and target are required")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		want        processing.Options
		wantLayers  []string
		wantPage    int
		wantUnknown []string
		wantInvalid bool
	}{
		{
			name:     "defaults applied",
			content:  `{"source": "in.gpkg", "target": "out.gpkg", "tolerance": 2.5}`,
			want:     processing.Options{Tolerance: 2.5, Namespace: "http://www.pdok.nl/generalize"},
			wantPage: 1000,
		},
		{
			name: "all fields",
			content: `{"source": "in.gpkg", "target": "out.geojson", "layers": ["roads", "water"], "pagesize": 10,
				"tolerance": 1, "preserveTopology": true, "namespace": "http://example.com/ns", "loglevel": "debug"}`,
			want:       processing.Options{Tolerance: 1, PreserveTopology: true, Namespace: "http://example.com/ns"},
			wantLayers: []string{"roads", "water"},
			wantPage:   10,
		},
		{
			name:        "unknown keys reported",
			content:     `{"source": "in.gpkg", "target": "out.gpkg", "zoom": 4, "distance": 3}`,
			want:        processing.Options{Namespace: "http://www.pdok.nl/generalize"},
			wantPage:    1000,
			wantUnknown: []string{"distance", "zoom"},
		},
		{
			name:        "negative tolerance rejected",
			content:     `{"source": "in.gpkg", "target": "out.gpkg", "tolerance": -1}`,
			want:        processing.Options{Tolerance: -1, Namespace: "http://www.pdok.nl/generalize"},
			wantPage:    1000,
			wantInvalid: true,
		},
		{
			name:        "page size must be positive",
			content:     `{"source": "in.gpkg", "target": "out.gpkg", "pagesize": 0}`,
			want:        processing.Options{Namespace: "http://www.pdok.nl/generalize"},
			wantPage:    0,
			wantInvalid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := Load(writeJob(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.Options())
			assert.Equal(t, tt.wantLayers, job.Layers)
			assert.Equal(t, tt.wantPage, job.PageSize)
			if tt.wantUnknown == nil {
				assert.Empty(t, job.UnknownKeys())
			} else {
				assert.Equal(t, tt.wantUnknown, job.UnknownKeys())
			}
			if tt.wantInvalid {
				assert.Error(t, job.Validate())
			} else {
				assert.NoError(t, job.Validate())
			}
		})
	}
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeJob(t, `{"tolerance": "far"}`))
	assert.Error(t, err)
}
