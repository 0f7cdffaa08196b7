// Package geojson reads and writes layers as GeoJSON FeatureCollection files (RFC 7946).
package geojson

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/goccy/go-json"

	"github.com/pdok/generalize/feature"
)

const featureCollection = "FeatureCollection"

// ErrNoSuchLayer is returned for a layer the file does not hold.
var ErrNoSuchLayer = errors.New("no such layer")

type namedCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type featureJSON struct {
	Type       string              `json:"type"`
	ID         any                 `json:"id,omitempty"`
	Geometry   *geojson.Geometry   `json:"geometry"`
	Properties *feature.Properties `json:"properties"`
}

type collectionJSON struct {
	Type     string        `json:"type"`
	Name     string        `json:"name,omitempty"`
	CRS      *namedCRS     `json:"crs,omitempty"`
	Features []featureJSON `json:"features"`
}

// crsFromName parses the legacy named CRS member, e.g. urn:ogc:def:crs:EPSG::28992 or EPSG:28992.
// Unknown names and CRS84 yield CRS84.
func crsFromName(name string) *feature.CRS {
	upper := strings.ToUpper(name)
	idx := strings.LastIndex(upper, "EPSG:")
	if idx < 0 {
		return feature.CRS84
	}
	code, err := strconv.Atoi(strings.TrimLeft(upper[idx+len("EPSG:"):], ":"))
	if err != nil || code == feature.CRS84.OrganizationCoordsysID {
		return feature.CRS84
	}
	return &feature.CRS{
		ID:                     code,
		Name:                   "EPSG:" + strconv.Itoa(code),
		Organization:           "EPSG",
		OrganizationCoordsysID: code,
		Definition:             "undefined",
	}
}

func crsName(crs *feature.CRS) *namedCRS {
	if crs == nil || crs.OrganizationCoordsysID == feature.CRS84.OrganizationCoordsysID {
		return nil
	}
	n := &namedCRS{Type: "name"}
	n.Properties.Name = fmt.Sprintf("urn:ogc:def:crs:%s::%d", crs.Organization, crs.OrganizationCoordsysID)
	return n
}

func schemaCRS(s *feature.Schema) *feature.CRS {
	if s == nil {
		return nil
	}
	return s.CRS
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Decode parses a FeatureCollection into a layer. Features without id are numbered
// from 1, a null geometry yields a feature without geometry.
func Decode(data []byte, layer string) (*feature.Collection, error) {
	var fc collectionJSON
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("could not decode GeoJSON: %w", err)
	}
	if fc.Type != featureCollection {
		return nil, fmt.Errorf("expected a %s, got %q", featureCollection, fc.Type)
	}
	schema := &feature.Schema{
		Name:         layer,
		GeometryName: feature.DefaultGeometryName,
		CRS:          feature.CRS84,
	}
	if fc.CRS != nil {
		schema.CRS = crsFromName(fc.CRS.Properties.Name)
	}

	features := make([]*feature.Feature, 0, len(fc.Features))
	for i, jf := range fc.Features {
		id := strconv.Itoa(i + 1)
		if jf.ID != nil {
			id = fmt.Sprint(jf.ID)
		}
		f := feature.New(id, nil, jf.Properties, schema)
		if jf.Geometry != nil {
			f.Geometry = feature.Normalize(jf.Geometry.Geometry)
		}
		features = append(features, f)
	}
	return feature.NewCollection(schema, features), nil
}

// Encode renders a layer as a FeatureCollection.
func Encode(layer string, collection *feature.Collection) ([]byte, error) {
	fc := collectionJSON{
		Type:     featureCollection,
		Name:     layer,
		CRS:      crsName(schemaCRS(collection.Schema())),
		Features: make([]featureJSON, 0, collection.Len()),
	}
	it := collection.Features()
	for it.Next() {
		f := it.Feature()
		jf := featureJSON{Type: "Feature", Properties: f.Properties}
		if f.ID != "" {
			jf.ID = f.ID
		}
		if f.Geometry != nil {
			jf.Geometry = &geojson.Geometry{Geometry: f.Geometry}
		}
		if jf.Properties == nil {
			jf.Properties = feature.NewProperties()
		}
		fc.Features = append(fc.Features, jf)
	}
	return json.Marshal(fc)
}

// Source is a single GeoJSON file holding one layer, named after the file.
type Source struct {
	path string
}

func OpenSource(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error opening source GeoJSON: %w", err)
	}
	return &Source{path: path}, nil
}

func (s *Source) Layers() ([]string, error) {
	return []string{layerName(s.path)}, nil
}

func (s *Source) ReadFeatures(layer string) (*feature.Collection, error) {
	if layer != layerName(s.path) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchLayer, layer)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return Decode(data, layer)
}

// Target writes every layer to its own file next to the target path,
// the layer name suffixed to the file name: out.geojson + roads = out_roads.geojson.
type Target struct {
	path string
}

func NewTarget(path string) *Target {
	return &Target{path: path}
}

// LayerPath is the file a layer is written to.
func (t *Target) LayerPath(layer string) string {
	dir, file := filepath.Split(t.path)
	ext := filepath.Ext(file)
	name := file[:len(file)-len(ext)]
	return filepath.Join(dir, name+"_"+layer+ext)
}

func (t *Target) WriteFeatures(layer string, collection *feature.Collection) error {
	data, err := Encode(layer, collection)
	if err != nil {
		return fmt.Errorf("could not encode layer %s: %w", layer, err)
	}
	return os.WriteFile(t.LayerPath(layer), data, 0o644) //nolint:gosec
}
