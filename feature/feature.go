// Package feature holds the vector data model shared by sources, targets and the
// simplification pipeline: features with ordered properties, collections and schemas.
package feature

import (
	"github.com/go-spatial/geom"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Properties maps property names to values in their original order.
type Properties = orderedmap.OrderedMap[string, any]

// NewProperties creates empty Properties.
func NewProperties() *Properties {
	return orderedmap.New[string, any]()
}

// CopyProperties returns a shallow copy, nil stays nil.
func CopyProperties(p *Properties) *Properties {
	if p == nil {
		return nil
	}
	c := orderedmap.New[string, any](p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		c.Set(pair.Key, pair.Value)
	}
	return c
}

// Feature is one record: an identifier, a geometry and its attributes.
type Feature struct {
	ID       string
	Geometry geom.Geometry
	// CRS tags the geometry itself. It takes precedence over Schema.CRS.
	CRS        *CRS
	Properties *Properties
	Schema     *Schema
}

// New builds a Feature.
func New(id string, geometry geom.Geometry, properties *Properties, schema *Schema) *Feature {
	return &Feature{
		ID:         id,
		Geometry:   geometry,
		Properties: properties,
		Schema:     schema,
	}
}

// GeometryType is the family of the feature's geometry, Unknown when absent.
func (f *Feature) GeometryType() GeometryType {
	if f == nil || f.Geometry == nil {
		return Unknown
	}
	return TypeOf(f.Geometry)
}

// EffectiveCRS returns the geometry's CRS tag or else the declared CRS of the feature's schema.
func (f *Feature) EffectiveCRS() *CRS {
	if f.CRS != nil {
		return f.CRS
	}
	if f.Schema != nil {
		return f.Schema.CRS
	}
	return nil
}

// Iterator walks a Collection forward, once.
type Iterator interface {
	Next() bool
	Feature() *Feature
}

// Collection is an ordered, read-only sequence of features sharing one schema.
type Collection struct {
	schema   *Schema
	features []*Feature
}

// NewCollection wraps features. The slice is owned by the collection afterwards.
func NewCollection(schema *Schema, features []*Feature) *Collection {
	return &Collection{schema: schema, features: features}
}

// Len is the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.features)
}

// Schema is the declared schema of the collection, may be nil for an empty result.
func (c *Collection) Schema() *Schema {
	if c == nil {
		return nil
	}
	return c.schema
}

// Features returns a fresh forward-only iterator.
func (c *Collection) Features() Iterator {
	if c == nil {
		return &sliceIterator{pos: -1}
	}
	return &sliceIterator{features: c.features, pos: -1}
}

// All returns a copy of the feature slice.
func (c *Collection) All() []*Feature {
	if c == nil {
		return nil
	}
	all := make([]*Feature, len(c.features))
	copy(all, c.features)
	return all
}

type sliceIterator struct {
	features []*Feature
	pos      int
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.features) {
		it.pos = len(it.features)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Feature() *Feature {
	if it.pos < 0 || it.pos >= len(it.features) {
		return nil
	}
	return it.features[it.pos]
}
