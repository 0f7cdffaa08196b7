package feature

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdok/generalize/mapslicehelp"
)

const DefaultGeometryName = "geom"

// CRS describes a coordinate reference system the way gpkg_spatial_ref_sys does.
type CRS struct {
	ID                     int
	Name                   string
	Organization           string
	OrganizationCoordsysID int
	Definition             string
	Description            string
}

// CRS84 is the GeoJSON default (RFC 7946).
var CRS84 = &CRS{
	ID:                     4326,
	Name:                   "WGS 84",
	Organization:           "EPSG",
	OrganizationCoordsysID: 4326,
	Definition:             "undefined",
	Description:            "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid",
}

func (c *CRS) String() string {
	if c == nil {
		return "undefined"
	}
	return fmt.Sprintf("%s:%d", c.Organization, c.OrganizationCoordsysID)
}

// PropertyType is the value type of a property.
type PropertyType int

const (
	UnknownType PropertyType = iota
	String
	Integer
	Real
	Boolean
	DateTime
	Blob
)

func (t PropertyType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	case Blob:
		return "blob"
	default:
		return "unknown"
	}
}

// TypeOfValue infers the property type of a Go value. nil is UnknownType.
func TypeOfValue(v any) PropertyType {
	switch v.(type) {
	case string:
		return String
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case float32, float64:
		return Real
	case bool:
		return Boolean
	case time.Time:
		return DateTime
	case []byte:
		return Blob
	default:
		return UnknownType
	}
}

// accepts reports whether a value of type got may be stored in a property of type t.
func (t PropertyType) accepts(got PropertyType) bool {
	switch {
	case t == UnknownType, got == UnknownType, t == got:
		return true
	case t == Real && got == Integer:
		return true
	default:
		return false
	}
}

type PropertyDefinition struct {
	Name string
	Type PropertyType
}

// Schema is the declared shape shared by the features of a collection.
type Schema struct {
	Namespace    string
	Name         string
	Properties   []PropertyDefinition
	GeometryName string
	GeometryType GeometryType
	CRS          *CRS
}

// Property returns the definition of the named property.
func (s *Schema) Property(name string) (PropertyDefinition, bool) {
	if s == nil {
		return PropertyDefinition{}, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}

// QName is the identity under which the schema gets registered.
func (s *Schema) QName() (namespaceURI, localName string) {
	return s.Namespace, s.Name
}

// Infer derives a schema from a representative feature. Property types come from the
// feature's own schema when it declares them, otherwise from the values.
// The name is a fresh UUID and the namespace is suffixed with it.
func Infer(representative *Feature, geometryType GeometryType, crs *CRS, namespace string) *Schema {
	name := uuid.NewString()
	s := &Schema{
		Namespace:    strings.TrimSuffix(namespace, "/") + "/" + name,
		Name:         name,
		GeometryName: DefaultGeometryName,
		GeometryType: geometryType,
		CRS:          crs,
	}
	if representative.Schema != nil && representative.Schema.GeometryName != "" {
		s.GeometryName = representative.Schema.GeometryName
	}
	if representative.Properties == nil {
		return s
	}
	s.Properties = make([]PropertyDefinition, 0, representative.Properties.Len())
	for pair := representative.Properties.Oldest(); pair != nil; pair = pair.Next() {
		def, declared := representative.Schema.Property(pair.Key)
		if !declared || def.Type == UnknownType {
			def = PropertyDefinition{Name: pair.Key, Type: TypeOfValue(pair.Value)}
		}
		s.Properties = append(s.Properties, def)
	}
	return s
}

// Conforms checks that a feature fits the schema: the same property names,
// compatible value types and the same geometry family.
func (s *Schema) Conforms(f *Feature) error {
	if got := f.GeometryType(); got != s.GeometryType {
		return fmt.Errorf("geometry type %s does not match schema geometry type %s", got, s.GeometryType)
	}
	var names []string
	if f.Properties != nil {
		names = mapslicehelp.OrderedMapKeys(f.Properties)
	}
	if len(names) != len(s.Properties) {
		return fmt.Errorf("feature has %d properties, schema has %d", len(names), len(s.Properties))
	}
	present := mapslicehelp.AsKeys(names)
	for _, def := range s.Properties {
		if _, ok := present[def.Name]; !ok {
			return fmt.Errorf("property %q missing", def.Name)
		}
		v, _ := f.Properties.Get(def.Name)
		if got := TypeOfValue(v); !def.Type.accepts(got) {
			return fmt.Errorf("property %q has type %s, schema expects %s", def.Name, got, def.Type)
		}
	}
	return nil
}
