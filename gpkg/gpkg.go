// Package gpkg reads layers from and writes simplified layers to GeoPackages.
package gpkg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/generalize/feature"
	"github.com/pdok/generalize/mathhelp"
)

const (
	fidColumn       = "fid"
	featureIDColumn = "feature_id"
)

// ErrNoSuchLayer is returned for a layer that is not a feature table of the GeoPackage.
var ErrNoSuchLayer = errors.New("no such layer")

type column struct {
	cid       int
	name      string
	ctype     string
	notnull   int
	dfltValue *string
	pk        int
}

type table struct {
	name    string
	columns []column
	gcolumn string
	gtype   gpkg.GeometryType
	srs     gpkg.SpatialReferenceSystem
}

// geometryTypeFromString returns the numeric value of a geometry type name
func geometryTypeFromString(geometrytype string) gpkg.GeometryType {
	switch strings.ToUpper(geometrytype) {
	case "POINT":
		return gpkg.Point
	case "LINESTRING":
		return gpkg.Linestring
	case "POLYGON":
		return gpkg.Polygon
	case "MULTIPOINT":
		return gpkg.MultiPoint
	case "MULTILINESTRING":
		return gpkg.MultiLinestring
	case "MULTIPOLYGON":
		return gpkg.MultiPolygon
	case "GEOMETRYCOLLECTION":
		return gpkg.GeometryCollection
	default:
		return gpkg.Geometry
	}
}

func featureGeometryType(gtype gpkg.GeometryType) feature.GeometryType {
	switch gtype {
	case gpkg.Point:
		return feature.Point
	case gpkg.Linestring:
		return feature.LineString
	case gpkg.Polygon:
		return feature.Polygon
	case gpkg.MultiPoint:
		return feature.MultiPoint
	case gpkg.MultiLinestring:
		return feature.MultiLineString
	case gpkg.MultiPolygon:
		return feature.MultiPolygon
	case gpkg.GeometryCollection:
		return feature.GeometryCollection
	default:
		return feature.Unknown
	}
}

func gpkgGeometryType(t feature.GeometryType) gpkg.GeometryType {
	return geometryTypeFromString(t.String())
}

// propertyTypeFromSQL maps a declared column type to a property type, following
// the SQLite type affinity rules for everything GeoPackage does not name.
func propertyTypeFromSQL(ctype string) feature.PropertyType {
	t := strings.ToUpper(strings.TrimSpace(ctype))
	switch {
	case t == "BOOLEAN":
		return feature.Boolean
	case t == "DATE", t == "DATETIME":
		return feature.DateTime
	case strings.Contains(t, "INT"):
		return feature.Integer
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return feature.String
	case strings.Contains(t, "BLOB"):
		return feature.Blob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return feature.Real
	default:
		return feature.UnknownType
	}
}

func sqlType(t feature.PropertyType) string {
	switch t {
	case feature.Integer:
		return "INTEGER"
	case feature.Real:
		return "REAL"
	case feature.Boolean:
		return "BOOLEAN"
	case feature.DateTime:
		return "DATETIME"
	case feature.Blob:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// propertyValue converts a scanned sqlite value to the Go type of the property.
func propertyValue(t feature.PropertyType, v any) (any, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		if t == feature.Blob {
			b := make([]byte, len(vv))
			copy(b, vv)
			return b, nil
		}
		return string(vv), nil
	case int64:
		if t == feature.Boolean {
			return vv != 0, nil
		}
		return vv, nil
	case float64, bool, string, time.Time:
		return vv, nil
	default:
		return nil, fmt.Errorf("unexpected type for sqlite column data: %T", v)
	}
}

// columnValue converts a property value to something the sqlite driver stores.
func columnValue(v any) any {
	switch vv := v.(type) {
	case bool:
		return mathhelp.Bool2int(vv)
	default:
		return v
	}
}

func crsFromSRS(srs gpkg.SpatialReferenceSystem) *feature.CRS {
	return &feature.CRS{
		ID:                     srs.ID,
		Name:                   srs.Name,
		Organization:           srs.Organization,
		OrganizationCoordsysID: srs.OrganizationCoordsysID,
		Definition:             srs.Definition,
		Description:            srs.Description,
	}
}

// srsFromCRS converts a CRS, an absent CRS becomes the GeoPackage "undefined cartesian" system.
func srsFromCRS(crs *feature.CRS) gpkg.SpatialReferenceSystem {
	if crs == nil {
		return gpkg.SpatialReferenceSystem{
			Name:                   "Undefined cartesian SRS",
			ID:                     -1,
			Organization:           "NONE",
			OrganizationCoordsysID: -1,
			Definition:             "undefined",
			Description:            "undefined cartesian coordinate reference system",
		}
	}
	return gpkg.SpatialReferenceSystem{
		Name:                   crs.Name,
		ID:                     crs.ID,
		Organization:           crs.Organization,
		OrganizationCoordsysID: crs.OrganizationCoordsysID,
		Definition:             crs.Definition,
		Description:            crs.Description,
	}
}

func (t table) pkColumn() string {
	for _, c := range t.columns {
		if c.pk == 1 {
			return c.name
		}
	}
	return ""
}

// propertyColumns are all columns except the primary key and the geometry
func (t table) propertyColumns() []column {
	pk := t.pkColumn()
	var columns []column
	for _, c := range t.columns {
		if c.name != pk && c.name != t.gcolumn {
			columns = append(columns, c)
		}
	}
	return columns
}

// schema describes the table as the declared schema of the features read from it
func (t table) schema() *feature.Schema {
	s := &feature.Schema{
		Name:         t.name,
		GeometryName: t.gcolumn,
		GeometryType: featureGeometryType(t.gtype),
		CRS:          crsFromSRS(t.srs),
	}
	for _, c := range t.propertyColumns() {
		s.Properties = append(s.Properties, feature.PropertyDefinition{Name: c.name, Type: propertyTypeFromSQL(c.ctype)})
	}
	return s
}

// tableFromSchema builds the target table: an autoincrement fid, the original
// feature id, the properties in schema order and the geometry column.
func tableFromSchema(name string, s *feature.Schema) table {
	t := table{
		name:    name,
		gcolumn: s.GeometryName,
		gtype:   gpkgGeometryType(s.GeometryType),
		srs:     srsFromCRS(s.CRS),
	}
	if t.gcolumn == "" {
		t.gcolumn = feature.DefaultGeometryName
	}
	t.columns = append(t.columns,
		column{name: fidColumn, ctype: "INTEGER", notnull: 1, pk: 1},
		column{name: featureIDColumn, ctype: "TEXT"},
	)
	for _, p := range s.Properties {
		t.columns = append(t.columns, column{name: p.Name, ctype: sqlType(p.Type)})
	}
	t.columns = append(t.columns, column{name: t.gcolumn, ctype: s.GeometryType.String()})
	for i := range t.columns {
		t.columns[i].cid = i
	}
	return t
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createSQL creates a CREATE statement on the given table and column information
// used for creating feature tables in the target GeoPackage
func (t table) createSQL() string {
	columnparts := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		columnpart := quote(c.name) + ` ` + c.ctype
		if c.notnull == 1 {
			columnpart += ` NOT NULL`
		}
		if c.pk == 1 {
			columnpart += ` PRIMARY KEY AUTOINCREMENT`
		}
		columnparts = append(columnparts, columnpart)
	}
	return `CREATE TABLE IF NOT EXISTS ` + quote(t.name) + `(` + strings.Join(columnparts, `, `) + `);`
}

// selectSQL builds a SELECT statement based on the table and columns
// used for reading the source features
func (t table) selectSQL() string {
	csql := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		csql = append(csql, quote(c.name))
	}
	return `SELECT ` + strings.Join(csql, `,`) + ` FROM ` + quote(t.name) + `;`
}

// insertSQL builds the INSERT statement for writing the features,
// the primary key is left to sqlite and the geometry goes last
func (t table) insertSQL() string {
	pk := t.pkColumn()
	var csql, vsql []string
	for _, c := range t.columns {
		if c.name != pk && c.name != t.gcolumn {
			csql = append(csql, quote(c.name))
			vsql = append(vsql, `?`)
		}
	}
	csql = append(csql, quote(t.gcolumn))
	vsql = append(vsql, `?`)
	return `INSERT INTO ` + quote(t.name) + `(` + strings.Join(csql, `,`) + `) VALUES(` + strings.Join(vsql, `,`) + `)`
}

// getSpatialReferenceSystem extracts this based on the given SRS id
func getSpatialReferenceSystem(h *gpkg.Handle, id int) (gpkg.SpatialReferenceSystem, error) {
	var srs gpkg.SpatialReferenceSystem
	query := `SELECT srs_name, srs_id, organization, organization_coordsys_id, definition, description FROM gpkg_spatial_ref_sys WHERE srs_id = ?;`

	var description *string
	err := h.QueryRow(query, id).Scan(&srs.Name, &srs.ID, &srs.Organization, &srs.OrganizationCoordsysID, &srs.Definition, &description)
	if err != nil {
		return srs, fmt.Errorf("could not read spatial reference system %d: %w", id, err)
	}
	if description != nil {
		srs.Description = *description
	}
	return srs, nil
}

// getTableColumns collects the column information of a given table
func getTableColumns(h *gpkg.Handle, tableName string) ([]column, error) {
	rows, err := h.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, quote(tableName)))
	if err != nil {
		return nil, fmt.Errorf("could not read columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []column
	for rows.Next() {
		var c column
		if err = rows.Scan(&c.cid, &c.name, &c.ctype, &c.notnull, &c.dfltValue, &c.pk); err != nil {
			return nil, fmt.Errorf("error getting the column information: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// extent accumulates the bounding box of the written geometries
type extent struct {
	ext *geom.Extent
}

func (e *extent) add(g geom.Geometry) error {
	if e.ext == nil {
		ext, err := geom.NewExtentFromGeometry(g)
		if err != nil {
			return err
		}
		e.ext = ext
		return nil
	}
	return e.ext.AddGeometry(g)
}
