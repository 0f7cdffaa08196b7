package gpkg

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/generalize/feature"
)

// SourceGeopackage reads the feature tables of a GeoPackage.
type SourceGeopackage struct {
	handle *gpkg.Handle
	srs    map[int32]*feature.CRS
}

func OpenSource(file string) (*SourceGeopackage, error) {
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf("error opening source GeoPackage: %w", err)
	}
	return &SourceGeopackage{handle: handle, srs: make(map[int32]*feature.CRS)}, nil
}

func (source *SourceGeopackage) Close() error {
	return source.handle.Close()
}

// Layers lists the feature tables registered in gpkg_geometry_columns.
func (source *SourceGeopackage) Layers() ([]string, error) {
	rows, err := source.handle.Query(`SELECT table_name FROM gpkg_geometry_columns ORDER BY table_name;`)
	if err != nil {
		return nil, fmt.Errorf("could not list feature tables: %w", err)
	}
	defer rows.Close()

	var layers []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		layers = append(layers, name)
	}
	return layers, rows.Err()
}

func (source *SourceGeopackage) tableInfo(layer string) (table, error) {
	t := table{name: layer}
	var gtype string
	var srsID int
	err := source.handle.QueryRow(
		`SELECT column_name, geometry_type_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?;`, layer).
		Scan(&t.gcolumn, &gtype, &srsID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("%w: %s", ErrNoSuchLayer, layer)
	}
	if err != nil {
		return t, fmt.Errorf("error reading the source table information: %w", err)
	}
	t.gtype = geometryTypeFromString(gtype)
	if t.srs, err = getSpatialReferenceSystem(source.handle, srsID); err != nil {
		return t, err
	}
	if t.columns, err = getTableColumns(source.handle, layer); err != nil {
		return t, err
	}
	return t, nil
}

// ReadFeatures reads all rows of a feature table. The primary key becomes the feature ID,
// the other non geometry columns the properties. A geometry stored with another SRS
// than the table's is tagged with that CRS.
func (source *SourceGeopackage) ReadFeatures(layer string) (*feature.Collection, error) {
	t, err := source.tableInfo(layer)
	if err != nil {
		return nil, err
	}
	schema := t.schema()
	pk := t.pkColumn()

	rows, err := source.handle.Query(t.selectSQL())
	if err != nil {
		return nil, fmt.Errorf("could not query %s: %w", layer, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading the columns: %w", err)
	}

	var features []*feature.Feature
	for n := 1; rows.Next(); n++ {
		vals := make([]interface{}, len(cols))
		valPtrs := make([]interface{}, len(cols))
		for i := range cols {
			valPtrs[i] = &vals[i]
		}
		if err = rows.Scan(valPtrs...); err != nil {
			return nil, fmt.Errorf("err reading row values: %w", err)
		}

		f := feature.New(strconv.Itoa(n), nil, feature.NewProperties(), schema)
		for i, colName := range cols {
			switch colName {
			case t.gcolumn:
				if err = source.decodeGeometry(f, int32(t.srs.ID), vals[i]); err != nil {
					return nil, fmt.Errorf("feature %s of %s: %w", f.ID, layer, err)
				}
			case pk:
				f.ID = fmt.Sprint(vals[i])
			default:
				def, _ := schema.Property(colName)
				v, err := propertyValue(def.Type, vals[i])
				if err != nil {
					return nil, fmt.Errorf("column %s of %s: %w", colName, layer, err)
				}
				f.Properties.Set(colName, v)
			}
		}
		features = append(features, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return feature.NewCollection(schema, features), nil
}

func (source *SourceGeopackage) decodeGeometry(f *feature.Feature, tableSRSID int32, v any) error {
	if v == nil {
		return nil
	}
	raw, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("geometry column holds %T", v)
	}
	sb, err := gpkg.DecodeGeometry(raw)
	if err != nil {
		return fmt.Errorf("error decoding the geometry: %w", err)
	}
	f.Geometry = feature.Normalize(sb.Geometry)
	if sb.SRSID != tableSRSID && sb.SRSID != 0 {
		f.CRS, err = source.crs(sb.SRSID)
	}
	return err
}

func (source *SourceGeopackage) crs(id int32) (*feature.CRS, error) {
	if crs, ok := source.srs[id]; ok {
		return crs, nil
	}
	srs, err := getSpatialReferenceSystem(source.handle, int(id))
	if err != nil {
		return nil, err
	}
	crs := crsFromSRS(srs)
	source.srs[id] = crs
	return crs, nil
}
