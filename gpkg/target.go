package gpkg

import (
	"fmt"

	"github.com/go-spatial/geom/encoding/gpkg"

	"github.com/pdok/generalize/feature"
)

// TargetGeopackage writes simplified layers as feature tables.
type TargetGeopackage struct {
	pagesize int
	handle   *gpkg.Handle
}

func OpenTarget(file string, pagesize int) (*TargetGeopackage, error) {
	if pagesize < 1 {
		return nil, fmt.Errorf("invalid page size %d", pagesize)
	}
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf("error opening target GeoPackage: %w", err)
	}
	return &TargetGeopackage{pagesize: pagesize, handle: handle}, nil
}

func (target *TargetGeopackage) Close() error {
	return target.handle.Close()
}

// WriteFeatures creates a table for the collection's schema and inserts the features
// in transactions of pagesize features. An empty collection writes nothing.
func (target *TargetGeopackage) WriteFeatures(layer string, collection *feature.Collection) error {
	schema := collection.Schema()
	if schema == nil || collection.Len() == 0 {
		return nil
	}
	t := tableFromSchema(layer, schema)
	if err := target.createTable(t); err != nil {
		return err
	}

	var ext extent
	features := collection.All()
	for start := 0; start < len(features); start += target.pagesize {
		end := min(start+target.pagesize, len(features))
		if err := target.writeFeatures(t, schema, features[start:end], &ext); err != nil {
			return err
		}
	}
	if ext.ext == nil {
		return nil
	}
	if err := target.handle.UpdateGeometryExtent(t.name, ext.ext); err != nil {
		return fmt.Errorf("failed to update extent of %s: %w", t.name, err)
	}
	return nil
}

// createTable creates the destination table with the necessary gpkg_ information
func (target *TargetGeopackage) createTable(t table) error {
	if err := target.handle.UpdateSRS(t.srs); err != nil {
		return fmt.Errorf("could not register SRS %d: %w", t.srs.ID, err)
	}
	if _, err := target.handle.Exec(t.createSQL()); err != nil {
		return fmt.Errorf("error building table %s in target GeoPackage: %w", t.name, err)
	}
	err := target.handle.AddGeometryTable(gpkg.TableDescription{
		Name:          t.name,
		ShortName:     t.name,
		Description:   t.name,
		GeometryField: t.gcolumn,
		GeometryType:  t.gtype,
		SRS:           int32(t.srs.ID),
		Z:             gpkg.Prohibited,
		M:             gpkg.Prohibited,
	})
	if err != nil {
		return fmt.Errorf("error adding geometry table %s in target GeoPackage: %w", t.name, err)
	}
	return nil
}

func (target *TargetGeopackage) writeFeatures(t table, schema *feature.Schema, features []*feature.Feature, ext *extent) error {
	tx, err := target.handle.Begin()
	if err != nil {
		return fmt.Errorf("could not start a transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(t.insertSQL())
	if err != nil {
		return fmt.Errorf("could not prepare a statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range features {
		srsID := int32(t.srs.ID)
		if f.CRS != nil && f.CRS.ID != t.srs.ID {
			if err = target.handle.UpdateSRS(srsFromCRS(f.CRS)); err != nil {
				return fmt.Errorf("could not register SRS %d: %w", f.CRS.ID, err)
			}
			srsID = int32(f.CRS.ID)
		}
		sb, err := gpkg.NewBinary(srsID, f.Geometry)
		if err != nil {
			return fmt.Errorf("could not create a binary geometry for %s: %w", f.ID, err)
		}

		data := make([]interface{}, 0, len(schema.Properties)+2)
		data = append(data, f.ID)
		for _, p := range schema.Properties {
			var v any
			if f.Properties != nil {
				v, _ = f.Properties.Get(p.Name)
			}
			data = append(data, columnValue(v))
		}
		data = append(data, sb)

		if _, err = stmt.Exec(data...); err != nil {
			return fmt.Errorf("could not insert feature %s: %w", f.ID, err)
		}
		if err = ext.add(f.Geometry); err != nil {
			return fmt.Errorf("failed to extend extent with %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}
