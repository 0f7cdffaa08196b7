// Package processing drives the simplification of a feature collection: it iterates the
// input once, simplifies every geometry, fixes the output schema on the first feature and
// rebuilds the output features against it. Reading and writing layers is left to a Source and Target.
package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"

	"github.com/pdok/generalize/feature"
	"github.com/pdok/generalize/geomhelp"
	"github.com/pdok/generalize/mathhelp"
	"github.com/pdok/generalize/simplify"
)

const wktLogLength = 120

var (
	optionsValidator = validator.New(validator.WithRequiredStructEnabled())

	errCollapsed = errors.New("simplification result is empty")
)

// Options are the parameters of one run.
type Options struct {
	// Tolerance is the maximum deviation of a removed vertex, in the units of the CRS.
	Tolerance        float64 `json:"tolerance" validate:"gte=0"`
	PreserveTopology bool    `json:"preserveTopology"`
	// Namespace is the base URI of inferred schemas.
	Namespace string `json:"namespace" default:"http://www.pdok.nl/generalize" validate:"required,uri"`
}

func (o *Options) validate() error {
	if err := defaults.Set(o); err != nil {
		return err
	}
	err := optionsValidator.Struct(o)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return &InvalidParameterError{Parameter: fe.Field(), Value: fe.Value(), Err: err}
	}
	return &InvalidParameterError{Parameter: "options", Value: *o, Err: err}
}

// Result is the outcome of one run. Warnings lists every skipped feature.
type Result struct {
	Collection *feature.Collection
	Warnings   []error
	Total      int
	Skipped    int
}

// run is the state of a single Process call.
type run struct {
	opts     Options
	logger   *zerolog.Logger
	register RegisterSchemaFunc
	schema   *feature.Schema
	features []*feature.Feature
	warnings []error
	total    int
}

// Process simplifies every feature of the collection.
//
// Invalid options fail with an *InvalidParameterError before anything is read. An empty
// input yields an empty collection without calling progress or register. Features
// without geometry, with a geometry collection, whose geometry collapses or that do
// not fit the schema of the first processed feature are skipped with a warning.
// When all features are skipped the Result comes with an *EmptyResultError.
// progress is called once per input feature with floor(100*i/total), register exactly
// once for the inferred schema. Both may be nil.
func Process(ctx context.Context, collection Collection, opts Options, progress ProgressFunc, register RegisterSchemaFunc) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	total := collection.Len()
	if total == 0 {
		return Result{Collection: feature.NewCollection(nil, nil)}, nil
	}

	r := &run{
		opts:     opts,
		logger:   zerolog.Ctx(ctx),
		register: register,
		features: make([]*feature.Feature, 0, total),
		total:    total,
	}
	it := collection.Features()
	for i := 1; it.Next(); i++ {
		if err := ctx.Err(); err != nil {
			return r.result(), err
		}
		f := it.Feature()
		simplified, warning, err := r.simplify(ctx, i, f)
		if err != nil {
			return r.result(), err
		}
		if progress != nil {
			progress(mathhelp.Percentage(i, total))
		}
		if warning != nil {
			r.warn(i, f, warning)
			continue
		}
		r.accept(i, f, simplified)
	}

	result := r.result()
	if len(r.features) == 0 {
		return result, &EmptyResultError{Total: total, Skipped: result.Skipped}
	}
	return result, nil
}

// simplify returns the simplified geometry, or a warning when the feature is skipped.
// Only context errors are returned as err.
func (r *run) simplify(ctx context.Context, i int, f *feature.Feature) (simplified geom.Geometry, warning error, err error) {
	var g geom.Geometry
	if f != nil {
		g = feature.Normalize(f.Geometry)
	}
	if g == nil {
		return nil, &MissingGeometryWarning{Index: i, FeatureID: featureID(f)}, nil
	}
	geometryType := feature.TypeOf(g)
	if geometryType == feature.GeometryCollection || geometryType == feature.Unknown {
		return nil, &UnsupportedGeometryWarning{Index: i, FeatureID: f.ID, GeometryType: geometryType, Err: simplify.ErrUnsupportedGeometry}, nil
	}

	simplified, err = simplify.Simplify(ctx, g, r.opts.Tolerance, r.opts.PreserveTopology)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, nil, err
	case err != nil:
		return nil, &UnsupportedGeometryWarning{Index: i, FeatureID: f.ID, GeometryType: geometryType, Err: err}, nil
	case simplified == nil || geomhelp.IsEmpty(simplified):
		return nil, &UnsupportedGeometryWarning{Index: i, FeatureID: f.ID, GeometryType: geometryType, Err: errCollapsed}, nil
	}
	return simplified, nil, nil
}

// accept builds the output feature. The first accepted feature fixes the schema.
func (r *run) accept(i int, f *feature.Feature, simplified geom.Geometry) {
	out := &feature.Feature{
		ID:         fmt.Sprintf("ID%d", i),
		Geometry:   simplified,
		CRS:        f.CRS,
		Properties: feature.CopyProperties(f.Properties),
	}
	if r.schema == nil {
		r.schema = feature.Infer(f, feature.TypeOf(simplified), f.EffectiveCRS(), r.opts.Namespace)
		namespaceURI, localName := r.schema.QName()
		r.logger.Debug().
			Str("namespace", namespaceURI).
			Str("name", localName).
			Str("geometryType", r.schema.GeometryType.String()).
			Str("crs", r.schema.CRS.String()).
			Msg("schema inferred")
		if r.register != nil {
			r.register(namespaceURI, localName)
		}
	} else if err := r.schema.Conforms(out); err != nil {
		r.warn(i, f, &IncompatibleFeatureWarning{Index: i, FeatureID: f.ID, Err: err})
		return
	}
	out.Schema = r.schema
	r.features = append(r.features, out)
}

func (r *run) warn(i int, f *feature.Feature, warning error) {
	r.warnings = append(r.warnings, warning)
	event := r.logger.Warn().Err(warning).Int("feature", i).Str("id", featureID(f))
	if f != nil && f.Geometry != nil {
		event = event.Str("geometry", geomhelp.WktMustEncode(f.Geometry, wktLogLength))
	}
	event.Msg("feature skipped")
}

func (r *run) result() Result {
	var schema *feature.Schema
	if len(r.features) > 0 {
		schema = r.features[0].Schema
	}
	return Result{
		Collection: feature.NewCollection(schema, r.features),
		Warnings:   r.warnings,
		Total:      r.total,
		Skipped:    len(r.warnings),
	}
}

func featureID(f *feature.Feature) string {
	if f == nil {
		return ""
	}
	return f.ID
}
