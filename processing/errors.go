package processing

import (
	"fmt"

	"github.com/pdok/generalize/feature"
)

// InvalidParameterError aborts a run before any feature is touched.
type InvalidParameterError struct {
	Parameter string
	Value     any
	Err       error
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %v", e.Parameter, e.Value, e.Err)
}

func (e *InvalidParameterError) Unwrap() error {
	return e.Err
}

// EmptyResultError is returned when every input feature was skipped.
type EmptyResultError struct {
	Total   int
	Skipped int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no output features: %d of %d input features skipped", e.Skipped, e.Total)
}

// UnsupportedGeometryWarning records a feature skipped because its geometry could not be simplified,
// e.g. a geometry collection or a geometry that collapsed entirely.
type UnsupportedGeometryWarning struct {
	Index        int
	FeatureID    string
	GeometryType feature.GeometryType
	Err          error
}

func (w *UnsupportedGeometryWarning) Error() string {
	return fmt.Sprintf("feature %d (%s): unsupported %s geometry skipped: %v", w.Index, w.FeatureID, w.GeometryType, w.Err)
}

func (w *UnsupportedGeometryWarning) Unwrap() error {
	return w.Err
}

// MissingGeometryWarning records a feature skipped because it has no geometry.
type MissingGeometryWarning struct {
	Index     int
	FeatureID string
}

func (w *MissingGeometryWarning) Error() string {
	return fmt.Sprintf("feature %d (%s): no geometry, skipped", w.Index, w.FeatureID)
}

// IncompatibleFeatureWarning records a feature skipped because it does not fit the
// schema fixed by the first processed feature.
type IncompatibleFeatureWarning struct {
	Index     int
	FeatureID string
	Err       error
}

func (w *IncompatibleFeatureWarning) Error() string {
	return fmt.Sprintf("feature %d (%s): does not conform to schema, skipped: %v", w.Index, w.FeatureID, w.Err)
}

func (w *IncompatibleFeatureWarning) Unwrap() error {
	return w.Err
}
