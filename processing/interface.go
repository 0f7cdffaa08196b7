package processing

import (
	"github.com/pdok/generalize/feature"
)

// Collection is the input of Process: a sized, forward-only sequence of features.
type Collection interface {
	Len() int
	Features() feature.Iterator
}

// ProgressFunc receives the percentage of processed input features.
type ProgressFunc func(percent int)

// RegisterSchemaFunc publishes the identity of the inferred output schema.
type RegisterSchemaFunc func(namespaceURI, localName string)

// Source provides the layers (tables, files) to simplify.
type Source interface {
	Layers() ([]string, error)
	ReadFeatures(layer string) (*feature.Collection, error)
}

// Target stores a simplified layer.
type Target interface {
	WriteFeatures(layer string, collection *feature.Collection) error
}
