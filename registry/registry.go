// Package registry keeps track of the schemas published by simplification runs.
package registry

import (
	"strings"
	"sync"

	"github.com/umpc/go-sortedmap"
)

// QName identifies a registered schema.
type QName struct {
	Namespace string
	Local     string
}

func (q QName) String() string {
	return "{" + q.Namespace + "}" + q.Local
}

// Registry is an idempotent, ordered set of schema names. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	schemas *sortedmap.SortedMap
}

func New() *Registry {
	return &Registry{
		schemas: sortedmap.New(0, func(x, y interface{}) bool {
			a, b := x.(QName), y.(QName)
			if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
				return c < 0
			}
			return a.Local < b.Local
		}),
	}
}

// Register adds the schema name. Registering the same name again is a no-op.
// It matches processing.RegisterSchemaFunc.
func (r *Registry) Register(namespaceURI, localName string) {
	q := QName{Namespace: namespaceURI, Local: localName}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas.Insert(q.String(), q)
}

// Has reports whether the name was registered.
func (r *Registry) Has(namespaceURI, localName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schemas.Has(QName{Namespace: namespaceURI, Local: localName}.String())
}

// Len is the number of distinct registered names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schemas.Len()
}

// Registered lists the names ordered by namespace, then local name.
func (r *Registry) Registered() []QName {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.schemas.Keys()
	m := r.schemas.Map()
	names := make([]QName, 0, len(keys))
	for _, key := range keys {
		names = append(names, m[key].(QName))
	}
	return names
}
