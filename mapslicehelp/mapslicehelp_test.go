package mapslicehelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestAsKeys(t *testing.T) {
	keys := AsKeys([]string{"a", "b", "a"})
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "a")
	assert.Contains(t, keys, "b")
}

func TestOrderedMapKeys(t *testing.T) {
	m := orderedmap.New[string, int]()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, OrderedMapKeys(m))
}

func TestDeleteFromSliceByIndex(t *testing.T) {
	tests := []struct {
		name    string
		s       []int
		indexes map[int]struct{}
		offset  int
		want    []int
	}{
		{name: "nothing", s: []int{1, 2, 3}, indexes: nil, want: []int{1, 2, 3}},
		{name: "middle", s: []int{1, 2, 3}, indexes: map[int]struct{}{1: {}}, want: []int{1, 3}},
		{name: "with offset", s: []int{1, 2, 3}, indexes: map[int]struct{}{11: {}, 12: {}}, offset: 10, want: []int{1}},
		{name: "all", s: []int{1, 2}, indexes: map[int]struct{}{0: {}, 1: {}}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeleteFromSliceByIndex(tt.s, tt.indexes, tt.offset))
		})
	}
}
