package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{name: "alpha"}))
	require.NoError(t, r.Register(&fakeProvider{name: "beta"}))

	p, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", p.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{name: "alpha"}))
	assert.Error(t, r.Register(&fakeProvider{name: "alpha"}))
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(&fakeProvider{name: name}))
	}

	var names []string
	for _, p := range r.List() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestRegistry_OrderedSkipsUnknown(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeProvider{name: "alpha"}))
	require.NoError(t, r.Register(&fakeProvider{name: "beta"}))

	ordered := r.Ordered([]string{"beta", "ghost", "alpha"})
	require.Len(t, ordered, 2)
	assert.Equal(t, "beta", ordered[0].Name())
	assert.Equal(t, "alpha", ordered[1].Name())
}
