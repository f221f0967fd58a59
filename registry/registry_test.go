package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterGet(t *testing.T) {
	r := New[int]()

	require.NoError(t, r.Register("a", 1))
	require.NoError(t, r.Register("b", 2))

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsEmptyNameAndDuplicates(t *testing.T) {
	r := New[string]()

	require.Error(t, r.Register("", "x"))
	require.NoError(t, r.Register("dup", "x"))
	require.Error(t, r.Register("dup", "y"))
}

func TestRegistryNamesSorted(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("charlie", 3))
	require.NoError(t, r.Register("alpha", 1))
	require.NoError(t, r.Register("bravo", 2))

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, r.Names())
	assert.Equal(t, []int{1, 2, 3}, r.List())
}

func TestRegistryRemoveCountClear(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("a", 1))
	require.NoError(t, r.Register("b", 2))
	assert.Equal(t, 2, r.Count())

	require.NoError(t, r.Remove("a"))
	assert.Equal(t, 1, r.Count())
	require.Error(t, r.Remove("a"))

	r.Clear()
	assert.Equal(t, 0, r.Count())
}
