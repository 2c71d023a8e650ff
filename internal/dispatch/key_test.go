package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeySetBasics(t *testing.T) {
	s := NewKeySet(KeyBackend, KeyCompositeView)

	assert.True(t, s.Has(KeyBackend))
	assert.True(t, s.Has(KeyCompositeView))
	assert.False(t, s.Has(KeyAutograd))
	assert.False(t, s.Empty())
	assert.True(t, KeySet(0).Empty())
}

func TestKeySetAddRemoveImmutable(t *testing.T) {
	s := NewKeySet(KeyBackend)

	s2 := s.Add(KeyAutograd)
	assert.False(t, s.Has(KeyAutograd), "Add must not mutate the receiver")
	assert.True(t, s2.Has(KeyAutograd))

	s3 := s2.Remove(KeyAutograd)
	assert.True(t, s2.Has(KeyAutograd), "Remove must not mutate the receiver")
	assert.False(t, s3.Has(KeyAutograd))
	assert.True(t, s3.Has(KeyBackend))
}

func TestKeySetHighest(t *testing.T) {
	_, ok := KeySet(0).Highest()
	assert.False(t, ok)

	k, ok := NewKeySet(KeyBackend).Highest()
	assert.True(t, ok)
	assert.Equal(t, KeyBackend, k)

	// CompositeView outranks Backend and Autograd.
	k, ok = NewKeySet(KeyBackend, KeyAutograd, KeyCompositeView).Highest()
	assert.True(t, ok)
	assert.Equal(t, KeyCompositeView, k)
}

func TestKeySetBelow(t *testing.T) {
	s := NewKeySet(KeyBackend, KeyAutograd, KeyCompositeView)

	reduced := s.Below(KeyCompositeView)
	assert.False(t, reduced.Has(KeyCompositeView), "Below must strip the named key")
	assert.True(t, reduced.Has(KeyAutograd))
	assert.True(t, reduced.Has(KeyBackend))

	// Below strips everything at or above the named key.
	reduced = s.Below(KeyAutograd)
	assert.False(t, reduced.Has(KeyCompositeView))
	assert.False(t, reduced.Has(KeyAutograd))
	assert.True(t, reduced.Has(KeyBackend))

	assert.True(t, s.Below(KeyBackend).Empty())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Backend", KeyBackend.String())
	assert.Equal(t, "CompositeView", KeyCompositeView.String())
	assert.Equal(t, "{Backend|CompositeView}", NewKeySet(KeyBackend, KeyCompositeView).String())
}

func TestKeyFromString(t *testing.T) {
	k, err := KeyFromString("CompositeView")
	assert.NoError(t, err)
	assert.Equal(t, KeyCompositeView, k)

	_, err = KeyFromString("NoSuchKey")
	assert.Error(t, err)
}
