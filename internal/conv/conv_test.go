package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsKey(t *testing.T) {
	// A numeric id round-tripped through JSON comes back as float64; both
	// representations must normalize to the same key.
	assert.Equal(t, "7", AsKey(7))
	assert.Equal(t, "7", AsKey(float64(7)))
	assert.Equal(t, "7", AsKey(int64(7)))
	assert.Equal(t, "7", AsKey("7"))
	assert.Equal(t, "call-1", AsKey("call-1"))
	assert.Equal(t, "", AsKey(nil))
}

func TestAsInt(t *testing.T) {
	n, ok := AsInt(float64(42))
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = AsInt("not a number")
	assert.False(t, ok)
}
