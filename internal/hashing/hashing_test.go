package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, Digest("a@b.com"), Digest(" A@B.com "))
	assert.Equal(t, Digest("a@b.com"), Digest("A@B.COM"))
}

func TestDigest_Deterministic(t *testing.T) {
	assert.Equal(t, Digest("x@y.com"), Digest("x@y.com"))
	assert.NotEqual(t, Digest("x@y.com"), Digest("y@x.com"))
}

func TestDigest_NeverReturnsRawInput(t *testing.T) {
	for _, in := range []string{"a@b.com", "john", "1", " padded "} {
		out := Digest(in)
		assert.NotEqual(t, in, out)
		assert.Len(t, out, 64)
	}
}

func TestDigest_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Digest(""))
	assert.Equal(t, "", Digest("   "))
}
