package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		v, err := Generate("shelf")
		require.NoError(t, err)
		assert.False(t, ids[v], "ID should be unique: %s", v)
		ids[v] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Prefix(t *testing.T) {
	for _, prefix := range []string{"shelf", "tagkey", "tagval", "book", "user"} {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			// Default NanoID length is 21.
			assert.Len(t, v, len(prefix)+1+21)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		v := MustGenerate("book")
		assert.True(t, strings.HasPrefix(v, "book-"))
	})
}

func TestNewUUID(t *testing.T) {
	v := NewUUID()
	parsed, err := uuid.Parse(v)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, v, NewUUID())
}
