package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"LitRPG", "litrpg"},
		{"Sci-Fi / Fantasy", "sci-fi-fantasy"},
		{"Café Reads", "cafe-reads"},
		{"  --Combined--  ", "combined"},
		{"A   B", "a-b"},
		{"日本語", ""},
		{"Want to Read", "want-to-read"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMake_Truncates(t *testing.T) {
	got := Make(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.True(t, Valid(got), "truncated slug should stay well formed: %q", got)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("fiction"))
	assert.True(t, Valid("science-fiction"))
	assert.True(t, Valid("top-10"))

	assert.False(t, Valid(""))
	assert.False(t, Valid("Fiction"))
	assert.False(t, Valid("-fiction"))
	assert.False(t, Valid("fiction--fantasy"))
	assert.False(t, Valid("fiction/fantasy"))
	assert.False(t, Valid(".."))
	assert.False(t, Valid(strings.Repeat("a", MaxLength+1)))
}
