package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectionType_Valid(t *testing.T) {
	tests := []struct {
		name string
		ct   CollectionType
		want bool
	}{
		{"custom", CollectionCustom, true},
		{"reading status", CollectionReadingStatus, true},
		{"set operation", CollectionSetOperation, true},
		{"empty", "", false},
		{"unknown", "smart", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ct.Valid())
		})
	}
}

func TestDefaultStatusShelves(t *testing.T) {
	shelves := DefaultStatusShelves()

	slugs := make([]string, len(shelves))
	for i, s := range shelves {
		slugs[i] = s.Slug
		assert.NotEmpty(t, s.Name)
	}
	assert.Equal(t, []string{"want-to-read", "currently-reading", "read"}, slugs)
}

func TestDefaultStatusShelves_ReturnsCopy(t *testing.T) {
	first := DefaultStatusShelves()
	first[0].Slug = "changed"

	assert.Equal(t, "want-to-read", DefaultStatusShelves()[0].Slug)
}
