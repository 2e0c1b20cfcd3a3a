package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	s := New(nil, nil, Config{})

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 100, 0},
		{"negative limit falls back to default", -5, 0, 100, 0},
		{"limit above cap is clamped", 1000, 0, 500, 0},
		{"negative offset is clamped to zero", 50, -1, 50, 0},
		{"in-range values pass through", 50, 20, 50, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := s.page(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
