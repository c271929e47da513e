package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  int
		total int
		want  float64
	}{
		{"six of ten", 6, 10, 60.0},
		{"seven of nine", 7, 9, 77.8},
		{"zero total", 5, 0, 0},
		{"all", 3, 3, 100},
		{"one of three", 1, 3, 33.3},
		{"two of three", 2, 3, 66.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percent(tt.part, tt.total), 1e-9)
		})
	}
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 1.24, Round(1.2449, 2), 1e-9)
	assert.InDelta(t, 1.3, Round(1.25, 1), 1e-9)
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestMinInt(t *testing.T) {
	assert.Equal(t, 2, MinInt(2, 5))
	assert.Equal(t, 2, MinInt(5, 2))
}
