package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoursToDuration(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		want  time.Duration
	}{
		{name: "fraction", hours: 0.5, want: 30 * time.Minute},
		{name: "zero", hours: 0, want: 0},
		{name: "beyond duration range", hours: 3e6, want: time.Duration(math.MaxInt64)},
		{name: "infinite", hours: math.Inf(1), want: time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hoursToDuration(tt.hours)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, time.Duration(0))
		})
	}
}
