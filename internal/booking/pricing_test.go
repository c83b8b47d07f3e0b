package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPricing(t *testing.T) {
	tests := []struct {
		name         string
		base, total  int64
		wantTotal    int64
		wantDiscount int64
	}{
		{"no base price", 0, 120000, 120000, 0},
		{"below base", 150000, 100000, 100000, 50000},
		{"at base", 150000, 150000, 150000, 0},
		{"above base is clamped", 150000, 180000, 150000, 0},
		{"free", 150000, 0, 0, 150000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, discount := ApplyPricing(tt.base, tt.total)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantDiscount, discount)
		})
	}
}
