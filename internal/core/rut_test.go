package core_test

import (
	"testing"

	"moveflow/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRUTDeduction(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"zero subtotal", 0, 0},
		{"twelve thousand", 12000, 4200}, // 12000 × 0.7 × 0.5
		{"ten thousand", 10000, 3500},
		{"hits per-job cap", 100000, 25000},  // 35000 uncapped
		{"just under the cap", 71420, 24997}, // 71420 × 0.35 = 24997 exactly
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.RUTDeduction(tt.subtotal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRUTDeduction_NegativeSubtotalRejected(t *testing.T) {
	_, err := core.RUTDeduction(-1)
	assert.ErrorIs(t, err, core.ErrNegativeSubtotal)
}

func TestRUTDeduction_NeverExceedsCap(t *testing.T) {
	for subtotal := int64(0); subtotal <= 500000; subtotal += 7321 {
		got, err := core.RUTDeduction(subtotal)
		require.NoError(t, err)
		assert.LessOrEqual(t, got, int64(25000), "subtotal %d", subtotal)
	}
}

func TestRUTDeductionFlat(t *testing.T) {
	got, err := core.RUTDeductionFlat(1600)
	require.NoError(t, err)
	assert.Equal(t, int64(800), got)

	got, err = core.RUTDeductionFlat(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = core.RUTDeductionFlat(-500)
	assert.ErrorIs(t, err, core.ErrNegativeSubtotal)
}
