package domain

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuantity_AcceptsWithinStock(t *testing.T) {
	for ceiling := 0; ceiling <= 6; ceiling++ {
		for q := 0; q <= ceiling; q++ {
			got, err := ValidateQuantity(strconv.Itoa(q), ceiling)
			require.NoError(t, err, "q=%d ceiling=%d", q, ceiling)
			assert.Equal(t, q, got)
		}
	}
}

func TestValidateQuantity_RejectsAboveStock(t *testing.T) {
	for ceiling := 0; ceiling <= 5; ceiling++ {
		for _, q := range []int{ceiling + 1, ceiling + 10, 999} {
			_, err := ValidateQuantity(strconv.Itoa(q), ceiling)

			var stockErr *StockExceededError
			require.True(t, errors.As(err, &stockErr), "q=%d ceiling=%d", q, ceiling)
			assert.Equal(t, ceiling, stockErr.Ceiling)
		}
	}
}

func TestValidateQuantity_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "-1", "2.5", "1e3", "0x10", "3 4"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ValidateQuantity(raw, 100)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		})
	}
}

func TestValidateQuantity_TrimsWhitespace(t *testing.T) {
	got, err := ValidateQuantity(" 2 ", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestValidateQuantity_ZeroMeansRemoval(t *testing.T) {
	got, err := ValidateQuantity("0", 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCheckQuantity(t *testing.T) {
	assert.NoError(t, CheckQuantity(3, 3))
	assert.ErrorIs(t, CheckQuantity(-1, 3), ErrInvalidQuantity)

	var stockErr *StockExceededError
	require.ErrorAs(t, CheckQuantity(4, 3), &stockErr)
	assert.Equal(t, "only 3 left in stock", stockErr.Error())
}
