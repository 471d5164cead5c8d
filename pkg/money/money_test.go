package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Cents
	}{
		{"10.00", 1000},
		{"5", 500},
		{" 19.99 ", 1999},
		{"0.005", 1},
		{"0", 0},
		{"1234.5", 123450},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("ten dollars")
	require.Error(t, err)
}

func TestFromFloat_NoDrift(t *testing.T) {
	assert.Equal(t, Cents(1999), FromFloat(19.99))
	assert.Equal(t, Cents(30), FromFloat(0.1+0.2))
	assert.Equal(t, Cents(1000), FromFloat(10))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$25.00", Cents(2500).Format())
	assert.Equal(t, "$0.00", Cents(0).Format())
	assert.Equal(t, "$0.05", Cents(5).Format())
	assert.Equal(t, "-$1.50", Cents(-150).Format())
	assert.Equal(t, "30.00", Cents(3000).String())
}

func TestMulAndDecimal(t *testing.T) {
	assert.Equal(t, Cents(2000), Cents(1000).Mul(2))
	assert.True(t, decimal.RequireFromString("12.34").Equal(Cents(1234).Decimal()))
}

func TestAmount_JSON(t *testing.T) {
	var v struct {
		Price Amount `json:"price"`
		Other Amount `json:"other"`
		Null  Amount `json:"null"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price": 10.5, "other": "4.99", "null": null}`), &v))
	assert.Equal(t, Cents(1050), v.Price.Cents)
	assert.Equal(t, Cents(499), v.Other.Cents)
	assert.Equal(t, Cents(0), v.Null.Cents)

	out, err := json.Marshal(Amount{Cents: 2500})
	require.NoError(t, err)
	assert.Equal(t, "25.00", string(out))
}

func TestAmount_JSON_Invalid(t *testing.T) {
	var a Amount
	require.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
}
