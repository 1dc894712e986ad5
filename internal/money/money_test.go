package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func idr(s string) Money { return MustParse(s, "IDR") }

func TestNew_RejectsExtraFractionDigits(t *testing.T) {
	_, err := New(decimal.RequireFromString("10.505"), "IDR")
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	m, err := New(decimal.RequireFromString("10.500"), "IDR")
	require.NoError(t, err)
	assert.Equal(t, "10.50", m.Amount().StringFixed(2))
}

func TestNewRounded_HalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.505", "10.50"},
		{"10.515", "10.52"},
		{"10.525", "10.52"},
		{"-1.005", "-1.00"},
	}
	for _, tt := range tests {
		m, err := NewRounded(decimal.RequireFromString(tt.in), "IDR")
		require.NoError(t, err)
		assert.Equal(t, tt.want, m.Amount().StringFixed(2), tt.in)
	}
}

func TestConstruction_Failures(t *testing.T) {
	_, err := FromPtr(nil, "IDR")
	assert.True(t, errors.Is(err, ErrAmountRequired))

	_, err = Parse("", "IDR")
	assert.True(t, errors.Is(err, ErrAmountRequired))

	_, err = Parse("abc", "IDR")
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = Parse("1.00", "NOPE")
	assert.True(t, errors.Is(err, ErrInvalidCurrency))
}

func TestAdd_PreservesScale(t *testing.T) {
	sum, err := idr("100000.50").Add(idr("0.50"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(idr("100001.00")))
	assert.Equal(t, "100001.00 IDR", sum.String())

	sum, err = idr("0.10").Add(idr("0.20"))
	require.NoError(t, err)
	assert.Equal(t, "0.30", sum.Amount().StringFixed(2))
}

func TestSubtract(t *testing.T) {
	diff, err := idr("100.00").Subtract(idr("99.99"))
	require.NoError(t, err)
	assert.True(t, diff.Equal(idr("0.01")))

	_, err = idr("1.00").Subtract(idr("1.01"))
	assert.True(t, errors.Is(err, ErrNegativeResult))
}

func TestCurrencyMismatch(t *testing.T) {
	usd := MustParse("1.00", "USD")

	_, err := idr("1.00").Add(usd)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = idr("1.00").Subtract(usd)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = idr("1.00").IsGreaterThan(usd)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = idr("1.00").IsLessThan(usd)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestMultiplyDividePercentage(t *testing.T) {
	m, err := idr("10.00").Multiply(decimal.RequireFromString("0.125"))
	require.NoError(t, err)
	assert.Equal(t, "1.25", m.Amount().StringFixed(2))

	_, err = idr("10.00").Multiply(decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, ErrNegativeMultiplier))

	m, err = idr("10.00").Divide(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "3.33", m.Amount().StringFixed(2))

	_, err = idr("10.00").Divide(decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidDivisor))

	m, err = idr("10.00").Divide(decimal.NewFromInt(-4))
	require.NoError(t, err)
	assert.Equal(t, "-2.50", m.Amount().StringFixed(2))

	m, err = idr("250000.00").Percentage(decimal.RequireFromString("0.7"))
	require.NoError(t, err)
	assert.Equal(t, "1750.00", m.Amount().StringFixed(2))

	_, err = idr("1.00").Percentage(decimal.NewFromInt(-5))
	assert.True(t, errors.Is(err, ErrNegativeMultiplier))
}

func TestRoundAbsNegate(t *testing.T) {
	assert.Equal(t, "2", idr("2.50").Round(0).Amount().String())
	assert.Equal(t, "4", idr("3.50").Round(0).Amount().String())

	neg := idr("5.00").Negate()
	assert.True(t, neg.IsNegative())
	assert.True(t, neg.Abs().Equal(idr("5.00")))
}

func TestCompare(t *testing.T) {
	gt, err := idr("2.00").IsGreaterThan(idr("1.99"))
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := idr("2.00").IsLessThan(idr("1.99"))
	require.NoError(t, err)
	assert.False(t, lt)

	c, err := idr("2.00").Compare(idr("2.00"))
	require.NoError(t, err)
	assert.Zero(t, c)
}

func TestFormat(t *testing.T) {
	out := MustParse("1234.5", "USD").Format(language.English)
	assert.Contains(t, out, "$")
	assert.Contains(t, out, "1,234.50")

	big := MustParse("12345678901234567.89", "USD").Format(language.English)
	assert.Contains(t, big, "12,345,678,901,234,567.89")

	assert.Contains(t, MustParse("-0.05", "USD").Format(language.English), "-0.05")
	assert.Contains(t, MustParse("1234.5", "EUR").Format(language.German), "1.234,50")
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(idr("12.30"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.30","currency":"IDR"}`, string(b))

	var m Money
	require.Error(t, json.Unmarshal([]byte(`{"amount":"1.234","currency":"IDR"}`), &m))
}
