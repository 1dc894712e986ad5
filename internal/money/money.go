// Package money provides an immutable decimal amount bound to a currency.
//
// Amounts always carry exactly two fractional digits. Every operation rounds
// its result half-to-even, and arithmetic across currencies is rejected.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Scale is the number of fractional digits every Money carries.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is an amount of a single currency. The zero value is not valid;
// build values with New, NewRounded, Parse or Zero.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds a Money, rejecting amounts with more than two fractional digits.
func New(amount decimal.Decimal, code string) (Money, error) {
	if !amount.Equal(amount.Truncate(Scale)) {
		return Money{}, ErrInvalidAmount.Wrap(fmt.Errorf("got %s", amount.String()))
	}
	return build(amount, code)
}

// NewRounded builds a Money, rounding the amount half-to-even to two digits.
func NewRounded(amount decimal.Decimal, code string) (Money, error) {
	return build(amount, code)
}

// FromPtr is New for optional amounts; a nil amount fails ErrAmountRequired.
func FromPtr(amount *decimal.Decimal, code string) (Money, error) {
	if amount == nil {
		return Money{}, ErrAmountRequired
	}
	return New(*amount, code)
}

// Parse builds a Money from its decimal string form.
func Parse(amount, code string) (Money, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Money{}, ErrAmountRequired
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, ErrInvalidAmount.WithMessage("amount is not a decimal number").Wrap(err)
	}
	return New(d, code)
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(amount, code string) Money {
	m, err := Parse(amount, code)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount of the given currency.
func Zero(code string) (Money, error) {
	return build(decimal.Zero, code)
}

func build(amount decimal.Decimal, code string) (Money, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return Money{}, ErrInvalidCurrency.Wrap(err)
	}
	return Money{amount: amount.RoundBank(Scale), currency: unit.String()}, nil
}

func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount.RoundBank(Scale), currency: m.currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO-4217 code.
func (m Money) Currency() string { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return ErrCurrencyMismatch.Wrap(fmt.Errorf("%s vs %s", m.currency, o.currency))
	}
	return nil
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(o.amount)), nil
}

// Subtract fails ErrNegativeResult instead of going below zero.
func (m Money) Subtract(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(o.amount)
	if result.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return m.with(result), nil
}

func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, ErrNegativeMultiplier
	}
	return m.with(m.amount.Mul(factor)), nil
}

// Divide fails ErrInvalidDivisor for a zero divisor.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrInvalidDivisor
	}
	return m.with(m.amount.DivRound(divisor, 16)), nil
}

// Percentage returns pct percent of m.
func (m Money) Percentage(pct decimal.Decimal) (Money, error) {
	if pct.IsNegative() {
		return Money{}, ErrNegativeMultiplier
	}
	return m.with(m.amount.Mul(pct).DivRound(hundred, 16)), nil
}

// Round rounds half-to-even to scale digits. Scales above two are clamped.
func (m Money) Round(scale int32) Money {
	if scale > Scale {
		scale = Scale
	}
	return Money{amount: m.amount.RoundBank(scale), currency: m.currency}
}

func (m Money) Abs() Money    { return m.with(m.amount.Abs()) }
func (m Money) Negate() Money { return m.with(m.amount.Neg()) }

// Compare returns -1, 0 or 1.
func (m Money) Compare(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.amount.Cmp(o.amount), nil
}

func (m Money) IsGreaterThan(o Money) (bool, error) {
	c, err := m.Compare(o)
	return c > 0, err
}

func (m Money) IsLessThan(o Money) (bool, error) {
	c, err := m.Compare(o)
	return c < 0, err
}

func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

// String renders "100.00 IDR".
func (m Money) String() string {
	return m.amount.StringFixed(Scale) + " " + m.currency
}

// Format renders the amount with the currency symbol and the number
// separators of the given language.
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(m.currency)
	if err != nil {
		return m.String()
	}
	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.Symbol(unit))

	// The digits come from the exact decimal string; only the integer
	// grouping and the separators are taken from the locale.
	whole, frac, _ := strings.Cut(m.amount.Abs().StringFixed(Scale), ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = p.Sprint(number.Decimal(n))
	}
	if n, err := strconv.ParseInt(frac, 10, 64); err == nil {
		frac = p.Sprint(number.Decimal(n, number.MinIntegerDigits(int(Scale)), number.NoSeparator()))
	}
	sign := ""
	if m.amount.IsNegative() {
		sign = "-"
	}
	return symbol + " " + sign + whole + decimalSeparator(p) + frac
}

func decimalSeparator(p *message.Printer) string {
	r := []rune(p.Sprint(number.Decimal(1.5, number.Scale(1))))
	if len(r) < 3 {
		return "."
	}
	return string(r[1 : len(r)-1])
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(Scale), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
