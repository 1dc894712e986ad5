package rail

import (
	"fmt"

	"railpay/internal/models"
	"railpay/internal/money"

	"github.com/shopspring/decimal"
)

// Limit bounds the amount of a single transfer. A zero bound is open.
type Limit struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

type Limits map[models.RailType]Limit

func DefaultLimits() Limits {
	return Limits{
		models.RailBIFAST: {Max: decimal.NewFromInt(250_000_000)},
		models.RailSKN:    {Max: decimal.NewFromInt(1_000_000_000)},
		models.RailRTGS:   {Min: decimal.RequireFromString("100000000.01")},
		models.RailQRIS:   {Max: decimal.NewFromInt(10_000_000)},
	}
}

// WithOverrides replaces the maximum of each rail present in maxByRail.
// Empty or unparsable values are ignored; RTGS overrides its minimum.
func (l Limits) WithOverrides(maxByRail map[string]string) Limits {
	out := make(Limits, len(l))
	for k, v := range l {
		out[k] = v
	}
	for rail, raw := range maxByRail {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		rt := models.RailType(rail)
		lim := out[rt]
		if rt == models.RailRTGS {
			lim.Min = d
		} else {
			lim.Max = d
		}
		out[rt] = lim
	}
	return out
}

func (l Limits) Check(rail models.RailType, amount money.Money) error {
	lim, ok := l[rail]
	if !ok {
		return nil
	}
	a := amount.Amount()
	if !lim.Min.IsZero() && a.LessThan(lim.Min) {
		return ErrAmountOutOfRange.WithMessage(fmt.Sprintf("%s requires at least %s", rail, lim.Min.StringFixed(2)))
	}
	if !lim.Max.IsZero() && a.GreaterThan(lim.Max) {
		return ErrAmountOutOfRange.WithMessage(fmt.Sprintf("%s allows at most %s", rail, lim.Max.StringFixed(2)))
	}
	return nil
}
