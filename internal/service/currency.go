package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"eshop/internal/entity"
)

// RateTable converts between the canonical currency prices are stored in and
// display currencies. A rate is the number of display units per canonical unit.
type RateTable struct {
	canonical string
	rates     map[string]decimal.Decimal
}

func NewRateTable(canonical string, rates map[string]string) (*RateTable, error) {
	t := &RateTable{
		canonical: canonical,
		rates:     map[string]decimal.Decimal{canonical: decimal.NewFromInt(1)},
	}
	for code, raw := range rates {
		if code == canonical {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("currency %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("currency %s: rate must be positive, got %s", code, raw)
		}
		t.rates[code] = rate
	}
	return t, nil
}

func (t *RateTable) Canonical() string {
	return t.canonical
}

// Resolve returns the currency code to use; empty means canonical.
func (t *RateTable) Resolve(code string) (string, error) {
	if code == "" {
		return t.canonical, nil
	}
	if _, ok := t.rates[code]; !ok {
		return "", fmt.Errorf("%w: unsupported currency %q", entity.ErrValidation, code)
	}
	return code, nil
}

// ToDisplay converts a canonical price into code, rounded to cents. Canonical
// prices are returned untouched.
func (t *RateTable) ToDisplay(price float64, code string) (float64, error) {
	code, err := t.Resolve(code)
	if err != nil {
		return 0, err
	}
	if code == t.canonical {
		return price, nil
	}
	out, _ := decimal.NewFromFloat(price).Mul(t.rates[code]).Round(2).Float64()
	return out, nil
}

// ToCanonical is the inverse of ToDisplay.
func (t *RateTable) ToCanonical(price float64, code string) (float64, error) {
	code, err := t.Resolve(code)
	if err != nil {
		return 0, err
	}
	if code == t.canonical {
		return price, nil
	}
	out, _ := decimal.NewFromFloat(price).Div(t.rates[code]).Round(4).Float64()
	return out, nil
}
