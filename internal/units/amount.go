// Package units converts between decimal ether strings and 18-decimal base
// units.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const Decimals = 18

var (
	ErrEmptyAmount    = errors.New("amount is empty")
	ErrNegativeAmount = errors.New("amount is negative")
	ErrTooPrecise     = errors.New("amount has more than 18 decimals")
	ErrTooLarge       = errors.New("amount does not fit in uint256")
)

// plainDecimal is digits with an optional fraction; no exponent.
var plainDecimal = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount turns a decimal string such as "1.5" into base units.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyAmount
	}
	if !plainDecimal.MatchString(s) {
		return nil, fmt.Errorf("invalid amount %q: not a plain decimal", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	base := scaled.BigInt()
	if base.BitLen() > 256 {
		return nil, ErrTooLarge
	}
	return base, nil
}

// FormatAmount renders base units as a decimal string without trailing zeros.
func FormatAmount(base *big.Int) string {
	if base == nil {
		return "0"
	}
	return decimal.NewFromBigInt(base, -Decimals).String()
}
