// Package units converts between human-readable decimal token amounts and
// on-chain integer amounts in the token's smallest unit.
package units

import (
	"math/big"
	"strings"

	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/shopspring/decimal"
)

// MaxBits is the width of a uint256 ABI argument. Larger amounts cannot be encoded.
const MaxBits = 256

// ParseUnits converts a human decimal string to smallest-unit integer: human * 10^decimals.
// Amounts with more fractional digits than decimals are rejected rather than rounded.
func ParseUnits(human string, decimals uint8) (*big.Int, error) {
	amount, err := parseDecimal(human)
	if err != nil {
		return nil, err
	}

	scaled := amount.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, swaperrors.Newf(swaperrors.KindInvalidAmount, "amount %q has more than %d fractional digits", human, decimals)
	}

	value := scaled.BigInt()
	if value.BitLen() > MaxBits {
		return nil, swaperrors.Newf(swaperrors.KindInvalidAmount, "amount %q does not fit in %d bits", human, MaxBits)
	}
	return value, nil
}

// ParsePositiveUnits is ParseUnits that also rejects zero and negative amounts.
func ParsePositiveUnits(human string, decimals uint8) (*big.Int, error) {
	if err := ValidatePositive(human); err != nil {
		return nil, err
	}
	return ParseUnits(human, decimals)
}

// ValidatePositive checks that human is a plain positive decimal number.
// It needs no token decimals, so callers can reject bad input before any chain read.
func ValidatePositive(human string) error {
	amount, err := parseDecimal(human)
	if err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return swaperrors.Newf(swaperrors.KindInvalidAmount, "amount %q must be positive", human)
	}
	return nil
}

// parseDecimal accepts plain decimal notation only. Exponents are refused so that
// the digit count, and with it the work done by Shift and BigInt, stays bounded by the input length.
func parseDecimal(human string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(human)
	if trimmed == "" {
		return decimal.Decimal{}, swaperrors.Newf(swaperrors.KindInvalidAmount, "amount is empty")
	}
	if strings.ContainsAny(trimmed, "eE") {
		return decimal.Decimal{}, swaperrors.Newf(swaperrors.KindInvalidAmount, "amount %q uses exponent notation", human)
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, swaperrors.Newf(swaperrors.KindInvalidAmount, "amount %q is not a number", human)
	}
	return amount, nil
}

// FormatUnits converts a smallest-unit integer to a human decimal string without trailing zeros.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
