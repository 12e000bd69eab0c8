package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of fraction digits shown for amounts
const DisplayPlaces = 6

// ToBaseUnits converts a human amount ("1.5") into an integer string in the
// token's smallest unit. Digits beyond the token precision are truncated.
func ToBaseUnits(amount string, decimals int32) (string, error) {
	amount = strings.TrimSpace(amount)
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return "", fmt.Errorf("amount must be positive, got %s", amount)
	}
	if decimals < 0 {
		return "", fmt.Errorf("invalid decimals %d", decimals)
	}

	base := d.Shift(decimals).Truncate(0)
	if !base.IsPositive() {
		return "", fmt.Errorf("amount %s is smaller than the token precision", amount)
	}
	return base.String(), nil
}

// FromBaseUnits returns the decimal value of a base-unit integer string
func FromBaseUnits(base string, decimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(base))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base amount %q: %w", base, err)
	}
	return d.Shift(-decimals), nil
}

// FormatUnits renders a base-unit amount with DisplayPlaces fraction digits
func FormatUnits(base string, decimals int32) (string, error) {
	d, err := FromBaseUnits(base, decimals)
	if err != nil {
		return "", err
	}
	return d.StringFixed(DisplayPlaces), nil
}
