package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kobo is an amount of Nigerian naira expressed in its minor unit.
// All balances and transaction amounts are held in kobo; naira only appears
// at the edges (API input, Flutterwave payloads, user-facing messages).
type Kobo int64

const KoboPerNaira Kobo = 100

// FromNaira converts a naira amount into kobo, rounding to the nearest kobo.
func FromNaira(naira float64) Kobo {
	return Kobo(math.Round(naira * float64(KoboPerNaira)))
}

// ParseNaira parses a decimal naira string such as "5000", "5,000" or "2150.50".
func ParseNaira(s string) (Kobo, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₦"))
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromNaira(v), nil
}

// Naira returns the amount in major units.
func (k Kobo) Naira() float64 {
	return float64(k) / float64(KoboPerNaira)
}

// String formats the amount the way the portal shows it: ₦5,000 or ₦2,150.50.
func (k Kobo) String() string {
	sign := ""
	v := int64(k)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / int64(KoboPerNaira)
	frac := v % int64(KoboPerNaira)

	// Printers are not shared across goroutines.
	p := message.NewPrinter(language.English)
	if frac != 0 {
		return p.Sprintf("%s₦%d.%02d", sign, whole, frac)
	}
	return p.Sprintf("%s₦%d", sign, whole)
}
