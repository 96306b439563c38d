// Package rational provides exact numerator/denominator representations of
// monetary values and tax rates. Values are parsed as fixed-point decimals
// and never pass through a binary floating-point intermediate.
package rational

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RegistryPrecision is the fixed denominator percent rates are scaled to,
// so repeated references to the same tax rate stay comparable.
const RegistryPrecision = 100000

// ErrMalformedAmount reports an input that is not a valid, optionally
// percent-suffixed, optionally signed decimal literal.
var ErrMalformedAmount = errors.New("malformed amount")

// Amount is an exact fraction with a positive denominator. Amounts are
// immutable; all methods return new values.
type Amount struct {
	num   int64
	denom int64
}

// Zero is the amount 0/1.
var Zero = Amount{num: 0, denom: 1}

// New builds an amount from an explicit numerator and denominator.
func New(num, denom int64) (Amount, error) {
	if denom <= 0 {
		return Amount{}, fmt.Errorf("%w: denominator %d must be positive", ErrMalformedAmount, denom)
	}
	return Amount{num: num, denom: denom}, nil
}

// MustNew is New for statically known values; it panics on a bad denominator.
func MustNew(num, denom int64) Amount {
	a, err := New(num, denom)
	if err != nil {
		panic(err)
	}
	return a
}

// FromString parses a decimal literal into an exact fraction.
//
// The literal is split into sign, significant digits and decimal exponent.
// A negative exponent becomes a power-of-ten denominator; a non-negative one
// scales the numerator. A trailing '%' divides the value by 100 and rescales
// it to RegistryPrecision when that is an integral upscale.
func FromString(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if s == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}

	coef := d.Coefficient()
	if !coef.IsInt64() {
		return Amount{}, fmt.Errorf("%w: %q exceeds 64-bit precision", ErrMalformedAmount, text)
	}
	num := coef.Int64()
	denom := int64(1)

	switch exp := int64(d.Exponent()); {
	case exp < 0:
		denom, err = pow10(-exp)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
		}
	case exp > 0:
		scale, err := pow10(exp)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
		}
		num, err = mulCheck(num, scale)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
		}
	}

	if percent {
		denom, err = mulCheck(denom, 100)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
		}
		if denom <= RegistryPrecision && RegistryPrecision%denom == 0 {
			f := RegistryPrecision / denom
			num *= f
			denom *= f
		}
	}

	return Amount{num: num, denom: denom}, nil
}

// MustParse is FromString for statically known literals; it panics on error.
func MustParse(text string) Amount {
	a, err := FromString(text)
	if err != nil {
		panic(err)
	}
	return a
}

// Num returns the numerator.
func (a Amount) Num() int64 { return a.num }

// Denom returns the denominator. The zero Amount reports denominator 1.
func (a Amount) Denom() int64 {
	if a.denom == 0 {
		return 1
	}
	return a.denom
}

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool { return a.num == 0 }

// Equal reports whether two amounts represent the same value, regardless of
// how they are scaled.
func (a Amount) Equal(b Amount) bool {
	return a.num*b.Denom() == b.num*a.Denom()
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount { return Amount{num: -a.num, denom: a.Denom()} }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a.num < 0 {
		return a.Neg()
	}
	return Amount{num: a.num, denom: a.Denom()}
}

// Add returns the exact sum of two amounts over their common denominator.
func (a Amount) Add(b Amount) Amount {
	ad, bd := a.Denom(), b.Denom()
	g := gcd(ad, bd)
	lcm := ad / g * bd
	return Amount{num: a.num*(lcm/ad) + b.num*(lcm/bd), denom: lcm}
}

// String renders the amount as an exact decimal when the denominator is a
// power of ten, and as "num/denom" otherwise. For any value produced by
// FromString from a non-percent literal, String recovers the literal's
// numeric value exactly.
func (a Amount) String() string {
	denom := a.Denom()
	if denom == 1 {
		return strconv.FormatInt(a.num, 10)
	}
	if digits, ok := pow10Digits(denom); ok {
		sign := ""
		num := a.num
		if num < 0 {
			sign = "-"
			num = -num
		}
		return fmt.Sprintf("%s%d.%0*d", sign, num/denom, digits, num%denom)
	}
	return fmt.Sprintf("%d/%d", a.num, denom)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// pow10 returns 10^exp, rejecting exponents an int64 cannot hold.
func pow10(exp int64) (int64, error) {
	if exp < 0 || exp > 18 {
		return 0, fmt.Errorf("exponent %d out of range", exp)
	}
	n := int64(1)
	for i := int64(0); i < exp; i++ {
		n *= 10
	}
	return n, nil
}

// pow10Digits reports how many decimal digits n covers when n is a power of
// ten greater than one.
func pow10Digits(n int64) (int, bool) {
	digits := 0
	for n > 1 {
		if n%10 != 0 {
			return 0, false
		}
		n /= 10
		digits++
	}
	return digits, true
}

func mulCheck(a, b int64) (int64, error) {
	r := a * b
	if a != 0 && r/a != b {
		return 0, fmt.Errorf("overflow multiplying %d by %d", a, b)
	}
	return r, nil
}
