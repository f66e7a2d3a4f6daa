// Package ratutil provides exact rational arithmetic helpers on top of math/big.
//
// All throughput accounting is done on *big.Rat so that repeated divisions by
// recipe time costs never accumulate floating point drift. Values are only
// rounded when they are reported.
package ratutil

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/iwvelando/craft-balancer/pkg/constants"
)

// Zero returns a new rational equal to 0.
func Zero() *big.Rat {
	return new(big.Rat)
}

// New returns a new rational a/b. It panics if b is zero, like big.NewRat.
func New(a, b int64) *big.Rat {
	return big.NewRat(a, b)
}

// Int returns a new rational equal to n.
func Int(n int64) *big.Rat {
	return new(big.Rat).SetInt64(n)
}

// Clone returns an independent copy of r. A nil r yields zero.
func Clone(r *big.Rat) *big.Rat {
	if r == nil {
		return Zero()
	}
	return new(big.Rat).Set(r)
}

// Round rounds r to the given number of decimal places, halves away from zero.
// The result is a new value; r is left untouched.
func Round(r *big.Rat, places int) *big.Rat {
	if r == nil {
		return Zero()
	}
	if places < 0 {
		places = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(scale))

	num := new(big.Int).Abs(scaled.Num())
	den := scaled.Denom()

	// floor((2|n| + d) / 2d) is |x| rounded half up.
	twiceNum := new(big.Int).Lsh(num, 1)
	twiceNum.Add(twiceNum, den)
	twiceDen := new(big.Int).Lsh(den, 1)
	rounded := new(big.Int).Quo(twiceNum, twiceDen)
	if scaled.Sign() < 0 {
		rounded.Neg(rounded)
	}

	return new(big.Rat).SetFrac(rounded, scale)
}

// RoundReport rounds r to the reporting precision.
func RoundReport(r *big.Rat) *big.Rat {
	return Round(r, constants.DecimalPlaces)
}

// RoundInt rounds r to the nearest integer, halves away from zero.
func RoundInt(r *big.Rat) int64 {
	rounded := Round(r, 0)
	return rounded.Num().Int64()
}

// Ceil returns the smallest integer greater than or equal to r.
func Ceil(r *big.Rat) *big.Int {
	if r == nil {
		return new(big.Int)
	}
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// IsZero reports whether r is exactly zero. A nil r counts as zero.
func IsZero(r *big.Rat) bool {
	return r == nil || r.Sign() == 0
}

// IsPositive reports whether r is strictly greater than zero.
func IsPositive(r *big.Rat) bool {
	return r != nil && r.Sign() > 0
}

// IsNegative reports whether r is strictly less than zero.
func IsNegative(r *big.Rat) bool {
	return r != nil && r.Sign() < 0
}

// Percentage calculates what percentage value is of total. A zero total
// yields zero.
func Percentage(value, total *big.Rat) *big.Rat {
	if IsZero(total) {
		return Zero()
	}
	out := new(big.Rat).Quo(Clone(value), total)
	return out.Mul(out, Int(constants.PercentageMultiplier))
}

// Float returns the nearest float64 to r.
func Float(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// String formats r with the given number of decimal places.
func String(r *big.Rat, places int) string {
	if r == nil {
		return Zero().FloatString(places)
	}
	return r.FloatString(places)
}

// FromDecimalString parses a decimal ("3.2", "1e3") or fraction ("1/3")
// literal exactly.
func FromDecimalString(s string) (*big.Rat, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty numeric value")
	}
	r, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return r, nil
}

// FromFloat converts f through its shortest decimal representation, so 3.2
// becomes 16/5 instead of the binary approximation.
func FromFloat(f float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'f', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(f)
	}
	return r
}
