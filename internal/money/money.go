package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const Currency = "SEK"

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeResult = errors.New("negative amount result")
)

// Amount is a non-negative monetary value in SEK. The zero value is usable
// and equal to Zero(). Arithmetic is exact decimal, so repeated additions of
// fractional prices never drift.
type Amount struct {
	value decimal.Decimal
}

func Zero() Amount {
	return Amount{}
}

// FromFloat validates a value crossing into the domain (e.g. tendered cash).
func FromFloat(value float64) (Amount, error) {
	if value < 0 {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, value)
	}
	return Amount{value: decimal.NewFromFloat(value)}, nil
}

// Parse reads a decimal string such as "123.45".
func Parse(raw string) (Amount, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if value.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return Amount{value: value}, nil
}

func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Subtract fails with ErrNegativeResult when other exceeds the receiver.
// Callers treat that failure as "insufficient funds" rather than clamping.
func (a Amount) Subtract(other Amount) (Amount, error) {
	result := a.value.Sub(other.value)
	if result.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrNegativeResult, a, other)
	}
	return Amount{value: result}, nil
}

// Multiply scales the amount by a non-negative rate (VAT rates, quantities).
func (a Amount) Multiply(rate float64) (Amount, error) {
	if rate < 0 {
		return Amount{}, fmt.Errorf("%w: rate %v", ErrInvalidAmount, rate)
	}
	return Amount{value: a.value.Mul(decimal.NewFromFloat(rate))}, nil
}

// MultiplyInt scales the amount by a non-negative integer quantity.
func (a Amount) MultiplyInt(n int) (Amount, error) {
	if n < 0 {
		return Amount{}, fmt.Errorf("%w: quantity %d", ErrInvalidAmount, n)
	}
	return Amount{value: a.value.Mul(decimal.NewFromInt(int64(n)))}, nil
}

func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) Less(other Amount) bool {
	return a.value.LessThan(other.value)
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// Fixed returns the bare two-decimal form, e.g. "12.50".
func (a Amount) Fixed() string {
	return a.value.StringFixed(2)
}

// String renders the canonical wire form, e.g. "12.50 SEK".
func (a Amount) String() string {
	return a.Fixed() + " " + Currency
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fixed())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
