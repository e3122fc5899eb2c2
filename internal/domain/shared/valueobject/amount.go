package valueobject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point monetary amount without a currency attached.
// Order data reaches the system as plain JSON numbers, numeric strings or
// decimal-wrapper objects ({"value": "12.50", "precision": 20}); all of them
// are normalized into an Amount at decode time.
type Amount struct {
	value decimal.Decimal
}

// NewAmount wraps a decimal value
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// NewAmountFromInt creates an Amount from a whole number
func NewAmountFromInt(i int64) Amount {
	return Amount{value: decimal.NewFromInt(i)}
}

// NewAmountFromString parses a decimal string such as "105.00"
func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{value: d}, nil
}

// MustAmount parses s and panics on malformed input. Intended for fixtures.
func MustAmount(s string) Amount {
	a, err := NewAmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// IsZero returns true if the amount is zero
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsNegative returns true if the amount is below zero
func (a Amount) IsNegative() bool {
	return a.value.IsNegative()
}

// Equal compares two amounts by value (10.0 equals 10.00)
func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

// String returns the canonical decimal representation
func (a Amount) String() string {
	return a.value.String()
}

// MarshalJSON encodes the amount as a decimal string to avoid float drift
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value.String())
}

// UnmarshalJSON accepts numbers, numeric strings, null and objects carrying
// a "value" field.
func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := parseAmountJSON(bytes.TrimSpace(data), 0)
	if err != nil {
		return err
	}
	a.value = d
	return nil
}

// maxWrapperDepth bounds nested {"value": {...}} wrappers
const maxWrapperDepth = 4

func parseAmountJSON(data []byte, depth int) (decimal.Decimal, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return decimal.Zero, nil
	}

	switch data[0] {
	case '{':
		if depth >= maxWrapperDepth {
			return decimal.Zero, fmt.Errorf("amount wrapper nested too deeply")
		}
		var wrapper struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount object: %w", err)
		}
		if wrapper.Value == nil {
			return decimal.Zero, fmt.Errorf("amount object has no value field")
		}
		return parseAmountJSON(bytes.TrimSpace(wrapper.Value), depth+1)
	case '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount string: %w", err)
		}
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		return d, nil
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %s: %w", string(data), err)
		}
		return d, nil
	}
}
