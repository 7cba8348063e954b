package forecast

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a measurement that may be absent. The zero Value is unknown.
//
// Upstream providers return null for hours they have no data for; those must
// stay unknown all the way through scoring instead of turning into zeros.
type Value struct {
	v     float64
	known bool
}

// Known wraps a present measurement.
func Known(v float64) Value {
	return Value{v: v, known: true}
}

// Unknown returns an absent measurement.
func Unknown() Value {
	return Value{}
}

// Get returns the measurement and whether it is present.
func (x Value) Get() (float64, bool) {
	return x.v, x.known
}

// IsKnown reports whether the measurement is present.
func (x Value) IsKnown() bool {
	return x.known
}

// OrZero returns the measurement, or 0 when it is unknown. Only use it where a
// raw numeric fallback is explicitly wanted.
func (x Value) OrZero() float64 {
	if !x.known {
		return 0
	}
	return x.v
}

// Map applies fn to a known measurement; unknown stays unknown.
func (x Value) Map(fn func(float64) float64) Value {
	if !x.known {
		return x
	}
	return Known(fn(x.v))
}

func (x Value) String() string {
	if !x.known {
		return "unknown"
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

var jsonNull = []byte("null")

// MarshalJSON encodes unknown as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.known {
		return jsonNull, nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as unknown.
func (x *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*x = Unknown()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*x = Known(v)
	return nil
}

// at returns column[i], or unknown when the column is too short.
func at(column []Value, i int) Value {
	if i < 0 || i >= len(column) {
		return Unknown()
	}
	return column[i]
}
