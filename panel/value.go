// panel/value.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"strconv"
)

// Value is the value of a single panel field. Nearly all fields are
// numeric; a few snapshot keys (e.g. the aircraft name) are strings.
type Value struct {
	Num      float64
	Str      string
	IsString bool
}

func Float(f float64) Value {
	return Value{Num: f}
}

func String(s string) Value {
	return Value{Str: s, IsString: true}
}

// Float returns the numeric value; it is 0 for strings.
func (v Value) Float() float64 {
	if v.IsString {
		return 0
	}
	return v.Num
}

// Equal compares exactly: no tolerance is applied to floats, though two
// NaNs with the same bit pattern are considered equal so that a field
// that reads NaN does not report a change every cycle.
func (v Value) Equal(o Value) bool {
	if v.IsString || o.IsString {
		return v.IsString == o.IsString && v.Str == o.Str
	}
	return v.Num == o.Num || gomath.Float64bits(v.Num) == gomath.Float64bits(o.Num)
}

// IsZero reports whether v is the number 0.
func (v Value) IsZero() bool {
	return !v.IsString && v.Num == 0
}

func (v Value) String() string {
	if v.IsString {
		return strconv.Quote(v.Str)
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsString {
		return json.Marshal(v.Str)
	}
	if gomath.IsNaN(v.Num) || gomath.IsInf(v.Num, 0) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Num)
}

// UnmarshalJSON accepts numbers and strings; booleans are taken as 0/1.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	nv, ok := valueFromJSON(raw)
	if !ok {
		return fmt.Errorf("%s: not a number or string", string(b))
	}
	*v = nv
	return nil
}

func (v *Value) CheckJSON(json any) bool {
	_, ok := valueFromJSON(json)
	return ok
}

func valueFromJSON(raw any) (Value, bool) {
	switch x := raw.(type) {
	case float64:
		return Float(x), true
	case string:
		return String(x), true
	case bool:
		if x {
			return Float(1), true
		}
		return Float(0), true
	default:
		return Value{}, false
	}
}
