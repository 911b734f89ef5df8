// aviation/frequency.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"strconv"
	"strings"
)

// Frequencies are scaled by 1000 (i.e., stored in kHz) and then stored
// in integers. Radio frequencies are only ever compared at 10 kHz
// resolution, so every constructor rounds to 2 decimal places in MHz.
type Frequency int

// UnknownFrequency is returned when there is no panel state to take a
// frequency from.
const UnknownFrequency Frequency = -1

func NewFrequency(mhz float64) Frequency {
	return Frequency(gomath.Round(mhz*100)) * 10
}

// FrequencyFromHz converts a raw radio register value, in Hz.
func FrequencyFromHz(hz float64) Frequency {
	return Frequency(gomath.Round(hz/1e4)) * 10
}

// ParseFrequency parses a frequency given in MHz, e.g. "118.005".
func ParseFrequency(s string) (Frequency, error) {
	mhz, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || mhz < 0 || gomath.IsInf(mhz, 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidFrequency)
	}
	return NewFrequency(mhz), nil
}

func (f Frequency) MHz() float64 {
	return float64(f) / 1000
}

func (f Frequency) String() string {
	if f < 0 {
		return "unknown"
	}
	s := fmt.Sprintf("%03d.%03d", f/1000, f%1000)
	for len(s) < 7 {
		s += "0"
	}
	return s
}

func (f Frequency) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(f.MHz(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts frequencies in MHz either as numbers or as
// strings; airport lists in the wild use both.
func (f *Frequency) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch mhz := v.(type) {
	case float64:
		if mhz < 0 {
			return fmt.Errorf("%v: %w", mhz, ErrInvalidFrequency)
		}
		*f = NewFrequency(mhz)
		return nil
	case string:
		var err error
		*f, err = ParseFrequency(mhz)
		return err
	default:
		return fmt.Errorf("%s: %w", string(b), ErrInvalidFrequency)
	}
}

func (f *Frequency) CheckJSON(json any) bool {
	switch json.(type) {
	case float64, string:
		return true
	default:
		return false
	}
}
