// aviation/errors.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import "errors"

var (
	ErrInvalidFrequency = errors.New("Invalid frequency")
	ErrUnknownAirport   = errors.New("Unknown airport")
	ErrInvalidAirportDB = errors.New("Invalid airport database")
)
