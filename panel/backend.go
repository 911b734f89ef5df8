// panel/backend.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"fmt"

	"github.com/skyatc/radiopanel/log"
)

// Reading is the result of acquiring a single field in a poll cycle. If
// Err is non-nil the field's value is unknown for the cycle.
type Reading struct {
	Value Value
	Err   error
}

// Backend acquires the values of a set of fields from the simulator.
type Backend interface {
	Kind() BackendKind
	// Start acquires resources that live for the whole session. Errors
	// for which isTransient is true are not fatal; the backend retries
	// in subsequent calls to ReadFields.
	Start() error
	// ReadFields returns one Reading per field, in order. It is only
	// called from the session's poll goroutine.
	ReadFields(fields FieldMap) []Reading
	// Stop releases everything acquired by Start and ReadFields.
	Stop() error
}

// NewBackend returns the default backend for the profile: the memory
// backend reading the simulator's process or the snapshot backend reading
// its shared memory region.
func NewBackend(p *AircraftProfile, lg *log.Logger) (Backend, error) {
	switch p.Backend {
	case MemoryBackendKind:
		return NewMemoryBackend(p.Process, NewProcessInspector(), lg), nil
	case SnapshotBackendKind:
		return NewSnapshotBackend(p.SharedMemory, OpenSharedRegion, lg), nil
	default:
		return nil, fmt.Errorf("%s: %q: %w", p.Model, p.Backend, ErrInvalidProfile)
	}
}

// failAll returns a Reading with the given error for each field.
func failAll(fields FieldMap, err error) []Reading {
	r := make([]Reading, len(fields))
	for i := range r {
		r[i].Err = err
	}
	return r
}
