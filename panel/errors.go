// panel/errors.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"errors"
)

var (
	ErrFieldNotPresent      = errors.New("Field not present in snapshot")
	ErrInvalidProfile       = errors.New("Invalid aircraft profile")
	ErrMemoryReadFailed     = errors.New("Memory read failed")
	ErrModuleNotFound       = errors.New("Module not found in target process")
	ErrProcessNotFound      = errors.New("Target process not found")
	ErrSessionNotIdle       = errors.New("Session has already been started")
	ErrSessionNotRunning    = errors.New("Session is not polling")
	ErrSnapshotDecode       = errors.New("Unable to decode shared memory snapshot")
	ErrSnapshotUnavailable  = errors.New("Shared memory snapshot unavailable")
	ErrUnknownAircraftModel = errors.New("Unknown aircraft model")
	ErrUnsupportedPlatform  = errors.New("Not supported on this platform")
)

// transient errors are expected while the simulator is not (yet) running;
// they are retried every poll cycle.
func isTransient(err error) bool {
	return errors.Is(err, ErrProcessNotFound) || errors.Is(err, ErrSnapshotUnavailable)
}
