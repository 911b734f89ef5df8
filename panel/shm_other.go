// panel/shm_other.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !windows && !linux

package panel

import (
	"fmt"
)

func OpenSharedRegion(name string, size int) (SharedRegion, error) {
	return nil, fmt.Errorf("%s: %w: %w", name, ErrSnapshotUnavailable, ErrUnsupportedPlatform)
}
