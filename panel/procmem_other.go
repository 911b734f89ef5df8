// panel/procmem_other.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !windows && !linux

package panel

import (
	"fmt"
)

func moduleBase(pid int, exe string) (uint64, error) {
	return 0, fmt.Errorf("%w: %w", ErrModuleNotFound, ErrUnsupportedPlatform)
}

func readMemory(pid int, addr uint64, buf []byte) error {
	return ErrUnsupportedPlatform
}
