// panel/procmem_windows.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build windows

package panel

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const maxModules = 1024

func openProcess(pid int) (windows.Handle, error) {
	return windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
}

func moduleBase(pid int, exe string) (uint64, error) {
	h, err := openProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("OpenProcess %d: %w: %v", pid, ErrModuleNotFound, err)
	}
	defer windows.CloseHandle(h)

	var modules [maxModules]windows.Handle
	var needed uint32
	if err := windows.EnumProcessModules(h, &modules[0], uint32(unsafe.Sizeof(modules)), &needed); err != nil {
		return 0, fmt.Errorf("EnumProcessModules %d: %w: %v", pid, ErrModuleNotFound, err)
	}

	n := min(int(needed/uint32(unsafe.Sizeof(modules[0]))), maxModules)
	if n == 0 {
		return 0, fmt.Errorf("%d: no modules: %w", pid, ErrModuleNotFound)
	}

	var name [windows.MAX_PATH]uint16
	for _, mod := range modules[:n] {
		if mod == 0 {
			continue
		}
		if err := windows.GetModuleFileNameEx(h, mod, &name[0], uint32(len(name))); err != nil {
			continue
		}
		if moduleNameMatches(windows.UTF16ToString(name[:]), exe) {
			// A module's handle is its load address.
			return uint64(mod), nil
		}
	}

	// The executable is always the first module.
	return uint64(modules[0]), nil
}

func readMemory(pid int, addr uint64, buf []byte) error {
	h, err := openProcess(pid)
	if err != nil {
		return fmt.Errorf("OpenProcess %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	var n uintptr
	if err := windows.ReadProcessMemory(h, uintptr(addr), &buf[0], uintptr(len(buf)), &n); err != nil {
		return err
	}
	if int(n) != len(buf) {
		return fmt.Errorf("short read: %d of %d bytes", n, len(buf))
	}
	return nil
}
