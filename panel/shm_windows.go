// panel/shm_windows.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build windows

package panel

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var procOpenFileMappingW = windows.NewLazySystemDLL("kernel32.dll").NewProc("OpenFileMappingW")

type windowsRegion struct {
	mapping windows.Handle
	addr    uintptr
	size    int
}

// OpenSharedRegion maps an existing named file mapping read-only.
func OpenSharedRegion(name string, size int) (SharedRegion, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%s: invalid size %d: %w", name, size, ErrSnapshotUnavailable)
	}
	wname, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrSnapshotUnavailable, err)
	}

	h, _, callErr := procOpenFileMappingW.Call(uintptr(windows.FILE_MAP_READ), 0, uintptr(unsafe.Pointer(wname)))
	if h == 0 {
		return nil, fmt.Errorf("OpenFileMapping %s: %w: %v", name, ErrSnapshotUnavailable, callErr)
	}
	mapping := windows.Handle(h)

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("MapViewOfFile %s: %w: %v", name, ErrSnapshotUnavailable, err)
	}

	return &windowsRegion{mapping: mapping, addr: addr, size: size}, nil
}

func (r *windowsRegion) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.addr)), r.size)
}

func (r *windowsRegion) Close() error {
	err := windows.UnmapViewOfFile(r.addr)
	if cerr := windows.CloseHandle(r.mapping); err == nil {
		err = cerr
	}
	return err
}
