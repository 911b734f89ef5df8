// panel/shm_linux.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build linux

package panel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

type mmapRegion struct {
	data []byte
}

// shmPath maps a Windows-style mapping name to its POSIX shared memory
// file; the Local\ and Global\ namespaces have no equivalent.
func shmPath(name string) string {
	for _, prefix := range []string{`Local\`, `Global\`} {
		name = strings.TrimPrefix(name, prefix)
	}
	return filepath.Join("/dev/shm", name)
}

// OpenSharedRegion maps an existing POSIX shared memory object
// read-only. The mapping is clamped to the object's size.
func OpenSharedRegion(name string, size int) (SharedRegion, error) {
	f, err := os.Open(shmPath(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrSnapshotUnavailable, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrSnapshotUnavailable, err)
	}
	size = min(size, int(fi.Size()))
	if size <= 0 {
		return nil, fmt.Errorf("%s: empty region: %w", name, ErrSnapshotUnavailable)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w: %v", name, ErrSnapshotUnavailable, err)
	}
	return &mmapRegion{data: data}, nil
}

func (r *mmapRegion) Bytes() []byte { return r.data }

func (r *mmapRegion) Close() error {
	return unix.Munmap(r.data)
}
