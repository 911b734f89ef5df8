// panel/procmem_linux.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build linux

package panel

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// moduleBase finds the lowest mapping of the executable in
// /proc/<pid>/maps. This is how the simulator is found when it runs under
// Wine/Proton.
func moduleBase(pid int, exe string) (uint64, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return 0, fmt.Errorf("%d: %w: %v", pid, ErrModuleNotFound, err)
	}
	defer f.Close()

	base, first, haveFirst := uint64(0), uint64(0), false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		start, path, ok := parseMapsLine(scanner.Text())
		if !ok || path == "" || strings.HasPrefix(path, "[") {
			continue
		}
		if !haveFirst {
			first, haveFirst = start, true
		}
		if moduleNameMatches(path, exe) {
			base = start
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("%d: %w: %v", pid, ErrModuleNotFound, err)
	}

	if base != 0 {
		return base, nil
	} else if haveFirst {
		return first, nil
	}
	return 0, fmt.Errorf("%d: no file mappings: %w", pid, ErrModuleNotFound)
}

// parseMapsLine parses a line of the form
//
//	55d4c3a00000-55d4c3a28000 r--p 00000000 103:02 1234   /usr/bin/foo
func parseMapsLine(line string) (start uint64, path string, ok bool) {
	f := strings.Fields(line)
	if len(f) < 5 {
		return 0, "", false
	}
	lo, _, found := strings.Cut(f[0], "-")
	if !found {
		return 0, "", false
	}
	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return 0, "", false
	}
	if len(f) >= 6 {
		path = strings.Join(f[5:], " ")
	}
	return start, path, true
}

func readMemory(pid int, addr uint64, buf []byte) error {
	local := []unix.Iovec{{Base: (*byte)(unsafe.Pointer(&buf[0]))}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(pid, local, remote, 0)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short read: %d of %d bytes", n, len(buf))
	}
	return nil
}
