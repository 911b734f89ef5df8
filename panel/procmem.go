// panel/procmem.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// processInspector is the ProcessInspector for the host OS. Process
// lookup goes through gopsutil; module resolution and memory reads are
// platform-specific (procmem_*.go).
type processInspector struct {
	mu      sync.Mutex
	lastPid int32
}

func NewProcessInspector() ProcessInspector {
	return &processInspector{}
}

const processLookupTimeout = 2 * time.Second

func (pi *processInspector) FindProcess(exe string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), processLookupTimeout)
	defer cancel()

	pi.mu.Lock()
	defer pi.mu.Unlock()

	// Scanning all processes every cycle is expensive, so first check
	// whether the process found last time is still there.
	if pi.lastPid != 0 {
		if p, err := process.NewProcessWithContext(ctx, pi.lastPid); err == nil {
			if name, err := p.NameWithContext(ctx); err == nil && strings.EqualFold(name, exe) {
				return int(pi.lastPid), nil
			}
		}
		pi.lastPid = 0
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", exe, ErrProcessNotFound, err)
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // exited, or we're not allowed to look
		}
		if strings.EqualFold(name, exe) {
			pi.lastPid = p.Pid
			return int(p.Pid), nil
		}
	}
	return 0, fmt.Errorf("%s: %w", exe, ErrProcessNotFound)
}

func (pi *processInspector) ModuleBase(pid int, exe string) (uint64, error) {
	return moduleBase(pid, exe)
}

func (pi *processInspector) ReadMemory(pid int, addr uint64, buf []byte) error {
	return readMemory(pid, addr, buf)
}

// moduleNameMatches reports whether the module path names the executable.
func moduleNameMatches(path, exe string) bool {
	path, exe = strings.ToLower(path), strings.ToLower(exe)
	return path == exe || strings.HasSuffix(path, "/"+exe) || strings.HasSuffix(path, "\\"+exe)
}
