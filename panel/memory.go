// panel/memory.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/skyatc/radiopanel/log"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ProcessInspector provides the operating system services the memory
// backend needs. Implementations open and close any process handles
// within each call.
type ProcessInspector interface {
	// FindProcess returns the pid of the running process whose name
	// matches exe, ignoring case, or ErrProcessNotFound.
	FindProcess(exe string) (int, error)
	// ModuleBase returns the load address of the process's module named
	// exe, or of its first module if none matches. ErrModuleNotFound is
	// returned if the modules can't be enumerated.
	ModuleBase(pid int, exe string) (uint64, error)
	// ReadMemory fills buf with the process memory starting at addr.
	ReadMemory(pid int, addr uint64, buf []byte) error
}

// MemoryBackend reads fields by following pointer chains through the
// simulator's memory.
type MemoryBackend struct {
	config    ProcessConfig
	inspector ProcessInspector
	// Chain start address for each pid seen; a restarted simulator gets
	// a new pid and thus a fresh resolution.
	starts *lru.Cache[int, uint64]
	lg     *log.Logger
}

func NewMemoryBackend(config ProcessConfig, inspector ProcessInspector, lg *log.Logger) *MemoryBackend {
	starts, err := lru.New[int, uint64](8)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	return &MemoryBackend{
		config:    config,
		inspector: inspector,
		starts:    starts,
		lg:        lg.With("backend", MemoryBackendKind, "executable", config.Executable),
	}
}

func (m *MemoryBackend) Kind() BackendKind { return MemoryBackendKind }

// Start checks whether the simulator is running; it is fine if it isn't.
func (m *MemoryBackend) Start() error {
	pid, err := m.inspector.FindProcess(m.config.Executable)
	if err != nil {
		return err
	}
	_, err = m.startAddress(pid)
	return err
}

func (m *MemoryBackend) Stop() error {
	m.starts.Purge()
	return nil
}

// startAddress returns the address that pointer chains start from for the
// given process.
func (m *MemoryBackend) startAddress(pid int) (uint64, error) {
	if addr, ok := m.starts.Get(pid); ok {
		return addr, nil
	}

	base, err := m.inspector.ModuleBase(pid, m.config.Executable)
	var addr uint64
	switch {
	case err == nil:
		addr = base + uint64(m.config.BaseOffset)
		m.lg.Info("resolved module base", "pid", pid, "base", fmt.Sprintf("0x%X", base),
			"start", fmt.Sprintf("0x%X", addr))
	case errors.Is(err, ErrModuleNotFound):
		// Keep going, treating the configured offset as an absolute
		// address. Logged once per pid since the result is cached.
		addr = uint64(m.config.BaseOffset)
		m.lg.Warn("unable to determine module base; using base offset as an absolute address",
			"pid", pid, "error", err, "start", fmt.Sprintf("0x%X", addr))
	default:
		return 0, err
	}

	m.starts.Add(pid, addr)
	return addr, nil
}

func (m *MemoryBackend) ReadFields(fields FieldMap) []Reading {
	pid, err := m.inspector.FindProcess(m.config.Executable)
	if err != nil {
		return failAll(fields, err)
	}
	start, err := m.startAddress(pid)
	if err != nil {
		return failAll(fields, err)
	}

	readings := make([]Reading, len(fields))
	for i, fd := range fields {
		if len(fd.Chain) == 0 {
			readings[i].Err = fmt.Errorf("%s: no pointer chain: %w", fd.Name, ErrInvalidProfile)
			continue
		}
		v, err := ReadChain(func(addr uint64, buf []byte) error {
			return m.inspector.ReadMemory(pid, addr, buf)
		}, start, fd.Chain)
		if err != nil {
			readings[i].Err = fmt.Errorf("%s: %w", fd.Name, err)
		} else {
			readings[i].Value = fd.scaled(Float(v))
		}
	}
	return readings
}

// ReadChain follows a pointer chain: starting at start, for each offset
// it reads a pointer at the current address and adds the offset to it.
// It then reads the float64 at the final address. A chain of N offsets
// thus performs N pointer reads and one value read; any failed read is
// reported as ErrMemoryReadFailed.
func ReadChain(read func(addr uint64, buf []byte) error, start uint64, chain []Offset) (float64, error) {
	var buf [8]byte
	cur := start
	for i, off := range chain {
		if err := read(cur, buf[:]); err != nil {
			return 0, fmt.Errorf("dereference %d at 0x%X: %w: %v", i, cur, ErrMemoryReadFailed, err)
		}
		cur = binary.LittleEndian.Uint64(buf[:]) + uint64(off)
	}
	if err := read(cur, buf[:]); err != nil {
		return 0, fmt.Errorf("value at 0x%X: %w: %v", cur, ErrMemoryReadFailed, err)
	}
	return gomath.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}
