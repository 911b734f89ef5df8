// panel/snapshot.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/skyatc/radiopanel/log"
)

// SharedRegion is a named shared memory region mapped read-only.
type SharedRegion interface {
	Bytes() []byte
	Close() error
}

// RegionOpener opens the named shared memory region; it returns an error
// wrapping ErrSnapshotUnavailable if the region does not exist.
type RegionOpener func(name string, size int) (SharedRegion, error)

// SnapshotBackend reads fields from the JSON snapshots that the
// simulator's bridge writes to shared memory.
type SnapshotBackend struct {
	config SharedMemoryConfig
	open   RegionOpener
	region SharedRegion
	// last decode error; it is logged when it changes
	lastErr string
	lg      *log.Logger
}

func NewSnapshotBackend(config SharedMemoryConfig, open RegionOpener, lg *log.Logger) *SnapshotBackend {
	return &SnapshotBackend{
		config: config,
		open:   open,
		lg:     lg.With("backend", SnapshotBackendKind, "region", config.Name),
	}
}

func (s *SnapshotBackend) Kind() BackendKind { return SnapshotBackendKind }

func (s *SnapshotBackend) Start() error {
	return s.openRegion()
}

func (s *SnapshotBackend) openRegion() error {
	if s.region != nil {
		return nil
	}
	r, err := s.open(s.config.Name, s.config.Size)
	if err != nil {
		return err
	}
	s.lg.Infof("opened shared memory region %q (%d bytes)", s.config.Name, len(r.Bytes()))
	s.region = r
	return nil
}

func (s *SnapshotBackend) Stop() error {
	if s.region == nil {
		return nil
	}
	err := s.region.Close()
	s.region = nil
	return err
}

// Snapshot decodes the current contents of the region.
func (s *SnapshotBackend) Snapshot() (Record, error) {
	if err := s.openRegion(); err != nil {
		return nil, err
	}
	// Copy first: the bridge may be rewriting the region while we decode.
	return DecodeSnapshot(bytes.Clone(s.region.Bytes()))
}

func (s *SnapshotBackend) ReadFields(fields FieldMap) []Reading {
	rec, err := s.Snapshot()
	if err != nil {
		if msg := err.Error(); msg != s.lastErr {
			s.lg.Debug("snapshot unreadable", "error", err)
			s.lastErr = msg
		}
		return failAll(fields, err)
	}
	s.lastErr = ""

	readings := make([]Reading, len(fields))
	for i, fd := range fields {
		if fd.Key == "" {
			readings[i].Err = fmt.Errorf("%s: no snapshot key: %w", fd.Name, ErrInvalidProfile)
		} else if v, ok := rec.Lookup(fd.Key); !ok {
			readings[i].Err = fmt.Errorf("%s: %w", fd.Key, ErrFieldNotPresent)
		} else {
			readings[i].Value = fd.scaled(v)
		}
	}
	return readings
}

///////////////////////////////////////////////////////////////////////////
// Record

// Record is a decoded snapshot: a flat mapping from dotted keys
// ("Communication.COM1Frequency") to values.
type Record map[string]Value

func (r Record) Lookup(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Get returns the value for key, or def if the snapshot doesn't have it.
func (r Record) Get(key string, def Value) Value {
	if v, ok := r[key]; ok {
		return v
	}
	return def
}

// DecodeSnapshot decodes the NUL-terminated JSON text at the start of b.
// Nested objects are flattened into dotted keys; arrays and nulls, which
// no field uses, are skipped.
func DecodeSnapshot(b []byte) (Record, error) {
	n := bytes.IndexByte(b, 0)
	if n == -1 {
		return nil, fmt.Errorf("no terminator in %d bytes: %w", len(b), ErrSnapshotDecode)
	}
	b = b[:n]
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("invalid UTF-8: %w", ErrSnapshotDecode)
	}

	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotDecode, err)
	}

	rec := make(Record, len(obj))
	flattenSnapshot(rec, "", obj)
	return rec, nil
}

func flattenSnapshot(rec Record, prefix string, obj map[string]any) {
	for k, raw := range obj {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := raw.(map[string]any); ok {
			flattenSnapshot(rec, k, sub)
		} else if v, ok := valueFromJSON(raw); ok {
			rec[k] = v
		}
	}
}
