// panel/state.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
)

// PanelState is a snapshot of every field of an aircraft's panel. It is
// immutable: each poll cycle that sees a change publishes a new
// PanelState. A nil *PanelState means there is no session and all of its
// accessors return zero values.
type PanelState struct {
	values  map[string]Value
	names   []string
	cycle   uint64
	updated time.Time
}

// NewPanelState returns the state before the first poll, with every field
// set to its default.
func NewPanelState(fields FieldMap) *PanelState {
	ps := &PanelState{
		values: make(map[string]Value, len(fields)),
		names:  fields.Names(),
	}
	for _, fd := range fields {
		ps.values[fd.Name] = fd.Default
	}
	return ps
}

// Get returns the value of the named field and whether the field is part
// of the state.
func (ps *PanelState) Get(name string) (Value, bool) {
	if ps == nil {
		return Value{}, false
	}
	v, ok := ps.values[name]
	return v, ok
}

// Float returns the numeric value of the named field, or 0 if it is
// unknown.
func (ps *PanelState) Float(name string) float64 {
	v, _ := ps.Get(name)
	return v.Float()
}

// Names returns the field names in FieldMap order.
func (ps *PanelState) Names() []string {
	if ps == nil {
		return nil
	}
	return slices.Clone(ps.names)
}

// Values returns a copy of all field values.
func (ps *PanelState) Values() map[string]Value {
	if ps == nil {
		return nil
	}
	return maps.Clone(ps.values)
}

// Cycle returns the number of the poll cycle that produced the state; it
// is zero for the initial state.
func (ps *PanelState) Cycle() uint64 {
	if ps == nil {
		return 0
	}
	return ps.cycle
}

func (ps *PanelState) Updated() time.Time {
	if ps == nil {
		return time.Time{}
	}
	return ps.updated
}

// with returns a new state with the given changes applied.
func (ps *PanelState) with(changes []ChangeEvent, cycle uint64, t time.Time) *PanelState {
	n := &PanelState{
		values:  maps.Clone(ps.values),
		names:   ps.names,
		cycle:   cycle,
		updated: t,
	}
	for _, ch := range changes {
		n.values[ch.Field] = ch.New
	}
	return n
}

// WithValues returns a copy of the state with the given fields set.
// Names that aren't fields of the state are ignored.
func (ps *PanelState) WithValues(values map[string]Value) *PanelState {
	if ps == nil {
		return nil
	}
	var changes []ChangeEvent
	for _, name := range ps.names {
		if v, ok := values[name]; ok {
			changes = append(changes, ChangeEvent{Field: name, Old: ps.values[name], New: v})
		}
	}
	return ps.with(changes, ps.cycle, ps.updated)
}

func (ps *PanelState) String() string {
	if ps == nil {
		return "<no panel>"
	}
	var sb strings.Builder
	for i, name := range ps.names {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%s", name, ps.values[name])
	}
	return sb.String()
}

// ChangeEvent reports that a field's value changed during a poll cycle.
type ChangeEvent struct {
	Field string
	Old   Value
	New   Value
	Cycle uint64
}

func (ev ChangeEvent) String() string {
	return fmt.Sprintf("%s: %s -> %s", ev.Field, ev.Old, ev.New)
}

func (ev ChangeEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("field", ev.Field),
		slog.String("old", ev.Old.String()),
		slog.String("new", ev.New.String()),
		slog.Uint64("cycle", ev.Cycle))
}
