// panel/field.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Names of the fields the radio model and the watchers rely on. Profiles
// may define others; they are polled and reported like any other field.
const (
	FieldCOM1Frequency        = "COM1Frequency"
	FieldCOM1StandbyFrequency = "COM1StandbyFrequency"
	FieldCOM2Frequency        = "COM2Frequency"
	FieldCOM2StandbyFrequency = "COM2StandbyFrequency"
	FieldCOM1AudioSelect      = "COM1AudioSelectButton"
	FieldCOM2AudioSelect      = "COM2AudioSelectButton"
	FieldCOM1Volume           = "COM1VolumeOutput"
	FieldCOM2Volume           = "COM2VolumeOutput"
	FieldMicrophoneSelect     = "MicrophoneSelect"
	// The AUX audio select button doubles as the push-to-talk button.
	FieldPushToTalk           = "AUXAudioSelectButton"
	FieldTransponderCode      = "TransponderCode"
	FieldTransponderMode      = "TransponderMode"
	FieldLatitude             = "Latitude"
	FieldLongitude            = "Longitude"
)

// Offset is a signed byte offset. In JSON it may be given either as a
// number or as a string, in which case a "0x" prefix selects hexadecimal.
type Offset int64

func ParseOffset(s string) (Offset, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: invalid offset: %w", s, err)
	}
	return Offset(v), nil
}

func (o Offset) String() string {
	if o < 0 {
		return fmt.Sprintf("-0x%X", -int64(o))
	}
	return fmt.Sprintf("0x%X", int64(o))
}

func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Offset) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return fmt.Errorf("%s: offset must be an integer", string(b))
		}
		*o = Offset(v)
		return nil
	case string:
		var err error
		*o, err = ParseOffset(v)
		return err
	default:
		return fmt.Errorf("%s: offset must be a number or a string", string(b))
	}
}

func (o *Offset) CheckJSON(json any) bool {
	switch json.(type) {
	case float64, string:
		return true
	default:
		return false
	}
}

// FieldRole gives the meaning of a field where the poll loop or the radio
// model need to know it.
type FieldRole string

const (
	RoleNone            FieldRole = ""
	RoleVolume          FieldRole = "volume"
	RoleFrequency       FieldRole = "frequency"
	RoleAudioSelect     FieldRole = "audio_select"
	RoleMicrophone      FieldRole = "microphone"
	RoleTransponderCode FieldRole = "transponder_code"
	RoleTransponderMode FieldRole = "transponder_mode"
	RolePosition        FieldRole = "position"
)

var knownRoles = map[FieldRole]bool{
	RoleNone: true, RoleVolume: true, RoleFrequency: true, RoleAudioSelect: true,
	RoleMicrophone: true, RoleTransponderCode: true, RoleTransponderMode: true, RolePosition: true,
}

// FieldDescriptor describes how to acquire one logical field. Exactly one
// of Chain (read through process memory) and Key (looked up in the shared
// memory snapshot) is set.
type FieldDescriptor struct {
	Name  string
	Chain []Offset
	Key   string
	Role  FieldRole
	// SuppressZeroGlitch discards readings of exactly zero; the simulator
	// transiently zeroes some outputs (volumes) while redrawing the panel.
	SuppressZeroGlitch bool
	// Scale, if non-zero, multiplies every numeric reading.
	Scale   float64
	Default Value
}

func (fd FieldDescriptor) Backend() BackendKind {
	if fd.Key != "" {
		return SnapshotBackendKind
	}
	return MemoryBackendKind
}

func (fd FieldDescriptor) String() string {
	if fd.Key != "" {
		return fmt.Sprintf("%s <- %q", fd.Name, fd.Key)
	}
	chain := make([]string, len(fd.Chain))
	for i, off := range fd.Chain {
		chain[i] = off.String()
	}
	return fmt.Sprintf("%s <- [%s]", fd.Name, strings.Join(chain, " "))
}

// scaled applies the descriptor's scale factor to a raw reading.
func (fd FieldDescriptor) scaled(v Value) Value {
	if fd.Scale == 0 || v.IsString {
		return v
	}
	return Float(v.Num * fd.Scale)
}

// FieldMap is the ordered set of fields polled for an aircraft. The order
// is the declaration order in the profile and determines the order in
// which changes are reported.
type FieldMap []FieldDescriptor

func (fm FieldMap) Lookup(name string) (FieldDescriptor, bool) {
	for _, fd := range fm {
		if fd.Name == name {
			return fd, true
		}
	}
	return FieldDescriptor{}, false
}

func (fm FieldMap) Names() []string {
	names := make([]string, len(fm))
	for i, fd := range fm {
		names[i] = fd.Name
	}
	return names
}
