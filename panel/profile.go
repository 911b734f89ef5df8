// panel/profile.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"embed"
	"fmt"
	"maps"
	gomath "math"
	"slices"
	"strings"

	"github.com/skyatc/radiopanel/util"

	"github.com/brunoga/deep"
	"github.com/iancoleman/orderedmap"
)

//go:embed profiles/aircraft.json
var profilesFS embed.FS

// BackendKind selects how a profile's fields are acquired.
type BackendKind string

const (
	MemoryBackendKind   BackendKind = "memory"
	SnapshotBackendKind BackendKind = "snapshot"
)

// ProcessConfig identifies the simulator process for the memory backend.
type ProcessConfig struct {
	Executable string `json:"executable"`
	// BaseOffset is added to the load address of the executable to get
	// the start of every pointer chain.
	BaseOffset Offset `json:"base_offset"`
}

// SharedMemoryConfig identifies the region the simulator bridge writes
// its JSON snapshots to.
type SharedMemoryConfig struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Enumeration maps the labels of a multi-position switch to the numeric
// code the simulator reports for each position.
type Enumeration map[string]float64

// Label returns the label of the position with the given code.
func (e Enumeration) Label(code float64) (string, bool) {
	for label, c := range e {
		if c == code {
			return label, true
		}
	}
	return "", false
}

// AircraftProfile groups everything needed to poll one aircraft model.
// Profiles are shared read-only; Registry.Lookup hands out copies.
type AircraftProfile struct {
	Model        string
	Backend      BackendKind
	Process      ProcessConfig
	SharedMemory SharedMemoryConfig
	Fields       FieldMap
	// Microphone maps transmitting radio labels (COM1, COM2, EMG, ...)
	// to microphone selector positions.
	Microphone Enumeration
	// Transponder maps transponder mode labels (OFF, SBY, ...) to codes.
	Transponder Enumeration
}

// MicrophoneRadio returns the label of the radio selected for
// transmission given the microphone selector's value.
func (p *AircraftProfile) MicrophoneRadio(v Value) (string, bool) {
	if p == nil || v.IsString {
		return "", false
	}
	return p.Microphone.Label(v.Num)
}

func (p *AircraftProfile) TransponderModeLabel(v Value) (string, bool) {
	if p == nil || v.IsString {
		return "", false
	}
	return p.Transponder.Label(v.Num)
}

// InitialState returns the panel state before the first poll: every field
// set to its default.
func (p *AircraftProfile) InitialState() *PanelState {
	return NewPanelState(p.Fields)
}

///////////////////////////////////////////////////////////////////////////
// JSON

type fieldJSON struct {
	Chain              []Offset  `json:"chain,omitempty"`
	Key                string    `json:"key,omitempty"`
	Role               FieldRole `json:"role,omitempty"`
	SuppressZeroGlitch bool      `json:"suppress_zero_glitch,omitempty"`
	Scale              float64   `json:"scale,omitempty"`
	Default            *Value    `json:"default,omitempty"`
}

type aircraftJSON struct {
	Backend      BackendKind          `json:"backend"`
	Process      *ProcessConfig       `json:"process,omitempty"`
	SharedMemory *SharedMemoryConfig  `json:"shared_memory,omitempty"`
	Microphone   Enumeration          `json:"microphone,omitempty"`
	Transponder  Enumeration          `json:"transponder,omitempty"`
	Fields       map[string]fieldJSON `json:"fields"`
}

type profilesJSON struct {
	Process      *ProcessConfig          `json:"process,omitempty"`
	SharedMemory *SharedMemoryConfig     `json:"shared_memory,omitempty"`
	Aircraft     map[string]aircraftJSON `json:"aircraft"`
}

///////////////////////////////////////////////////////////////////////////
// Registry

// Registry holds the aircraft profiles, keyed by lower-case model name.
type Registry struct {
	profiles map[string]*AircraftProfile
	models   []string
}

// DefaultRegistry returns the profiles bundled with the program.
func DefaultRegistry() (*Registry, error) {
	b, err := profilesFS.ReadFile("profiles/aircraft.json")
	if err != nil {
		return nil, err
	}
	return ParseProfiles(b)
}

// LoadRegistry returns the bundled profiles merged with the ones in the
// given file, which may be zstd-compressed; profiles in the file replace
// bundled profiles of the same model.
func LoadRegistry(path string) (*Registry, error) {
	r, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}

	b, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	user, err := ParseProfiles(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.Merge(user)
	return r, nil
}

// ParseProfiles parses and validates a profile file. All problems found
// are reported in the returned error, which wraps ErrInvalidProfile.
func ParseProfiles(b []byte) (*Registry, error) {
	var e util.ErrorLogger
	util.CheckJSON[profilesJSON](b, &e)
	if e.HaveErrors() {
		return nil, e.Err(ErrInvalidProfile)
	}

	var pj profilesJSON
	if err := util.UnmarshalJSONBytes(b, &pj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	// Go maps lose the declaration order of the models and fields, so
	// get it from a second decoding pass.
	om := orderedmap.New()
	if err := om.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	aircraftOrder := orderedKeys(om, "aircraft")

	r := &Registry{profiles: make(map[string]*AircraftProfile)}
	if len(pj.Aircraft) == 0 {
		e.ErrorString("no aircraft defined")
	}

	for _, model := range aircraftOrder {
		e.Push(model)
		p := makeProfile(model, pj, orderedKeys(om, "aircraft", model, "fields"), &e)
		e.Pop()

		key := strings.ToLower(model)
		if _, ok := r.profiles[key]; ok {
			e.ErrorString("%s: aircraft model defined more than once", model)
			continue
		}
		r.profiles[key] = p
		r.models = append(r.models, key)
	}

	if e.HaveErrors() {
		return nil, e.Err(ErrInvalidProfile)
	}
	return r, nil
}

// orderedKeys returns the keys of the object found by following path
// from om, in the order they appear in the JSON.
func orderedKeys(om *orderedmap.OrderedMap, path ...string) []string {
	cur := *om
	for _, p := range path {
		v, ok := cur.Get(p)
		if !ok {
			return nil
		}
		if cur, ok = v.(orderedmap.OrderedMap); !ok {
			return nil
		}
	}
	return cur.Keys()
}

func makeProfile(model string, pj profilesJSON, fieldOrder []string, e *util.ErrorLogger) *AircraftProfile {
	defer e.CheckDepth(e.CurrentDepth())

	aj := pj.Aircraft[model]
	p := &AircraftProfile{
		Model:       strings.ToLower(model),
		Backend:     aj.Backend,
		Microphone:  aj.Microphone,
		Transponder: aj.Transponder,
	}

	if pc := aj.Process; pc != nil {
		p.Process = *pc
	} else if pj.Process != nil {
		p.Process = *pj.Process
	}
	if sc := aj.SharedMemory; sc != nil {
		p.SharedMemory = *sc
	} else if pj.SharedMemory != nil {
		p.SharedMemory = *pj.SharedMemory
	}

	switch p.Backend {
	case MemoryBackendKind:
		if p.Process.Executable == "" {
			e.ErrorString("memory backend requires a process executable")
		}
	case SnapshotBackendKind:
		if p.SharedMemory.Name == "" {
			e.ErrorString("snapshot backend requires a shared memory name")
		}
		if p.SharedMemory.Size <= 0 {
			e.ErrorString("shared memory size must be positive")
		}
	case "":
		e.ErrorString("\"backend\" not specified")
	default:
		e.ErrorString("%q: unknown backend; expected %q or %q", p.Backend, MemoryBackendKind, SnapshotBackendKind)
	}

	checkEnumeration := func(name string, en Enumeration) {
		seen := make(map[float64]string)
		for _, label := range slices.Sorted(maps.Keys(en)) {
			if other, ok := seen[en[label]]; ok {
				e.ErrorString("%s: %q and %q have the same code %v", name, other, label, en[label])
			}
			seen[en[label]] = label
		}
	}
	checkEnumeration("microphone", p.Microphone)
	checkEnumeration("transponder", p.Transponder)

	if len(aj.Fields) == 0 {
		e.ErrorString("no fields defined")
	}

	e.Push("fields")
	for _, name := range fieldOrder {
		fj := aj.Fields[name]
		e.Push(name)

		fd := FieldDescriptor{
			Name:               name,
			Chain:              fj.Chain,
			Key:                fj.Key,
			Role:               fj.Role,
			SuppressZeroGlitch: fj.SuppressZeroGlitch,
			Scale:              fj.Scale,
		}
		if fj.Default != nil {
			fd.Default = *fj.Default
		}

		switch {
		case len(fd.Chain) > 0 && fd.Key != "":
			e.ErrorString("only one of \"chain\" and \"key\" may be given")
		case len(fd.Chain) == 0 && fd.Key == "":
			e.ErrorString("one of \"chain\" or \"key\" must be given")
		case p.Backend != "" && fd.Backend() != p.Backend:
			e.ErrorString("%s field in a profile using the %s backend", fd.Backend(), p.Backend)
		}
		if !knownRoles[fd.Role] {
			e.ErrorString("%q: unknown role", fd.Role)
		}
		if fd.Role == RoleMicrophone && len(p.Microphone) == 0 {
			e.ErrorString("microphone field requires a \"microphone\" enumeration")
		}
		if gomath.IsNaN(fd.Scale) || gomath.IsInf(fd.Scale, 0) {
			e.ErrorString("invalid scale %v", fd.Scale)
		}

		p.Fields = append(p.Fields, fd)
		e.Pop()
	}
	e.Pop()

	return p
}

// Lookup returns a copy of the profile for the given aircraft model.
func (r *Registry) Lookup(model string) (*AircraftProfile, error) {
	p, ok := r.profiles[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return nil, fmt.Errorf("%q: %w (available: %s)", model, ErrUnknownAircraftModel,
			strings.Join(r.models, ", "))
	}
	cp := deep.MustCopy(*p)
	return &cp, nil
}

// Models returns the available aircraft models in declaration order.
func (r *Registry) Models() []string {
	return slices.Clone(r.models)
}

// Merge adds the profiles of o to r, replacing existing profiles with the
// same model name.
func (r *Registry) Merge(o *Registry) {
	for _, model := range o.models {
		if _, ok := r.profiles[model]; !ok {
			r.models = append(r.models, model)
		}
		r.profiles[model] = o.profiles[model]
	}
}
