// radio/radio.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package radio decides, from the state of the cockpit radio panel and
// the position of the aircraft, which transmissions the pilot can hear
// and who can hear the pilot.
package radio

import (
	"github.com/skyatc/radiopanel/aviation"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/panel"
)

// Radio identifies one of the aircraft's COM radios.
type Radio int

const (
	None Radio = iota
	COM1
	COM2
)

func (r Radio) String() string {
	switch r {
	case COM1:
		return "COM1"
	case COM2:
		return "COM2"
	default:
		return "NONE"
	}
}

// ParseRadio returns the radio for a microphone selector label.
func ParseRadio(label string) Radio {
	switch label {
	case "COM1":
		return COM1
	case "COM2":
		return COM2
	default:
		return None
	}
}

// Fields returns the names of the radio's frequency, audio select and
// volume fields.
func (r Radio) Fields() (frequency, audioSelect, volume string) {
	switch r {
	case COM1:
		return panel.FieldCOM1Frequency, panel.FieldCOM1AudioSelect, panel.FieldCOM1Volume
	case COM2:
		return panel.FieldCOM2Frequency, panel.FieldCOM2AudioSelect, panel.FieldCOM2Volume
	default:
		return "", "", ""
	}
}

var radios = [...]Radio{COM1, COM2}

// Frequency returns the active frequency of the radio. The simulator
// reports frequencies in Hz; they are rounded to the 10 kHz that
// frequencies are compared at.
func Frequency(ps *panel.PanelState, r Radio) aviation.Frequency {
	field, _, _ := r.Fields()
	if v, ok := ps.Get(field); ok && !v.IsString {
		return aviation.FrequencyFromHz(v.Num)
	}
	return aviation.UnknownFrequency
}

// AudioSelected reports whether the radio's audio select button is on.
func AudioSelected(ps *panel.PanelState, r Radio) bool {
	_, field, _ := r.Fields()
	return field != "" && ps.Float(field) != 0
}

// TunedRadio returns the radio whose active frequency is f. If there is
// no panel state, or f is zero and thus unknown, COM1 is assumed.
func TunedRadio(ps *panel.PanelState, f aviation.Frequency) Radio {
	if ps == nil {
		return COM1
	}
	for _, r := range radios {
		if Frequency(ps, r) == f {
			return r
		}
	}
	if f == 0 {
		return COM1
	}
	return None
}

// CanBeHeard returns the radio that a transmission on f is heard on: the
// radio must be tuned to f and have its audio selected. As with
// TunedRadio, COM1 is assumed if there's no panel state or f is zero.
func CanBeHeard(ps *panel.PanelState, f aviation.Frequency) Radio {
	if ps == nil {
		return COM1
	}
	for _, r := range radios {
		if Frequency(ps, r) == f && AudioSelected(ps, r) {
			return r
		}
	}
	if f == 0 {
		return COM1
	}
	return None
}

// TransmittingFrequency returns the frequency the pilot transmits on,
// given the position of the microphone selector. It is 0 if the
// selector isn't on COM1 or COM2 and UnknownFrequency if there's no
// panel state.
func TransmittingFrequency(ps *panel.PanelState, profile *panel.AircraftProfile) aviation.Frequency {
	if ps == nil {
		return aviation.UnknownFrequency
	}
	mic, ok := ps.Get(panel.FieldMicrophoneSelect)
	if !ok {
		return 0
	}
	label, _ := profile.MicrophoneRadio(mic)
	r := ParseRadio(label)
	if r == None {
		return 0
	}
	if f := Frequency(ps, r); f != aviation.UnknownFrequency {
		return f
	}
	return 0
}

// LocationFromState returns the aircraft's position if the panel
// reports one.
func LocationFromState(ps *panel.PanelState) (math.Point2LL, bool) {
	lat, okLat := ps.Get(panel.FieldLatitude)
	lon, okLon := ps.Get(panel.FieldLongitude)
	if !okLat || !okLon || lat.IsString || lon.IsString {
		return math.Point2LL{}, false
	}
	p := math.Point2LL{lon.Num, lat.Num}
	if p.IsZero() {
		// Not yet reported.
		return math.Point2LL{}, false
	}
	return p, true
}

// ReachableStations returns the stations at the origin and destination
// airports, plus GUARD and CENTER, that the pilot can currently hear:
// they must be on a tuned radio with its audio selected and within the
// range of their category. loc is the aircraft's position; if it is
// unknown, the aircraft is taken to be at the airports.
func ReachableStations(ps *panel.PanelState, loc *math.Point2LL, origin, destination *aviation.Airport) []aviation.Station {
	var reachable []aviation.Station

	for _, ap := range []*aviation.Airport{origin, destination} {
		if ap == nil {
			continue
		}
		dist := 0.
		if loc != nil && !loc.IsZero() {
			dist = math.NMDistance2LL(*loc, ap.Location())
		}
		for _, st := range ap.Stations() {
			if CanBeHeard(ps, st.Frequency) == None {
				continue
			}
			if st.Frequency == 0 || st.Category.Range() >= dist {
				reachable = append(reachable, st)
			}
		}
	}

	// GUARD and CENTER aren't tied to a location.
	for _, st := range []aviation.Station{aviation.GuardStation(), aviation.CenterStation()} {
		if CanBeHeard(ps, st.Frequency) != None {
			reachable = append(reachable, st)
		}
	}

	return reachable
}

// CanPilotBeHeard reports whether some reachable station is listening on
// the frequency the pilot transmits on. With no panel state the pilot is
// assumed to be heard.
func CanPilotBeHeard(ps *panel.PanelState, profile *panel.AircraftProfile, loc *math.Point2LL,
	origin, destination *aviation.Airport) bool {
	tf := TransmittingFrequency(ps, profile)
	switch tf {
	case aviation.UnknownFrequency:
		return true
	case 0:
		return false
	}
	for _, st := range ReachableStations(ps, loc, origin, destination) {
		if st.Frequency == tf {
			return true
		}
	}
	return false
}
