// radio/radio_test.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package radio

import (
	"slices"
	"testing"

	"github.com/skyatc/radiopanel/aviation"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/panel"
)

func testProfile() *panel.AircraftProfile {
	var fields panel.FieldMap
	for _, name := range []string{panel.FieldCOM1Volume, panel.FieldCOM2Volume, panel.FieldMicrophoneSelect,
		panel.FieldCOM1AudioSelect, panel.FieldCOM2AudioSelect, panel.FieldCOM1Frequency, panel.FieldCOM2Frequency,
		panel.FieldLatitude, panel.FieldLongitude} {
		fields = append(fields, panel.FieldDescriptor{Name: name, Key: "Test." + name})
	}
	fields = append(fields, panel.FieldDescriptor{Name: panel.FieldPushToTalk, Key: "Test.PTT",
		Default: panel.Float(-1)})
	return &panel.AircraftProfile{
		Model:      "test",
		Backend:    panel.SnapshotBackendKind,
		Fields:     fields,
		Microphone: panel.Enumeration{"EMG": 0, "COM1": 1, "COM2": 2, "COM3": 3},
	}
}

func makeState(values map[string]float64) *panel.PanelState {
	v := make(map[string]panel.Value)
	for name, f := range values {
		v[name] = panel.Float(f)
	}
	return testProfile().InitialState().WithValues(v)
}

func TestCanBeHeard(t *testing.T) {
	for _, tc := range []struct {
		name   string
		state  map[string]float64
		freq   aviation.Frequency
		tuned  Radio
		hearOn Radio
	}{
		{"COM1 selected",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM1AudioSelect: 1},
			aviation.NewFrequency(118.0), COM1, COM1},
		{"COM1 not selected",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM1AudioSelect: 0,
				panel.FieldCOM2Frequency: 121_500_000, panel.FieldCOM2AudioSelect: 1},
			aviation.NewFrequency(118.0), COM1, None},
		{"COM2 selected",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM2Frequency: 124_350_000,
				panel.FieldCOM2AudioSelect: 1},
			aviation.NewFrequency(124.35), COM2, COM2},
		{"both tuned, COM2 selected",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM2Frequency: 118_000_000,
				panel.FieldCOM2AudioSelect: 1},
			aviation.NewFrequency(118.0), COM1, COM2},
		{"register rounding",
			map[string]float64{panel.FieldCOM1Frequency: 118_004_999, panel.FieldCOM1AudioSelect: 1},
			aviation.NewFrequency(118.0), COM1, COM1},
		{"8.33 kHz channel",
			map[string]float64{panel.FieldCOM1Frequency: 118_008_330, panel.FieldCOM1AudioSelect: 1},
			aviation.NewFrequency(118.01), COM1, COM1},
		{"not tuned",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM1AudioSelect: 1},
			aviation.NewFrequency(119.0), None, None},
		{"unknown frequency",
			map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM2Frequency: 119_000_000},
			0, COM1, COM1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ps := makeState(tc.state)
			for range 2 {
				if r := TunedRadio(ps, tc.freq); r != tc.tuned {
					t.Errorf("TunedRadio(%s) = %s, expected %s", tc.freq, r, tc.tuned)
				}
				if r := CanBeHeard(ps, tc.freq); r != tc.hearOn {
					t.Errorf("CanBeHeard(%s) = %s, expected %s", tc.freq, r, tc.hearOn)
				}
			}
		})
	}

	// Without a panel everything is heard on COM1.
	if r := TunedRadio(nil, aviation.NewFrequency(119.0)); r != COM1 {
		t.Errorf("TunedRadio with no state = %s", r)
	}
	if r := CanBeHeard(nil, aviation.NewFrequency(119.0)); r != COM1 {
		t.Errorf("CanBeHeard with no state = %s", r)
	}
}

func TestTransmittingFrequency(t *testing.T) {
	p := testProfile()
	base := map[string]float64{panel.FieldCOM1Frequency: 118_000_000, panel.FieldCOM2Frequency: 121_500_000}

	for _, tc := range []struct {
		mic  float64
		freq aviation.Frequency
	}{
		{1, aviation.NewFrequency(118.0)},
		{2, aviation.NewFrequency(121.5)},
		{0, 0}, // EMG
		{3, 0}, // COM3
		{7, 0}, // not a selector position
	} {
		state := map[string]float64{panel.FieldMicrophoneSelect: tc.mic}
		for k, v := range base {
			state[k] = v
		}
		if f := TransmittingFrequency(makeState(state), p); f != tc.freq {
			t.Errorf("microphone %v: transmitting on %s, expected %s", tc.mic, f, tc.freq)
		}
	}

	if f := TransmittingFrequency(nil, p); f != aviation.UnknownFrequency {
		t.Errorf("no state: transmitting on %s", f)
	}
}

func testAirport() aviation.Airport {
	return aviation.Airport{
		ICAO:      "LSZH",
		Name:      "Zurich Airport",
		Size:      aviation.LargeAirport,
		Latitude:  47.464699,
		Longitude: 8.54917,
		Frequencies: []aviation.AirportFrequency{
			{Category: aviation.CategoryATIS, Frequency: aviation.NewFrequency(128.525)},
			{Category: aviation.CategoryTower, Frequency: aviation.NewFrequency(118.1)},
			{Category: aviation.CategoryGround, Frequency: aviation.NewFrequency(121.9)},
			{Category: "CLNC DEL", Frequency: aviation.NewFrequency(121.8)},
		},
	}
}

func tunedTo(mhz1, mhz2 float64) map[string]float64 {
	return map[string]float64{
		panel.FieldCOM1Frequency: mhz1 * 1e6, panel.FieldCOM1AudioSelect: 1,
		panel.FieldCOM2Frequency: mhz2 * 1e6, panel.FieldCOM2AudioSelect: 1,
	}
}

func stationNames(st []aviation.Station) []string {
	var s []string
	for _, st := range st {
		s = append(s, st.String())
	}
	return s
}

func TestReachableStationsRange(t *testing.T) {
	ap := testAirport()
	ps := makeState(tunedTo(128.525, 119.0))

	for _, tc := range []struct {
		nm        float64
		reachable bool
	}{
		{0, true},
		{30, true},
		{69, true},
		{71, false},
		{300, false},
	} {
		loc := math.Offset2LL(ap.Location(), 45, tc.nm)
		st := ReachableStations(ps, &loc, &ap, nil)
		got := slices.ContainsFunc(st, func(s aviation.Station) bool { return s.Category == aviation.CategoryATIS })
		if got != tc.reachable {
			t.Errorf("ATIS at %v nm: reachable %v, expected %v (%v)", tc.nm, got, tc.reachable, stationNames(st))
		}
	}
}

func TestReachableStations(t *testing.T) {
	ap := testAirport()
	near := math.Offset2LL(ap.Location(), 270, 4)
	far := math.Offset2LL(ap.Location(), 270, 7)
	veryFar := math.Offset2LL(ap.Location(), 90, 5000)

	for _, tc := range []struct {
		name     string
		state    map[string]float64
		loc      *math.Point2LL
		expected []string
	}{
		{"tower and ground near", tunedTo(118.1, 121.9), &near,
			[]string{"LSZH TWR 118.100", "LSZH GND 121.900"}},
		{"ground out of range", tunedTo(118.1, 121.9), &far, []string{"LSZH TWR 118.100"}},
		{"unknown category uses OTHER range", tunedTo(121.8, 119.0), &far, []string{"LSZH CLNC DEL 121.800"}},
		{"unknown location", tunedTo(118.1, 121.9), nil, []string{"LSZH TWR 118.100", "LSZH GND 121.900"}},
		{"guard anywhere", tunedTo(121.5, 134.0), &veryFar, []string{"GUARD 121.500", "CENTER 134.000"}},
		{"not selected", map[string]float64{panel.FieldCOM1Frequency: 118_100_000}, &near, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st := ReachableStations(makeState(tc.state), tc.loc, &ap, nil)
			if names := stationNames(st); !slices.Equal(names, tc.expected) {
				t.Errorf("got %v, expected %v", names, tc.expected)
			}
		})
	}

	// GUARD is included at any finite distance, on either radio.
	ps := makeState(map[string]float64{panel.FieldCOM2Frequency: 121_500_000, panel.FieldCOM2AudioSelect: 1})
	for _, nm := range []float64{0, 100, 2000, 9000} {
		loc := math.Offset2LL(ap.Location(), 180, nm)
		st := ReachableStations(ps, &loc, &ap, &ap)
		if !slices.ContainsFunc(st, func(s aviation.Station) bool { return s.Category == aviation.CategoryGuard }) {
			t.Errorf("GUARD not reachable at %v nm", nm)
		}
	}
}

func TestCanPilotBeHeard(t *testing.T) {
	p := testProfile()
	ap := testAirport()
	near := math.Offset2LL(ap.Location(), 0, 3)

	state := tunedTo(118.1, 121.5)
	state[panel.FieldMicrophoneSelect] = 1
	if !CanPilotBeHeard(makeState(state), p, &near, &ap, nil) {
		t.Errorf("pilot not heard on tower frequency")
	}

	state[panel.FieldMicrophoneSelect] = 0 // EMG
	if CanPilotBeHeard(makeState(state), p, &near, &ap, nil) {
		t.Errorf("pilot heard transmitting on EMG")
	}

	state = tunedTo(119.0, 121.5)
	state[panel.FieldMicrophoneSelect] = 1
	if CanPilotBeHeard(makeState(state), p, &near, &ap, nil) {
		t.Errorf("pilot heard on a frequency nobody listens on")
	}

	if !CanPilotBeHeard(nil, p, nil, &ap, nil) {
		t.Errorf("pilot not heard without panel state")
	}
}

func TestLocationFromState(t *testing.T) {
	if _, ok := LocationFromState(makeState(nil)); ok {
		t.Errorf("location reported before the first position")
	}
	p, ok := LocationFromState(makeState(map[string]float64{panel.FieldLatitude: 47.46, panel.FieldLongitude: 8.55}))
	if !ok || p.Latitude() != 47.46 || p.Longitude() != 8.55 {
		t.Errorf("got %v, %v", p, ok)
	}
	if _, ok := LocationFromState(nil); ok {
		t.Errorf("location with no state")
	}
}
