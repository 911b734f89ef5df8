// radio/watch.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package radio

import (
	"sync"

	"github.com/skyatc/radiopanel/aviation"
	"github.com/skyatc/radiopanel/log"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/panel"
)

// StateSource provides the current panel state; *panel.Session is one.
type StateSource interface {
	State() *panel.PanelState
}

// ATISPlayer plays an airport's ATIS broadcast on one of the radios.
type ATISPlayer interface {
	StartATIS(ap aviation.Airport, r Radio, volume float64)
	StopATIS()
}

// AudioMixer controls the audio output of each radio.
type AudioMixer interface {
	SetVolume(r Radio, volume float64)
	// Silence stops whatever is playing on the radio.
	Silence(r Radio)
}

// DefaultVolume is used when the panel doesn't report a radio's volume.
const DefaultVolume = 0.7

// ATISWatcher starts ATIS playback when the pilot tunes a radio with its
// audio selected to the ATIS frequency of one of the airports, and stops
// it when the radio is retuned or deselected.
type ATISWatcher struct {
	mu       sync.Mutex
	src      StateSource
	player   ATISPlayer
	airports []aviation.Airport
	playing  Radio
	lg       *log.Logger
}

func NewATISWatcher(src StateSource, player ATISPlayer, lg *log.Logger, airports ...aviation.Airport) *ATISWatcher {
	return &ATISWatcher{
		src:      src,
		player:   player,
		airports: airports,
		lg:       lg,
	}
}

// Playing returns the radio ATIS is playing on, or None.
func (w *ATISWatcher) Playing() Radio {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playing
}

func (w *ATISWatcher) PanelChanged(ev panel.ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps := w.src.State()

	if w.playing != None {
		freqField, selField, _ := w.playing.Fields()
		if ev.Field == freqField || (ev.Field == selField && !AudioSelected(ps, w.playing)) {
			w.lg.Info("stopping ATIS", "radio", w.playing, "change", ev)
			w.player.StopATIS()
			w.playing = None
		}
	}

	if w.playing == None {
		for _, r := range radios {
			freqField, selField, _ := r.Fields()
			if ev.Field != freqField && ev.Field != selField {
				continue
			}
			if !AudioSelected(ps, r) {
				continue
			}
			if ap, ok := w.atisAirport(Frequency(ps, r)); ok {
				w.lg.Info("starting ATIS", "airport", ap.ICAO, "radio", r)
				w.player.StartATIS(ap, r, volume(ps, r))
				w.playing = r
			}
			break
		}
	}
}

// atisAirport returns the first airport whose ATIS is broadcast on f.
func (w *ATISWatcher) atisAirport(f aviation.Frequency) (aviation.Airport, bool) {
	for _, ap := range w.airports {
		if af, ok := ap.ATISFrequency(); ok && af == f {
			return ap, true
		}
	}
	return aviation.Airport{}, false
}

func volume(ps *panel.PanelState, r Radio) float64 {
	_, _, field := r.Fields()
	if v, ok := ps.Get(field); ok && !v.IsString {
		return math.Clamp(v.Num, 0, 1)
	}
	return DefaultVolume
}

// VolumeWatcher follows the radios' volume knobs and audio select
// buttons.
type VolumeWatcher struct {
	mixer AudioMixer
	lg    *log.Logger
}

func NewVolumeWatcher(mixer AudioMixer, lg *log.Logger) *VolumeWatcher {
	return &VolumeWatcher{mixer: mixer, lg: lg}
}

func (w *VolumeWatcher) PanelChanged(ev panel.ChangeEvent) {
	for _, r := range radios {
		_, selField, volField := r.Fields()
		switch ev.Field {
		case volField:
			v := math.Clamp(ev.New.Float(), 0, 1)
			w.lg.Debug("volume changed", "radio", r, "volume", v)
			w.mixer.SetVolume(r, v)
		case selField:
			if ev.New.IsZero() {
				w.mixer.Silence(r)
			}
		}
	}
}

// Transmitter is keyed while the pilot holds the push-to-talk button.
// heard reports whether any station can hear the pilot; when it is false
// the consumer plays static instead of transmitting.
type Transmitter interface {
	StartTransmit(heard bool)
	StopTransmit()
}

// pushToTalkUnset is the push-to-talk button's value before the first
// reading; the change away from it is not a press or a release.
const pushToTalkUnset = -1

// PushToTalkWatcher keys the Transmitter when the push-to-talk button is
// pressed and unkeys it when the button is released.
type PushToTalkWatcher struct {
	mu                  sync.Mutex
	src                 StateSource
	profile             *panel.AircraftProfile
	origin, destination *aviation.Airport
	tx                  Transmitter
	pressed             bool
	lg                  *log.Logger
}

func NewPushToTalkWatcher(src StateSource, profile *panel.AircraftProfile, origin, destination *aviation.Airport,
	tx Transmitter, lg *log.Logger) *PushToTalkWatcher {
	return &PushToTalkWatcher{
		src:         src,
		profile:     profile,
		origin:      origin,
		destination: destination,
		tx:          tx,
		lg:          lg,
	}
}

// Pressed reports whether the button is currently held.
func (w *PushToTalkWatcher) Pressed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pressed
}

func (w *PushToTalkWatcher) PanelChanged(ev panel.ChangeEvent) {
	if ev.Field != panel.FieldPushToTalk {
		return
	}
	if !ev.Old.IsString && ev.Old.Num == pushToTalkUnset {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	pressed := !ev.New.IsZero()
	switch {
	case pressed && !w.pressed:
		ps := w.src.State()
		var loc *math.Point2LL
		if p, ok := LocationFromState(ps); ok {
			loc = &p
		}
		heard := CanPilotBeHeard(ps, w.profile, loc, w.origin, w.destination)
		w.lg.Info("push to talk pressed", "transmitting", TransmittingFrequency(ps, w.profile), "heard", heard)
		w.tx.StartTransmit(heard)
	case !pressed && w.pressed:
		w.lg.Info("push to talk released")
		w.tx.StopTransmit()
	}
	w.pressed = pressed
}
