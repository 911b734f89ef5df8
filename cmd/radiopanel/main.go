// cmd/radiopanel/main.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// radiopanel follows the radio panel of the aircraft flown in the
// simulator and reports which stations the pilot can hear.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/skyatc/radiopanel/aviation"
	"github.com/skyatc/radiopanel/log"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/panel"
	"github.com/skyatc/radiopanel/radio"
	"github.com/skyatc/radiopanel/util"

	"github.com/gen2brain/beeep"
	"github.com/goforj/godump"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const appName = "radiopanel"

var desktopNotify = beeep.Notify

var (
	aircraftModel    = pflag.StringP("aircraft", "a", "c172", "aircraft model to follow")
	backendKind      = pflag.String("backend", "", "require the aircraft's profile to use this backend: memory or snapshot")
	executable       = pflag.String("exe", "", "simulator executable name, overriding the profile's")
	baseOffset       = pflag.String("offset", "", "offset of the pointer chains from the executable's load address, overriding the profile's")
	shmName          = pflag.String("shm-name", "", "shared memory region name, overriding the profile's")
	shmSize          = pflag.Int("shm-size", 0, "shared memory region size in bytes, overriding the profile's")
	pollInterval     = pflag.Duration("interval", panel.DefaultPollInterval, "time between polls of the radio panel")
	logLevel         = pflag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir           = pflag.String("logdir", "", "log file directory")
	airportsPath     = pflag.String("airports", "", "JSON airport list to use instead of the built-in one")
	originICAO       = pflag.StringP("origin", "o", "", "ICAO code of the departure airport")
	destinationICAO  = pflag.StringP("destination", "d", "", "ICAO code of the arrival airport")
	profilesPath     = pflag.String("profiles", "", "JSON file with additional or replacement aircraft profiles")
	listAircraft     = pflag.Bool("list-aircraft", false, "list the available aircraft models and exit")
	dumpProfile      = pflag.Bool("dump-profile", false, "print the aircraft's profile and exit")
	stationsInterval = pflag.Duration("stations-interval", 30*time.Second, "how often to log the reachable stations")
	monitor          = pflag.BoolP("monitor", "m", false, "show the radio panel in the terminal")
	notify           = pflag.Bool("notify", false, "show desktop notifications when the simulator connects or disconnects")
)

func main() {
	pflag.Parse()

	lg := log.New(*logLevel, *logDir)

	if err := run(lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(lg *log.Logger) error {
	reg, err := panel.LoadRegistry(*profilesPath)
	if err != nil {
		return err
	}
	if *listAircraft {
		for _, m := range reg.Models() {
			p, _ := reg.Lookup(m)
			fmt.Printf("%-12s %-8s %d fields\n", m, p.Backend, len(p.Fields))
		}
		return nil
	}

	profile, err := reg.Lookup(*aircraftModel)
	if err != nil {
		return err
	}
	if err := applyOverrides(profile, reg); err != nil {
		return err
	}
	if *dumpProfile {
		godump.Dump(profile)
		return nil
	}

	origin, destination, err := lookupAirports(lg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *notify {
		beeep.AppName = appName
	}

	opts := panel.Options{
		Interval: *pollInterval,
		Logger:   lg,
		StatusListener: func(connected bool, err error) {
			reportConnection(connected, err, lg)
		},
	}
	session, err := panel.NewSession(profile, nil, opts)
	if err != nil {
		return err
	}

	var airports []aviation.Airport
	for _, ap := range []*aviation.Airport{origin, destination} {
		if ap != nil {
			airports = append(airports, *ap)
		}
	}

	if !*monitor {
		session.Subscribe(panel.ListenerFunc(func(ev panel.ChangeEvent) {
			lg.Info("panel changed", "change", ev)
		}))
	}
	session.Subscribe(radio.NewATISWatcher(session, &atisLogger{lg: lg}, lg, airports...))
	session.Subscribe(radio.NewVolumeWatcher(&mixerLogger{lg: lg}, lg))
	session.Subscribe(radio.NewPushToTalkWatcher(session, profile, origin, destination, &transmitLogger{lg: lg}, lg))

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			lg.Warn("stopping session", "error", err)
		}
	}()

	lg.Info("following radio panel", "aircraft", profile.Model, "backend", profile.Backend,
		"origin", *originICAO, "destination", *destinationICAO)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		reportStations(ctx, session, origin, destination, lg)
		return nil
	})
	if *monitor {
		eg.Go(func() error {
			defer cancel()
			return runMonitor(ctx, session, origin, destination, lg)
		})
	}
	return eg.Wait()
}

// applyOverrides applies the command-line settings to the profile.
func applyOverrides(p *panel.AircraftProfile, reg *panel.Registry) error {
	if kind := panel.BackendKind(strings.ToLower(*backendKind)); kind != "" && kind != p.Backend {
		var models []string
		for _, m := range reg.Models() {
			if mp, err := reg.Lookup(m); err == nil && mp.Backend == kind {
				models = append(models, m)
			}
		}
		return fmt.Errorf("%s: profile uses the %s backend; aircraft with %s profiles: %s",
			p.Model, p.Backend, kind, strings.Join(models, ", "))
	}

	if *executable != "" {
		p.Process.Executable = *executable
	}
	if *baseOffset != "" {
		off, err := panel.ParseOffset(*baseOffset)
		if err != nil {
			return err
		}
		p.Process.BaseOffset = off
	}
	if *shmName != "" {
		p.SharedMemory.Name = *shmName
	}
	if *shmSize > 0 {
		p.SharedMemory.Size = *shmSize
	}
	return nil
}

func lookupAirports(lg *log.Logger) (origin, destination *aviation.Airport, err error) {
	if *originICAO == "" && *destinationICAO == "" {
		return nil, nil, nil
	}

	// Drop parsed airport lists that haven't been loaded for a while.
	if n, err := util.CacheCullObjects(aviation.AirportCacheDir, 90*24*time.Hour); err != nil {
		lg.Warn("culling airport cache", "error", err)
	} else if n > 0 {
		lg.Info("culled airport cache", "removed", n)
	}

	var db *aviation.AirportDB
	if *airportsPath != "" {
		db, err = aviation.LoadAirportDB(*airportsPath, lg)
	} else {
		db, err = aviation.DefaultAirportDB()
	}
	if err != nil {
		return nil, nil, err
	}

	lookup := func(icao string) (*aviation.Airport, error) {
		if icao == "" {
			return nil, nil
		}
		ap, err := db.LookupErr(icao)
		if err != nil {
			return nil, err
		}
		return &ap, nil
	}
	if origin, err = lookup(*originICAO); err != nil {
		return nil, nil, err
	}
	if destination, err = lookup(*destinationICAO); err != nil {
		return nil, nil, err
	}
	return origin, destination, nil
}

func reportConnection(connected bool, err error, lg *log.Logger) {
	title, msg := "Simulator connected", "Following the radio panel."
	if !connected {
		title, msg = "Simulator disconnected", fmt.Sprintf("%v", err)
	}
	if *monitor {
		// The terminal belongs to the monitor.
		lg.Info(title, "error", err)
	} else {
		fmt.Printf("%s: %s\n", title, msg)
	}

	if *notify {
		// Called on the poll goroutine; notification backends can be slow.
		go func() {
			if nerr := desktopNotify(title, msg, ""); nerr != nil {
				lg.Warn("desktop notification failed", "error", nerr)
			}
		}()
	}
}

// reportStations periodically logs the stations the pilot can hear and
// whether they can be heard transmitting.
func reportStations(ctx context.Context, session *panel.Session, origin, destination *aviation.Airport,
	lg *log.Logger) {
	ticker := time.NewTicker(*stationsInterval)
	defer ticker.Stop()

	var last []string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !session.Connected() {
			continue
		}
		ps := session.State()
		var loc *math.Point2LL
		if p, ok := radio.LocationFromState(ps); ok {
			loc = &p
		}

		var names []string
		for _, st := range radio.ReachableStations(ps, loc, origin, destination) {
			names = append(names, fmt.Sprintf("%s (%s)", st, radio.CanBeHeard(ps, st.Frequency)))
		}
		if slices.Equal(names, last) {
			continue
		}
		last = names

		lg.Info("reachable stations", "stations", names,
			"transmitting", radio.TransmittingFrequency(ps, session.Profile()),
			"heard", radio.CanPilotBeHeard(ps, session.Profile(), loc, origin, destination))
	}
}

// atisLogger reports ATIS playback in the log; audio is produced by the
// ATC program that consumes our output.
type atisLogger struct {
	lg *log.Logger
}

func (a *atisLogger) StartATIS(ap aviation.Airport, r radio.Radio, volume float64) {
	freq, _ := ap.ATISFrequency()
	a.lg.Info("ATIS", "airport", ap.ICAO, "frequency", freq, "radio", r, "volume", volume)
}

func (a *atisLogger) StopATIS() {
	a.lg.Info("ATIS stopped")
}

type mixerLogger struct {
	lg *log.Logger
}

func (m *mixerLogger) SetVolume(r radio.Radio, volume float64) {
	m.lg.Debug("radio volume", "radio", r, "volume", volume)
}

func (m *mixerLogger) Silence(r radio.Radio) {
	m.lg.Debug("radio silenced", "radio", r)
}

// transmitLogger reports push-to-talk in the log; speech recognition and
// the static played when nobody can hear belong to the ATC program.
type transmitLogger struct {
	lg *log.Logger
}

func (t *transmitLogger) StartTransmit(heard bool) {
	if heard {
		t.lg.Info("transmitting")
	} else {
		t.lg.Info("transmitting; no station can hear the pilot")
	}
}

func (t *transmitLogger) StopTransmit() {
	t.lg.Info("transmission ended")
}
