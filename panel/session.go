// panel/session.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyatc/radiopanel/log"
)

const DefaultPollInterval = 200 * time.Millisecond

var errBackendPanic = errors.New("backend panicked")

// StatusListener is called on the poll goroutine when the session gains
// or loses its connection to the simulator. err is the reason the
// connection was lost and is nil when connecting.
type StatusListener func(connected bool, err error)

type Options struct {
	// Interval between the starts of successive poll cycles;
	// DefaultPollInterval if zero.
	Interval       time.Duration
	Logger         *log.Logger
	StatusListener StatusListener
}

type SessionStatus int32

const (
	SessionIdle SessionStatus = iota
	SessionPolling
	SessionStopped
)

func (s SessionStatus) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionPolling:
		return "polling"
	case SessionStopped:
		return "stopped"
	default:
		return fmt.Sprintf("SessionStatus(%d)", int32(s))
	}
}

// Session polls one aircraft's panel through a backend and reports the
// changes to its subscribers. A session runs once: after Stop it can't
// be restarted.
type Session struct {
	profile     *AircraftProfile
	backend     Backend
	interval    time.Duration
	stopTimeout time.Duration
	onStatus    StatusListener

	dispatcher *Dispatcher
	state      atomic.Pointer[PanelState]
	status     atomic.Int32
	connected  atomic.Bool

	mu       sync.Mutex // serializes Start and Stop
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// Only accessed from the poll goroutine.
	cycle     uint64
	fieldErrs map[string]string

	lg *log.Logger
}

// NewSession returns an idle session for the given profile. If backend is
// nil, the profile's default backend is used.
func NewSession(profile *AircraftProfile, backend Backend, opts Options) (*Session, error) {
	if profile == nil {
		return nil, ErrUnknownAircraftModel
	}
	lg := opts.Logger.With("aircraft", profile.Model)

	if backend == nil {
		var err error
		if backend, err = NewBackend(profile, lg); err != nil {
			return nil, err
		}
	} else if backend.Kind() != profile.Backend {
		return nil, fmt.Errorf("%s: profile is for the %s backend, not %s: %w", profile.Model,
			profile.Backend, backend.Kind(), ErrInvalidProfile)
	}

	s := &Session{
		profile:     profile,
		backend:     backend,
		interval:    opts.Interval,
		stopTimeout: time.Second,
		onStatus:    opts.StatusListener,
		dispatcher:  NewDispatcher(lg),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
		fieldErrs:   make(map[string]string),
		lg:          lg,
	}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if log.RaceEnabled {
		s.stopTimeout *= 4
	}
	s.state.Store(profile.InitialState())
	return s, nil
}

func (s *Session) Profile() *AircraftProfile { return s.profile }

// State returns the most recently published panel state. It never
// returns nil.
func (s *Session) State() *PanelState { return s.state.Load() }

func (s *Session) Status() SessionStatus { return SessionStatus(s.status.Load()) }

// Connected reports whether the most recent poll cycle acquired any field.
func (s *Session) Connected() bool { return s.connected.Load() }

func (s *Session) Subscribe(l Listener) SubscriptionID {
	return s.dispatcher.subscribe(l, 2)
}

func (s *Session) Unsubscribe(id SubscriptionID) bool {
	return s.dispatcher.Unsubscribe(id)
}

// Start starts the backend and the poll loop. Failing to find the
// simulator isn't an error: the session keeps trying until it appears.
// The loop runs until Stop is called or ctx is canceled.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() != SessionIdle {
		return ErrSessionNotIdle
	}

	if err := s.backend.Start(); err != nil {
		if !isTransient(err) {
			if serr := s.backend.Stop(); serr != nil {
				s.lg.Warn("stopping backend", "error", serr)
			}
			return fmt.Errorf("%s: starting %s backend: %w", s.profile.Model, s.backend.Kind(), err)
		}
		s.lg.Warn("simulator not available yet; will keep trying", "error", err)
	}

	s.status.Store(int32(SessionPolling))
	s.lg.Info("session started", "backend", s.backend.Kind(), "interval", s.interval,
		"fields", len(s.profile.Fields))

	go s.run(ctx)
	return nil
}

// Stop stops the poll loop, waiting a bounded time for an in-flight cycle
// to finish, and releases the backend. If the loop doesn't exit in time,
// the returned error wraps context.DeadlineExceeded; the backend is then
// released when the cycle eventually completes and Stop may be called
// again to wait for it. Stopping a stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.Status() {
	case SessionIdle:
		return ErrSessionNotRunning
	case SessionStopped:
		// The loop may have exited because its context was canceled.
		<-s.done
		return nil
	}

	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.done:
		s.lg.Info("session stopped", "cycles", s.Cycles())
		return nil
	case <-time.After(s.stopTimeout):
		s.lg.Warn("poll loop did not exit in time", "timeout", s.stopTimeout)
		return fmt.Errorf("%s: poll loop still running after %s: %w", s.profile.Model, s.stopTimeout,
			context.DeadlineExceeded)
	}
}

// Cycles returns the number of completed poll cycles once the loop has
// exited.
func (s *Session) Cycles() uint64 {
	select {
	case <-s.done:
		return s.cycle
	default:
		return s.State().Cycle()
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.status.Store(int32(SessionStopped))
	defer func() {
		if err := s.backend.Stop(); err != nil {
			s.lg.Warn("stopping backend", "error", err)
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.lg.Info("context canceled", "error", ctx.Err())
			return
		default:
		}

		s.poll()

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.lg.Info("context canceled", "error", ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

// poll runs a single cycle: read every field, diff against the current
// state, publish the new state and dispatch the changes, which are also
// returned.
func (s *Session) poll() []ChangeEvent {
	s.cycle++
	fields := s.profile.Fields
	readings := s.read()
	prev := s.state.Load()

	var changes []ChangeEvent
	var connErr error
	connected := false
	for i, fd := range fields {
		r := readings[i]
		if r.Err != nil {
			if connErr == nil {
				connErr = r.Err
			}
			s.noteFieldError(fd.Name, r.Err)
			continue
		}
		connected = true
		delete(s.fieldErrs, fd.Name)

		if fd.SuppressZeroGlitch && r.Value.IsZero() {
			continue
		}
		if old, _ := prev.Get(fd.Name); !old.Equal(r.Value) {
			changes = append(changes, ChangeEvent{Field: fd.Name, Old: old, New: r.Value, Cycle: s.cycle})
		}
	}

	s.updateConnection(connected, connErr)

	if len(changes) > 0 {
		s.state.Store(prev.with(changes, s.cycle, time.Now()))
		for _, ch := range changes {
			s.lg.Debug("panel changed", "change", ch)
		}
		s.dispatcher.Dispatch(changes)
	}
	return changes
}

// read returns the backend's readings for all fields; a panicking backend
// leaves every field unknown for the cycle.
func (s *Session) read() (readings []Reading) {
	fields := s.profile.Fields
	readings = failAll(fields, errBackendPanic)
	defer s.lg.CatchAndReportPanic("backend panicked", "backend", s.backend.Kind(), "cycle", s.cycle)

	r := s.backend.ReadFields(fields)
	if len(r) != len(fields) {
		s.lg.Errorf("backend returned %d readings for %d fields", len(r), len(fields))
		return failAll(fields, fmt.Errorf("%d readings for %d fields: %w", len(r), len(fields), ErrInvalidProfile))
	}
	return r
}

// noteFieldError logs a field's acquisition error if it differs from the
// previous one. Errors while disconnected are reported by
// updateConnection instead.
func (s *Session) noteFieldError(name string, err error) {
	msg := err.Error()
	if s.fieldErrs[name] == msg {
		return
	}
	s.fieldErrs[name] = msg
	if s.connected.Load() || !isTransient(err) {
		s.lg.Debug("field unavailable", "field", name, "error", err)
	}
}

func (s *Session) updateConnection(connected bool, err error) {
	if s.connected.Swap(connected) == connected {
		return
	}
	if connected {
		s.lg.Info("connected to simulator", "cycle", s.cycle)
		err = nil
	} else {
		s.lg.Warn("lost connection to simulator", "cycle", s.cycle, "error", err)
	}
	if s.onStatus != nil {
		s.onStatus(connected, err)
	}
}
