// panel/dispatch.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/skyatc/radiopanel/log"
)

// Listener is notified of each accepted change, on the poll goroutine.
// Listeners should return promptly since the next poll cycle doesn't
// start until they have.
type Listener interface {
	PanelChanged(ev ChangeEvent)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ev ChangeEvent)

func (f ListenerFunc) PanelChanged(ev ChangeEvent) { f(ev) }

type SubscriptionID int

type subscription struct {
	id       SubscriptionID
	listener Listener
	// Callsite of Subscribe, to identify misbehaving listeners in the log.
	source string
}

func (s subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("id", int(s.id)),
		slog.String("source", s.source))
}

// Dispatcher delivers ChangeEvents to listeners in the order they
// subscribed.
type Dispatcher struct {
	mu     sync.Mutex
	subs   []subscription
	nextID SubscriptionID
	lg     *log.Logger
}

func NewDispatcher(lg *log.Logger) *Dispatcher {
	return &Dispatcher{lg: lg}
}

func (d *Dispatcher) Subscribe(l Listener) SubscriptionID {
	return d.subscribe(l, 2)
}

// subscribe records the caller skip frames up as the subscription's
// source.
func (d *Dispatcher) subscribe(l Listener, skip int) SubscriptionID {
	_, fn, line, _ := runtime.Caller(skip)
	source := fmt.Sprintf("%s:%d", fn, line)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.subs = append(d.subs, subscription{id: d.nextID, listener: l, source: source})
	return d.nextID
}

// Unsubscribe removes the listener; it reports whether id was subscribed.
func (d *Dispatcher) Unsubscribe(id SubscriptionID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := slices.IndexFunc(d.subs, func(s subscription) bool { return s.id == id })
	if idx == -1 {
		d.lg.Errorf("Attempted to unsubscribe invalid subscription %d", id)
		return false
	}
	d.subs = slices.Delete(d.subs, idx, idx+1)
	return true
}

func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Dispatch delivers each event to every listener before moving on to the
// next event. Listeners subscribed or unsubscribed during a dispatch take
// effect with the next call.
func (d *Dispatcher) Dispatch(events []ChangeEvent) {
	if len(events) == 0 {
		return
	}

	d.mu.Lock()
	subs := slices.Clone(d.subs)
	d.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			d.deliver(sub, ev)
		}
	}
}

func (d *Dispatcher) deliver(sub subscription, ev ChangeEvent) {
	defer d.lg.CatchAndReportPanic("listener panicked", slog.Any("subscription", sub), slog.Any("event", ev))

	sub.listener.PanelChanged(ev)
}
