// panel/dispatch_test.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package panel

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

func TestDispatchOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var calls []string
	listener := func(name string) Listener {
		return ListenerFunc(func(ev ChangeEvent) {
			calls = append(calls, name+":"+ev.Field)
		})
	}
	d.Subscribe(listener("a"))
	d.Subscribe(ListenerFunc(func(ev ChangeEvent) {
		calls = append(calls, "panic:"+ev.Field)
		panic(fmt.Sprintf("listener failed on %s", ev.Field))
	}))
	idc := d.Subscribe(listener("c"))

	d.Dispatch([]ChangeEvent{{Field: "X", New: Float(1)}, {Field: "Y", New: Float(2)}})

	expected := []string{"a:X", "panic:X", "c:X", "a:Y", "panic:Y", "c:Y"}
	if !slices.Equal(calls, expected) {
		t.Errorf("got calls %v; expected %v", calls, expected)
	}

	calls = nil
	if !d.Unsubscribe(idc) {
		t.Errorf("Unsubscribe failed")
	}
	if d.Unsubscribe(idc) {
		t.Errorf("second Unsubscribe succeeded")
	}
	d.Dispatch([]ChangeEvent{{Field: "Z"}})
	if !slices.Equal(calls, []string{"a:Z", "panic:Z"}) {
		t.Errorf("got calls %v after unsubscribing", calls)
	}
	if d.Len() != 2 {
		t.Errorf("%d subscriptions; expected 2", d.Len())
	}
}

func TestSubscriptionSource(t *testing.T) {
	d := NewDispatcher(nil)
	d.Subscribe(ListenerFunc(func(ChangeEvent) {}))

	s, err := NewSession(testProfile(), newScriptedBackend(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.Subscribe(ListenerFunc(func(ChangeEvent) {}))

	for _, sub := range []subscription{d.subs[0], s.dispatcher.subs[0]} {
		if !strings.Contains(sub.source, "dispatch_test.go") {
			t.Errorf("subscription source %q is not the caller", sub.source)
		}
	}
}
