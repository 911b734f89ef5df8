// cmd/radiopanel/main_test.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/skyatc/radiopanel/panel"

	tea "github.com/charmbracelet/bubbletea"
)

func TestApplyOverrides(t *testing.T) {
	reg, err := panel.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	p, err := reg.Lookup("c172")
	if err != nil {
		t.Fatal(err)
	}

	*executable, *baseOffset, *shmName, *shmSize = "sim.exe", "0x2000", "RadioShm", 1024
	defer func() { *executable, *baseOffset, *shmName, *shmSize = "", "", "", 0 }()

	if err := applyOverrides(p, reg); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if p.Process.Executable != "sim.exe" || p.Process.BaseOffset != 0x2000 {
		t.Errorf("process %+v", p.Process)
	}
	if p.SharedMemory.Name != "RadioShm" || p.SharedMemory.Size != 1024 {
		t.Errorf("shared memory %+v", p.SharedMemory)
	}

	*baseOffset = "0xnope"
	if err := applyOverrides(p, reg); err == nil {
		t.Errorf("no error for an invalid offset")
	}
	*baseOffset = ""

	*backendKind = "snapshot"
	defer func() { *backendKind = "" }()
	err = applyOverrides(p, reg)
	if err == nil || !strings.Contains(err.Error(), "generic") {
		t.Errorf("expected an error naming the snapshot profiles, got %v", err)
	}
}

type fakeSource struct {
	ps        *panel.PanelState
	profile   *panel.AircraftProfile
	connected bool
}

func (f *fakeSource) State() *panel.PanelState { return f.ps }
func (f *fakeSource) Connected() bool { return f.connected }
func (f *fakeSource) Profile() *panel.AircraftProfile { return f.profile }

func TestMonitorModel(t *testing.T) {
	reg, err := panel.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	p, _ := reg.Lookup("c172")
	src := &fakeSource{ps: p.InitialState(), profile: p}

	m := newMonitorModel(src, nil, nil, time.Second)
	if v := m.View(); !strings.Contains(v, "waiting for simulator") {
		t.Errorf("view before connecting:\n%s", v)
	}

	src.connected = true
	src.ps = src.ps.WithValues(map[string]panel.Value{
		panel.FieldCOM1Frequency:    panel.Float(118_000_000),
		panel.FieldCOM1AudioSelect:  panel.Float(1),
		panel.FieldMicrophoneSelect: panel.Float(1),
		panel.FieldCOM2Frequency:    panel.Float(121_500_000),
		panel.FieldCOM2AudioSelect:  panel.Float(1),
	})
	m.Update(refreshMsg(time.Now()))

	v := m.View()
	for _, s := range []string{"connected", "118.000 MHz", "Transmitting: 118.000", "GUARD 121.500 on COM2"} {
		if !strings.Contains(v, s) {
			t.Errorf("view doesn't contain %q:\n%s", s, v)
		}
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Errorf("no command for q")
	}
}

func TestFieldDetail(t *testing.T) {
	reg, err := panel.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	p, _ := reg.Lookup("c172")

	for _, tc := range []struct {
		field    string
		v        float64
		expected string
	}{
		{panel.FieldCOM2Frequency, 124_350_000, "124.350 MHz"},
		{panel.FieldMicrophoneSelect, 2, "COM2"},
		{panel.FieldTransponderMode, 4, "ALT"},
		{panel.FieldTransponderCode, 7000, "7000"},
		{panel.FieldCOM1AudioSelect, 0, "off"},
		{panel.FieldCOM1Volume, 0.75, "75%"},
		{"PushSpeaker", 1, ""},
	} {
		if d := fieldDetail(p, tc.field, panel.Float(tc.v)); d != tc.expected {
			t.Errorf("%s=%v: got %q, expected %q", tc.field, tc.v, d, tc.expected)
		}
	}
}

func TestReportConnectionNotifiesAsynchronously(t *testing.T) {
	saved, savedNotify := desktopNotify, *notify
	defer func() { desktopNotify, *notify = saved, savedNotify }()

	release := make(chan struct{})
	titles := make(chan string, 1)
	desktopNotify = func(title, msg string, icon any) error {
		<-release
		titles <- title
		return nil
	}
	*notify = true

	done := make(chan struct{})
	go func() {
		reportConnection(true, nil, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reportConnection waited for the notification")
	}

	close(release)
	select {
	case title := <-titles:
		if title != "Simulator connected" {
			t.Errorf("notification title %q", title)
		}
	case <-time.After(time.Second):
		t.Fatal("notification not sent")
	}
}
