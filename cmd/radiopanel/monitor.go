// cmd/radiopanel/monitor.go
// Copyright(c) 2025 radiopanel contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skyatc/radiopanel/aviation"
	"github.com/skyatc/radiopanel/log"
	"github.com/skyatc/radiopanel/math"
	"github.com/skyatc/radiopanel/panel"
	"github.com/skyatc/radiopanel/radio"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008800", Dark: "#00FF00"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF4040"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#969B86", Dark: "#696969"})
	borderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"})
)

// stateSource is the part of *panel.Session the monitor uses.
type stateSource interface {
	State() *panel.PanelState
	Connected() bool
	Profile() *panel.AircraftProfile
}

type refreshMsg time.Time

// monitorModel is the bubbletea model showing the panel state.
type monitorModel struct {
	src         stateSource
	origin      *aviation.Airport
	destination *aviation.Airport
	interval    time.Duration

	fields   table.Model
	changed  map[string]uint64 // cycle of each field's last change
	prev     *panel.PanelState
	stations []string
	height   int
}

func newMonitorModel(src stateSource, origin, destination *aviation.Airport, interval time.Duration) *monitorModel {
	styles := table.DefaultStyles()
	styles.Selected = lipgloss.NewStyle()

	m := &monitorModel{
		src:         src,
		origin:      origin,
		destination: destination,
		interval:    interval,
		changed:     make(map[string]uint64),
		fields: table.New(
			table.WithColumns([]table.Column{
				{Title: "Field", Width: 26},
				{Title: "Value", Width: 16},
				{Title: "Detail", Width: 14},
				{Title: "Cycle", Width: 8},
			}),
			table.WithRows([]table.Row{}),
			table.WithFocused(false),
			table.WithHeight(len(src.Profile().Fields)+1),
			table.WithStyles(styles),
		),
	}
	m.refresh()
	return m
}

func (m *monitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *monitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.fields.SetHeight(min(len(m.src.Profile().Fields)+1, max(msg.Height-10, 3)))

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case refreshMsg:
		m.refresh()
		return m, m.tick()
	}
	return m, nil
}

// refresh updates the rows from the current panel state.
func (m *monitorModel) refresh() {
	ps := m.src.State()
	profile := m.src.Profile()

	var rows []table.Row
	for _, name := range ps.Names() {
		v, _ := ps.Get(name)
		if old, ok := m.prev.Get(name); ok && !old.Equal(v) {
			m.changed[name] = ps.Cycle()
		}

		cycle := ""
		if c, ok := m.changed[name]; ok {
			cycle = fmt.Sprintf("%d", c)
		}
		rows = append(rows, table.Row{name, v.String(), fieldDetail(profile, name, v), cycle})
	}
	m.fields.SetRows(rows)
	m.prev = ps

	var loc *math.Point2LL
	if p, ok := radio.LocationFromState(ps); ok {
		loc = &p
	}
	m.stations = m.stations[:0]
	for _, st := range radio.ReachableStations(ps, loc, m.origin, m.destination) {
		m.stations = append(m.stations, fmt.Sprintf("%s on %s", st, radio.CanBeHeard(ps, st.Frequency)))
	}
}

// fieldDetail interprets the value of fields whose meaning is known.
func fieldDetail(p *panel.AircraftProfile, name string, v panel.Value) string {
	fd, ok := p.Fields.Lookup(name)
	if !ok {
		return ""
	}
	switch fd.Role {
	case panel.RoleFrequency:
		if v.IsString || v.IsZero() {
			return ""
		}
		return aviation.FrequencyFromHz(v.Num).String() + " MHz"
	case panel.RoleMicrophone:
		label, _ := p.MicrophoneRadio(v)
		return label
	case panel.RoleTransponderMode:
		label, _ := p.TransponderModeLabel(v)
		return label
	case panel.RoleTransponderCode:
		return fmt.Sprintf("%04.0f", v.Float())
	case panel.RoleAudioSelect:
		if v.Float() > 0 {
			return "on"
		}
		return "off"
	case panel.RoleVolume:
		return fmt.Sprintf("%.0f%%", 100*v.Float())
	default:
		return ""
	}
}

func (m *monitorModel) View() string {
	var sb strings.Builder

	profile := m.src.Profile()
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s backend)", profile.Model, profile.Backend)))
	sb.WriteString("  ")
	if m.src.Connected() {
		sb.WriteString(okStyle.Render("connected"))
	} else {
		sb.WriteString(warnStyle.Render("waiting for simulator"))
	}
	sb.WriteString("\n")

	sb.WriteString(borderStyle.Render(m.fields.View()))
	sb.WriteString("\n")

	ps := m.src.State()
	tf := radio.TransmittingFrequency(ps, profile)
	switch {
	case tf == 0:
		sb.WriteString("Transmitting: " + warnStyle.Render("not on COM1 or COM2") + "\n")
	default:
		sb.WriteString("Transmitting: " + tf.String() + "\n")
	}

	if t := ps.Updated(); !t.IsZero() {
		sb.WriteString(dimStyle.Render("Last change: "+t.Format(time.TimeOnly)) + "\n")
	}

	sb.WriteString("Reachable: ")
	if len(m.stations) == 0 {
		sb.WriteString(dimStyle.Render("none"))
	} else {
		sb.WriteString(strings.Join(m.stations, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("q to quit"))
	sb.WriteString("\n")

	return sb.String()
}

func runMonitor(ctx context.Context, session *panel.Session, origin, destination *aviation.Airport,
	lg *log.Logger) error {
	m := newMonitorModel(session, origin, destination, max(*pollInterval, 100*time.Millisecond))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("monitor: %w", err)
	}
	lg.Info("monitor closed")
	return nil
}
