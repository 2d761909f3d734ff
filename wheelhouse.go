package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kwv/nautilus/pilot"
)

// helm is what the wheelhouse drives. *App implements it.
type helm interface {
	IsOnline() bool
	Connect(ctx context.Context) error
	Disconnect() error
	AddPoint(name, route, latText, lonText string) (string, error)
	RemovePoint(name, route string) (bool, string, error)
	Push(ctx context.Context, opts pilot.UpdateOptions) (*pilot.UpdateReport, error)
}

type screen int

const (
	screenMain screen = iota
	screenNewPin
	screenNewWaypoint
	screenDeletePin
)

var menuOptions = []string{
	"Switch",
	"Add pin",
	"Add way point",
	"Remove pin",
	"Update map",
	"Leave",
}

const (
	optSwitch = iota
	optAddPin
	optAddWaypoint
	optRemovePin
	optUpdateMap
	optLeave
)

// maxLogLines is how many messages the wheelhouse keeps
const maxLogLines = 50

var (
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	selectStyle  = lipgloss.NewStyle().Reverse(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	chamberStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(1, 2)
)

// Results of browser work done off the UI loop
type (
	connectedMsg    struct{ err error }
	disconnectedMsg struct{ err error }
	pushedMsg       struct {
		report *pilot.UpdateReport
		err    error
	}
)

type logLine struct {
	text string
	err  bool
}

type wheelhouse struct {
	helm helm

	width  int
	height int

	screen   screen
	selected int
	online   bool
	busy     bool

	inputs []textinput.Model
	labels []string
	focus  int

	log []logLine
}

func newWheelhouse(h helm) wheelhouse {
	return wheelhouse{helm: h, online: h.IsOnline()}
}

func (m wheelhouse) Init() tea.Cmd {
	return nil
}

func (m wheelhouse) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectedMsg:
		m.busy = false
		if msg.err != nil {
			m.addLog(fmt.Sprintf("could not go online: %v", msg.err), true)
		} else {
			m.addLog("online", false)
		}
		m.online = m.helm.IsOnline()
		return m, nil

	case disconnectedMsg:
		m.busy = false
		if msg.err != nil {
			m.addLog(fmt.Sprintf("closing browser: %v", msg.err), true)
		} else {
			m.addLog("offline", false)
		}
		m.online = m.helm.IsOnline()
		return m, nil

	case pushedMsg:
		m.busy = false
		if msg.err != nil {
			m.addLog(fmt.Sprintf("map update failed: %v", msg.err), true)
		} else {
			m.addLog(fmt.Sprintf("map updated with %s (%d bytes)", msg.report.FileName, msg.report.Bytes), false)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenMain {
			return m.updateMenu(msg)
		}
		return m.updateForm(msg)
	}

	return m, nil
}

func (m wheelhouse) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.selected = max(m.selected-1, 0)
	case "down", "j":
		m.selected = min(m.selected+1, len(menuOptions)-1)
	case "q":
		return m, tea.Quit
	case "enter":
		return m.choose()
	}
	return m, nil
}

func (m wheelhouse) choose() (tea.Model, tea.Cmd) {
	if m.busy && m.selected != optLeave {
		m.addLog("busy, wait for the browser", true)
		return m, nil
	}

	switch m.selected {
	case optSwitch:
		m.busy = true
		h := m.helm
		if m.online {
			m.addLog("going offline...", false)
			return m, func() tea.Msg { return disconnectedMsg{err: h.Disconnect()} }
		}
		m.addLog("going online...", false)
		return m, func() tea.Msg { return connectedMsg{err: h.Connect(context.Background())} }

	case optAddPin:
		return m.openForm(screenNewPin, "Name", "Latitude", "Longitude")
	case optAddWaypoint:
		return m.openForm(screenNewWaypoint, "Route", "Name", "Latitude", "Longitude")
	case optRemovePin:
		return m.openForm(screenDeletePin, "Name (blank for last)", "Route (blank for pins)")

	case optUpdateMap:
		if !m.online {
			m.addLog("offline: switch online before updating the map", true)
			return m, nil
		}
		m.busy = true
		m.addLog("updating map...", false)
		h := m.helm
		return m, func() tea.Msg {
			report, err := h.Push(context.Background(), pilot.UpdateOptions{})
			return pushedMsg{report: report, err: err}
		}

	case optLeave:
		return m, tea.Quit
	}
	return m, nil
}

func (m wheelhouse) openForm(s screen, labels ...string) (tea.Model, tea.Cmd) {
	m.screen = s
	m.labels = labels
	m.inputs = make([]textinput.Model, len(labels))
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 64
		ti.Width = 32
		m.inputs[i] = ti
	}
	m.focus = 0
	m.inputs[0].Focus()
	return m, textinput.Blink
}

func (m wheelhouse) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeForm()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m.moveFocus(1), nil
	case tea.KeyShiftTab, tea.KeyUp:
		return m.moveFocus(-1), nil
	case tea.KeyEnter:
		if m.focus < len(m.inputs)-1 {
			return m.moveFocus(1), nil
		}
		return m.submit(), nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m wheelhouse) moveFocus(delta int) wheelhouse {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

func (m *wheelhouse) closeForm() {
	m.screen = screenMain
	m.inputs = nil
	m.labels = nil
	m.focus = 0
}

func (m wheelhouse) value(i int) string {
	return strings.TrimSpace(m.inputs[i].Value())
}

// submit runs the form's store operation. Bad input keeps the form open.
func (m wheelhouse) submit() wheelhouse {
	switch m.screen {
	case screenNewPin, screenNewWaypoint:
		var name, route, lat, lon string
		if m.screen == screenNewPin {
			name, lat, lon = m.value(0), m.value(1), m.value(2)
		} else {
			route, name, lat, lon = m.value(0), m.value(1), m.value(2), m.value(3)
			if route == "" {
				m.addLog("invalid input: a way point needs a route", true)
				return m
			}
		}
		msg, err := m.helm.AddPoint(name, route, lat, lon)
		if err != nil {
			m.addLog(err.Error(), true)
			return m
		}
		m.addLog(msg, false)

	case screenDeletePin:
		ok, msg, err := m.helm.RemovePoint(m.value(0), m.value(1))
		switch {
		case err != nil:
			m.addLog(err.Error(), true)
		case !ok:
			m.addLog(msg, true)
		default:
			m.addLog(msg, false)
		}
	}

	m.closeForm()
	return m
}

func (m *wheelhouse) addLog(text string, isErr bool) {
	m.log = append(m.log, logLine{text: text, err: isErr})
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// chamberSize is 80% of the terminal, with a floor for tiny windows
func (m wheelhouse) chamberSize() (int, int) {
	w, h := m.width*8/10, m.height*8/10
	if m.width == 0 || m.height == 0 {
		w, h = 60, 20
	}
	return max(w, 30), max(h, 12)
}

func (m wheelhouse) View() string {
	w, h := m.chamberSize()

	var b strings.Builder
	b.WriteString(titleStyle.Render("-- Nautilus Wheelhouse --"))
	b.WriteString("\n\n")

	if m.online {
		b.WriteString("Status: " + onlineStyle.Render("Online"))
	} else {
		b.WriteString("Status: " + offlineStyle.Render("Offline"))
	}
	if m.busy {
		b.WriteString(dimStyle.Render("  (working)"))
	}
	b.WriteString("\n\n")

	used := 4
	if m.screen == screenMain {
		for i, opt := range menuOptions {
			line := "* " + opt
			if i == m.selected {
				line = selectStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		used += len(menuOptions)
	} else {
		for i, ti := range m.inputs {
			b.WriteString(m.labels[i] + "\n")
			b.WriteString(ti.View() + "\n")
		}
		b.WriteString(dimStyle.Render("tab: next field  enter: confirm  esc: back") + "\n")
		used += 2*len(m.inputs) + 1
	}

	// Log fills whatever rows the chamber has left.
	room := h - used - 4
	if room > 0 && len(m.log) > 0 {
		b.WriteString("\n")
		start := max(len(m.log)-room, 0)
		for _, l := range m.log[start:] {
			if l.err {
				b.WriteString(errorStyle.Render(l.text) + "\n")
			} else {
				b.WriteString(dimStyle.Render(l.text) + "\n")
			}
		}
	}

	chamber := chamberStyle.Width(w).Height(h).Render(b.String())
	if m.width == 0 || m.height == 0 {
		return chamber
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, chamber)
}

// runWheelhouse runs the TUI until the operator leaves. Log output goes to
// nautilus.log while the screen is taken.
func runWheelhouse(app *App) error {
	f, err := tea.LogToFile("nautilus.log", "nautilus")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	p := tea.NewProgram(newWheelhouse(app), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
