package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/stream-handle/capi"
	"github.com/wippyai/stream-handle/handle"
	"github.com/wippyai/stream-handle/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateList modelState = iota
	stateEnterPath
	stateEnterText
)

type handleRow struct {
	token registry.Token
	label string
}

type interactiveModel struct {
	rows     []handleRow
	labels   map[registry.Token]string
	input    textinput.Model
	events   chan registry.Event
	status   string
	failed   bool
	selected int
	state    modelState
}

// eventObserver forwards registry events into the TUI's message loop.
type eventObserver struct {
	ch chan registry.Event
}

func (o *eventObserver) OnHandleEvent(e registry.Event) {
	select {
	case o.ch <- e:
	default:
	}
}

func newInteractiveModel() *interactiveModel {
	ti := textinput.New()
	ti.Width = 40

	return &interactiveModel{
		labels: make(map[registry.Token]string),
		input:  ti,
		events: make(chan registry.Event, 16),
		state:  stateList,
	}
}

type registryEventMsg registry.Event

func (m *interactiveModel) waitForEvent() tea.Msg {
	return registryEventMsg(<-m.events)
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.waitForEvent
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state != stateList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)

	case registryEventMsg:
		m.refresh()
		return m, m.waitForEvent
	}

	return m, nil
}

func (m *interactiveModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.rows)-1 {
			m.selected++
		}

	case "n":
		tok := capi.NewNullHandle()
		m.labels[tok] = "discard"
		m.status = fmt.Sprintf("created discard handle %d", tok)
		m.failed = false
		m.refresh()

	case "s":
		tok := capi.NewStdoutHandle()
		m.labels[tok] = "stdout"
		m.status = fmt.Sprintf("created stdout handle %d", tok)
		m.failed = false
		m.refresh()

	case "p":
		m.state = stateEnterPath
		m.input.Prompt = "path: "
		m.input.SetValue("")
		m.input.Focus()

	case "w":
		if len(m.rows) > 0 {
			m.state = stateEnterText
			m.input.Prompt = "text: "
			m.input.SetValue("")
			m.input.Focus()
		}

	case "f":
		if len(m.rows) > 0 {
			ret := capi.HandleFlush(m.rows[m.selected].token)
			m.setStatus("flush", ret)
		}

	case "d":
		if len(m.rows) > 0 {
			capi.HandleDestroy(m.rows[m.selected].token)
			m.status = "handle destroyed"
			m.failed = false
			m.refresh()
		}
	}

	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateList
		m.input.Blur()
		return m, nil

	case "enter":
		value := m.input.Value()
		state := m.state
		m.state = stateList
		m.input.Blur()

		switch state {
		case stateEnterPath:
			tok := capi.NewPathHandle(value)
			if tok == 0 {
				m.status = fmt.Sprintf("could not open %q", value)
				m.failed = true
				return m, nil
			}
			m.labels[tok] = value
			m.status = fmt.Sprintf("created file handle %d", tok)
			m.failed = false
			m.refresh()

		case stateEnterText:
			ret := capi.HandleWrite(m.rows[m.selected].token, []byte(value))
			m.setStatus("write", ret)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) setStatus(op string, ret int32) {
	m.status = fmt.Sprintf("%s: %s", op, statusString(ret))
	m.failed = ret < 0
}

// refresh rebuilds the visible rows from the live registry.
func (m *interactiveModel) refresh() {
	m.rows = m.rows[:0]
	capi.Handles().Each(func(tok registry.Token, _ *handle.FileHandle) bool {
		label := m.labels[tok]
		if label == "" {
			label = "handle"
		}
		m.rows = append(m.rows, handleRow{token: tok, label: label})
		return true
	})

	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Stream Handles"))
	b.WriteString("\n\n")

	if m.state != stateList {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter confirm • esc cancel"))
		return b.String()
	}

	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("no live handles"))
		b.WriteString("\n")
	}
	for i, row := range m.rows {
		line := fmt.Sprintf("%s  %s", tokenStyle.Render(fmt.Sprintf("#%d", row.token)), row.label)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(resultStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n discard • s stdout • p path • w write • f flush • d drop • q quit"))
	return b.String()
}

func runInteractive() error {
	m := newInteractiveModel()

	obs := &eventObserver{ch: m.events}
	capi.Handles().Subscribe(obs)
	defer capi.Handles().Unsubscribe(obs)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
