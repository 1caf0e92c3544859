// Package tui is the terminal Cathedral: a Bubble Tea program over a
// bridge client, plus a plain line mode for pipes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/riskscorer/riskscorer/internal/bridge"
	"github.com/riskscorer/riskscorer/internal/cathedral"
)

const (
	tickInterval = 100 * time.Millisecond
	fieldRows    = 3
	// header, glyph line, field, input, notice, help
	chromeHeight = 2 + fieldRows + 3
)

type keyMap struct {
	Send  key.Binding
	Glyph key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Send:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "consult")),
	Glyph: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next glyph")),
	Up:    key.NewBinding(key.WithKeys("ctrl+up"), key.WithHelp("ctrl+↑", "resonance")),
	Down:  key.NewBinding(key.WithKeys("ctrl+down"), key.WithHelp("ctrl+↓", "resonance")),
	Quit:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

func (k keyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.Send, k.Glyph, k.Up, k.Down, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

type (
	entryMsg      bridge.Entry
	transcriptEnd struct{}
	tickMsg       time.Time
	sendResultMsg struct{ err error }
)

// Model is the Bubble Tea model for the terminal Cathedral.
type Model struct {
	ctx    context.Context
	client *bridge.Client
	sub    chan bridge.Entry

	lines     []string
	viewport  viewport.Model
	input     textinput.Model
	resonance cathedral.Resonance
	field     *cathedral.Field
	status    bridge.Status
	notice    string

	width int
	ready bool
}

// New builds a model over client. The transcript so far is shown at once;
// later entries stream in.
func New(ctx context.Context, client *bridge.Client) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask the council..."
	ti.CharLimit = 500
	ti.Prompt = "✦ "
	ti.Focus()

	m := Model{
		ctx:    ctx,
		client: client,
		sub:    client.Transcript().Subscribe(),
		input:  ti,
		field:  cathedral.NewField(100, 30, false, uint64(time.Now().UnixNano())),
		status: client.Status(),
		width:  80,
	}
	for _, e := range client.Transcript().Entries() {
		m.lines = append(m.lines, styleEntry(e))
	}
	return m
}

// Close releases the transcript subscription.
func (m Model) Close() {
	m.client.Transcript().Unsubscribe(m.sub)
}

// Init starts the cursor, the transcript feed and the animation clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEntry(m.sub), tick())
}

func waitForEntry(ch <-chan bridge.Entry) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return transcriptEnd{}
		}
		return entryMsg(e)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) send(query string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		return sendResultMsg{err: client.Send(ctx, query)}
	}
}

// Update handles input, transcript entries and animation ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		h := max(msg.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.input.Width = max(msg.Width-4, 1)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Send):
			return m, m.send(m.input.Value())
		case key.Matches(msg, keys.Glyph):
			next := cathedral.NextGlyph(m.status.Glyph)
			if err := m.client.SetGlyph(next); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.status = m.client.Status()
			m.notice = fmt.Sprintf("Consulting %s, the %s", next, cathedral.RoleOf(next))
			return m, nil
		case key.Matches(msg, keys.Up):
			m.resonance.Increase()
			return m, nil
		case key.Matches(msg, keys.Down):
			m.resonance.Decrease()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case entryMsg:
		m.lines = append(m.lines, styleEntry(bridge.Entry(msg)))
		m.refreshViewport()
		return m, waitForEntry(m.sub)

	case transcriptEnd:
		m.notice = "The bridge has been shut down."
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.notice = bridge.Explain(msg.err)
			return m, nil
		}
		m.notice = ""
		m.input.Reset()
		return m, nil

	case tickMsg:
		m.field.Step(m.resonance.Level())
		m.status = m.client.Status()
		return m, tick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("✦ Quantum Cathedral") + "  " + styleStatus(m.status) + "\n")
	fmt.Fprintf(&b, "Consulting %s, the %s  ·  Resonance %d/%d · %s\n",
		m.status.Glyph, cathedral.RoleOf(m.status.Glyph),
		m.resonance.Level(), cathedral.MaxResonance, m.resonance.State())

	if m.ready {
		b.WriteString(m.viewport.View() + "\n")
	} else {
		b.WriteString(strings.Join(m.lines, "\n") + "\n")
	}

	for _, row := range renderDensity(m.field.Density(max(m.width, 1), fieldRows)) {
		b.WriteString(fieldStyle.Render(row) + "\n")
	}

	b.WriteString(m.input.View() + "\n")
	if m.notice != "" {
		b.WriteString(pendingStyle.Render(m.notice))
	}
	b.WriteString("\n" + dimStyle.Render(keys.help()))
	return b.String()
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, client *bridge.Client) error {
	m := New(ctx, client)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
