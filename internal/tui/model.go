// Package tui is a terminal host for the launcher: a query line, the
// matching bindings and a key help footer.
package tui

import (
	"fmt"
	"strings"

	"lyxs/internal/launcher"
	"lyxs/internal/tui/components"
	"lyxs/internal/tui/messages"
	"lyxs/internal/tui/styles"
	"lyxs/internal/tui/views"
	"lyxs/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type Model struct {
	session *launcher.Session
	keys    types.KeyMap

	// Components
	input   textinput.Model
	help    help.Model
	results *components.ResultList
	status  *components.StatusBar

	// Outcome, read by the caller after the program exits
	selected *launcher.Item
	err      error
	quitting bool
}

func New(session *launcher.Session) *Model {
	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = styles.Theme.Prompt
	input.Placeholder = "binding name, e.g. epsilon"
	input.Focus()

	m := &Model{
		session: session,
		keys:    types.DefaultKeyMap(),
		input:   input,
		help:    help.New(),
		results: components.NewResultList(),
		status:  components.NewStatusBar(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return views.RenderMainView(m)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case messages.ReloadedMsg:
		if msg.Err != nil {
			m.status.SetError(fmt.Errorf("reload failed: %w", msg.Err))
		} else {
			m.status.SetText(fmt.Sprintf("bindings reloaded (%d)", m.session.Corpus().Len()))
		}
		m.refresh()
		return m, nil

	case messages.SelectedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.results.MoveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.results.MoveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		if item := m.results.Current(); item != nil {
			trigger := m.session.Config().Query.Trigger
			m.input.SetValue(strings.TrimPrefix(item.Completion, trigger))
			m.input.CursorEnd()
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m, m.selectCurrent()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refresh()
	}
	return m, cmd
}

// selectCurrent runs the highlighted item's action.
func (m *Model) selectCurrent() tea.Cmd {
	item := m.results.Current()
	if item == nil {
		return nil
	}
	chosen := *item
	m.selected = &chosen
	m.err = chosen.Action()
	return func() tea.Msg {
		return messages.SelectedMsg{Name: chosen.Text, Shortcut: chosen.Subtext, Err: m.err}
	}
}

func (m *Model) refresh() {
	trigger := m.session.Config().Query.Trigger
	m.results.SetItems(m.session.HandleQuery(launcher.NewQuery(trigger, m.input.Value())))
}

// Getters

func (m *Model) InputView() string {
	return m.input.View()
}

func (m *Model) Items() []launcher.Item {
	return m.results.Items()
}

func (m *Model) Cursor() int {
	return m.results.Cursor()
}

func (m *Model) StatusView() string {
	return m.status.View()
}

// Status returns the status line text and whether it reports an error.
func (m *Model) Status() (string, bool) {
	return m.status.Text()
}

func (m *Model) HelpView() string {
	return m.help.View(m.keys)
}

func (m *Model) Query() string {
	return m.input.Value()
}

func (m *Model) ShowFullHelp() bool {
	return m.help.ShowAll
}

// Selected returns the item chosen with Enter, if any.
func (m *Model) Selected() (launcher.Item, bool) {
	if m.selected == nil {
		return launcher.Item{}, false
	}
	return *m.selected, true
}

// Err returns the error from the selected item's action.
func (m *Model) Err() error {
	return m.err
}
