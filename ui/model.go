// Package ui renders the chat screen in the terminal.
// It only reads projection.State snapshots pushed by the controller and
// forwards user intents back to it. It never changes chat state itself.
package ui

import (
	"fmt"
	"strings"
	"superchat/projection"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	Title = "Hola! Superchat"

	// header, welcome, input, notice and help lines
	chromeHeight = 6
	maxInputLen  = 2000
)

// Controller is the part of the chat controller the screen drives.
type Controller interface {
	State() projection.State
	SignIn() <-chan error
	SignOut() <-chan error
	SetCompose(text string)
	Send() <-chan error
}

// StateMsg carries a new controller state into the program.
type StateMsg projection.State

// NoticeMsg displays a transient line, such as the authorization URL.
type NoticeMsg string

type action int

const (
	loginAction action = iota
	logoutAction
	sendAction
)

// resultMsg is the outcome of a controller command.
type resultMsg struct {
	action action
	text   string
	err    error
}

type Model struct {
	controller Controller
	keys       KeyMap
	theme      Theme

	state    projection.State
	input    textinput.Model
	viewport viewport.Model
	notice   string
	busy     bool

	width  int
	height int
}

func NewModel(controller Controller) Model {
	input := textinput.New()
	input.Placeholder = "Write a message"
	input.CharLimit = maxInputLen
	return Model{
		controller: controller,
		keys:       DefaultKeyMap(),
		theme:      DefaultTheme(),
		state:      controller.State(),
		input:      input,
		viewport:   viewport.New(80, 20),
		width:      80,
		height:     20 + chromeHeight,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-4, 1)
		m.refresh()
		return m, nil

	case StateMsg:
		return m.onState(projection.State(msg))

	case NoticeMsg:
		m.notice = string(msg)
		return m, nil

	case resultMsg:
		return m.onResult(msg), nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) onState(state projection.State) (tea.Model, tea.Cmd) {
	wasSignedIn := m.state.IsSignedIn()
	m.state = state
	var cmd tea.Cmd
	switch {
	case state.IsSignedIn() && !wasSignedIn:
		m.notice = ""
		cmd = m.input.Focus()
	case !state.IsSignedIn() && wasSignedIn:
		m.input.Reset()
		m.input.Blur()
	}
	m.refresh()
	return m, cmd
}

func (m Model) onResult(result resultMsg) Model {
	if result.action == loginAction || result.action == logoutAction {
		m.busy = false
		m.notice = ""
	}
	// Failures are logged and reported upstream, the screen stays as it was
	if result.err != nil {
		return m
	}
	// Only clear what was sent, keep anything typed meanwhile.
	if result.action == sendAction && m.input.Value() == result.text {
		m.input.Reset()
	}
	return m
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if !m.state.IsSignedIn() {
		if key.Matches(msg, m.keys.Login) && !m.busy {
			m.busy = true
			m.notice = "Signing in..."
			return m, await(loginAction, "", m.controller.SignIn())
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Logout):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, await(logoutAction, "", m.controller.SignOut())
	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		return m, await(sendAction, text, m.controller.Send())
	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown, msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.controller.SetCompose(m.input.Value())
	}
	return m, cmd
}

func await(a action, text string, result <-chan error) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{action: a, text: text, err: <-result}
	}
}

// refresh re-renders the message list and keeps the newest one in view.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	if !m.state.IsSignedIn() {
		return ""
	}
	lines := make([]string, 0, len(m.state.Messages))
	for _, message := range m.state.Messages {
		if m.state.IsOwn(message) {
			bubble := m.theme.Own.Render(m.theme.Author.Render(message.Author.DisplayName) + ": " + message.Text)
			lines = append(lines, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble))
			continue
		}
		author := m.theme.Author.Render(message.Author.DisplayName)
		if message.Author.PhotoURL != "" {
			author = m.theme.Avatar.Render("["+message.Author.PhotoURL+"]") + " " + author
		}
		lines = append(lines, author, m.theme.Other.Render(message.Text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Header.Render(Title))
	b.WriteString("\n")

	if !m.state.IsSignedIn() {
		b.WriteString("\n")
		b.WriteString(m.theme.Button.Render("Login"))
		b.WriteString("\n")
		m.writeFooter(&b, m.keys.Login, m.keys.Quit)
		return b.String()
	}

	b.WriteString(m.theme.Welcome.Render(fmt.Sprintf("Welcome, %s!", m.state.Identity.DisplayName)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	m.writeFooter(&b, m.keys.Send, m.keys.Logout, m.keys.Quit)
	return b.String()
}

func (m Model) writeFooter(b *strings.Builder, bindings ...key.Binding) {
	if m.notice != "" {
		b.WriteString(m.theme.Notice.Render(m.notice))
	}
	b.WriteString("\n")
	help := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(m.theme.Help.Render(strings.Join(help, " • ")))
}
