package ui

import (
	"context"

	"cicada/internal/chat"
	"cicada/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

func InitialModel(sess *session.Controller, thread *chat.Thread, logger *zap.Logger) Model {
	ti := textarea.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 6
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#90CAF9")).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#90CAF9")).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#90CAF9"))

	vp := viewport.New(60, 15)

	m := Model{
		Session:   sess,
		Thread:    thread,
		Logger:    logger,
		CurrentView: viewChecking,
		AuthMode:  modeLogin,
		Viewport:  vp,
		TextInput: ti,
		Spinner:   sp,
		Messages:  []string{},
	}
	m.resetAuthInputs()
	return m
}

// resetAuthInputs rebuilds the auth form fields and focuses the first one.
func (m *Model) resetAuthInputs() {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 150
		in.Width = 32
		switch i {
		case fieldUsername:
			in.Placeholder = "username"
		case fieldEmail:
			in.Placeholder = "email"
		case fieldPassword:
			in.Placeholder = "password"
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		case fieldFirstName:
			in.Placeholder = "first name (optional)"
		case fieldLastName:
			in.Placeholder = "last name (optional)"
		}
		inputs[i] = in
	}
	inputs[fieldUsername].Focus()
	m.Inputs = inputs
	m.FocusIdx = fieldUsername
	m.AuthErr = ""
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.TextInput.Cursor.BlinkCmd(),
		m.Spinner.Tick,
		m.checkSessionCmd(),
	)
}

func (m *Model) checkSessionCmd() tea.Cmd {
	return func() tea.Msg {
		return SessionCheckedMsg{Status: m.Session.CheckSession(context.Background())}
	}
}

func NewProgram(sess *session.Controller, thread *chat.Thread, logger *zap.Logger) *tea.Program {
	m := InitialModel(sess, thread, logger)
	return tea.NewProgram(&m, tea.WithAltScreen())
}
