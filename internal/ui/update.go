package ui

import (
	"context"
	"strings"

	"cicada/internal/models"
	"cicada/internal/session"
	"cicada/internal/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Loading || m.LoadingHistory {
			m.UpdateViewport()
		}
		return m, spCmd

	case SessionCheckedMsg:
		if msg.Status == session.StatusAuthenticated {
			return m, m.enterChat()
		}
		m.CurrentView = viewAuth
		m.resetAuthInputs()
		return m, nil

	case AuthResultMsg:
		m.AuthBusy = false
		if msg.Err != nil {
			m.AuthErr = msg.Err.Error()
			return m, nil
		}
		return m, m.enterChat()

	case LogoutDoneMsg:
		m.Thread.Forget()
		m.Messages = []string{}
		m.Loading = false
		m.LoadingHistory = false
		m.CurrentView = viewAuth
		m.resetAuthInputs()
		return m, nil

	case HistoryLoadedMsg:
		m.LoadingHistory = false
		m.rebuildMessages()
		m.UpdateViewport()
		return m, nil

	case SendDoneMsg:
		m.Loading = false
		m.rebuildMessages()
		m.UpdateViewport()
		return m, nil

	case ResetDoneMsg:
		if msg.Err == nil {
			m.rebuildMessages()
			m.UpdateViewport()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		chatWidth := msg.Width - 2
		if chatWidth > MaxChatWidth {
			chatWidth = MaxChatWidth
		}
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.rebuildMessages()
		m.UpdateViewport()
		return m, nil

	case tea.KeyMsg:
		switch m.CurrentView {
		case viewAuth:
			return m.updateAuthKeys(msg)
		case viewChat:
			return m.updateChatKeys(msg)
		default:
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if m.CurrentView == viewChat {
		var tiCmd, vpCmd tea.Cmd
		m.TextInput, tiCmd = m.TextInput.Update(msg)
		m.updateInputLayout()
		m.Viewport, vpCmd = m.Viewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd)
	}
	if m.CurrentView == viewAuth && len(m.Inputs) > 0 {
		var cmd tea.Cmd
		m.Inputs[m.FocusIdx], cmd = m.Inputs[m.FocusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

// enterChat switches to the chat screen and kicks off the history load.
func (m *Model) enterChat() tea.Cmd {
	m.CurrentView = viewChat
	m.AuthErr = ""
	m.LoadingHistory = true
	m.TextInput.Reset()
	m.updateInputLayout()
	m.UpdateViewport()
	return tea.Batch(m.loadHistoryCmd(), m.Spinner.Tick)
}

func (m *Model) updateAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyCtrlT:
		if m.AuthMode == modeLogin {
			m.AuthMode = modeRegister
		} else {
			m.AuthMode = modeLogin
		}
		m.resetAuthInputs()
		return m, nil

	case tea.KeyTab, tea.KeyDown:
		m.moveFocus(1)
		return m, nil

	case tea.KeyShiftTab, tea.KeyUp:
		m.moveFocus(-1)
		return m, nil

	case tea.KeyEnter:
		return m, m.submitAuth()
	}

	var cmd tea.Cmd
	m.Inputs[m.FocusIdx], cmd = m.Inputs[m.FocusIdx].Update(msg)
	return m, cmd
}

// visibleFields returns the form fields for the current auth mode, in tab
// order.
func (m *Model) visibleFields() []int {
	if m.AuthMode == modeLogin {
		return []int{fieldUsername, fieldPassword}
	}
	return []int{fieldUsername, fieldEmail, fieldPassword, fieldFirstName, fieldLastName}
}

func (m *Model) moveFocus(delta int) {
	fields := m.visibleFields()
	pos := 0
	for i, f := range fields {
		if f == m.FocusIdx {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)

	m.Inputs[m.FocusIdx].Blur()
	m.FocusIdx = fields[pos]
	m.Inputs[m.FocusIdx].Focus()
}

func (m *Model) submitAuth() tea.Cmd {
	if m.AuthBusy {
		return nil
	}

	username := strings.TrimSpace(m.Inputs[fieldUsername].Value())
	password := m.Inputs[fieldPassword].Value()

	if m.AuthMode == modeLogin {
		if username == "" || password == "" {
			m.AuthErr = "Username and password are required"
			return nil
		}
		m.AuthBusy = true
		m.AuthErr = ""
		return tea.Batch(m.loginCmd(username, password), m.Spinner.Tick)
	}

	email := strings.TrimSpace(m.Inputs[fieldEmail].Value())
	if username == "" || email == "" || password == "" {
		m.AuthErr = "Username, email, and password are required"
		return nil
	}
	m.AuthBusy = true
	m.AuthErr = ""
	firstName := strings.TrimSpace(m.Inputs[fieldFirstName].Value())
	lastName := strings.TrimSpace(m.Inputs[fieldLastName].Value())
	return tea.Batch(m.registerCmd(username, email, password, firstName, lastName), m.Spinner.Tick)
}

func (m *Model) updateChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isNewlineShortcut(msg) {
		m.TextInput.InsertString("\n")
		m.updateInputLayout()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyCtrlD:
		return m, m.logoutCmd()

	case tea.KeyCtrlR:
		return m, m.resetCmd()

	case tea.KeyEnter:
		if m.Loading || m.LoadingHistory {
			return m, nil
		}
		input := strings.TrimSpace(m.TextInput.Value())
		if input == "" {
			return m, nil
		}

		if input == "/clear" || input == "/reset" {
			m.TextInput.Reset()
			m.updateInputLayout()
			return m, m.resetCmd()
		}

		if input == "/logout" {
			return m, m.logoutCmd()
		}

		// Optimistic display: the user's entry is visible before the round
		// trip; the thread reconciles the canonical state when SendDoneMsg
		// arrives.
		m.Messages = append(m.Messages, FormatUserMessage(input, m.Viewport.Width, len(m.Messages) == 0))
		m.TextInput.Reset()
		m.updateInputLayout()
		m.Loading = true
		m.UpdateViewport()
		return m, tea.Batch(m.sendCmd(input), m.Spinner.Tick)
	}

	var tiCmd, vpCmd tea.Cmd
	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()
	m.Viewport, vpCmd = m.Viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	maxInputHeight := 6
	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > maxInputHeight {
		lineCount = maxInputHeight
	}

	m.TextInput.MaxHeight = maxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	reserved := inputBoxHeight + 5
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}

func (m *Model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return AuthResultMsg{Err: m.Session.Login(context.Background(), username, password)}
	}
}

func (m *Model) registerCmd(username, email, password, firstName, lastName string) tea.Cmd {
	return func() tea.Msg {
		return AuthResultMsg{Err: m.Session.Register(context.Background(), username, email, password, firstName, lastName)}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.Session.Logout(context.Background())
		return LogoutDoneMsg{}
	}
}

func (m *Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		return HistoryLoadedMsg{Err: m.Thread.LoadHistory(context.Background())}
	}
}

func (m *Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		m.Thread.Send(context.Background(), text)
		return SendDoneMsg{}
	}
}

func (m *Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Err: m.Thread.Reset(context.Background())}
	}
}

// rebuildMessages re-renders the bubble list from the thread's canonical
// state.
func (m *Model) rebuildMessages() {
	msgs := m.Thread.Messages()
	rendered := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		switch msg.MessageType {
		case models.TypeUser:
			rendered = append(rendered, FormatUserMessage(msg.Content, m.Viewport.Width, i == 0))
		default:
			displayContent := msg.Content
			if m.Renderer != nil {
				if r, err := m.Renderer.Render(msg.Content); err == nil {
					displayContent = strings.TrimSpace(r)
				}
			}
			rendered = append(rendered, FormatAIMessage(displayContent))
		}
	}
	m.Messages = rendered
}

// UpdateViewport refreshes the chat viewport content.
func (m *Model) UpdateViewport() {
	if m.LoadingHistory {
		m.Viewport.SetContent(lipgloss.Place(
			m.Viewport.Width,
			m.Viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			m.Spinner.View()+" Loading chat history...",
		))
		return
	}

	if len(m.Messages) == 0 && !m.Loading {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	content := strings.Join(m.Messages, "\n\n")
	if m.Loading {
		loadingMsg := styles.AiLabelStyle.Render("CICADA") + "\n" + m.Spinner.View() + " Thinking..."
		if len(m.Messages) > 0 {
			content = content + "\n\n" + loadingMsg
		} else {
			content = loadingMsg
		}
	}
	m.Viewport.SetContent(content)
	m.Viewport.GotoBottom()
}
