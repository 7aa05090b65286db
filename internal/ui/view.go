package ui

import (
	"fmt"
	"strings"

	"cicada/internal/styles"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	switch m.CurrentView {
	case viewChecking:
		return m.renderChecking()
	case viewAuth:
		return m.renderAuth()
	default:
		return m.renderChat()
	}
}

func (m *Model) renderChecking() string {
	content := m.Spinner.View() + " Checking session..."
	if m.WindowWidth == 0 {
		return content
	}
	return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderAuth() string {
	title := styles.TitleStyle.Render("CICADA AI")

	loginTab := styles.TabInactiveStyle.Render("Login")
	registerTab := styles.TabInactiveStyle.Render("Register")
	if m.AuthMode == modeLogin {
		loginTab = styles.TabActiveStyle.Render("Login")
	} else {
		registerTab = styles.TabActiveStyle.Render("Register")
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Center, loginTab, " ", registerTab)

	labels := map[int]string{
		fieldUsername:  "Username",
		fieldEmail:     "Email",
		fieldPassword:  "Password",
		fieldFirstName: "First name",
		fieldLastName:  "Last name",
	}

	var rows []string
	for _, f := range m.visibleFields() {
		labelStyle := styles.FormLabelStyle
		if f == m.FocusIdx {
			labelStyle = styles.FormFocusedLabelStyle
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
			labelStyle.Render(labels[f]),
			m.Inputs[f].View(),
		))
	}

	var statusLine string
	if m.AuthBusy {
		statusLine = m.Spinner.View() + " Signing in..."
		if m.AuthMode == modeRegister {
			statusLine = m.Spinner.View() + " Creating account..."
		}
	} else if m.AuthErr != "" {
		statusLine = styles.ErrorStyle.Render(m.AuthErr)
	}

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Render("Tab: next field • Ctrl+T: switch login/register • Enter: submit • Esc: quit")

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	box := styles.FormBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, tabs, "", form, "", statusLine))
	content := lipgloss.JoinVertical(lipgloss.Center, title, "", box, "", hint)

	if m.WindowWidth == 0 {
		return content
	}
	return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderChat() string {
	inputWidth := m.WindowWidth - 4
	if inputWidth < 20 {
		inputWidth = 20
	}
	inputBox := styles.InputBoxStyle.Width(inputWidth).Render(m.TextInput.View())

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("CICADA AI"),
		"",
		m.Viewport.View(),
		"",
		inputBox,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	bottomBar := m.renderBottomBar()

	return lipgloss.JoinVertical(lipgloss.Left, chatArea, bottomBar)
}

func (m *Model) renderBottomBar() string {
	var who string
	if user := m.Session.User(); user != nil {
		who = fmt.Sprintf("%s <%s>", user.DisplayName(), user.Email)
	}
	who = TruncateRunes(who, 40)
	identity := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90CAF9")).
		Render(who)

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("/clear: reset chat • Ctrl+D: logout • Ctrl+C: quit")

	availableWidth := m.WindowWidth - lipgloss.Width(identity) - lipgloss.Width(help) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, identity, spacer, help)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int) string {
	art := `
 ╭─────────────────────────────────────────────╮
 │                                             │
 │    ██████╗██╗ ██████╗ █████╗ ██████╗  █████╗│
 │   ██╔════╝██║██╔════╝██╔══██╗██╔══██╗██╔══██│
 │   ██║     ██║██║     ███████║██║  ██║███████│
 │   ██║     ██║██║     ██╔══██║██║  ██║██╔══██│
 │   ╚██████╗██║╚██████╗██║  ██║██████╔╝██║  ██│
 │    ╚═════╝╚═╝ ╚═════╝╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═│
 │                                             │
 ╰─────────────────────────────────────────────╯
`
	subtitle := "Ready to chat! Send your first message to get started."

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
