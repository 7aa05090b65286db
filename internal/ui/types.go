package ui

import (
	"cicada/internal/chat"
	"cicada/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const MaxChatWidth = 100

// view is which screen the application is on.
type view int

const (
	viewChecking view = iota // startup session check in flight
	viewAuth
	viewChat
)

// authMode selects between the login and register forms.
type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

// Field order in the register form; the login form uses the first and third.
const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldFirstName
	fieldLastName
	fieldCount
)

type (
	// SessionCheckedMsg carries the resolved startup session state.
	SessionCheckedMsg struct{ Status session.Status }

	// AuthResultMsg is the outcome of a login or register attempt.
	AuthResultMsg struct{ Err error }

	LogoutDoneMsg struct{}

	HistoryLoadedMsg struct{ Err error }

	// SendDoneMsg signals that a send resolved; the thread already holds the
	// reconciled state.
	SendDoneMsg struct{}

	ResetDoneMsg struct{ Err error }
)

type Model struct {
	Session *session.Controller
	Thread  *chat.Thread
	Logger  *zap.Logger

	CurrentView view

	// Auth form
	AuthMode  authMode
	Inputs    []textinput.Model
	FocusIdx  int
	AuthErr   string
	AuthBusy  bool

	// Chat screen
	Viewport       viewport.Model
	TextInput      textarea.Model
	Spinner        spinner.Model
	Renderer       *glamour.TermRenderer
	Messages       []string
	Loading        bool // send in flight
	LoadingHistory bool

	WindowWidth  int
	WindowHeight int
}
