package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/internal/workspace"
	"github.com/naveenspark/tempo/pkg/domain"
)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
	fieldName
)

// sessionMsg carries the outcome of a login, restore or logout.
type sessionMsg struct {
	snap session.Snapshot
	err  error
}

// registeredMsg carries the outcome of a registration.
type registeredMsg struct {
	user *domain.User
	err  error
}

type loginModel struct {
	ws       *workspace.Workspace
	register bool
	focus    loginField
	email    string
	password string
	name     string
	busy     bool
	err      string
	info     string
	frame    int
	width    int
}

func newLoginModel(ws *workspace.Workspace) loginModel {
	return loginModel{ws: ws}
}

func (m loginModel) fields() []loginField {
	if m.register {
		return []loginField{fieldName, fieldEmail, fieldPassword}
	}
	return []loginField{fieldEmail, fieldPassword}
}

func (m loginModel) move(delta int) loginModel {
	fields := m.fields()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	m.focus = fields[idx]
	return m
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		m.busy = false
		if msg.err != nil {
			m.err = loginError(msg.err)
			m.info = ""
			return m, nil
		}
		m.password = ""
		m.err = ""
		return m, nil

	case registeredMsg:
		m.busy = false
		if msg.err != nil {
			m.err = loginError(msg.err)
			return m, nil
		}
		m.register = false
		m.focus = fieldPassword
		m.password = ""
		m.err = ""
		m.info = "Account created. Log in to continue."
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m.move(1), nil
		case "shift+tab", "up":
			return m.move(-1), nil
		case "ctrl+r":
			m.register = !m.register
			m.err, m.info = "", ""
			if m.register {
				m.focus = fieldName
			} else {
				m.focus = fieldEmail
			}
			return m, nil
		case "enter":
			return m.submit()
		}
		switch m.focus {
		case fieldEmail:
			m.email = editRune(m.email, msg.String())
		case fieldPassword:
			m.password = editRune(m.password, msg.String())
		case fieldName:
			m.name = editRune(m.name, msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email)
	if email == "" || m.password == "" {
		m.err = "Email and password are required"
		return m, nil
	}
	if m.register && strings.TrimSpace(m.name) == "" {
		m.err = "Name is required"
		return m, nil
	}
	m.busy = true
	m.err, m.info = "", ""

	ws, password := m.ws, m.password
	if m.register {
		req := domain.RegisterRequest{Email: email, Name: strings.TrimSpace(m.name), Password: password}
		return m, func() tea.Msg {
			u, err := ws.Register(context.Background(), req)
			return registeredMsg{user: u, err: err}
		}
	}
	return m, func() tea.Msg {
		snap, err := ws.Login(context.Background(), email, password)
		return sessionMsg{snap: snap, err: err}
	}
}

// loginError turns a login failure into the message shown on the form.
func loginError(err error) string {
	var rej *backend.Rejection
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	if errors.Is(err, session.ErrSessionExpired) {
		return "Your session expired. Please log in again."
	}
	return err.Error()
}

func (m loginModel) View() string {
	var b strings.Builder
	title := "Log in"
	if m.register {
		title = "Create an account"
	}
	fmt.Fprintf(&b, "\n  %s\n\n", selectedStyle.Render(title))

	for _, f := range m.fields() {
		var line string
		switch f {
		case fieldName:
			line = renderInput("name      ", m.name, "Ada Lovelace", m.focus == f, false, m.frame)
		case fieldEmail:
			line = renderInput("email     ", m.email, "you@example.com", m.focus == f, false, m.frame)
		case fieldPassword:
			line = renderInput("password  ", m.password, "", m.focus == f, true, m.frame)
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("working...") + "\n")
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case m.info != "":
		b.WriteString("  " + accentStyle.Render(m.info) + "\n")
	default:
		b.WriteString("  " + metaStyle.Render("Offline? The demo account works without a server: "+backend.DemoEmail+" / "+backend.DemoPassword) + "\n")
	}
	return b.String()
}

func (m loginModel) helpKeys() string {
	toggle := "register"
	if m.register {
		toggle = "log in"
	}
	return helpBar("tab", "next", "enter", "submit", "ctrl+r", toggle, "ctrl+c", "quit")
}
