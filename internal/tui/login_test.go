package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/pkg/domain"
)

func TestLoginTabCyclesFields(t *testing.T) {
	m := newLoginModel(nil)
	if m.focus != fieldEmail {
		t.Fatalf("expected email focused, got %d", m.focus)
	}
	m, _ = m.Update(key("tab"))
	if m.focus != fieldPassword {
		t.Errorf("expected password after tab, got %d", m.focus)
	}
	m, _ = m.Update(key("tab"))
	if m.focus != fieldEmail {
		t.Errorf("expected tab to wrap to email, got %d", m.focus)
	}
}

func TestLoginRegisterToggle(t *testing.T) {
	m := newLoginModel(nil)
	m, _ = m.Update(key("ctrl+r"))
	if !m.register || m.focus != fieldName {
		t.Fatalf("expected register mode with name focused, got register=%v focus=%d", m.register, m.focus)
	}
	if len(m.fields()) != 3 {
		t.Errorf("expected 3 fields while registering, got %d", len(m.fields()))
	}
	if !strings.Contains(m.View(), "Create an account") {
		t.Error("expected the register title")
	}
	m, _ = m.Update(key("ctrl+r"))
	if m.register || m.focus != fieldEmail {
		t.Errorf("expected log in mode with email focused, got register=%v focus=%d", m.register, m.focus)
	}
}

func TestLoginTypingFillsFocusedField(t *testing.T) {
	m := newLoginModel(nil)
	for _, r := range "a@b.c" {
		m, _ = m.Update(key(string(r)))
	}
	m, _ = m.Update(key("tab"))
	for _, r := range "pw" {
		m, _ = m.Update(key(string(r)))
	}
	if m.email != "a@b.c" || m.password != "pw" {
		t.Errorf("email=%q password=%q", m.email, m.password)
	}
	if strings.Contains(m.View(), "pw") {
		t.Error("password should be masked in the view")
	}
}

func TestLoginSubmitValidates(t *testing.T) {
	m := newLoginModel(nil)
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("expected no command for an empty form")
	}
	if m.err != "Email and password are required" {
		t.Errorf("err = %q", m.err)
	}

	m = newLoginModel(nil)
	m.register = true
	m.email, m.password = "a@b.c", "secret"
	m, cmd = m.Update(key("enter"))
	if cmd != nil || m.err != "Name is required" {
		t.Errorf("expected name validation, got err=%q cmd=%v", m.err, cmd != nil)
	}
}

func TestLoginSubmitIsBusy(t *testing.T) {
	m := newLoginModel(nil)
	m.email, m.password = "a@b.c", "secret"
	m, cmd := m.Update(key("enter"))
	if cmd == nil || !m.busy {
		t.Fatal("expected a busy form with a login command")
	}
	// Keys are ignored until the result arrives.
	m, _ = m.Update(key("x"))
	if m.password != "secret" {
		t.Errorf("expected input ignored while busy, got %q", m.password)
	}
}

func TestLoginErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejection", &backend.Rejection{Status: 401, Message: "Incorrect email or password"}, "Incorrect email or password"},
		{"wrapped rejection", fmt.Errorf("session.Login: %w", &backend.Rejection{Status: 400, Message: "Email already registered"}), "Email already registered"},
		{"expired", session.ErrSessionExpired, "Your session expired. Please log in again."},
		{"other", errors.New("disk full"), "disk full"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := loginError(tc.err); got != tc.want {
				t.Errorf("loginError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginRegisteredSwitchesToLogin(t *testing.T) {
	m := newLoginModel(nil)
	m.register = true
	m.busy = true
	m.email, m.password = "ada@example.com", "secret"
	m, _ = m.Update(registeredMsg{user: &domain.User{ID: "u1", Email: "ada@example.com"}})
	if m.register || m.busy {
		t.Fatalf("expected log in mode, got register=%v busy=%v", m.register, m.busy)
	}
	if m.password != "" || m.focus != fieldPassword {
		t.Errorf("expected password cleared and focused, got %q focus=%d", m.password, m.focus)
	}
	if !strings.Contains(m.View(), "Account created") {
		t.Error("expected the account created notice")
	}
}

func TestLoginViewShowsDemoHint(t *testing.T) {
	if !strings.Contains(newLoginModel(nil).View(), backend.DemoEmail) {
		t.Error("expected the demo account hint")
	}
}
