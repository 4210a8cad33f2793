package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/internal/config"
	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/internal/workspace"
	"github.com/naveenspark/tempo/pkg/domain"
)

func newTestApp() App {
	a := NewApp(nil, "dev")
	a.width = 80
	a.height = 30
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

// openOffline returns a workspace whose API is down, so every call lands on
// the local database.
func openOffline(t *testing.T) *workspace.Workspace {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.NewForTesting(t.TempDir())
	cfg.APIURL = url
	ws, err := workspace.Open(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("workspace.Open: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestAppStartsOnLogin(t *testing.T) {
	a := newTestApp()
	if a.view != viewLogin {
		t.Fatalf("expected login view, got %d", a.view)
	}

	// Global keys are plain text on the login form.
	a, _ = update(t, a, key("2"))
	a, _ = update(t, a, key("q"))
	if a.view != viewLogin {
		t.Errorf("expected to stay on login, got %d", a.view)
	}
	if a.login.email != "2q" {
		t.Errorf("expected keys typed into email, got %q", a.login.email)
	}
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key      string
		wantView view
	}{
		{"1", viewTimer},
		{"2", viewProjects},
		{"3", viewReport},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			app := newTestApp()
			app.view = viewTimer
			a, _ := update(t, app, key(tc.key))
			if a.view != tc.wantView {
				t.Errorf("after key %q: expected view=%d, got %d", tc.key, tc.wantView, a.view)
			}
		})
	}
}

func TestAppGlobalQuitOnQ(t *testing.T) {
	a := newTestApp()
	a.view = viewTimer
	_, cmd := update(t, a, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
}

func TestAppCtrlCQuitsFromLogin(t *testing.T) {
	_, cmd := update(t, newTestApp(), key("ctrl+c"))
	if cmd == nil {
		t.Fatal("expected quit command on ctrl+c, got nil")
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := newTestApp()
	a.view = viewTimer

	a, _ = update(t, a, key("h"))
	if !a.helpOpen {
		t.Fatal("expected helpOpen after 'h'")
	}
	if !strings.Contains(a.View(), "Everywhere") {
		t.Error("help overlay not rendered")
	}

	// Tab keys are swallowed while help is open.
	a, _ = update(t, a, key("2"))
	if a.view != viewTimer {
		t.Errorf("expected view unchanged under help, got %d", a.view)
	}
	a, _ = update(t, a, key("esc"))
	if a.helpOpen {
		t.Error("expected helpOpen=false after esc")
	}
}

func TestAppTimerEditingSwallowsGlobalKeys(t *testing.T) {
	a := newTestApp()
	a.view = viewTimer

	a, _ = update(t, a, key("i"))
	if !a.timer.editing {
		t.Fatal("expected timer editing after 'i'")
	}
	a, _ = update(t, a, key("2"))
	a, _ = update(t, a, key("q"))
	if a.view != viewTimer {
		t.Errorf("expected to stay on timer while editing, got %d", a.view)
	}
	if a.timer.input != "2q" {
		t.Errorf("expected keys typed into the description, got %q", a.timer.input)
	}
}

func TestAppProjectChosenSwitchesToTimer(t *testing.T) {
	a := newTestApp()
	a.view = viewProjects

	p := &domain.Project{ID: "p1", Name: "Website"}
	a, _ = update(t, a, projectChosenMsg{project: p})
	if a.view != viewTimer {
		t.Errorf("expected timer view, got %d", a.view)
	}
	if a.timer.project == nil || a.timer.project.ID != "p1" {
		t.Errorf("expected timer project p1, got %+v", a.timer.project)
	}
}

func TestAppLogoutReturnsToLogin(t *testing.T) {
	a := newTestApp()
	a.view = viewReport
	a.login.email = "ada@example.com"

	a, cmd := update(t, a, key("L"))
	if cmd == nil {
		t.Fatal("expected a logout command")
	}
	a, _ = update(t, a, cmd())
	if a.view != viewLogin {
		t.Fatalf("expected login view after logout, got %d", a.view)
	}
	if a.login.email != "ada@example.com" || a.login.focus != fieldPassword {
		t.Errorf("expected email kept and password focused, got %q focus=%d", a.login.email, a.login.focus)
	}
}

func TestAppFailedLoginStaysOnForm(t *testing.T) {
	a := newTestApp()
	rej := &backend.Rejection{Op: "login", Status: 401, Message: "Incorrect email or password"}
	a, _ = update(t, a, sessionMsg{snap: session.Snapshot{State: session.Error}, err: rej})
	if a.view != viewLogin {
		t.Fatalf("expected login view, got %d", a.view)
	}
	if !strings.Contains(a.View(), "Incorrect email or password") {
		t.Error("expected the rejection message on the form")
	}
}

func TestAppVersionBadge(t *testing.T) {
	a := newTestApp()
	a.view = viewTimer
	a, _ = update(t, a, versionCheckMsg{latestVersion: "v9.9.9", hasUpdate: true})
	if !strings.Contains(a.View(), "v9.9.9 available") {
		t.Error("expected the update badge in the header")
	}
}

func TestAppViewRendersEveryTab(t *testing.T) {
	for _, v := range []view{viewLogin, viewTimer, viewProjects, viewReport} {
		a := newTestApp()
		a.view = v
		out := a.View()
		if out == "" {
			t.Errorf("view %d rendered nothing", v)
		}
		if v != viewLogin && !strings.Contains(out, "Projects") {
			t.Errorf("view %d missing tab bar: %q", v, out)
		}
	}
}

func TestAppOfflineLoginStartStop(t *testing.T) {
	ws := openOffline(t)
	a := NewApp(ws, "dev")
	a.width, a.height = 100, 40
	if !a.restoring {
		t.Fatal("expected restoring until the first session message")
	}

	a, _ = update(t, a, a.restore()())
	if a.restoring || a.view != viewLogin {
		t.Fatalf("expected login form after empty restore, restoring=%v view=%d", a.restoring, a.view)
	}

	a.login.email = backend.DemoEmail
	a.login.password = backend.DemoPassword
	a, cmd := update(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("expected a login command")
	}
	a, cmd = update(t, a, cmd())
	if a.view != viewTimer {
		t.Fatalf("expected timer view after login, got %d (err %q)", a.view, a.login.err)
	}
	if cmd != nil {
		a, _ = update(t, a, cmd())
	}
	if len(a.projects.projects) == 0 {
		t.Error("expected demo projects to load after login")
	}

	a, _ = update(t, a, key("i"))
	for _, r := range "write docs #docs" {
		a, _ = update(t, a, key(string(r)))
	}
	a, cmd = update(t, a, key("enter"))
	if !a.timer.snap.Timer.IsRunning {
		t.Fatal("expected the timer to run before the backend answers")
	}
	a, _ = update(t, a, cmd())
	if a.timer.err != "" {
		t.Fatalf("start failed: %s", a.timer.err)
	}
	if got := a.timer.snap.Timer.Description; got != "write docs" {
		t.Errorf("description = %q, want write docs", got)
	}

	a, cmd = update(t, a, key("s"))
	if a.timer.snap.Timer.IsRunning {
		t.Fatal("expected the timer to stop immediately")
	}
	a, _ = update(t, a, cmd())
	if len(a.timer.snap.Recent) != 1 {
		t.Fatalf("expected one recent entry, got %d", len(a.timer.snap.Recent))
	}
	if tags := a.timer.snap.Recent[0].Tags; len(tags) != 1 || tags[0] != "docs" {
		t.Errorf("recent tags = %v, want [docs]", tags)
	}
}

func TestAppExpiredSessionReturnsToLogin(t *testing.T) {
	ws := openOffline(t)
	if _, err := ws.Login(context.Background(), backend.DemoEmail, backend.DemoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	a := NewApp(ws, "dev")
	a.restoring = false
	a.view = viewTimer

	ws.Session.HandleUnauthorized(ws.Session.Epoch())
	a, _ = update(t, a, timerOpMsg{op: "start", err: errors.New("rejected")})
	if a.view != viewLogin {
		t.Fatalf("expected login view after the session ended, got %d", a.view)
	}
	if !strings.Contains(a.login.err, "expired") {
		t.Errorf("expected an expiry message, got %q", a.login.err)
	}
}
