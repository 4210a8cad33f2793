package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/internal/workspace"
)

type view int

const (
	viewLogin view = iota
	viewTimer
	viewProjects
	viewReport
)

// reachInterval is how often the online/offline badge re-reads the prober.
const reachInterval = 30 * time.Second

type reachTickMsg time.Time

func reachTickCmd() tea.Cmd {
	return tea.Tick(reachInterval, func(t time.Time) tea.Msg {
		return reachTickMsg(t)
	})
}

// loggedOutMsg is sent once a logout has finished.
type loggedOutMsg struct{}

// App is the root Bubbletea model.
type App struct {
	ws        *workspace.Workspace
	version   string
	view      view
	login     loginModel
	timer     timerModel
	projects  projectsModel
	report    reportModel
	snap      session.Snapshot
	reachable bool
	restoring bool
	helpOpen  bool
	update    string // newer release, if any
	width     int
	height    int
	frame     int // logo shimmer animation frame
}

// NewApp creates the TUI over ws. version is the running build, used for
// the update check.
func NewApp(ws *workspace.Workspace, version string) App {
	return App{
		ws:        ws,
		version:   version,
		login:     newLoginModel(ws),
		timer:     newTimerModel(ws),
		projects:  newProjectsModel(ws),
		report:    newReportModel(ws),
		restoring: ws != nil,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.restore(), shimmerTickCmd(), clockTickCmd(), reachTickCmd(), checkVersion(a.version))
}

func (a App) restore() tea.Cmd {
	ws := a.ws
	if ws == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := ws.Restore(context.Background())
		return sessionMsg{snap: snap, err: err}
	}
}

func (a App) logout() tea.Cmd {
	ws := a.ws
	if ws == nil {
		return func() tea.Msg { return loggedOutMsg{} }
	}
	return func() tea.Msg {
		ws.Logout()
		return loggedOutMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login.width = msg.Width
		a.timer, _ = a.timer.Update(bodyMsg)
		a.projects, _ = a.projects.Update(bodyMsg)
		a.report, _ = a.report.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.login.frame = a.frame
		a.timer.frame = a.frame
		a.projects.frame = a.frame
		return a, shimmerTickCmd()

	case clockTickMsg:
		a.timer, _ = a.timer.Update(msg)
		return a, clockTickCmd()

	case reachTickMsg:
		if a.ws != nil {
			a.reachable = a.ws.Prober.Reachable()
			snap := a.ws.Session.Snapshot()
			if a.view != viewLogin && snap.State != session.Authenticated {
				return a.toLogin(snap), reachTickCmd()
			}
			a.snap = snap
		}
		return a, reachTickCmd()

	case versionCheckMsg:
		if msg.hasUpdate {
			a.update = msg.latestVersion
		}
		return a, nil

	case sessionMsg:
		a.restoring = false
		a.snap = msg.snap
		a.reachable = msg.snap.Session.BackendReachable
		a.login, _ = a.login.Update(msg)
		if msg.err != nil || msg.snap.State != session.Authenticated {
			a.view = viewLogin
			return a, nil
		}
		a.view = viewTimer
		a.timer = newTimerModel(a.ws)
		a.timer.width, a.timer.height = a.width, a.height-4
		a.timer = a.timer.sync()
		a.projects = newProjectsModel(a.ws)
		a.projects.width, a.projects.height = a.width, a.height-4
		return a, a.projects.Init()

	case registeredMsg:
		a.login, _ = a.login.Update(msg)
		return a, nil

	case loggedOutMsg:
		snap := session.Snapshot{}
		if a.ws != nil {
			snap = a.ws.Session.Snapshot()
		}
		return a.toLogin(snap), nil

	case projectChosenMsg:
		a.timer, _ = a.timer.Update(msg)
		a.view = viewTimer
		return a, nil

	case projectsLoadedMsg, projectChangedMsg:
		var cmd tea.Cmd
		a.projects, cmd = a.projects.Update(msg)
		return a, cmd

	case timerOpMsg, timerLoadedMsg:
		var cmd tea.Cmd
		a.timer, cmd = a.timer.Update(msg)
		a = a.checkExpired()
		return a, cmd

	case reportLoadedMsg:
		var cmd tea.Cmd
		a.report, cmd = a.report.Update(msg)
		a = a.checkExpired()
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc", "?":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			}
			return a, nil
		}
		if a.view == viewLogin {
			if a.restoring {
				return a, nil
			}
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}

		if !a.isEditing() {
			switch msg.String() {
			case "h", "?":
				a.helpOpen = true
				return a, nil
			case "q":
				return a, tea.Quit
			case "L":
				return a, a.logout()
			case "1":
				a.view = viewTimer
				a.timer = a.timer.sync()
				return a, nil
			case "2":
				if a.view != viewProjects {
					a.view = viewProjects
					return a, a.projects.Init()
				}
				return a, nil
			case "3":
				if a.view != viewReport {
					a.view = viewReport
					a.report.loading = true
					return a, a.report.Init()
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewTimer:
		a.timer, cmd = a.timer.Update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.Update(msg)
	case viewReport:
		a.report, cmd = a.report.Update(msg)
	}
	return a, cmd
}

// checkExpired moves to the login form when a backend call ended the
// session.
func (a App) checkExpired() App {
	if a.ws == nil || a.view == viewLogin {
		return a
	}
	snap := a.ws.Session.Snapshot()
	if snap.State == session.Authenticated {
		return a
	}
	return a.toLogin(snap)
}

func (a App) toLogin(snap session.Snapshot) App {
	a.snap = snap
	a.view = viewLogin
	a.helpOpen = false
	email := a.login.email
	a.login = newLoginModel(a.ws)
	a.login.email = email
	a.login.width = a.width
	if snap.State == session.Error && snap.Message != "" {
		a.login.err = snap.Message
	}
	if a.login.email != "" {
		a.login.focus = fieldPassword
	}
	return a
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin:
		return true
	case viewTimer:
		return a.timer.editing
	case viewProjects:
		return a.projects.editing()
	}
	return false
}

func (a App) View() string {
	// Header: centered shimmer logo, then the session line
	logo := renderShimmerLogo(a.frame, a.timer.snap.Timer.IsRunning)
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo

	var status []string
	if a.view != viewLogin && a.snap.Session.DisplayName != "" {
		status = append(status, selectedStyle.Render(a.snap.Session.DisplayName))
	}
	if !a.restoring {
		status = append(status, reachabilityBadge(a.reachable))
	}
	if a.update != "" {
		status = append(status, goldStyle.Render(a.update+" available"))
	}
	statusLine := strings.Join(status, metaStyle.Render(" . "))
	statusPad := max((a.width-lipgloss.Width(statusLine))/2, 0)
	header += "\n" + strings.Repeat(" ", statusPad) + statusLine

	// Tab bar: 1 Timer  2 Projects  3 Reports
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Timer", viewTimer},
		{"2", "Projects", viewProjects},
		{"3", "Reports", viewReport},
	}
	var tabBar strings.Builder
	if a.view != viewLogin {
		colWidth := a.width / len(tabs)
		for _, t := range tabs {
			var label string
			if t.v == a.view {
				label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
			} else {
				label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
			}
			if t.v == viewTimer && a.timer.snap.Timer.IsRunning && a.view != viewTimer {
				label += " " + clockStyle.Render("●")
			}
			labelWidth := lipgloss.Width(label)
			leftPad := max((colWidth-labelWidth)/2, 0)
			rightPad := max(colWidth-labelWidth-leftPad, 0)
			tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
		}
	}

	var body, help string
	switch a.view {
	case viewLogin:
		if a.restoring {
			body = "\n  " + dimStyle.Render("restoring session...")
		} else {
			body = a.login.View()
		}
		help = a.login.helpKeys()
	case viewTimer:
		body = a.timer.View()
		help = a.timer.helpKeys()
	case viewProjects:
		body = a.projects.View()
		help = a.projects.helpKeys()
	case viewReport:
		body = a.report.View()
		help = a.report.helpKeys()
	}
	if a.view != viewLogin {
		help += "  " + helpEntry("L", "logout")
	}

	if a.helpOpen {
		body = helpView()
		help = helpBar("esc", "close")
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar.String(), body, help)
}
