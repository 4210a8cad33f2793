package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tempo/internal/report"
	"github.com/naveenspark/tempo/internal/timer"
	"github.com/naveenspark/tempo/internal/workspace"
	"github.com/naveenspark/tempo/pkg/domain"
)

// clockTickMsg drives the elapsed display once a second.
type clockTickMsg time.Time

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// timerOpMsg reports a queued timer operation once the backend answered.
type timerOpMsg struct {
	op    string
	entry domain.TimeEntry
	err   error
}

// timerLoadedMsg carries the result of a refresh.
type timerLoadedMsg struct {
	snap timer.Snapshot
	err  error
}

// copyResultMsg reports a clipboard write.
type copyResultMsg struct {
	what string
	err  error
}

// projectChosenMsg selects the project for the next timer.
type projectChosenMsg struct {
	project *domain.Project
}

func waitCmd(op string, p *timer.Pending) tea.Cmd {
	return func() tea.Msg {
		e, err := p.Wait(context.Background())
		return timerOpMsg{op: op, entry: e, err: err}
	}
}

type timerModel struct {
	ws      *workspace.Workspace
	snap    timer.Snapshot
	now     time.Time
	input   string
	editing bool
	project *domain.Project
	cursor  int
	err     string
	status  string
	frame   int
	width   int
	height  int
}

func newTimerModel(ws *workspace.Workspace) timerModel {
	return timerModel{ws: ws, now: time.Now(), snap: timer.Snapshot{Timer: domain.IdleTimer()}}
}

func (m timerModel) store() *timer.Store {
	if m.ws == nil {
		return nil
	}
	return m.ws.Timer()
}

func (m timerModel) sync() timerModel {
	if s := m.store(); s != nil {
		m.snap = s.Snapshot()
	}
	if m.cursor >= len(m.snap.Recent) {
		m.cursor = max(len(m.snap.Recent)-1, 0)
	}
	return m
}

func (m timerModel) refresh() tea.Cmd {
	s := m.store()
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		err := s.Refresh(context.Background())
		return timerLoadedMsg{snap: s.Snapshot(), err: err}
	}
}

func (m timerModel) Update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clockTickMsg:
		m.now = time.Time(msg)
		return m.sync(), nil

	case timerLoadedMsg:
		m.snap = msg.snap
		m.err = ""
		if msg.err != nil && !errors.Is(msg.err, timer.ErrSessionEnded) {
			m.err = msg.err.Error()
		}
		return m.sync(), nil

	case timerOpMsg:
		m = m.sync()
		switch {
		case msg.err == nil:
			m.err = ""
		case errors.Is(msg.err, timer.ErrSessionEnded):
		default:
			m.err = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		}
		return m, nil

	case projectChosenMsg:
		m.project = msg.project
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied " + msg.what
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

func (m timerModel) updateEditing(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		m.editing = false
		if m.snap.Timer.IsRunning {
			return m.rename()
		}
		return m.start()
	}
	m.input = editRune(m.input, msg.String())
	return m, nil
}

func (m timerModel) updateNav(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "i", "/":
		m.editing = true
		if m.snap.Timer.IsRunning && m.input == "" {
			m.input = joinDescription(m.snap.Timer.Description, m.snap.Timer.Tags)
		}
	case "enter":
		if m.snap.Timer.IsRunning {
			m.editing = true
			return m, nil
		}
		return m.start()
	case "s", " ":
		if m.snap.Timer.IsRunning {
			return m.stop()
		}
		return m.start()
	case "p":
		return m.cycleProject()
	case "j", "down":
		if m.cursor < len(m.snap.Recent)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "y":
		if m.cursor < len(m.snap.Recent) {
			e := m.snap.Recent[m.cursor]
			text := entryLine(e, m.projectName(e.ProjectID))
			return m, func() tea.Msg {
				return copyResultMsg{what: "entry", err: clipboard.WriteAll(text)}
			}
		}
	case "d":
		if s := m.store(); s != nil && m.cursor < len(m.snap.Recent) {
			id := m.snap.Recent[m.cursor].ID
			return m, func() tea.Msg {
				err := s.DeleteEntry(context.Background(), id)
				return timerOpMsg{op: "delete", err: err}
			}
		}
	case "r":
		return m, m.refresh()
	}
	return m, nil
}

func (m timerModel) start() (timerModel, tea.Cmd) {
	s := m.store()
	if s == nil {
		return m, nil
	}
	desc, tags := parseDescription(m.input)
	var projectID *string
	if m.project != nil {
		id := m.project.ID
		projectID = &id
	}
	p, err := s.StartAsync(context.Background(), projectID, desc, tags)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.input = ""
	m.err = ""
	return m.sync(), waitCmd("start", p)
}

func (m timerModel) stop() (timerModel, tea.Cmd) {
	s := m.store()
	if s == nil {
		return m, nil
	}
	p, err := s.StopAsync(context.Background())
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	m.cursor = 0
	return m.sync(), waitCmd("stop", p)
}

func (m timerModel) rename() (timerModel, tea.Cmd) {
	s := m.store()
	if s == nil {
		return m, nil
	}
	desc, tags := parseDescription(m.input)
	p, err := s.UpdateAsync(context.Background(), domain.TimeEntryUpdate{Description: &desc, Tags: tags})
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.input = ""
	return m.sync(), waitCmd("update", p)
}

// cycleProject steps through the active projects and "no project". A
// running timer is moved to the new project.
func (m timerModel) cycleProject() (timerModel, tea.Cmd) {
	if m.ws == nil {
		return m, nil
	}
	projects := m.ws.Projects.List(false)
	next := 0
	if m.project != nil {
		for i, p := range projects {
			if p.ID == m.project.ID {
				next = i + 1
			}
		}
	}
	if next >= len(projects) {
		m.project = nil
	} else {
		p := projects[next]
		m.project = &p
	}

	if !m.snap.Timer.IsRunning {
		return m, nil
	}
	id := ""
	if m.project != nil {
		id = m.project.ID
	}
	pend, err := m.store().UpdateAsync(context.Background(), domain.TimeEntryUpdate{ProjectID: &id})
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	return m.sync(), waitCmd("update", pend)
}

func (m timerModel) projectName(id *string) string {
	if m.ws == nil || id == nil || *id == "" {
		return ""
	}
	return m.ws.Projects.Name(id)
}

func (m timerModel) View() string {
	var b strings.Builder
	st := m.snap.Timer

	b.WriteString("\n")
	if st.IsRunning {
		clock := clockStyle.Render(report.FormatClock(st.Elapsed(m.now)))
		desc := st.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&b, "  %s   %s\n", clock, selectedStyle.Render(truncStr(desc, max(m.width-20, 10))))
		var meta []string
		if name := m.projectName(st.ProjectID); name != "" {
			meta = append(meta, name)
		}
		if len(st.Tags) > 0 {
			meta = append(meta, renderTags(st.Tags))
		}
		meta = append(meta, dimStyle.Render("since "+st.StartTime.Local().Format("15:04")))
		if m.snap.Backend != "" {
			meta = append(meta, metaStyle.Render("via "+m.snap.Backend))
		}
		fmt.Fprintf(&b, "             %s\n", strings.Join(meta, dimStyle.Render(" · ")))
	} else {
		fmt.Fprintf(&b, "  %s   %s\n", idleClockStyle.Render("00:00:00"), dimStyle.Render("no timer running"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	placeholder := "what are you working on? #tags"
	if st.IsRunning {
		placeholder = "press i to rename"
	}
	b.WriteString("  " + renderInput("> ", m.input, placeholder, m.editing, false, m.frame) + "\n")
	projectLabel := "no project"
	if m.project != nil {
		projectLabel = ProjectStyle(m.project.Name, m.project.Color).Render(m.project.Name)
	}
	b.WriteString("  " + metaStyle.Render("project ") + projectLabel + "\n")

	switch {
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err) + "\n")
	case m.status != "":
		b.WriteString("  " + accentStyle.Render(m.status) + "\n")
	default:
		b.WriteString("\n")
	}

	sepW := max(m.width-2, 4)
	b.WriteString("  " + sectionHeaderStyle.Render("recent") + "\n")
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")
	if len(m.snap.Recent) == 0 {
		b.WriteString("  " + dimStyle.Render("nothing recorded yet") + "\n")
		return b.String()
	}
	descW := max(m.width-40, 12)
	for i, e := range m.snap.Recent {
		secs, _ := e.DurationSeconds()
		desc := e.Description
		if desc == "" {
			desc = "(no description)"
		}
		line := fmt.Sprintf("%-*s %10s  %s",
			descW, truncStr(desc, descW),
			report.FormatDuration(float64(secs)),
			formatAgo(endOf(e), m.now))
		if name := m.projectName(e.ProjectID); name != "" {
			line += "  " + name
		}
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(" > "+selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString("   " + normalStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m timerModel) helpKeys() string {
	if m.editing {
		return helpBar("enter", "save", "esc", "cancel")
	}
	action := "start"
	if m.snap.Timer.IsRunning {
		action = "stop"
	}
	return helpBar("1-3", "tabs", "s", action, "i", "describe", "p", "project", "y", "copy", "h", "help", "q", "quit")
}

func endOf(e domain.TimeEntry) time.Time {
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime
}

// joinDescription is the inverse of parseDescription.
func joinDescription(desc string, tags []string) string {
	parts := []string{desc}
	for _, t := range tags {
		parts = append(parts, "#"+t)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
