package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tempo/internal/report"
	"github.com/naveenspark/tempo/internal/workspace"
)

type reportLoadedMsg struct {
	kind  report.Kind
	table report.Table
	err   error
}

type reportModel struct {
	ws      *workspace.Workspace
	kind    int
	table   report.Table
	loaded  bool
	loading bool
	err     string
	status  string
	width   int
	height  int
}

func newReportModel(ws *workspace.Workspace) reportModel {
	return reportModel{ws: ws}
}

func (m reportModel) current() report.Kind {
	return report.Kinds[m.kind]
}

func (m reportModel) Init() tea.Cmd {
	if m.ws == nil {
		return nil
	}
	reports, kind := m.ws.Reports, m.current()
	return func() tea.Msg {
		t, err := reports.Table(context.Background(), kind, time.Time{}, time.Time{})
		return reportLoadedMsg{kind: kind, table: t, err: err}
	}
}

func (m reportModel) Update(msg tea.Msg) (reportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportLoadedMsg:
		if msg.kind != m.current() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.table = msg.table
		m.loaded = true
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
		m.status = ""
		switch msg.String() {
		case "tab", "l", "right":
			m.kind = (m.kind + 1) % len(report.Kinds)
			m.loading, m.loaded = true, false
			return m, m.Init()
		case "shift+tab", "left":
			m.kind = (m.kind + len(report.Kinds) - 1) % len(report.Kinds)
			m.loading, m.loaded = true, false
			return m, m.Init()
		case "r":
			m.loading = true
			return m, m.Init()
		case "y":
			if m.loaded {
				csv := m.table.CSV()
				return m, func() tea.Msg {
					return copyResultMsg{what: "report as CSV", err: clipboard.WriteAll(csv)}
				}
			}
		}
	}
	return m, nil
}

func (m reportModel) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	for i, k := range report.Kinds {
		label := string(k)
		if i == m.kind {
			b.WriteString(selectedStyle.Underline(true).Render(label))
		} else {
			b.WriteString(dimStyle.Render(label))
		}
		b.WriteString("   ")
	}
	window := "last 30 days"
	if m.current() == report.KindDaily {
		window = "last 7 days"
	}
	b.WriteString(metaStyle.Render(window) + "\n\n")

	switch {
	case m.err != "":
		b.WriteString("  " + errorStyle.Render("error: "+m.err) + "\n")
		return b.String()
	case !m.loaded:
		b.WriteString("  " + dimStyle.Render("loading report...") + "\n")
		return b.String()
	}

	for i, line := range strings.Split(strings.TrimRight(m.table.Text(), "\n"), "\n") {
		style := normalStyle
		if i == 0 {
			style = sectionHeaderStyle
		}
		b.WriteString("  " + style.Render(line) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n  " + accentStyle.Render(m.status) + "\n")
	}
	return b.String()
}

func (m reportModel) helpKeys() string {
	return helpBar("1-3", "tabs", "tab", "next report", "y", "copy csv", "r", "reload", "q", "quit")
}
