package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/tempo/internal/workspace"
	"github.com/naveenspark/tempo/pkg/domain"
)

type projectsMode int

const (
	projectsBrowse projectsMode = iota
	projectsAdding
	projectsRenaming
	projectsConfirmDelete
)

type projectsLoadedMsg struct {
	projects []domain.Project
	err      error
}

type projectChangedMsg struct {
	verb string
	err  error
}

type projectsModel struct {
	ws           *workspace.Workspace
	projects     []domain.Project
	cursor       int
	showArchived bool
	mode         projectsMode
	input        string
	loading      bool
	err          string
	status       string
	frame        int
	width        int
	height       int
}

func newProjectsModel(ws *workspace.Workspace) projectsModel {
	return projectsModel{ws: ws}
}

func (m projectsModel) Init() tea.Cmd {
	if m.ws == nil {
		return nil
	}
	ws := m.ws
	return func() tea.Msg {
		_, err := ws.Projects.Refresh(context.Background())
		return projectsLoadedMsg{projects: ws.Projects.List(true), err: err}
	}
}

func (m projectsModel) editing() bool {
	return m.mode != projectsBrowse
}

// visible returns the projects shown under the current filter.
func (m projectsModel) visible() []domain.Project {
	if m.showArchived {
		return m.projects
	}
	out := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		if !p.IsArchived {
			out = append(out, p)
		}
	}
	return out
}

func (m projectsModel) selected() (domain.Project, bool) {
	vis := m.visible()
	if m.cursor < 0 || m.cursor >= len(vis) {
		return domain.Project{}, false
	}
	return vis[m.cursor], true
}

func (m projectsModel) Update(msg tea.Msg) (projectsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.err = ""
		}
		m.projects = msg.projects
		if n := len(m.visible()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, nil

	case projectChangedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.status = "project " + msg.verb
		if m.ws != nil {
			m.projects = m.ws.Projects.List(true)
		}
		if n := len(m.visible()); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case projectsAdding, projectsRenaming:
			return m.updateInput(msg)
		case projectsConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m projectsModel) updateBrowse(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.mode = projectsAdding
		m.input = ""
	case "e":
		if p, ok := m.selected(); ok {
			m.mode = projectsRenaming
			m.input = p.Name
		}
	case "z":
		if p, ok := m.selected(); ok {
			return m, m.change("archived", func(ctx context.Context, ws *workspace.Workspace) error {
				_, err := ws.Projects.Archive(ctx, p.ID, !p.IsArchived)
				return err
			})
		}
	case "x":
		if _, ok := m.selected(); ok {
			m.mode = projectsConfirmDelete
		}
	case "A":
		m.showArchived = !m.showArchived
		m.cursor = 0
	case "r":
		m.loading = true
		return m, m.Init()
	case "enter":
		if p, ok := m.selected(); ok && !p.IsArchived {
			chosen := p
			return m, func() tea.Msg { return projectChosenMsg{project: &chosen} }
		}
	}
	return m, nil
}

func (m projectsModel) updateInput(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = projectsBrowse
		m.input = ""
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input)
		mode := m.mode
		m.mode = projectsBrowse
		m.input = ""
		if mode == projectsAdding {
			return m, m.change("added", func(ctx context.Context, ws *workspace.Workspace) error {
				_, err := ws.Projects.Create(ctx, domain.ProjectCreate{Name: name})
				return err
			})
		}
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.change("renamed", func(ctx context.Context, ws *workspace.Workspace) error {
			_, err := ws.Projects.Update(ctx, p.ID, domain.ProjectUpdate{Name: &name})
			return err
		})
	}
	m.input = editRune(m.input, msg.String())
	return m, nil
}

func (m projectsModel) updateConfirm(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	m.mode = projectsBrowse
	if msg.String() != "y" {
		return m, nil
	}
	p, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, m.change("deleted", func(ctx context.Context, ws *workspace.Workspace) error {
		return ws.Projects.Delete(ctx, p.ID)
	})
}

func (m projectsModel) change(verb string, fn func(context.Context, *workspace.Workspace) error) tea.Cmd {
	ws := m.ws
	if ws == nil {
		return nil
	}
	return func() tea.Msg {
		return projectChangedMsg{verb: verb, err: fn(context.Background(), ws)}
	}
}

func (m projectsModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	vis := m.visible()
	switch {
	case m.loading && len(m.projects) == 0:
		b.WriteString("  " + dimStyle.Render("loading projects...") + "\n")
	case len(vis) == 0:
		b.WriteString("  " + dimStyle.Render("no projects yet, press a to add one") + "\n")
	}

	nameW := max(m.width-30, 16)
	for i, p := range vis {
		name := ProjectStyle(p.Name, p.Color).Render(fmt.Sprintf("%-*s", nameW, truncStr(p.Name, nameW)))
		desc := dimStyle.Render(truncStr(p.Description, 24))
		if p.IsArchived {
			desc = metaStyle.Render("archived")
		}
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(" > "+name+" "+desc) + "\n")
		} else {
			b.WriteString("   " + name + " " + desc + "\n")
		}
	}
	b.WriteString("\n")

	switch m.mode {
	case projectsAdding:
		b.WriteString("  " + renderInput("new project > ", m.input, "", true, false, m.frame) + "\n")
	case projectsRenaming:
		b.WriteString("  " + renderInput("rename > ", m.input, "", true, false, m.frame) + "\n")
	case projectsConfirmDelete:
		if p, ok := m.selected(); ok {
			b.WriteString("  " + goldStyle.Render(fmt.Sprintf("delete %q? entries keep their time (y/n)", p.Name)) + "\n")
		}
	default:
		switch {
		case m.err != "":
			b.WriteString("  " + errorStyle.Render(m.err) + "\n")
		case m.status != "":
			b.WriteString("  " + accentStyle.Render(m.status) + "\n")
		}
	}
	return b.String()
}

func (m projectsModel) helpKeys() string {
	if m.editing() {
		return helpBar("enter", "save", "esc", "cancel")
	}
	return helpBar("1-3", "tabs", "enter", "use", "a", "add", "e", "rename", "z", "archive", "x", "delete", "A", "show archived", "q", "quit")
}
