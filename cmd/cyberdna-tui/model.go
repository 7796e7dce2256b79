package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/registry"
	"github.com/dd0wney/cyberdna/pkg/workflow"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

type view int

const (
	overviewView view = iota
	locationsView
	consoleView
	registryView
	viewCount
)

var tabNames = [viewCount]string{"Overview", "Locations", "Console", "Registry"}

type model struct {
	ws       *workspace.Workspace
	registry *registry.Registry

	currentView view
	queryInput  textinput.Model
	locTable    table.Model
	regTable    table.Model
	help        help.Model
	keys        keyMap

	width  int
	height int

	// detail is the result panel under the active view
	detail     string
	message    string
	messageErr bool
	loadedAt   time.Time
}

func initialModel(ws *workspace.Workspace, reg *registry.Registry) model {
	ti := textinput.New()
	ti.Placeholder = "route A1"
	ti.CharLimit = 200
	ti.Width = 60

	locTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Address", Width: 10},
			{Title: "Category", Width: 20},
			{Title: "Command", Width: 36},
			{Title: "Coordinates", Width: 28},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	locTable.SetStyles(tableStyles())

	regTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Segment", Width: 38},
			{Title: "Title", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	regTable.SetStyles(tableStyles())

	m := model{
		ws:          ws,
		registry:    reg,
		currentView: overviewView,
		queryInput:  ti,
		locTable:    locTable,
		regTable:    regTable,
		help:        help.New(),
		keys:        keys,
	}
	m.refresh()
	return m
}

// refresh reloads table rows from the current snapshot and registry
func (m *model) refresh() {
	if snap, err := m.ws.Snapshot(); err == nil {
		rows := make([]table.Row, 0, snap.Legend.Len())
		for _, addr := range snap.Legend.Addresses() {
			loc, _ := snap.Legend.Location(addr)
			rows = append(rows, table.Row{
				string(addr),
				loc.Category,
				loc.Command,
				formatCoord(loc.Coordinates3D),
			})
		}
		m.locTable.SetRows(rows)
		m.loadedAt = snap.BuiltAt
	}

	if m.registry != nil {
		summaries := m.registry.List()
		rows := make([]table.Row, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, table.Row{s.SegmentID, s.Title})
		}
		m.regTable.SetRows(rows)
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.switchView((m.currentView + 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.ShiftTab):
			m.switchView((m.currentView + viewCount - 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.reload()
			return m, nil

		case key.Matches(msg, m.keys.Enter):
			m.activate()
			return m, nil
		}
	}

	switch m.currentView {
	case consoleView:
		m.queryInput, cmd = m.queryInput.Update(msg)
		cmds = append(cmds, cmd)
	case locationsView:
		m.locTable, cmd = m.locTable.Update(msg)
		cmds = append(cmds, cmd)
	case registryView:
		m.regTable, cmd = m.regTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) switchView(v view) {
	m.currentView = v
	m.detail = ""
	if v == consoleView {
		m.queryInput.Focus()
	} else {
		m.queryInput.Blur()
	}
}

func (m *model) reload() {
	snap, err := m.ws.Reload(context.Background())
	if err != nil {
		m.setError(err)
		return
	}
	m.refresh()
	m.setMessage(fmt.Sprintf("Reloaded %s: %d locations", snap.Source, snap.Legend.Len()))
}

// activate handles enter for the current view
func (m *model) activate() {
	switch m.currentView {
	case consoleView:
		m.runQuery()

	case locationsView:
		row := m.locTable.SelectedRow()
		if row == nil {
			return
		}
		m.runInput("nearby " + row[0])

	case registryView:
		row := m.regTable.SelectedRow()
		if row == nil || m.registry == nil {
			return
		}
		fn, err := m.registry.Summon(row[0])
		if err != nil {
			m.setError(err)
			return
		}
		m.detail = fmt.Sprintf("%s\nTraits: %s\n\n%s", fn.Title, strings.Join(fn.Traits, ", "), fn.Code)
		m.setMessage("Summoned " + row[0])
	}
}

func (m *model) runQuery() {
	input := strings.TrimSpace(m.queryInput.Value())
	if input == "" {
		m.message = "Query cannot be empty"
		m.messageErr = true
		return
	}
	m.runInput(input)
}

func (m *model) runInput(input string) {
	snap, err := m.ws.Snapshot()
	if err != nil {
		m.setError(err)
		return
	}
	cfg := m.ws.Config()

	start := time.Now()
	out, err := evaluate(snap, input, cfg.Legend.Radius, cfg.Legend.Tolerance)
	if err != nil {
		m.detail = ""
		m.setError(err)
		return
	}
	m.detail = out
	m.setMessage(fmt.Sprintf("%s in %s", input, time.Since(start).Round(time.Microsecond)))
}

func (m *model) setMessage(s string) {
	m.message = s
	m.messageErr = false
}

func (m *model) setError(err error) {
	m.message = err.Error()
	m.messageErr = true
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("cyberdna legend browser"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case overviewView:
		s.WriteString(m.renderOverview())
	case locationsView:
		s.WriteString(m.renderTable("Locations", m.locTable, "enter shows nearby processes"))
	case consoleView:
		s.WriteString(m.renderConsole())
	case registryView:
		s.WriteString(m.renderTable("Function Registry", m.regTable, "enter summons the selected function"))
	}

	if m.detail != "" {
		s.WriteString("\n")
		s.WriteString(contentStyle.Render(resultBoxStyle.Render(m.detail)))
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	rendered := make([]string, 0, len(tabNames))
	for i, tab := range tabNames {
		if view(i) == m.currentView {
			rendered = append(rendered, activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderOverview() string {
	snap, err := m.ws.Snapshot()
	if err != nil {
		return contentStyle.Render(helpStyle.Render("No legend loaded.\n\nStart with -map FILE, then ctrl+r reloads it."))
	}
	meta := snap.Legend.Metadata()

	var stats strings.Builder
	fmt.Fprintf(&stats, "Legend\n")
	fmt.Fprintf(&stats, "Source:     %s\n", snap.Source)
	fmt.Fprintf(&stats, "Snapshot:   %s\n", meta.SnapshotID)
	fmt.Fprintf(&stats, "Processes:  %d (%d located)\n", meta.TotalProcesses, snap.Legend.Len())
	fmt.Fprintf(&stats, "Edges:      %d (%s)\n", snap.Graph.EdgeCount(), snap.Graph.Strategy())
	fmt.Fprintf(&stats, "Cycles:     %d\n", len(snap.Graph.DetectCycles()))
	fmt.Fprintf(&stats, "Built:      %s", m.loadedAt.Format(time.TimeOnly))

	var cats strings.Builder
	cats.WriteString("Categories\n")
	for _, name := range snap.Legend.CategoryNames() {
		group, _ := snap.Legend.Category(name)
		cats.WriteString(categoryStyle(group.ColorCode).Render(fmt.Sprintf("● %-20s %3d", name, len(group.Processes))))
		cats.WriteString("\n")
	}

	nav := snap.Legend.Navigation()
	var shortcuts strings.Builder
	shortcuts.WriteString("Navigation\n")
	fmt.Fprintf(&shortcuts, "Entry points:   %s\n", shortcutAddresses(nav.EntryPoints))
	fmt.Fprintf(&shortcuts, "Critical paths: %s\n", shortcutAddresses(nav.CriticalPaths))
	fmt.Fprintf(&shortcuts, "Error handlers: %s\n", shortcutAddresses(nav.ErrorHandlers))
	fmt.Fprintf(&shortcuts, "Data flows:     %s", shortcutAddresses(nav.DataFlows))

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(stats.String()),
		boxStyle.Render(strings.TrimRight(cats.String(), "\n")),
	)
	return contentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, top, boxStyle.Render(shortcuts.String())))
}

func (m model) renderTable(title string, t table.Model, hint string) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(t.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(hint))
	return contentStyle.Render(s.String())
}

func (m model) renderConsole() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Query Console"))
	s.WriteString("\n\n")
	s.WriteString(m.queryInput.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Examples:\n  route A1\n  path B1 A1\n  order\n  nearby A1 2.5\n  locate 1.0 0 0.34\n  deps C1"))
	return contentStyle.Render(s.String())
}

func shortcutAddresses(shortcuts []legend.Shortcut) string {
	addrs := make([]workflow.Address, len(shortcuts))
	for i, sc := range shortcuts {
		addrs[i] = sc.Address
	}
	return joinAddresses(addrs, ", ")
}
