// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/codec-go/codec"
	"github.com/NimbleMarkets/codec-go/schema"
)

// FixturesPageModel lists the registered schema names on the left and,
// for whichever schema is highlighted, the "*.json" fixture files
// under config.FixtureDir whose name starts with the schema name on
// the right. Selecting a fixture parses it against the schema, encodes
// it on the fly and renders its size, envelope fields, body hex dump,
// and any diagnostics below the two tables, mirroring the read-only
// hex/fingerprint view codec-go-inspect prints on the command line.
// The encoded bytes are not decoded back.
type FixturesPageModel struct {
	config   Config
	registry *schema.Registry

	schemaNames    []string
	selectedSchema int

	fixtures        []string
	selectedFixture int

	detail string

	width  int
	height int

	schemaTable  table.Model
	fixtureTable table.Model
}

func NewFixturesPage(config Config, registry *schema.Registry) FixturesPageModel {
	schemaTable := table.New(table.WithColumns([]table.Column{
		{Title: "Schema", Width: 20},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	fixtureTableStyle := nimbleTableStyles
	fixtureTableStyle.Selected = lipgloss.NewStyle()
	fixtureTable := table.New(table.WithColumns([]table.Column{
		{Title: "Fixture", Width: 28},
	}), table.WithStyles(fixtureTableStyle),
		table.WithFocused(false))

	m := FixturesPageModel{
		config:          config,
		registry:        registry,
		schemaNames:     registry.Names(),
		selectedSchema:  -1,
		selectedFixture: -1,
		schemaTable:     schemaTable,
		fixtureTable:    fixtureTable,
		width:           20,
		height:          10,
	}

	var rows []table.Row
	for _, name := range m.schemaNames {
		rows = append(rows, table.Row{name})
	}
	m.schemaTable.SetRows(rows)
	m.updateSizes()
	return m
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m FixturesPageModel) Init() tea.Cmd {
	return nil
}

func (m FixturesPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case fixturesMsg:
		if msg.Error != nil {
			m.detail = fmt.Sprintf("error: %s", msg.Error)
			return m, nil
		}
		m.fixtures = msg.Files
		var rows []table.Row
		for _, f := range m.fixtures {
			rows = append(rows, table.Row{f})
		}
		m.fixtureTable.SetRows(rows)
		m.selectedFixture = -1
		m.detail = ""
		return m, nil

	case fixtureDetailMsg:
		if msg.Error != nil {
			m.detail = fmt.Sprintf("error: %s", msg.Error)
			return m, nil
		}
		m.detail = msg.Text
		return m, nil

	default:
		var cmd1, cmd2 tea.Cmd
		m.schemaTable, cmd1 = m.schemaTable.Update(msg)
		m.fixtureTable, cmd2 = m.fixtureTable.Update(msg)
		cmd3 := m.onSchemaSelection()
		cmd4 := m.onFixtureSelection()
		m.updateSizes()
		return m, tea.Batch(cmd1, cmd2, cmd3, cmd4)
	}
	return m, nil
}

func (m *FixturesPageModel) onSchemaSelection() tea.Cmd {
	cursor := m.schemaTable.Cursor()
	if cursor < 0 || cursor >= len(m.schemaNames) || cursor == m.selectedSchema {
		return nil
	}
	m.selectedSchema = cursor
	return listFixtures(m.config.FixtureDir, m.schemaNames[cursor])
}

func (m *FixturesPageModel) onFixtureSelection() tea.Cmd {
	cursor := m.fixtureTable.Cursor()
	if cursor < 0 || cursor >= len(m.fixtures) || cursor == m.selectedFixture {
		return nil
	}
	m.selectedFixture = cursor
	if m.selectedSchema < 0 {
		return nil
	}
	n, _ := m.registry.Lookup(m.schemaNames[m.selectedSchema])
	return describeFixture(n, filepath.Join(m.config.FixtureDir, m.fixtures[cursor]))
}

// View renders the FixturesPageModel's view.
func (m FixturesPageModel) View() string {
	schemaPane := nimbleBorderStyle.Render(m.schemaTable.View())
	fixturePane := nimbleBorderStyle.Render(m.fixtureTable.View())
	tables := lipgloss.JoinHorizontal(lipgloss.Top, schemaPane, fixturePane)
	if m.detail == "" {
		return tables
	}
	return lipgloss.JoinVertical(lipgloss.Left, tables, nimbleBorderStyle.Render(m.detail))
}

//////////////////////////////////////////////////////////////////////////////

func (m *FixturesPageModel) updateSizes() {
	availHeight := m.height - 2 - 2
	m.schemaTable.SetHeight(availHeight)
	m.fixtureTable.SetHeight(availHeight)
}

//////////////////////////////////////////////////////////////////////////////

type fixturesMsg struct {
	Files []string
	Error error
}

type fixtureDetailMsg struct {
	Text  string
	Error error
}

func listFixtures(dir, schemaName string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fixturesMsg{Error: err}
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			if strings.HasPrefix(e.Name(), schemaName) {
				files = append(files, e.Name())
			}
		}
		return fixturesMsg{Files: files}
	}
}

func describeFixture(n *schema.Node, path string) tea.Cmd {
	return func() tea.Msg {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fixtureDetailMsg{Error: err}
		}
		value, err := schema.ParseJSON(n, raw)
		if err != nil {
			return fixtureDetailMsg{Error: err}
		}
		buf, diags, err := codec.Encode(n, value)
		if err != nil {
			return fixtureDetailMsg{Error: err}
		}
		text := fmt.Sprintf("%d bytes  version=%d  fingerprint=%x", len(buf), buf[0], buf[1:codec.EnvelopeSize])
		text += fmt.Sprintf("\nbody: %x", buf[codec.EnvelopeSize:])
		for _, d := range diags {
			text += fmt.Sprintf("\ndiagnostic: %s", d.Message)
		}
		return fixtureDetailMsg{Text: text}
	}
}
