// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/codec-go/schema"
)

// Config configures the fixture browser. FixtureDir is scanned for
// "*.json" files to offer alongside each registered schema; it is
// read-only; the fixture browser makes no network calls.
type Config struct {
	FixtureDir string
}

func Run(config Config) error {
	model := NewAppModel(config)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

//////////////////////////////////////////////////////////////////////////////

type AppModel struct {
	config Config

	page tea.Model

	width            int
	height           int
	help             help.Model
	keyMap           AppKeyMap
	headerStyle      lipgloss.Style
	footerStyle      lipgloss.Style
	inactiveTabStyle lipgloss.Style
	activeTabStyle   lipgloss.Style
}

func NewAppModel(config Config) AppModel {
	return AppModel{
		config: config,
		page:   NewFixturesPage(config, schema.DefaultRegistry()),
		width:  20,
		height: 10,
		help:   help.New(),
		keyMap: DefaultAppKeyMap(),
		headerStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorDarkPurple),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorDarkPurple)),
		inactiveTabStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorDarkPurple)),
		activeTabStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorGrue)),
	}
}

///////////////////////////////////////////////////////////////////////////////
// AppKeyMap

// AppKeyMap is the all the [key.Binding] for the AppModel
type AppKeyMap struct {
	Quit key.Binding
}

// DefaultAppKeyMap returns a default set of key bindings for AppModel
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// FullHelp returns bindings to show the full help view.
// Implements bubble's [help.KeyMap] interface.
func (m *AppKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Quit}}
}

// ShortHelp returns bindings to show in the abbreviated help view. It's part
// of the help.KeyMap interface.
func (m AppKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Quit}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

// Init handles the initialization of an AppModel
func (m AppModel) Init() tea.Cmd {
	return m.page.Init()
}

// Update handles BubbleTea messages for the AppModel.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
	}

	page, cmd := m.page.Update(msg)
	m.page = page
	return m, cmd
}

// View renders the AppModel's view.
func (m AppModel) View() string {
	viewStr := m.headerView() + "\n"
	viewStr += m.page.View() + "\n"
	viewStr += m.footerView()
	return viewStr
}

///////////////////////////////////////////////////////////////////////////////

func (m *AppModel) headerView() string {
	header := m.headerStyle.Render(" codec-go-tui   ")
	name := "[ Fixtures ]"
	header += m.activeTabStyle.Render(name)
	header += m.headerStyle.Render(" ")

	const bigHeart = "❤"
	headerSuffix := m.headerStyle.Render(bigHeart + "nm ")
	restOfLine := maxInt(0, m.width-lipgloss.Width(header)-lipgloss.Width(headerSuffix))
	header += m.headerStyle.Render(strings.Repeat(" ", restOfLine))
	header += headerSuffix
	return header
}

func (m *AppModel) footerView() string {
	return m.help.View(&m.keyMap)
}
