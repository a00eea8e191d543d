package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/view"
)

// Model is the main Bubble Tea model for the dashboard.
type Model struct {
	snapshot    view.Snapshot
	searchInput textinput.Model
	tickerTable table.Model
	page        int
	searching   bool
	ready       bool
	err         error
	width       int
	height      int
}

// NewModel creates a new Model with initial state.
func NewModel(snapshot view.Snapshot) Model {
	return Model{
		snapshot:    snapshot,
		searchInput: NewSearchInput(),
		tickerTable: NewTickerTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case StoreUpdatedMsg:
		m.snapshot = msg.Snapshot
		m = m.refreshTable()

		return m, nil

	case BootstrapDoneMsg:
		m.ready = true

		return m, nil

	case BootstrapErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	var cmd tea.Cmd
	m.tickerTable, cmd = m.tickerTable.Update(msg)

	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.searchInput.Blur()
			m.page = 0
			m = m.refreshTable()

			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.page = 0
			m = m.refreshTable()

			return m, cmd
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.searchInput.Focus()

		return m, textinput.Blink
	case "left", "h":
		if m.page > 0 {
			m.page--
			m = m.refreshTable()
		}

		return m, nil
	case "right", "l":
		if m.page < PageCount(len(m.filteredTickers()))-1 {
			m.page++
			m = m.refreshTable()
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.tickerTable, cmd = m.tickerTable.Update(msg)

	return m, cmd
}

func (m Model) filteredTickers() []types.TickerSnapshot {
	return FilterTickers(m.snapshot.Tickers, m.searchInput.Value())
}

func (m Model) refreshTable() Model {
	filtered := m.filteredTickers()

	if last := PageCount(len(filtered)) - 1; m.page > last {
		m.page = last
	}

	m.tickerTable = UpdateTickerRows(m.tickerTable, PageSlice(filtered, m.page))

	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("%s — live market", m.snapshot.Symbol)))
	s.WriteString("  ")
	s.WriteString(HelpStyle.Render(string(m.snapshot.Connection)))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	if !m.ready {
		s.WriteString("Loading market data...\n")

		return s.String()
	}

	s.WriteString(FormatPriceWithDirection(m.snapshot.CurrentPrice, m.snapshot.PriceDirection))
	s.WriteString("\n")
	s.WriteString(renderSparkline(m.snapshot.Candles))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render(renderLastCandle(m.snapshot.Candles)))
	s.WriteString("\n\n")

	s.WriteString(renderWinner(m.snapshot))
	s.WriteString("\n\n")

	s.WriteString(TitleStyle.Render("Order Book"))
	s.WriteString("\n")
	s.WriteString(renderBook(m.snapshot.Asks, m.snapshot.Bids))
	s.WriteString("\n")

	s.WriteString(TitleStyle.Render("Markets"))
	s.WriteString("  ")
	s.WriteString(HelpStyle.Render(fmt.Sprintf("page %d/%d", m.page+1, PageCount(len(m.filteredTickers())))))
	s.WriteString("\n")

	if m.searching {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n")
	}

	s.WriteString(m.tickerTable.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("q: quit | /: search | ←/→: page"))

	return s.String()
}
