package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/utils"
	"github.com/rxtech-lab/argo-dashboard/internal/view"
)

// tickerPageSize is the number of ticker rows per page.
const tickerPageSize = 10

// NewSearchInput creates the ticker search box.
func NewSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "search pairs"
	ti.CharLimit = 20
	ti.Width = 30
	ti.Prompt = "/ "

	return ti
}

// NewTickerTable creates the ticker overview table.
func NewTickerTable() table.Model {
	columns := []table.Column{
		{Title: "Pair", Width: 12},
		{Title: "Price", Width: 16},
		{Title: "24h %", Width: 10},
		{Title: "High", Width: 14},
		{Title: "Low", Width: 14},
		{Title: "Quote Vol", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(tickerPageSize),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// FilterTickers keeps tickers whose symbol contains the query,
// case-insensitively. An empty query keeps everything.
func FilterTickers(tickers []types.TickerSnapshot, query string) []types.TickerSnapshot {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return tickers
	}

	filtered := make([]types.TickerSnapshot, 0, len(tickers))

	for _, t := range tickers {
		if strings.Contains(t.Symbol, query) {
			filtered = append(filtered, t)
		}
	}

	return filtered
}

// PageCount returns the number of ticker pages for n rows.
func PageCount(n int) int {
	if n == 0 {
		return 1
	}

	return (n + tickerPageSize - 1) / tickerPageSize
}

// PageSlice returns the rows of one zero-based page.
func PageSlice(tickers []types.TickerSnapshot, page int) []types.TickerSnapshot {
	start := page * tickerPageSize
	if start >= len(tickers) {
		return nil
	}

	end := start + tickerPageSize
	if end > len(tickers) {
		end = len(tickers)
	}

	return tickers[start:end]
}

// UpdateTickerRows fills the table with one page of tickers.
func UpdateTickerRows(t table.Model, tickers []types.TickerSnapshot) table.Model {
	rows := make([]table.Row, 0, len(tickers))

	for _, ticker := range tickers {
		changeStr := ticker.PriceChangePercent.StringFixed(2) + "%"
		if ticker.PriceChangePercent.IsNegative() {
			changeStr = DownStyle.Render(changeStr)
		} else {
			changeStr = UpStyle.Render(changeStr)
		}

		rows = append(rows, table.Row{
			ticker.Symbol,
			utils.FormatPrice(ticker.LastPrice),
			changeStr,
			utils.FormatPrice(ticker.HighPrice),
			utils.FormatPrice(ticker.LowPrice),
			ticker.QuoteVolume.StringFixed(0),
		})
	}

	t.SetRows(rows)

	return t
}

// renderBook renders the order book tape: asks from worst to best, a spread
// line, then bids from best to worst.
func renderBook(asks, bids []types.BookLevel) string {
	var s strings.Builder

	for i := len(asks) - 1; i >= 0; i-- {
		s.WriteString(DownStyle.Render(bookRow(asks[i])))
		s.WriteString("\n")
	}

	if len(asks) > 0 && len(bids) > 0 {
		spread := asks[0].Price.Sub(bids[0].Price)
		s.WriteString(fmt.Sprintf("  ── spread %s ──\n", utils.FormatPrice(spread.Abs())))
	}

	for _, bid := range bids {
		s.WriteString(UpStyle.Render(bookRow(bid)))
		s.WriteString("\n")
	}

	return s.String()
}

func bookRow(level types.BookLevel) string {
	return fmt.Sprintf("  %14s  %12s  %14s",
		utils.FormatPrice(level.Price),
		level.Quantity.String(),
		level.Value().StringFixed(2),
	)
}

// sparklineRunes maps a normalized close onto a vertical bar glyph.
var sparklineRunes = []rune("▁▂▃▄▅▆▇█")

// renderSparkline draws the candle window's closes as a one-line sparkline.
func renderSparkline(candles []types.Candle) string {
	if len(candles) == 0 {
		return ""
	}

	low := candles[0].Close
	high := candles[0].Close

	for _, c := range candles[1:] {
		if c.Close.LessThan(low) {
			low = c.Close
		}

		if c.Close.GreaterThan(high) {
			high = c.Close
		}
	}

	span := high.Sub(low)

	var s strings.Builder

	for _, c := range candles {
		idx := 0
		if span.IsPositive() {
			ratio, _ := c.Close.Sub(low).Div(span).Float64()
			idx = int(ratio * float64(len(sparklineRunes)-1))
		}

		s.WriteRune(sparklineRunes[idx])
	}

	return s.String()
}

// renderWinner renders the best performer banner.
func renderWinner(snapshot view.Snapshot) string {
	winner, err := snapshot.Winner.Take()
	if err != nil {
		return HelpStyle.Render("best performer: n/a")
	}

	return WinnerStyle.Render(fmt.Sprintf("best performer (30d): %s %+.2f%%", winner.Symbol, winner.ReturnPercent))
}

// renderLastCandle renders the newest bar's OHLC readout.
func renderLastCandle(candles []types.Candle) string {
	if len(candles) == 0 {
		return "waiting for candles..."
	}

	last := candles[len(candles)-1]

	return fmt.Sprintf("O %s  H %s  L %s  C %s",
		utils.FormatPrice(last.Open),
		utils.FormatPrice(last.High),
		utils.FormatPrice(last.Low),
		utils.FormatPrice(last.Close),
	)
}
