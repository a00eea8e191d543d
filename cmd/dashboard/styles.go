package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/utils"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// UpStyle for rising prices and bids.
	UpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// DownStyle for falling prices and asks.
	DownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// WinnerStyle for the ranked best performer banner.
	WinnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
)

// FormatPriceWithDirection renders a price at its magnitude-derived
// precision with a direction arrow and color.
func FormatPriceWithDirection(price decimal.Decimal, direction types.PriceDirection) string {
	priceStr := utils.FormatPrice(price)

	switch direction {
	case types.DirectionUp:
		return UpStyle.Render(priceStr + " ▲")
	case types.DirectionDown:
		return DownStyle.Render(priceStr + " ▼")
	default:
		return priceStr
	}
}
