package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/capitalens/capitalens/internal/api"
)

// offeringPrinter renders offering prices with thousands grouping.
var offeringPrinter = message.NewPrinter(language.Japanese)

// marketSection pairs a category label with its quote items.
type marketSection struct {
	label string
	items []api.MarketItem
}

// RenderMarketOverview renders the quote categories in three columns:
// indices on the left, risk and bonds in the middle, fx and commodities on
// the right. Also used verbatim by the one-shot market command.
func RenderMarketOverview(o *api.MarketOverview) string {
	left := renderMarketColumn([]marketSection{
		{"Indices", o.Indices},
	})
	middle := renderMarketColumn([]marketSection{
		{"Risk", o.RiskIndicators},
		{"Bonds", o.Bonds},
	})
	right := renderMarketColumn([]marketSection{
		{"FX", o.FX},
		{"Commodities", o.Commodities},
	})

	columns := make([]string, 0, 5)
	for _, col := range []string{left, middle, right} {
		if col == "" {
			continue
		}
		if len(columns) > 0 {
			columns = append(columns, "    ")
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return SubtleStyle.Render("no market data")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderMarketColumn renders sections stacked vertically, with name and
// price columns aligned across the whole column.
func renderMarketColumn(sections []marketSection) string {
	nameWidth, priceWidth := 0, 0
	for _, sec := range sections {
		for _, item := range sec.items {
			if w := displayWidth(item.Name); w > nameWidth {
				nameWidth = w
			}
			if w := len(formatQuote(item.CurrentPrice)); w > priceWidth {
				priceWidth = w
			}
		}
	}

	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		var sb strings.Builder
		sb.WriteString(LabelStyle.Render(sec.label))
		for _, item := range sec.items {
			sb.WriteString("\n")
			sb.WriteString(renderMarketRow(item, nameWidth, priceWidth))
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n")
}

func renderMarketRow(item api.MarketItem, nameWidth, priceWidth int) string {
	name := padDisplay(item.Name, nameWidth)
	price := padLeftDisplay(formatQuote(item.CurrentPrice), priceWidth)
	return fmt.Sprintf("%s  %s  %s",
		name, ValueStyle.Render(price), renderQuoteChange(item.Change, item.ChangePercent))
}

// renderQuoteChange renders a signed change with a directional arrow: green
// up, red down, muted flat.
func renderQuoteChange(change, percent float64) string {
	var icon, sign string
	var color lipgloss.Color

	switch {
	case change > 0:
		icon = IconArrowUp
		sign = "+"
		color = ColorOK
	case change < 0:
		icon = IconArrowDown
		sign = "-"
		color = ColorCritical
	default:
		icon = IconArrowRight
		sign = ""
		color = ColorMuted
	}

	style := lipgloss.NewStyle().Foreground(color)
	return style.Render(fmt.Sprintf("%s%s (%s%.2f%%) %s",
		sign, formatQuote(math.Abs(change)), sign, math.Abs(percent), icon))
}

// formatQuote trims trailing zeros so index levels read as plain numbers
// while FX rates keep their pips.
func formatQuote(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOffering renders an offering price in yen, "-" when not yet set.
func formatOffering(price *float64) string {
	if price == nil {
		return "-"
	}
	if *price == math.Trunc(*price) {
		return offeringPrinter.Sprintf("¥%d", int64(*price))
	}
	return "¥" + strconv.FormatFloat(*price, 'f', -1, 64)
}

// listingHeader is the column header line for the listing table.
func listingHeader() string {
	return fmt.Sprintf("%-*s  %-*s  %s  %s  %s",
		listingDateWidth, "Date",
		listingCodeWidth, "Code",
		padDisplay("Company", listingCompanyWidth),
		padDisplay("Market", listingMarketWidth),
		padLeftDisplay("Offer", listingOfferWidth),
	)
}

// listingLine renders one collapsed listing row with width-aware padding so
// Japanese company names keep the columns aligned.
func listingLine(item api.Listing) string {
	return fmt.Sprintf("%-*s  %-*s  %s  %s  %s",
		listingDateWidth, item.ListingDate.String(),
		listingCodeWidth, item.Code,
		padDisplay(truncateDisplay(item.Company, listingCompanyWidth), listingCompanyWidth),
		padDisplay(truncateDisplay(item.Market, listingMarketWidth), listingMarketWidth),
		padLeftDisplay(formatOffering(item.OfferingPrice), listingOfferWidth),
	)
}

// renderSummaryBody renders summary bullets with the generation stamp and
// the remote cache badge.
func renderSummaryBody(s *api.ListingSummary) string {
	if s == nil {
		return SubtleStyle.Render("summary unavailable")
	}
	var sb strings.Builder
	for _, b := range s.Bullets {
		sb.WriteString(ValueStyle.Render("・" + b))
		sb.WriteString("\n")
	}
	stamp := SubtleStyle.Render("generated " + s.GeneratedAt.Format("2006-01-02 15:04"))
	if s.Cached {
		stamp += " " + InfoStyle.Render("[cached]")
	}
	sb.WriteString(stamp)
	return sb.String()
}

// RenderSummary renders a one-shot summary for plain stdout output.
func RenderSummary(s *api.ListingSummary) string {
	header := HeaderStyle.Render("Summary " + s.Code)
	return lipgloss.JoinVertical(lipgloss.Left, header, renderSummaryBody(s))
}

// NewListingTable builds a static listing table for one-shot output.
func NewListingTable(items []api.Listing, height int) table.Model {
	columns := []table.Column{
		{Title: "Date", Width: listingDateWidth},
		{Title: "Code", Width: listingCodeWidth},
		{Title: "Company", Width: listingCompanyWidth},
		{Title: "Market", Width: listingMarketWidth},
		{Title: "Offer", Width: listingOfferWidth},
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{
			item.ListingDate.String(),
			item.Code,
			item.Company,
			item.Market,
			formatOffering(item.OfferingPrice),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	return t
}
