package jpx

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/capitalens/capitalens/internal/api"
)

var (
	// The listing table carries a component table class; any table on the
	// page is accepted as fallback.
	componentTableRe = regexp.MustCompile(`component.*table`)

	// parenRe strips the parenthesised application date that follows the
	// listing date on the English page.
	parenRe = regexp.MustCompile(`\(.*?\)`)

	digitRe    = regexp.MustCompile(`\d+`)
	pdfHrefRe  = regexp.MustCompile(`(?i)\.pdf`)
	nonPriceRe = regexp.MustCompile(`[^\d.]`)
)

// listingDateLayouts covers the date formats seen across the English and
// Japanese listing pages.
var listingDateLayouts = []string{ //nolint:gochecknoglobals // Fixed layout table.
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"2006/1/2",
	"2006年1月2日",
}

// parseListings extracts listing entries from a new-listings page.
//
// The table uses two rows per entry: the first row (8 cells, with the date
// and company name cells spanning both rows) carries the listing date,
// company, code, and offering price; the second row leads with the market
// segment. Rows are consumed in pairs, and entries missing a company or
// code are dropped.
func parseListings(page []byte, baseURL string, log *zerolog.Logger) ([]api.Listing, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &api.DataParsingError{Source: sourceName, Detail: err.Error()}
	}

	table := findListingTable(doc)
	if table == nil {
		return nil, &api.DataParsingError{Source: sourceName, Detail: "no table element found on page"}
	}

	rows := tableRows(table)

	var items []api.Listing
	i := 0
	for i < len(rows) {
		cells := findAll(rows[i], atom.Td)
		if len(cells) < 8 {
			i++
			continue
		}

		rawDate := cellText(cells[0])
		company := normalizeCompanyName(firstText(cells[1]))
		code := cellText(cells[2])
		rawPrice := cellText(cells[6])
		pdfURL := findPDFInCells(cells, baseURL)

		market := ""
		if i+1 < len(rows) {
			second := findAll(rows[i+1], atom.Td)
			if len(second) > 0 {
				market = cellText(second[0])
				if pdfURL == "" {
					pdfURL = findPDFInCells(second, baseURL)
				}
			}
			i += 2
		} else {
			i++
		}

		if company == "" || code == "" {
			continue
		}

		date, ok := parseListingDate(rawDate)
		if !ok {
			log.Warn().Str("raw_date", rawDate).Msg("unparseable listing date, falling back to today")
		}

		items = append(items, api.Listing{
			Code:          code,
			Company:       company,
			Market:        market,
			ListingDate:   date,
			OfferingPrice: parsePriceText(rawPrice),
			OutlinePDFURL: pdfURL,
			GeneratedAt:   time.Now().UTC(),
		})
	}

	return items, nil
}

// findPDFForCode scans every table row on the page for one whose text
// contains the code and returns its first PDF link, resolved to an
// absolute URL.
func findPDFForCode(page []byte, code, baseURL string) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	for _, row := range findAll(doc, atom.Tr) {
		if !strings.Contains(cellText(row), code) {
			continue
		}
		if href := findPDFInCells([]*html.Node{row}, baseURL); href != "" {
			return href
		}
	}
	return ""
}

// findListingTable prefers a table marked with the component table class
// and falls back to the first table on the page.
func findListingTable(doc *html.Node) *html.Node {
	tables := findAll(doc, atom.Table)
	for _, t := range tables {
		if componentTableRe.MatchString(attrVal(t, "class")) {
			return t
		}
	}
	if len(tables) > 0 {
		return tables[0]
	}
	return nil
}

// tableRows returns the rows under the table's tbody, or under the table
// itself when no tbody is present.
func tableRows(table *html.Node) []*html.Node {
	if tbody := findFirst(table, atom.Tbody); tbody != nil {
		return findAll(tbody, atom.Tr)
	}
	return findAll(table, atom.Tr)
}

// parseListingDate parses a listing date cell. The parenthesised
// application date is stripped first, then the known layouts are tried, then
// any three numbers are read as year, month, day. Returns today and false
// when nothing matches.
func parseListingDate(raw string) (api.Date, bool) {
	clean := strings.TrimSpace(parenRe.ReplaceAllString(raw, ""))

	for _, layout := range listingDateLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return api.DateOf(t), true
		}
	}

	if digits := digitRe.FindAllString(clean, -1); len(digits) >= 3 {
		year, _ := strconv.Atoi(digits[0])
		month, _ := strconv.Atoi(digits[1])
		day, _ := strconv.Atoi(digits[2])
		if d, ok := dateFrom(year, month, day); ok {
			return d, true
		}
	}

	return api.DateOf(time.Now()), false
}

// dateFrom validates the components before building the date; time.Date
// silently normalizes an out-of-range day instead of rejecting it.
func dateFrom(year, month, day int) (api.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return api.Date{}, false
	}
	d := api.NewDate(year, time.Month(month), day)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return api.Date{}, false
	}
	return d, true
}

// parsePriceText extracts a numeric offering price from text like "3,720"
// or "1,339.3". Returns nil when the cell has no usable number.
func parsePriceText(text string) *float64 {
	cleaned := strings.ReplaceAll(text, ",", "")
	digits := nonPriceRe.ReplaceAllString(strings.TrimSpace(cleaned), "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil
	}
	return &v
}

// normalizeCompanyName expands the abbreviated 株式会社 markers.
func normalizeCompanyName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "（株）", "株式会社")
	name = strings.ReplaceAll(name, "(株)", "株式会社")
	name = strings.ReplaceAll(name, "㈱", "株式会社")
	return name
}

// findPDFInCells returns the first PDF link under any of the cells,
// resolved to an absolute URL.
func findPDFInCells(cells []*html.Node, baseURL string) string {
	for _, cell := range cells {
		for _, a := range findAll(cell, atom.A) {
			href := attrVal(a, "href")
			if href != "" && pdfHrefRe.MatchString(href) {
				return resolveURL(baseURL, href)
			}
		}
	}
	return ""
}

// resolveURL converts a relative href to an absolute URL.
func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(base, "/") + href
	}
	return strings.TrimRight(base, "/") + "/" + href
}

// cellText concatenates the trimmed text nodes under n, skipping script and
// style subtrees.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(node.Data))
			return
		}
		if node.Type == html.ElementNode {
			switch node.DataAtom {
			case atom.Script, atom.Style:
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// firstText returns the first non-empty text node under n. Company cells
// carry the name as the leading text node, with annotations and links after.
func firstText(n *html.Node) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if node.Type == html.TextNode {
			if text := strings.TrimSpace(node.Data); text != "" {
				found = text
				return true
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return found
}

// findAll collects the elements with the given atom under n, in document
// order, including n itself.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == a {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirst returns the first element with the given atom under n,
// including n itself.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
