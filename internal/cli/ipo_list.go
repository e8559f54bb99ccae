package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/cli/pagination"
	"github.com/capitalens/capitalens/internal/tui"
)

// ipoListParams holds the flags for the ipo list command.
type ipoListParams struct {
	limit int
	sort  string
}

// NewIPOListCmd creates the "ipo list" command printing recent listings.
func NewIPOListCmd() *cobra.Command {
	var params ipoListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent TSE listings",
		Long: `Fetch and print companies recently listed or scheduled to list on the
Tokyo Stock Exchange.`,
		Example: `  # Ten most recent listings
  capitalens ipo list --limit 10

  # Cheapest offerings first
  capitalens ipo list --sort price:asc`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIPOList(cmd, params)
		},
	}

	cmd.Flags().IntVar(&params.limit, "limit", 0, "maximum rows to print (0 = all)")
	cmd.Flags().StringVar(&params.sort, "sort", "date:desc",
		"sort order: field[:asc|desc], fields: code, company, date, market, price")

	return cmd
}

func runIPOList(cmd *cobra.Command, params ipoListParams) error {
	if params.limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", params.limit)
	}

	field, order, err := pagination.ParseSort(params.sort)
	if err != nil {
		return err
	}
	sorter := pagination.NewListingSorter()
	if field != "" && !sorter.IsValidField(field) {
		return fmt.Errorf("%w: %q (valid: %s)",
			pagination.ErrInvalidSortField, field, strings.Join(sorter.ValidFields(), ", "))
	}

	ctx := cmd.Context()
	client := newAPIClient()
	if err := checkServerVersion(ctx, client); err != nil {
		return err
	}

	collection, err := client.LatestListings(ctx)
	if err != nil {
		return fmt.Errorf("fetching listings: %w", err)
	}

	items := sorter.Sort(collection.Items, field, order)
	if params.limit > 0 && params.limit < len(items) {
		items = items[:params.limit]
	}

	if len(items) == 0 {
		cmd.Println("No recent listings.")
		return nil
	}

	renderListingOutput(cmd, items)
	cmd.Printf("%d of %d listings\n", len(items), collection.TotalCount)
	return nil
}

// renderListingOutput prints a styled table on a terminal and tab-separated
// plain text otherwise.
func renderListingOutput(cmd *cobra.Command, items []api.Listing) {
	if isTerminal(os.Stdout) {
		tbl := tui.NewListingTable(items, len(items))
		cmd.Println(tbl.View())
		return
	}

	const tabPadding = 2
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "Date\tCode\tCompany\tMarket\tOffer")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.ListingDate, item.Code, item.Company, item.Market, plainOffering(item.OfferingPrice))
	}
	_ = w.Flush()
}

// plainOffering renders an offering price without locale formatting so piped
// output stays machine readable.
func plainOffering(price *float64) string {
	if price == nil {
		return "-"
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}
