package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/payout"
)

var printer = message.NewPrinter(language.English)

// amount formats v with thousands separators and DisplayPlaces decimals
func amount(v float64) string {
	return printer.Sprintf("%.2f", Round(v, DisplayPlaces))
}

// FormatTable renders one row per participant followed by the pool totals
func FormatTable(s *domain.Settlement) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, strings.Join(resultHeaders, "\t")+"\t")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Name,
			r.Side,
			amount(r.Stake),
			amount(payout.ClampConfidence(r.Confidence)),
			amount(r.Multiplier),
			amount(r.Weight),
			amount(r.Payout),
			amount(r.Profit),
		)
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\nWinner: %s  Leverage bound: %s  Policy: %s\n", s.WinningSide, amount(s.LeverageBound), s.Policy)
	fmt.Fprintf(&b, "Losing pool: %s  Winner weight: %s  Total payout: %s\n",
		amount(s.Pools.LosingPool), amount(s.Pools.WinnerTotalWeight), amount(s.TotalPayout()))
	if s.Pools.Unclaimed > 0 {
		fmt.Fprintf(&b, "Unclaimed: %s (no weight on the winning side)\n", amount(s.Pools.Unclaimed))
	}
	return b.String()
}
