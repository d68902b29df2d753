package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/susu3304/sharetabbot/internal/pricing"
)

// Result renders the calculated split. Participants come first in the order
// they were entered; names only the calculator knows follow alphabetically.
func Result(method pricing.Method, participants []string, res *pricing.Result) Message {
	var b strings.Builder
	if method == pricing.MethodItemized {
		b.WriteString("📋 Itemized Split Result:\n\n")
	} else {
		b.WriteString("💰 Equal Split Result:\n\n")
	}

	names := resultOrder(participants, res.PerPersonCharges)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, Money(res.PerPersonCharges[name]))
	}

	if len(res.PerPersonBreakdown) > 0 {
		b.WriteString("\nBreakdown:\n")
		for _, name := range names {
			bd, ok := res.PerPersonBreakdown[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "• %s: subtotal %s, tax %s, service %s, discount %s\n",
				name, Money(bd.Subtotal), Money(bd.Tax), Money(bd.ServiceCharge), Money(bd.Discount))
		}
	}

	fmt.Fprintf(&b, "\nTotal: %s", Money(res.GrandTotal()))
	return Message{Text: b.String()}
}

func resultOrder(participants []string, charges map[string]float64) []string {
	names := make([]string, 0, len(charges))
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if _, ok := charges[p]; ok {
			names = append(names, p)
			seen[p] = true
		}
	}
	var extra []string
	for name := range charges {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
