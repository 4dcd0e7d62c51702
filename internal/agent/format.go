package agent

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Proton-105/rental-agent/internal/inventory"
)

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func money(v float64) string {
	return "$" + amount(v)
}

func formatEquipmentList(items []inventory.Equipment) string {
	if len(items) == 0 {
		return "No equipment available."
	}

	var b strings.Builder
	b.WriteString("Available Equipment:\n\n")
	for _, eq := range items {
		fmt.Fprintf(&b, "ID: %s\n", eq.ID)
		fmt.Fprintf(&b, "Name: %s\n", eq.Name)
		fmt.Fprintf(&b, "Category: %s\n", eq.Category)
		fmt.Fprintf(&b, "Daily Rate: %s\n", money(eq.DailyRate))
		fmt.Fprintf(&b, "Max Rate: %s\n", money(eq.MaxRate))
		fmt.Fprintf(&b, "Weight Class: %s\n", eq.WeightClass)
		fmt.Fprintf(&b, "Location: %s\n", eq.StorageLocation)
		fmt.Fprintf(&b, "Required Cert: %s\n", eq.OperatorCertRequired)
		fmt.Fprintf(&b, "Min Insurance: %s\n", money(eq.MinInsurance))
		b.WriteString("---\n")
	}

	return b.String()
}

// rankByQuery moves items whose name or category mention a query term to the front.
// The relative order inside both groups is kept.
func rankByQuery(items []inventory.Equipment, query string) []inventory.Equipment {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return items
	}

	score := func(eq inventory.Equipment) int {
		haystack := strings.ToLower(eq.Name + " " + eq.Category)
		n := 0
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				n++
			}
		}
		return n
	}

	ranked := append([]inventory.Equipment(nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

func queryTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := words[:0]
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		// plural "excavators" should still match "Excavator"
		terms = append(terms, strings.TrimSuffix(w, "s"))
	}
	return terms
}
