package assistant

import (
	"fmt"
	"strings"

	"github.com/AdanD9/car-price-predictor/internal/market"
)

const promptIntro = `You are a used-car market assistant for a price estimation service.
Answer briefly and only from the market figures below. If the figures do not
cover the question, say so. Prices are in US dollars.`

func systemPrompt(s market.Snapshot) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n\n")

	if s.Degraded {
		b.WriteString("Note: live data is unavailable; figures are static estimates.\n\n")
	}

	b.WriteString("Popular makes (listings, average price):\n")
	for _, m := range firstN(s.PopularMakes, 10) {
		fmt.Fprintf(&b, "- %s: %d, $%.0f\n", m.Make, m.Count, m.AvgPrice)
	}

	if len(s.PopularModels) > 0 {
		b.WriteString("Popular models:\n")
		for _, m := range firstN(s.PopularModels, 10) {
			fmt.Fprintf(&b, "- %s %s: %d, $%.0f\n", m.Make, m.Model, m.Count, m.AvgPrice)
		}
	}

	b.WriteString("Fuel types (share, average price):\n")
	for _, f := range s.FuelTypes {
		fmt.Fprintf(&b, "- %s: %.1f%%, $%.0f\n", f.Type, f.Percentage, f.AvgPrice)
	}

	b.WriteString("Body types (share, average price):\n")
	for _, t := range s.BodyTypes {
		fmt.Fprintf(&b, "- %s: %.1f%%, $%.0f\n", t.Type, t.Percentage, t.AvgPrice)
	}

	b.WriteString("Average price by model year:\n")
	for _, y := range s.YearTrends {
		fmt.Fprintf(&b, "- %d: $%.0f, %d miles\n", y.Year, y.AvgPrice, y.AvgMileage)
	}
	return b.String()
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
