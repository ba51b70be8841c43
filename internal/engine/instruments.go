package engine

import (
	"strings"

	"gtevents/internal/model"
)

// SummarizeInstruments aggregates line-item quantities across orders into a
// name-to-quantity map plus a grand total. Nil or empty input yields an
// empty summary. When filter is set, only line items whose name contains
// "instrument" (case-insensitive) are counted; the dashboard's instrument
// sales card uses the filtered form.
func SummarizeInstruments(orders []model.Order, filter bool) model.InstrumentSummary {
	summary := make(map[string]int)
	total := 0
	for _, order := range orders {
		for _, item := range order.Items {
			if item.Name == "" {
				continue
			}
			if filter && !strings.Contains(strings.ToLower(item.Name), "instrument") {
				continue
			}
			summary[item.Name] += item.Quantity
			total += item.Quantity
		}
	}
	return model.InstrumentSummary{Summary: summary, Total: total}
}
