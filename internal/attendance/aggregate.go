package attendance

import (
	"fmt"
	"math"
)

// NoData is what Percent reports for an empty total.
const NoData = "n/a"

// TeamTotals sums per-person totals over a team roster. Members without a
// summary contribute zero.
func TeamTotals(team []string, summaries map[string]Summary) Summary {
	var total Summary
	for _, id := range team {
		total = total.Add(summaries[id])
	}
	return total
}

// AccumulateRange summarizes every roster member's entry on every day. Each
// roster member appears in the result, with zero totals when no entry was
// found; people outside the roster are ignored.
func AccumulateRange(days []DayRecord, roster []string) map[string]Summary {
	acc := make(map[string]Summary, len(roster))
	for _, id := range roster {
		acc[id] = Summary{}
	}

	for _, day := range days {
		if day == nil {
			continue
		}
		entries := day.Entries()
		for _, id := range roster {
			if entry, ok := entries[id]; ok {
				acc[id] = acc[id].Add(Summarize(entry))
			}
		}
	}
	return acc
}

// PercentValue returns here/total rounded to the nearest whole percent (halves
// round up); ok is false when total is zero.
func PercentValue(here, total int) (int, bool) {
	if total == 0 {
		return 0, false
	}
	return int(math.Floor(float64(here)*100/float64(total) + 0.5)), true
}

// Percent formats PercentValue as "73%", or NoData when total is zero.
func Percent(here, total int) string {
	p, ok := PercentValue(here, total)
	if !ok {
		return NoData
	}
	return fmt.Sprintf("%d%%", p)
}
