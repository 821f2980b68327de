package attendance

import (
	"regexp"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/julianstephens/rollcall/internal/models"
)

var lateWord = regexp.MustCompile(`(?i)\blate\b`)

// LateCount returns 1 when a note mentions being late, the marker people used
// before tardy was a status of its own.
func LateCount(note string) int {
	if lateWord.MatchString(note) {
		return 1
	}
	return 0
}

// PersonTrend is one person's totals over a trend window.
type PersonTrend struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Summary Summary `json:"summary"`
	Late    int     `json:"late"`
}

// Percent formats the person's presence ratio.
func (p PersonTrend) Percent() string {
	return p.Summary.Percent()
}

// TeamTrend is a team's totals over a trend window.
type TeamTrend struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Summary Summary  `json:"summary"`
}

// Percent formats the team's presence ratio.
func (t TeamTrend) Percent() string {
	return t.Summary.Percent()
}

// BuildTrends accumulates every roster person and every id found in the
// records. Roster names win over names stored in records; ids with neither
// are shown as the id. Results are ordered by total slots, most first, then
// by name.
func BuildTrends(days []DayRecord, people []models.Person) []PersonTrend {
	names := make(map[string]string)
	var ids []string
	for _, p := range people {
		if _, seen := names[p.ID]; seen {
			continue
		}
		names[p.ID] = p.Name
		ids = append(ids, p.ID)
	}

	late := make(map[string]int)
	for _, day := range days {
		if day == nil {
			continue
		}
		recorded := day.Names()
		for id, entry := range day.Entries() {
			if _, seen := names[id]; !seen {
				names[id] = recorded[id]
				if names[id] == "" {
					names[id] = id
				}
				ids = append(ids, id)
			}
			late[id] += LateCount(entry.Note)
		}
	}

	summaries := AccumulateRange(days, ids)
	trends := make([]PersonTrend, 0, len(ids))
	for _, id := range ids {
		trends = append(trends, PersonTrend{
			ID:      id,
			Name:    names[id],
			Summary: summaries[id],
			Late:    late[id],
		})
	}

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].Summary.Total != trends[j].Summary.Total {
			return trends[i].Summary.Total > trends[j].Summary.Total
		}
		return col.CompareString(trends[i].Name, trends[j].Name) < 0
	})
	return trends
}

// BuildTeamTrends folds person trends into per-team totals, in team order.
func BuildTeamTrends(trends []PersonTrend, teams []models.Team) []TeamTrend {
	summaries := make(map[string]Summary, len(trends))
	for _, t := range trends {
		summaries[t.ID] = t.Summary
	}

	out := make([]TeamTrend, 0, len(teams))
	for _, team := range teams {
		out = append(out, TeamTrend{
			Name:    team.Name,
			Members: team.Members,
			Summary: TeamTotals(team.Members, summaries),
		})
	}
	return out
}
