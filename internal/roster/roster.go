// Package roster manages the people list and teams: stable slug ids,
// lookups by name, and validation.
package roster

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sahilm/fuzzy"

	"github.com/julianstephens/rollcall/internal/models"
)

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrInvalidTeams   = errors.New("invalid teams")
	ErrTeamNotFound   = errors.New("team not found")
)

var (
	nonSlug  = regexp.MustCompile(`[^a-z0-9]+`)
	validate = validator.New()
)

// fallbackSlug is used for names with no ASCII letters or digits.
const fallbackSlug = "person"

// Slugify lower-cases name and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at either end.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ParseNames splits text into one trimmed name per line, dropping blanks.
func ParseNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// BuildPeopleList turns an edited list of names into people. A name that
// matches an existing person case-insensitively keeps that person's id and
// stored spelling; other names get a fresh slug id, suffixed -2, -3, ... on
// collision. Blank and repeated names are dropped.
func BuildPeopleList(existing []models.Person, names []string) []models.Person {
	byName := make(map[string]models.Person, len(existing))
	for _, p := range existing {
		key := strings.ToLower(p.Name)
		if _, dup := byName[key]; !dup {
			byName[key] = p
		}
	}

	// Ids kept from existing people are reserved before new slugs are handed
	// out, so a new name cannot take an id that a later line keeps.
	used := make(map[string]bool)
	for _, name := range names {
		if p, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			used[p.ID] = true
		}
	}

	seen := make(map[string]bool)
	people := make([]models.Person, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		if p, ok := byName[key]; ok {
			people = append(people, models.Person{ID: p.ID, Name: p.Name})
			continue
		}

		base := Slugify(name)
		if base == "" {
			base = fallbackSlug
		}
		id := base
		for suffix := 2; used[id]; suffix++ {
			id = fmt.Sprintf("%s-%d", base, suffix)
		}
		used[id] = true
		people = append(people, models.Person{ID: id, Name: name})
	}
	return people
}

// Find resolves query to a person: exact id first, then a case-insensitive
// name, then the best fuzzy match on names. A fuzzy query whose best score
// is shared by several people is rejected rather than guessed.
func Find(people []models.Person, query string) (models.Person, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return models.Person{}, fmt.Errorf("%w: empty query", ErrPersonNotFound)
	}
	for _, p := range people {
		if p.ID == q {
			return p, nil
		}
	}
	for _, p := range people {
		if strings.EqualFold(p.Name, q) {
			return p, nil
		}
	}

	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	matches := fuzzy.Find(q, names)
	if len(matches) == 1 || (len(matches) > 1 && matches[0].Score > matches[1].Score) {
		return people[matches[0].Index], nil
	}
	if len(matches) > 1 {
		var tied []string
		for _, m := range matches {
			if m.Score != matches[0].Score {
				break
			}
			tied = append(tied, m.Str)
		}
		return models.Person{}, fmt.Errorf("%w: %q is ambiguous, matches %s", ErrPersonNotFound, query, strings.Join(tied, ", "))
	}
	return models.Person{}, fmt.Errorf("%w: %q", ErrPersonNotFound, query)
}

// IDs returns the ids of people, in order.
func IDs(people []models.Person) []string {
	return models.Roster{People: people}.IDs()
}

// TeamByName returns the team with the given name, case-insensitively.
func TeamByName(teams []models.Team, name string) (models.Team, bool) {
	for _, t := range teams {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return models.Team{}, false
}

// SetTeam adds or replaces a team by name. An empty member list removes it.
func SetTeam(teams []models.Team, team models.Team) []models.Team {
	out := make([]models.Team, 0, len(teams)+1)
	replaced := false
	for _, t := range teams {
		if !strings.EqualFold(t.Name, team.Name) {
			out = append(out, t)
			continue
		}
		if len(team.Members) > 0 {
			out = append(out, team)
		}
		replaced = true
	}
	if !replaced && len(team.Members) > 0 {
		out = append(out, team)
	}
	return out
}

// PruneTeams drops members that are no longer on the people list, and teams
// left with no members.
func PruneTeams(people []models.Person, teams []models.Team) []models.Team {
	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p.ID] = true
	}
	out := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		var members []string
		for _, id := range t.Members {
			if known[id] {
				members = append(members, id)
			}
		}
		if len(members) > 0 {
			out = append(out, models.Team{Name: t.Name, Members: members})
		}
	}
	return out
}

// Validate checks struct rules on the roster and its teams against the
// people list.
func Validate(r models.Roster) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}
	ids := make(map[string]bool, len(r.People))
	for _, p := range r.People {
		if ids[p.ID] {
			return fmt.Errorf("invalid roster: duplicate person id %q", p.ID)
		}
		ids[p.ID] = true
	}
	return ValidateTeams(r.People, r.Teams)
}

// ValidateTeams rejects unnamed teams, duplicate team names and members that
// are not on the people list.
func ValidateTeams(people []models.Person, teams []models.Team) error {
	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p.ID] = true
	}

	names := make(map[string]bool, len(teams))
	for _, t := range teams {
		if err := validate.Struct(t); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTeams, err)
		}
		key := strings.ToLower(t.Name)
		if names[key] {
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidTeams, t.Name)
		}
		names[key] = true
		for _, id := range t.Members {
			if !known[id] {
				return fmt.Errorf("%w: team %q has unknown member %q", ErrInvalidTeams, t.Name, id)
			}
		}
	}
	return nil
}
