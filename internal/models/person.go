package models

import "time"

// Person is a roster member. ID is a stable slug derived from the name the
// person was first added under.
type Person struct {
	ID   string `json:"id" bson:"id" validate:"required"`
	Name string `json:"name" bson:"name" validate:"required"`
}

// Team groups people for trend reporting.
type Team struct {
	Name    string   `json:"name" bson:"name" validate:"required"`
	Members []string `json:"members" bson:"members" validate:"dive,required"`
}

// Roster is the people/teams configuration document.
type Roster struct {
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	People    []Person  `json:"people" bson:"people" validate:"dive"`
	Teams     []Team    `json:"teams" bson:"teams" validate:"dive"`
}

// IDs returns the person ids in roster order.
func (r Roster) IDs() []string {
	ids := make([]string, len(r.People))
	for i, p := range r.People {
		ids[i] = p.ID
	}
	return ids
}
