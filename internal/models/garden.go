package models

import (
	"fmt"
	"time"
)

// Season is one quarter of the garden year.
type Season int

const (
	Spring Season = iota
	Summer
	Fall
	Winter
)

var seasonNames = [...]string{"spring", "summer", "fall", "winter"}

// String returns the lowercase season name.
func (s Season) String() string {
	if s < Spring || s > Winter {
		return fmt.Sprintf("season(%d)", int(s))
	}
	return seasonNames[s]
}

// Next returns the season that follows s.
func (s Season) Next() Season {
	return (s + 1) % 4
}

// ParseSeason parses a season name produced by String.
func ParseSeason(name string) (Season, error) {
	for i, n := range seasonNames {
		if n == name {
			return Season(i), nil
		}
	}
	return Spring, fmt.Errorf("unknown season: %q", name)
}

// SkillLedger tracks gardening experience.
type SkillLedger struct {
	Level        int     `json:"level"`
	Experience   float64 `json:"experience"`
	TotalActions int     `json:"total_actions"`
}

// Resources are the consumables a garden holds.
type Resources struct {
	Water      float64 `json:"water"`
	Fertilizer int     `json:"fertilizer"`
	Seeds      []Seed  `json:"seeds"`
}

// Achievement is a one-time milestone shown to the player.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// GardenState is the aggregate root persisted by the store.
type GardenState struct {
	ID           string        `json:"id"`
	Plants       []Plant       `json:"plants"`
	Resources    Resources     `json:"resources"`
	Season       Season        `json:"season"`
	SeasonStart  time.Time     `json:"season_start"`
	Skill        SkillLedger   `json:"skill"`
	Achievements []Achievement `json:"achievements"`
	Memories     []Memory      `json:"memories"`
	CreatedAt    time.Time     `json:"created_at"`
	LastUpdate   time.Time     `json:"last_update"`
}

// FindPlant returns the index of the plant with id, or -1.
func (g *GardenState) FindPlant(id string) int {
	for i := range g.Plants {
		if g.Plants[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSeed returns the index of the inventory seed with id, or -1.
func (g *GardenState) FindSeed(id string) int {
	for i := range g.Resources.Seeds {
		if g.Resources.Seeds[i].ID == id {
			return i
		}
	}
	return -1
}

// PlantAt returns the plant occupying pos, if any.
func (g *GardenState) PlantAt(pos Position) (*Plant, bool) {
	for i := range g.Plants {
		if g.Plants[i].Position == pos {
			return &g.Plants[i], true
		}
	}
	return nil, false
}

// OccupiedPositions returns the set of grid cells holding a plant.
func (g *GardenState) OccupiedPositions() map[Position]bool {
	out := make(map[Position]bool, len(g.Plants))
	for _, p := range g.Plants {
		out[p.Position] = true
	}
	return out
}
