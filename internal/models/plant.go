package models

import (
	"fmt"
	"time"
)

// GrowthStage is a discrete lifecycle bucket derived from growth progress.
// Stages only ever move forward.
type GrowthStage int

const (
	StageSeed GrowthStage = iota
	StageSprout
	StageSmall
	StageMedium
	StageMature
)

// MaxStage is the terminal growth stage.
const MaxStage = StageMature

var stageNames = [...]string{"seed", "sprout", "small", "medium", "mature"}

// String returns the lowercase stage name.
func (s GrowthStage) String() string {
	if s < StageSeed || s > MaxStage {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ParseGrowthStage parses a stage name produced by String.
func ParseGrowthStage(name string) (GrowthStage, error) {
	for i, n := range stageNames {
		if n == name {
			return GrowthStage(i), nil
		}
	}
	return StageSeed, fmt.Errorf("unknown growth stage: %q", name)
}

// Rarity is the cosmetic tier of a seed and the plant grown from it.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Position is a cell on the garden grid.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Plant is a living plant in the garden.
type Plant struct {
	ID             string        `json:"id"`
	Position       Position      `json:"position"`
	Genetics       PlantGenetics `json:"genetics"`
	Stage          GrowthStage   `json:"stage"`
	GrowthProgress float64       `json:"growth_progress"`
	Health         float64       `json:"health"`      // 0-100
	WaterLevel     float64       `json:"water_level"` // 0-100
	Rarity         Rarity        `json:"rarity"`
	ParentIDs      *[2]string    `json:"parent_ids,omitempty"`
	PlantedAt      time.Time     `json:"planted_at"`
	LastWatered    time.Time     `json:"last_watered"`
	LastUpdate     time.Time     `json:"last_update"`
}

// IsMature reports whether the plant has reached its final stage.
func (p Plant) IsMature() bool {
	return p.Stage >= StageMature
}

// Seed is an unplanted genetics record held in inventory.
type Seed struct {
	ID        string        `json:"id"`
	Genetics  PlantGenetics `json:"genetics"`
	ParentIDs *[2]string    `json:"parent_ids,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Rarity    Rarity        `json:"rarity"`
}
