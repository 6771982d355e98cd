// Package mcp provides an MCP (Model Context Protocol) server for verdant gardens.
package mcp

import (
	"time"

	"github.com/nvandessel/verdant/internal/census"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/skill"
)

// GardenStatusInput defines the input for garden_status tool.
type GardenStatusInput struct {
	Garden string `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Create bool   `json:"create,omitempty" jsonschema:"Create the garden if it does not exist (default: false)"`
}

// GardenStatusOutput defines the output for garden_status tool.
type GardenStatusOutput struct {
	Garden         string      `json:"garden"`
	Created        bool        `json:"created,omitempty"`
	Season         string      `json:"season"`
	NextSeasonAt   time.Time   `json:"next_season_at"`
	SkillLevel     int         `json:"skill_level"`
	Experience     float64     `json:"experience"`
	XPForNextLevel float64     `json:"xp_for_next_level"`
	Water          float64     `json:"water"`
	Fertilizer     int         `json:"fertilizer"`
	Plants         []PlantView `json:"plants"`
	Seeds          []SeedView  `json:"seeds"`
	Achievements   []string    `json:"achievements,omitempty" jsonschema:"Names of unlocked achievements"`
}

// PlantView is a compact, display-oriented view of a plant.
type PlantView struct {
	ID        string            `json:"id"`
	X         int               `json:"x"`
	Y         int               `json:"y"`
	Stage     string            `json:"stage"`
	Progress  float64           `json:"progress"`
	Health    float64           `json:"health"`
	Water     float64           `json:"water"`
	Rarity    string            `json:"rarity"`
	Phenotype map[string]string `json:"phenotype"`
}

// SeedView is a compact view of a seed in inventory.
type SeedView struct {
	ID        string            `json:"id"`
	Rarity    string            `json:"rarity"`
	Phenotype map[string]string `json:"phenotype"`
	Parents   []string          `json:"parents,omitempty"`
}

// GardenPlantInput defines the input for garden_plant tool.
type GardenPlantInput struct {
	Garden string `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Seed   string `json:"seed" jsonschema:"Seed id or unique prefix (at least 4 characters)"`
	X      int    `json:"x" jsonschema:"Grid column, starting at 0"`
	Y      int    `json:"y" jsonschema:"Grid row, starting at 0"`
}

// GardenPlantTarget names the plant for garden_fertilize and garden_harvest.
type GardenPlantTarget struct {
	Garden string `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Plant  string `json:"plant" jsonschema:"Plant id or unique prefix (at least 4 characters)"`
}

// GardenWaterInput defines the input for garden_water tool.
type GardenWaterInput struct {
	Garden string  `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Plant  string  `json:"plant" jsonschema:"Plant id or unique prefix (at least 4 characters)"`
	Amount float64 `json:"amount,omitempty" jsonschema:"Water to give (default: 25)"`
}

// PlantActionOutput is returned by tools that act on one plant.
type PlantActionOutput struct {
	Plant     PlantView   `json:"plant"`
	XP        skill.Grant `json:"xp"`
	WaterUsed float64     `json:"water_used,omitempty"`
	Skipped   string      `json:"skipped,omitempty" jsonschema:"Set when nothing happened: barrel_empty or water_full or health_full"`
	Message   string      `json:"message"`
}

// GardenCrossInput defines the input for garden_cross tool.
type GardenCrossInput struct {
	Garden  string `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Parent1 string `json:"parent1" jsonschema:"First mature parent plant id or prefix"`
	Parent2 string `json:"parent2" jsonschema:"Second mature parent plant id or prefix"`
}

// SeedActionOutput is returned by tools that yield a seed.
type SeedActionOutput struct {
	Seed      SeedView    `json:"seed"`
	XP        skill.Grant `json:"xp"`
	Mutations []string    `json:"mutations,omitempty" jsonschema:"Mutated slots as trait:allele"`
	Message   string      `json:"message"`
}

// GardenMemoriesInput defines the input for garden_memories tool.
type GardenMemoriesInput struct {
	Garden string   `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
	Kinds  []string `json:"kinds,omitempty" jsonschema:"Only return these memory kinds (e.g. bloomed, mutation)"`
	Plant  string   `json:"plant,omitempty" jsonschema:"Only return memories about this plant id"`
	Since  string   `json:"since,omitempty" jsonschema:"Only return memories at or after this RFC 3339 time"`
	Limit  int      `json:"limit,omitempty" jsonschema:"Maximum memories to return (default: 20, negative for all)"`
}

// GardenMemoriesOutput defines the output for garden_memories tool.
type GardenMemoriesOutput struct {
	Memories []models.Memory `json:"memories"`
	Count    int             `json:"count"`
}

// GardenCensusInput defines the input for garden_census tool.
type GardenCensusInput struct {
	Garden string `json:"garden,omitempty" jsonschema:"Garden id (defaults to the server's garden)"`
}

// GardenCensusOutput defines the output for garden_census tool.
type GardenCensusOutput struct {
	Census census.Summary `json:"census"`
}
