package models

import "time"

// MemoryKind categorizes a garden event.
type MemoryKind string

const (
	MemoryGardenCreated       MemoryKind = "garden_created"
	MemoryPlanted             MemoryKind = "planted"
	MemoryWatered             MemoryKind = "watered"
	MemoryFertilized          MemoryKind = "fertilized"
	MemoryStageAdvanced       MemoryKind = "stage_advanced"
	MemoryBloomed             MemoryKind = "bloomed"
	MemoryCrossBred           MemoryKind = "cross_bred"
	MemoryMutation            MemoryKind = "mutation"
	MemoryLevelUp             MemoryKind = "level_up"
	MemorySeasonChanged       MemoryKind = "season_changed"
	MemoryHarvested           MemoryKind = "harvested"
	MemoryAchievementUnlocked MemoryKind = "achievement_unlocked"
)

// Memory is an event recorded in the garden's history and surfaced to the UI.
// Only the fields relevant to Kind are set.
type Memory struct {
	ID      string     `json:"id"`
	Kind    MemoryKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`

	PlantID string      `json:"plant_id,omitempty"`
	SeedID  string      `json:"seed_id,omitempty"`
	Stage   GrowthStage `json:"stage,omitempty"`
	Trait   TraitType   `json:"trait,omitempty"`
	Allele  AlleleID    `json:"allele,omitempty"`
	Level   int         `json:"level,omitempty"`
	Season  Season      `json:"season,omitempty"`
}
