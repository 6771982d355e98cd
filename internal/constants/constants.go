// Package constants provides named constants used throughout the verdant codebase.
// This centralizes the simulation's tuning numbers for better maintainability and documentation.
package constants

import "time"

// Garden setup constants
const (
	// DefaultGardenID is the garden used when no id is given.
	DefaultGardenID = "default"

	// DefaultGridWidth and DefaultGridHeight bound plantable positions.
	DefaultGridWidth  = 8
	DefaultGridHeight = 8

	// StarterWater is the water barrel level of a new garden.
	StarterWater = 100.0

	// MaxWaterReserve caps the water barrel.
	MaxWaterReserve = 100.0

	// WaterRefillPerDay is how much the barrel refills per elapsed day.
	WaterRefillPerDay = 50.0

	// StarterFertilizer is the fertilizer count of a new garden.
	StarterFertilizer = 10

	// MaxMemories bounds the stored event history; oldest entries are dropped.
	MaxMemories = 500
)

// Season cadence
const (
	// SeasonDuration is the real time each season lasts.
	SeasonDuration = 5 * 24 * time.Hour

	// SeasonPolicyMulti rolls every season boundary crossed since the last observation.
	SeasonPolicyMulti = "multi"

	// SeasonPolicySingle rolls at most one season per observation.
	SeasonPolicySingle = "single"
)

// Growth constants
const (
	// BaseGrowthRate is growth progress per day, in stages.
	BaseGrowthRate = 0.5

	// BaseWaterDepletion is water lost per day before season and stage factors.
	BaseWaterDepletion = 20.0

	// HealthRelaxRate is the fraction of the gap to target health closed per update.
	HealthRelaxRate = 0.1

	// FertilizerHealthBoost is the instant health gain from fertilizing.
	FertilizerHealthBoost = 20.0

	// DefaultWaterAmount is used when a water action gives no amount.
	DefaultWaterAmount = 25.0

	// MaxGauge bounds health and water level.
	MaxGauge = 100.0

	// StarterHealth and StarterWaterLevel apply to freshly planted seeds.
	StarterHealth     = 100.0
	StarterWaterLevel = 60.0
)

// Skill constants
const (
	// MaxSkillLevel caps the skill ledger.
	MaxSkillLevel = 100

	// BaseXPThreshold is the experience needed to leave level 1.
	BaseXPThreshold = 100

	// XPThresholdIncrement is added to the threshold per level.
	XPThresholdIncrement = 50

	// GrowthMultiplierPerLevel is the growth bonus per level above 1.
	GrowthMultiplierPerLevel = 0.01

	// MinMutationRate and MutationRateSpread define the skill-scaled mutation range.
	MinMutationRate    = 0.02
	MutationRateSpread = 0.08
)

// Rarity distribution: probability = base + level/MaxSkillLevel * spread.
const (
	UncommonBase    = 0.20
	UncommonSpread  = 0.15
	RareBase        = 0.05
	RareSpread      = 0.10
	LegendaryBase   = 0.01
	LegendarySpread = 0.04
)

// Achievement thresholds
const (
	GreenThumbLevel     = 10
	MasterGardenerLevel = 50
)
