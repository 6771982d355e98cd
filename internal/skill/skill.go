// Package skill implements the gardening skill ledger: experience grants,
// level thresholds, and the level-derived multipliers consumed by the growth
// and genetics engines. Derived values are recomputed on every call.
package skill

import (
	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
)

// Action is a gardening action that earns experience.
type Action string

const (
	ActionWater      Action = "water"
	ActionFertilize  Action = "fertilize"
	ActionPlant      Action = "plant"
	ActionHarvest    Action = "harvest"
	ActionCrossBreed Action = "cross_breed"
)

// xpRange is an inclusive experience range for one action.
type xpRange struct{ min, max int }

var xpRanges = map[Action]xpRange{
	ActionWater:      {1, 3},
	ActionFertilize:  {2, 5},
	ActionPlant:      {5, 10},
	ActionHarvest:    {8, 15},
	ActionCrossBreed: {15, 25},
}

// XPRange returns the inclusive experience range for action.
// Unknown actions grant nothing.
func XPRange(action Action) (min, max int) {
	r, ok := xpRanges[action]
	if !ok {
		return 0, 0
	}
	return r.min, r.max
}

// Grant is the outcome of one experience grant.
type Grant struct {
	XPGained     int  `json:"xp_gained"`
	LeveledUp    bool `json:"leveled_up"`
	LevelsGained int  `json:"levels_gained"`
	NewLevel     int  `json:"new_level"`
}

// NewLedger returns a level 1 ledger.
func NewLedger() models.SkillLedger {
	return models.SkillLedger{Level: 1}
}

// XPForNextLevel returns the experience needed to leave level.
func XPForNextLevel(level int) float64 {
	level = clampLevel(level)
	return float64(constants.BaseXPThreshold + (level-1)*constants.XPThresholdIncrement)
}

// GrantExperience rolls XP for action, adds it to the ledger, and rolls any
// level-ups. Every crossed threshold is subtracted, so after the call
// Experience < XPForNextLevel(Level) holds.
func GrantExperience(ledger *models.SkillLedger, action Action, src random.Source) Grant {
	normalize(ledger)

	xp := 0
	if r, ok := xpRanges[action]; ok {
		xp = random.IntRange(src, r.min, r.max)
	}
	return Apply(ledger, xp)
}

// Apply adds a fixed amount of experience and counts one action.
func Apply(ledger *models.SkillLedger, xp int) Grant {
	normalize(ledger)
	if xp < 0 {
		xp = 0
	}

	ledger.Experience += float64(xp)
	ledger.TotalActions++

	levels := 0
	for ledger.Level < constants.MaxSkillLevel && ledger.Experience >= XPForNextLevel(ledger.Level) {
		ledger.Experience -= XPForNextLevel(ledger.Level)
		ledger.Level++
		levels++
	}

	// At the cap experience keeps accruing toward a threshold it can never use.
	if ledger.Level >= constants.MaxSkillLevel {
		limit := XPForNextLevel(ledger.Level) - 1
		if ledger.Experience > limit {
			ledger.Experience = limit
		}
	}

	return Grant{
		XPGained:     xp,
		LeveledUp:    levels > 0,
		LevelsGained: levels,
		NewLevel:     ledger.Level,
	}
}

// GrowthMultiplier scales growth rate by level.
func GrowthMultiplier(level int) float64 {
	level = clampLevel(level)
	return 1.0 + float64(level-1)*constants.GrowthMultiplierPerLevel
}

// MutationRate returns the per-trait mutation probability for level,
// scaling linearly from 2% toward 10% at the level cap.
func MutationRate(level int) float64 {
	level = clampLevel(level)
	return constants.MinMutationRate + float64(level)/float64(constants.MaxSkillLevel)*constants.MutationRateSpread
}

// RarityDistribution holds the probability of each non-common tier.
// Common is the remainder.
type RarityDistribution struct {
	Uncommon  float64 `json:"uncommon"`
	Rare      float64 `json:"rare"`
	Legendary float64 `json:"legendary"`
}

// Common returns the probability of a common roll.
func (d RarityDistribution) Common() float64 {
	c := 1 - d.Uncommon - d.Rare - d.Legendary
	if c < 0 {
		return 0
	}
	return c
}

// Distribution returns the rarity odds at level.
func Distribution(level int) RarityDistribution {
	frac := float64(clampLevel(level)) / float64(constants.MaxSkillLevel)
	return RarityDistribution{
		Uncommon:  constants.UncommonBase + frac*constants.UncommonSpread,
		Rare:      constants.RareBase + frac*constants.RareSpread,
		Legendary: constants.LegendaryBase + frac*constants.LegendarySpread,
	}
}

// RollRarity draws a rarity tier from the level's distribution.
func RollRarity(level int, src random.Source) models.Rarity {
	d := Distribution(level)
	roll := src.Float64()
	switch {
	case roll < d.Legendary:
		return models.RarityLegendary
	case roll < d.Legendary+d.Rare:
		return models.RarityRare
	case roll < d.Legendary+d.Rare+d.Uncommon:
		return models.RarityUncommon
	default:
		return models.RarityCommon
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > constants.MaxSkillLevel {
		return constants.MaxSkillLevel
	}
	return level
}

// normalize repairs ledgers loaded from malformed data.
func normalize(ledger *models.SkillLedger) {
	ledger.Level = clampLevel(ledger.Level)
	if ledger.Experience < 0 {
		ledger.Experience = 0
	}
	if ledger.TotalActions < 0 {
		ledger.TotalActions = 0
	}
}
