package garden

import (
	"fmt"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/models"
)

type achievementDef struct {
	id, name, description string
	met                   func(tx *txn) bool
}

var achievementDefs = []achievementDef{
	{
		id: "first_sprout", name: "First Sprout", description: "Grow a seed into a sprout",
		met: func(tx *txn) bool {
			return anyPlant(tx.state, func(p models.Plant) bool { return p.Stage >= models.StageSprout })
		},
	},
	{
		id: "first_bloom", name: "First Bloom", description: "Grow a plant to maturity",
		met: func(tx *txn) bool { return tx.blooms > 0 || anyPlant(tx.state, models.Plant.IsMature) },
	},
	{
		id: "first_cross", name: "First Cross", description: "Cross-breed two mature plants",
		met: func(tx *txn) bool { return tx.crossed },
	},
	{
		id: "green_thumb", name: "Green Thumb", description: fmt.Sprintf("Reach skill level %d", constants.GreenThumbLevel),
		met: func(tx *txn) bool { return tx.state.Skill.Level >= constants.GreenThumbLevel },
	},
	{
		id: "master_gardener", name: "Master Gardener", description: fmt.Sprintf("Reach skill level %d", constants.MasterGardenerLevel),
		met: func(tx *txn) bool { return tx.state.Skill.Level >= constants.MasterGardenerLevel },
	},
	{
		id: "legendary_seed", name: "Legendary Seed", description: "Own a legendary seed",
		met: func(tx *txn) bool {
			for _, sd := range tx.state.Resources.Seeds {
				if sd.Rarity == models.RarityLegendary {
					return true
				}
			}
			return anyPlant(tx.state, func(p models.Plant) bool { return p.Rarity == models.RarityLegendary })
		},
	},
	{
		id: "full_plot", name: "Full Plot", description: "Fill every cell of the garden",
		met: func(tx *txn) bool {
			cfg := tx.svc.cfg
			return len(tx.state.OccupiedPositions()) >= cfg.GridWidth*cfg.GridHeight
		},
	},
}

// DefaultAchievements returns the locked achievement list for a new garden.
func DefaultAchievements() []models.Achievement {
	out := make([]models.Achievement, 0, len(achievementDefs))
	for _, d := range achievementDefs {
		out = append(out, models.Achievement{ID: d.id, Name: d.name, Description: d.description})
	}
	return out
}

// evaluateAchievements unlocks any achievement whose condition now holds.
// Achievements missing from older records are added first.
func (tx *txn) evaluateAchievements() {
	have := make(map[string]int, len(tx.state.Achievements))
	for i, a := range tx.state.Achievements {
		have[a.ID] = i
	}
	for _, d := range achievementDefs {
		if _, ok := have[d.id]; !ok {
			tx.state.Achievements = append(tx.state.Achievements,
				models.Achievement{ID: d.id, Name: d.name, Description: d.description})
			have[d.id] = len(tx.state.Achievements) - 1
		}
	}

	for _, d := range achievementDefs {
		a := &tx.state.Achievements[have[d.id]]
		if a.Unlocked || !d.met(tx) {
			continue
		}
		at := tx.now
		a.Unlocked = true
		a.UnlockedAt = &at
		tx.remember(models.Memory{
			Kind:    models.MemoryAchievementUnlocked,
			Message: fmt.Sprintf("Achievement unlocked: %s", a.Name),
		})
		tx.svc.logger.Info("achievement unlocked", "garden", tx.state.ID, "achievement", a.ID)
	}
}

func anyPlant(g *models.GardenState, pred func(models.Plant) bool) bool {
	for _, p := range g.Plants {
		if pred(p) {
			return true
		}
	}
	return false
}
