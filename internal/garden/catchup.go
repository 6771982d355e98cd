package garden

import (
	"fmt"
	"math"
	"time"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/growth"
	"github.com/nvandessel/verdant/internal/models"
)

// catchUp replays the time elapsed since the last observation. Each plant
// advances over its own span in one step, at the rate implied by its state
// before the step. The season then rolls per the configured policy.
func (s *Service) catchUp(tx *txn) {
	g := tx.state
	now := tx.now
	season := g.Season
	level := g.Skill.Level

	// Barrel refill uses the garden-wide span.
	if days := growth.Days(now.Sub(g.LastUpdate)); days > 0 && !g.LastUpdate.IsZero() {
		g.Resources.Water = math.Min(constants.MaxWaterReserve,
			math.Max(0, g.Resources.Water)+constants.WaterRefillPerDay*days)
	}

	for i := range g.Plants {
		p := &g.Plants[i]
		delta := now.Sub(p.LastUpdate)
		if delta <= 0 {
			continue
		}

		adv := growth.Tick(p, season, level, delta)
		p.LastUpdate = now

		if adv.StageChanged {
			tx.remember(models.Memory{
				Kind:    models.MemoryStageAdvanced,
				Message: fmt.Sprintf("Plant %s grew to %s", shortID(p.ID), adv.NewStage),
				PlantID: p.ID,
				Stage:   adv.NewStage,
			})
		}
		if adv.Milestone {
			tx.blooms++
			phen := p.Genetics.Color.Expressed
			tx.remember(models.Memory{
				Kind:    models.MemoryBloomed,
				Message: fmt.Sprintf("Plant %s bloomed %s", shortID(p.ID), phen),
				PlantID: p.ID,
				Stage:   models.StageMature,
			})
		}

		s.decisions.Log(map[string]any{
			"event":         "catch_up",
			"garden":        g.ID,
			"plant":         p.ID,
			"days":          growth.Days(delta),
			"stages":        adv.StagesAdvanced,
			"stage":         p.Stage.String(),
			"water_level":   p.WaterLevel,
			"health":        p.Health,
			"season":        season.String(),
			"skill_level":   level,
			"stage_changed": adv.StageChanged,
		})
	}

	s.rollSeasons(tx)
}

// rollSeasons advances the season clock. The multi policy rolls once per
// elapsed boundary and keeps SeasonStart on the cadence; the single policy
// rolls at most once and restarts the clock at now.
func (s *Service) rollSeasons(tx *txn) {
	g := tx.state
	dur := s.cfg.SeasonDuration
	n := growth.SeasonsElapsed(g.SeasonStart, tx.now, dur)
	if n <= 0 {
		return
	}

	from := g.Season
	switch s.cfg.SeasonPolicy {
	case constants.SeasonPolicySingle:
		g.Season = g.Season.Next()
		g.SeasonStart = tx.now
		tx.rememberSeason(g.Season)
		n = 1
	default:
		for i := 0; i < n; i++ {
			g.Season = g.Season.Next()
			tx.rememberSeason(g.Season)
		}
		g.SeasonStart = g.SeasonStart.Add(time.Duration(n) * dur)
	}

	s.decisions.Log(map[string]any{
		"event":  "season_roll",
		"garden": g.ID,
		"policy": s.cfg.SeasonPolicy,
		"steps":  n,
		"from":   from.String(),
		"to":     g.Season.String(),
	})
}
