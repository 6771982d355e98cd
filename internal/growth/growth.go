// Package growth advances plant growth, water, and health over elapsed time.
//
// Every function takes time explicitly (a delta or a timestamp); nothing in
// this package reads the wall clock.
package growth

import (
	"math"
	"time"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/skill"
)

// Advancement reports what one Advance call did to a plant.
type Advancement struct {
	StagesAdvanced float64            `json:"stages_advanced"`
	PreviousStage  models.GrowthStage `json:"previous_stage"`
	NewStage       models.GrowthStage `json:"new_stage"`
	StageChanged   bool               `json:"stage_changed"`
	// Milestone is set when the plant just reached maturity (bloomed).
	Milestone bool `json:"milestone"`
}

// Days converts a duration into fractional days. Negative spans count as zero.
func Days(delta time.Duration) float64 {
	if delta <= 0 {
		return 0
	}
	return delta.Hours() / 24
}

// GrowthRate returns growth progress per day for a plant in the given
// season at the given skill level. The result is never negative.
func GrowthRate(p models.Plant, season models.Season, level int) float64 {
	rate := constants.BaseGrowthRate *
		SeasonGrowthFactor(season) *
		WaterFactor(p.WaterLevel) *
		clampGauge(p.Health) / constants.MaxGauge *
		skill.GrowthMultiplier(level)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return rate
}

// Advance grows p for delta at its current growth rate and recomputes the
// stage from progress. Stages never regress.
func Advance(p *models.Plant, season models.Season, level int, delta time.Duration) Advancement {
	return advanceAt(p, GrowthRate(*p, season, level), delta)
}

func advanceAt(p *models.Plant, rate float64, delta time.Duration) Advancement {
	adv := Advancement{PreviousStage: p.Stage, NewStage: p.Stage}

	stages := rate * Days(delta)
	if math.IsNaN(stages) || math.IsInf(stages, 0) || stages < 0 {
		stages = 0
	}
	adv.StagesAdvanced = stages
	p.GrowthProgress += stages
	if math.IsNaN(p.GrowthProgress) || p.GrowthProgress < 0 {
		p.GrowthProgress = 0
	}

	next := models.GrowthStage(math.Floor(p.GrowthProgress))
	if next > models.MaxStage {
		next = models.MaxStage
	}
	if next > p.Stage {
		p.Stage = next
		adv.NewStage = next
		adv.StageChanged = true
		adv.Milestone = next == models.StageMature
	}
	return adv
}

// DepleteWater removes the water a plant consumes over delta.
// Later stages drink more; summer accelerates loss and winter slows it.
func DepleteWater(p *models.Plant, season models.Season, delta time.Duration) {
	loss := constants.BaseWaterDepletion * SeasonDepletionFactor(season) * StageWaterFactor(p.Stage) * Days(delta)
	p.WaterLevel = clampGauge(p.WaterLevel - loss)
}

// UpdateHealth moves health a tenth of the way toward the target for the
// plant's current water level.
func UpdateHealth(p *models.Plant) {
	health := clampGauge(p.Health)
	target := TargetHealth(p.WaterLevel)
	p.Health = clampGauge(health + (target-health)*constants.HealthRelaxRate)
}

// Tick applies one catch-up step: growth at the pre-tick rate, then water
// loss, then health relaxation.
func Tick(p *models.Plant, season models.Season, level int, delta time.Duration) Advancement {
	adv := Advance(p, season, level, delta)
	DepleteWater(p, season, delta)
	UpdateHealth(p)
	return adv
}

// WaterPlant adds amount to the plant's water level, capped at 100, and
// returns the amount absorbed. Non-positive amounts are a no-op.
func WaterPlant(p *models.Plant, amount float64, now time.Time) float64 {
	if amount <= 0 || math.IsNaN(amount) {
		return 0
	}
	before := clampGauge(p.WaterLevel)
	p.WaterLevel = clampGauge(before + amount)
	p.LastWatered = now
	return p.WaterLevel - before
}

// FertilizePlant boosts health instantly, capped at 100, and returns the gain.
func FertilizePlant(p *models.Plant) float64 {
	before := clampGauge(p.Health)
	p.Health = clampGauge(before + constants.FertilizerHealthBoost)
	return p.Health - before
}

func clampGauge(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > constants.MaxGauge:
		return constants.MaxGauge
	default:
		return v
	}
}
