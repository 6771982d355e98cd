package growth

import (
	"time"

	"github.com/nvandessel/verdant/internal/models"
)

var seasonGrowth = map[models.Season]float64{
	models.Spring: 1.3,
	models.Summer: 1.1,
	models.Fall:   0.8,
	models.Winter: 0.5,
}

var seasonDepletion = map[models.Season]float64{
	models.Spring: 1.0,
	models.Summer: 1.5,
	models.Fall:   0.8,
	models.Winter: 0.5,
}

var stageWater = map[models.GrowthStage]float64{
	models.StageSeed:   0.5,
	models.StageSprout: 0.75,
	models.StageSmall:  1.0,
	models.StageMedium: 1.25,
	models.StageMature: 1.5,
}

// SeasonGrowthFactor is fastest in spring and slowest in winter.
// Unknown seasons grow at the neutral rate.
func SeasonGrowthFactor(s models.Season) float64 {
	if f, ok := seasonGrowth[s]; ok {
		return f
	}
	return 1.0
}

// SeasonDepletionFactor scales daily water loss.
func SeasonDepletionFactor(s models.Season) float64 {
	if f, ok := seasonDepletion[s]; ok {
		return f
	}
	return 1.0
}

// StageWaterFactor scales daily water loss by plant size.
func StageWaterFactor(stage models.GrowthStage) float64 {
	if f, ok := stageWater[stage]; ok {
		return f
	}
	if stage > models.MaxStage {
		return stageWater[models.MaxStage]
	}
	return stageWater[models.StageSeed]
}

// WaterBand names a water-level band.
type WaterBand string

const (
	BandCritical    WaterBand = "critical"
	BandLow         WaterBand = "low"
	BandAdequate    WaterBand = "adequate"
	BandOptimal     WaterBand = "optimal"
	BandDamp        WaterBand = "damp"
	BandOverwatered WaterBand = "overwatered"
)

// ClassifyWater returns the band containing level.
func ClassifyWater(level float64) WaterBand {
	switch {
	case level < 10:
		return BandCritical
	case level < 30:
		return BandLow
	case level < 50:
		return BandAdequate
	case level <= 80:
		return BandOptimal
	case level <= 90:
		return BandDamp
	default:
		return BandOverwatered
	}
}

var waterGrowth = map[WaterBand]float64{
	BandCritical:    0.1,
	BandLow:         0.5,
	BandAdequate:    0.8,
	BandOptimal:     1.0,
	BandDamp:        0.85,
	BandOverwatered: 0.6,
}

// WaterFactor is the bell-shaped growth multiplier for a water level:
// both starvation and overwatering slow growth.
func WaterFactor(level float64) float64 {
	return waterGrowth[ClassifyWater(level)]
}

// TargetHealth is the health a plant drifts toward at a given water level.
// The floor is a nonzero critical value; plants never die.
func TargetHealth(water float64) float64 {
	switch {
	case water < 10:
		return 20
	case water < 25:
		return 40
	case water < 40:
		return 60
	case water < 60:
		return 80
	default:
		return 100
	}
}

// SeasonsElapsed returns how many whole season boundaries lie between start and now.
func SeasonsElapsed(start, now time.Time, duration time.Duration) int {
	if duration <= 0 || !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / duration)
}
