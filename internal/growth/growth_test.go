package growth

import (
	"math"
	"testing"
	"time"

	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
)

const day = 24 * time.Hour

func healthyPlant() models.Plant {
	return models.Plant{ID: "p1", Health: 100, WaterLevel: 70, Stage: models.StageSeed}
}

func TestDays(t *testing.T) {
	if got := Days(36 * time.Hour); got != 1.5 {
		t.Errorf("Days(36h) = %v, want 1.5", got)
	}
	if got := Days(-time.Hour); got != 0 {
		t.Errorf("Days(-1h) = %v, want 0", got)
	}
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		name   string
		plant  models.Plant
		season models.Season
		level  int
		want   float64
	}{
		{"optimal spring level 1", models.Plant{Health: 100, WaterLevel: 70}, models.Spring, 1, 0.5 * 1.3},
		{"optimal winter", models.Plant{Health: 100, WaterLevel: 70}, models.Winter, 1, 0.5 * 0.5},
		{"half health", models.Plant{Health: 50, WaterLevel: 70}, models.Summer, 1, 0.5 * 1.1 * 0.5},
		{"critical water", models.Plant{Health: 100, WaterLevel: 5}, models.Spring, 1, 0.5 * 1.3 * 0.1},
		{"overwatered", models.Plant{Health: 100, WaterLevel: 95}, models.Spring, 1, 0.5 * 1.3 * 0.6},
		{"skill bonus", models.Plant{Health: 100, WaterLevel: 70}, models.Fall, 11, 0.5 * 0.8 * 1.1},
		{"negative health floors at zero", models.Plant{Health: -30, WaterLevel: 70}, models.Spring, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrowthRate(tt.plant, tt.season, tt.level)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("GrowthRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaterFactor_IsBellShaped(t *testing.T) {
	bands := []float64{5, 20, 40, 70, 85, 95}
	peak := WaterFactor(70)
	for _, level := range bands {
		if WaterFactor(level) > peak {
			t.Errorf("WaterFactor(%v) = %v exceeds optimal %v", level, WaterFactor(level), peak)
		}
	}
	if !(WaterFactor(5) < WaterFactor(20) && WaterFactor(20) < WaterFactor(40) && WaterFactor(40) < WaterFactor(70)) {
		t.Error("water factor should rise from critical to optimal")
	}
	if !(WaterFactor(95) < WaterFactor(85) && WaterFactor(85) < WaterFactor(70)) {
		t.Error("water factor should fall from optimal to overwatered")
	}

	seen := map[WaterBand]bool{}
	for l := 0.0; l <= 100; l += 0.5 {
		seen[ClassifyWater(l)] = true
	}
	if len(seen) < 5 {
		t.Errorf("expected at least five water bands, got %d", len(seen))
	}
}

func TestAdvance_ProgressAndStage(t *testing.T) {
	p := healthyPlant()
	adv := Advance(&p, models.Spring, 1, 2*day)

	wantProgress := 0.5 * 1.3 * 2
	if math.Abs(p.GrowthProgress-wantProgress) > 1e-9 {
		t.Errorf("GrowthProgress = %v, want %v", p.GrowthProgress, wantProgress)
	}
	if p.Stage != models.StageSprout {
		t.Errorf("Stage = %v, want sprout", p.Stage)
	}
	if !adv.StageChanged || adv.PreviousStage != models.StageSeed || adv.NewStage != models.StageSprout {
		t.Errorf("Advancement = %+v", adv)
	}
	if adv.Milestone {
		t.Error("sprouting is not a bloom milestone")
	}
}

func TestAdvance_MilestoneOnMaturity(t *testing.T) {
	p := healthyPlant()
	p.Stage = models.StageMedium
	p.GrowthProgress = 3.9

	adv := Advance(&p, models.Spring, 1, day)
	if p.Stage != models.StageMature {
		t.Fatalf("Stage = %v, want mature", p.Stage)
	}
	if !adv.Milestone {
		t.Error("expected bloom milestone")
	}

	adv = Advance(&p, models.Spring, 1, 30*day)
	if adv.Milestone || adv.StageChanged {
		t.Error("an already mature plant should not re-emit the milestone")
	}
	if p.Stage != models.StageMature {
		t.Errorf("Stage = %v, want mature cap", p.Stage)
	}
}

func TestAdvance_StageIsMonotonic(t *testing.T) {
	src := random.New(2)
	p := healthyPlant()
	seasons := []models.Season{models.Spring, models.Summer, models.Fall, models.Winter}

	prev := p.Stage
	for i := 0; i < 1000; i++ {
		p.WaterLevel = src.Float64() * 100
		p.Health = src.Float64() * 100
		delta := time.Duration(src.IntN(48)) * time.Hour
		Tick(&p, seasons[src.IntN(4)], 1+src.IntN(100), delta)
		if p.Stage < prev {
			t.Fatalf("iteration %d: stage regressed from %v to %v", i, prev, p.Stage)
		}
		prev = p.Stage
	}
}

func TestAdvance_StageNeverRegressesOnMalformedProgress(t *testing.T) {
	p := healthyPlant()
	p.Stage = models.StageMedium
	p.GrowthProgress = 0.2 // stored progress disagrees with stage

	Advance(&p, models.Spring, 1, day)
	if p.Stage != models.StageMedium {
		t.Errorf("Stage = %v, want medium kept", p.Stage)
	}
}

func TestAdvance_NegativeDeltaIsNoop(t *testing.T) {
	p := healthyPlant()
	adv := Advance(&p, models.Spring, 1, -5*day)
	if p.GrowthProgress != 0 || adv.StagesAdvanced != 0 {
		t.Errorf("negative delta advanced plant: %+v", adv)
	}
}

func TestAdvance_SingleStepMatchesRateTimesDays(t *testing.T) {
	p := healthyPlant()
	p.Stage = models.StageSeed
	rate := GrowthRate(p, models.Fall, 20)

	Advance(&p, models.Fall, 20, 3*day+6*time.Hour)
	want := rate * 3.25
	if math.Abs(p.GrowthProgress-want) > 1e-9 {
		t.Errorf("GrowthProgress = %v, want %v", p.GrowthProgress, want)
	}
}

func TestDepleteWater(t *testing.T) {
	tests := []struct {
		name   string
		stage  models.GrowthStage
		season models.Season
		start  float64
		delta  time.Duration
		want   float64
	}{
		{"seed spring one day", models.StageSeed, models.Spring, 80, day, 70},
		{"mature summer one day", models.StageMature, models.Summer, 80, day, 35},
		{"small winter two days", models.StageSmall, models.Winter, 50, 2 * day, 30},
		{"floors at zero", models.StageMature, models.Summer, 10, 5 * day, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Plant{Stage: tt.stage, WaterLevel: tt.start}
			DepleteWater(&p, tt.season, tt.delta)
			if math.Abs(p.WaterLevel-tt.want) > 1e-9 {
				t.Errorf("WaterLevel = %v, want %v", p.WaterLevel, tt.want)
			}
		})
	}
}

func TestDepleteWater_LaterStagesDrinkMore(t *testing.T) {
	seedling := models.Plant{Stage: models.StageSeed, WaterLevel: 100}
	mature := models.Plant{Stage: models.StageMature, WaterLevel: 100}
	DepleteWater(&seedling, models.Spring, day)
	DepleteWater(&mature, models.Spring, day)
	if mature.WaterLevel >= seedling.WaterLevel {
		t.Errorf("mature water %v should be below seed water %v", mature.WaterLevel, seedling.WaterLevel)
	}
}

func TestUpdateHealth_RelaxesTowardTarget(t *testing.T) {
	p := models.Plant{Health: 100, WaterLevel: 5}
	UpdateHealth(&p)
	if math.Abs(p.Health-92) > 1e-9 {
		t.Errorf("Health = %v, want 92 (10%% of the way to 20)", p.Health)
	}

	for i := 0; i < 500; i++ {
		UpdateHealth(&p)
	}
	if math.Abs(p.Health-20) > 0.01 {
		t.Errorf("Health = %v, want to settle at the critical floor 20", p.Health)
	}
}

func TestTargetHealth_FiveBands(t *testing.T) {
	targets := map[float64]bool{}
	for w := 0.0; w <= 100; w++ {
		targets[TargetHealth(w)] = true
	}
	if len(targets) != 5 {
		t.Errorf("got %d target bands, want 5", len(targets))
	}
}

func TestWaterPlant(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	p := models.Plant{WaterLevel: 90}

	absorbed := WaterPlant(&p, 25, now)
	if p.WaterLevel != 100 || absorbed != 10 {
		t.Errorf("WaterLevel = %v absorbed = %v, want 100 and 10", p.WaterLevel, absorbed)
	}
	if !p.LastWatered.Equal(now) {
		t.Errorf("LastWatered = %v, want %v", p.LastWatered, now)
	}

	if got := WaterPlant(&p, 10, now); got != 0 || p.WaterLevel != 100 {
		t.Errorf("watering at cap absorbed %v, level %v", got, p.WaterLevel)
	}

	before := p.LastWatered
	WaterPlant(&p, -5, now.Add(time.Hour))
	if !p.LastWatered.Equal(before) {
		t.Error("non-positive amount should not touch LastWatered")
	}
}

func TestFertilizePlant(t *testing.T) {
	p := models.Plant{Health: 70}
	if gain := FertilizePlant(&p); gain != 20 || p.Health != 90 {
		t.Errorf("gain = %v health = %v, want 20 and 90", gain, p.Health)
	}
	if gain := FertilizePlant(&p); gain != 10 || p.Health != 100 {
		t.Errorf("gain = %v health = %v, want 10 and 100", gain, p.Health)
	}
	if gain := FertilizePlant(&p); gain != 0 {
		t.Errorf("fertilizing at cap gained %v", gain)
	}
}

func TestGauges_StayInRange(t *testing.T) {
	src := random.New(99)
	p := healthyPlant()
	now := time.Now()
	seasons := []models.Season{models.Spring, models.Summer, models.Fall, models.Winter}

	for i := 0; i < 5000; i++ {
		switch src.IntN(4) {
		case 0:
			DepleteWater(&p, seasons[src.IntN(4)], time.Duration(src.IntN(240))*time.Hour)
		case 1:
			UpdateHealth(&p)
		case 2:
			WaterPlant(&p, src.Float64()*150, now)
		case 3:
			FertilizePlant(&p)
		}
		if p.WaterLevel < 0 || p.WaterLevel > 100 {
			t.Fatalf("iteration %d: water %v out of range", i, p.WaterLevel)
		}
		if p.Health < 0 || p.Health > 100 {
			t.Fatalf("iteration %d: health %v out of range", i, p.Health)
		}
	}
}

func TestSeasonsElapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dur := 5 * day
	tests := []struct {
		now  time.Time
		want int
	}{
		{start, 0},
		{start.Add(-day), 0},
		{start.Add(4 * day), 0},
		{start.Add(5 * day), 1},
		{start.Add(23 * day), 4},
	}
	for _, tt := range tests {
		if got := SeasonsElapsed(start, tt.now, dur); got != tt.want {
			t.Errorf("SeasonsElapsed(+%v) = %d, want %d", tt.now.Sub(start), got, tt.want)
		}
	}
}
