package skill

import (
	"math"
	"testing"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
)

func TestXPForNextLevel(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{1, 100},
		{2, 150},
		{10, 550},
		{0, 100},
		{-5, 100},
		{100, 5050},
		{250, 5050},
	}

	for _, tt := range tests {
		if got := XPForNextLevel(tt.level); got != tt.want {
			t.Errorf("XPForNextLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestGrantExperience_WithinActionRange(t *testing.T) {
	src := random.New(42)
	actions := []Action{ActionWater, ActionFertilize, ActionPlant, ActionHarvest, ActionCrossBreed}

	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			lo, hi := XPRange(action)
			for i := 0; i < 200; i++ {
				ledger := NewLedger()
				g := GrantExperience(&ledger, action, src)
				if g.XPGained < lo || g.XPGained > hi {
					t.Fatalf("XPGained = %d, want in [%d, %d]", g.XPGained, lo, hi)
				}
				if ledger.TotalActions != 1 {
					t.Fatalf("TotalActions = %d, want 1", ledger.TotalActions)
				}
			}
		})
	}
}

func TestXPRangesAreOrdered(t *testing.T) {
	_, waterMax := XPRange(ActionWater)
	crossMin, _ := XPRange(ActionCrossBreed)
	if waterMax >= crossMin {
		t.Errorf("watering (max %d) should grant less than cross-breeding (min %d)", waterMax, crossMin)
	}
}

func TestGrantExperience_UnknownActionGrantsNothing(t *testing.T) {
	ledger := NewLedger()
	g := GrantExperience(&ledger, Action("dance"), random.New(1))
	if g.XPGained != 0 || ledger.Experience != 0 {
		t.Errorf("unknown action granted %d xp", g.XPGained)
	}
	if ledger.TotalActions != 1 {
		t.Errorf("TotalActions = %d, want 1", ledger.TotalActions)
	}
}

func TestApply_LevelsUpExactlyOncePerThreshold(t *testing.T) {
	tests := []struct {
		name       string
		start      models.SkillLedger
		xp         int
		wantLevel  int
		wantExp    float64
		wantLevels int
	}{
		{"below threshold", models.SkillLedger{Level: 1}, 99, 1, 99, 0},
		{"exact threshold", models.SkillLedger{Level: 1}, 100, 2, 0, 1},
		{"overflow rolls over", models.SkillLedger{Level: 1, Experience: 90}, 25, 2, 15, 1},
		{"crosses two thresholds", models.SkillLedger{Level: 1}, 260, 3, 10, 2},
		{"three thresholds", models.SkillLedger{Level: 1}, 100 + 150 + 200, 4, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := tt.start
			g := Apply(&ledger, tt.xp)
			if ledger.Level != tt.wantLevel {
				t.Errorf("Level = %d, want %d", ledger.Level, tt.wantLevel)
			}
			if ledger.Experience != tt.wantExp {
				t.Errorf("Experience = %v, want %v", ledger.Experience, tt.wantExp)
			}
			if g.LevelsGained != tt.wantLevels {
				t.Errorf("LevelsGained = %d, want %d", g.LevelsGained, tt.wantLevels)
			}
			if g.LeveledUp != (tt.wantLevels > 0) {
				t.Errorf("LeveledUp = %v, want %v", g.LeveledUp, tt.wantLevels > 0)
			}
			if ledger.Experience >= XPForNextLevel(ledger.Level) {
				t.Errorf("Experience %v >= threshold %v", ledger.Experience, XPForNextLevel(ledger.Level))
			}
		})
	}
}

func TestGrantExperience_InvariantHoldsOverManyGrants(t *testing.T) {
	src := random.New(7)
	ledger := NewLedger()
	for i := 0; i < 5000; i++ {
		before := ledger.Level
		g := GrantExperience(&ledger, ActionCrossBreed, src)
		if ledger.Experience >= XPForNextLevel(ledger.Level) {
			t.Fatalf("grant %d: Experience %v >= threshold %v", i, ledger.Experience, XPForNextLevel(ledger.Level))
		}
		if ledger.Level-before != g.LevelsGained {
			t.Fatalf("grant %d: level moved %d, reported %d", i, ledger.Level-before, g.LevelsGained)
		}
	}
}

func TestApply_CapsAtMaxLevel(t *testing.T) {
	ledger := models.SkillLedger{Level: constants.MaxSkillLevel - 1}
	Apply(&ledger, 1_000_000)
	if ledger.Level != constants.MaxSkillLevel {
		t.Fatalf("Level = %d, want %d", ledger.Level, constants.MaxSkillLevel)
	}
	if ledger.Experience >= XPForNextLevel(ledger.Level) {
		t.Errorf("Experience %v should stay below threshold at max level", ledger.Experience)
	}

	g := Apply(&ledger, 500)
	if g.LeveledUp {
		t.Error("should not level past the cap")
	}
}

func TestApply_RepairsMalformedLedger(t *testing.T) {
	ledger := models.SkillLedger{Level: 0, Experience: -40, TotalActions: -2}
	Apply(&ledger, 5)
	if ledger.Level != 1 || ledger.Experience != 5 || ledger.TotalActions != 1 {
		t.Errorf("ledger = %+v, want level 1, exp 5, actions 1", ledger)
	}
}

func TestGrowthMultiplier(t *testing.T) {
	if got := GrowthMultiplier(1); got != 1.0 {
		t.Errorf("GrowthMultiplier(1) = %v, want 1.0", got)
	}
	if got := GrowthMultiplier(11); math.Abs(got-1.1) > 1e-9 {
		t.Errorf("GrowthMultiplier(11) = %v, want 1.1", got)
	}
	prev := GrowthMultiplier(1)
	for level := 2; level <= constants.MaxSkillLevel; level++ {
		cur := GrowthMultiplier(level)
		if cur <= prev {
			t.Fatalf("GrowthMultiplier not increasing at level %d", level)
		}
		prev = cur
	}
	if GrowthMultiplier(500) != GrowthMultiplier(constants.MaxSkillLevel) {
		t.Error("GrowthMultiplier should cap at max level")
	}
}

func TestMutationRate(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{1, 0.0208},
		{50, 0.06},
		{100, 0.10},
		{0, 0.0208},
	}
	for _, tt := range tests {
		if got := MutationRate(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MutationRate(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDistribution(t *testing.T) {
	low := Distribution(1)
	high := Distribution(constants.MaxSkillLevel)

	if math.Abs(high.Uncommon-0.35) > 1e-9 || math.Abs(high.Rare-0.15) > 1e-9 || math.Abs(high.Legendary-0.05) > 1e-9 {
		t.Errorf("Distribution(100) = %+v", high)
	}
	if !(high.Legendary > low.Legendary && high.Rare > low.Rare && high.Uncommon > low.Uncommon) {
		t.Error("higher levels should shift odds toward rarer tiers")
	}
	if math.Abs(high.Common()-0.45) > 1e-9 {
		t.Errorf("Common() = %v, want 0.45", high.Common())
	}
}

func TestRollRarity_Frequencies(t *testing.T) {
	src := random.New(2024)
	const trials = 20000
	counts := map[models.Rarity]int{}
	for i := 0; i < trials; i++ {
		counts[RollRarity(constants.MaxSkillLevel, src)]++
	}

	d := Distribution(constants.MaxSkillLevel)
	want := map[models.Rarity]float64{
		models.RarityCommon:    d.Common(),
		models.RarityUncommon:  d.Uncommon,
		models.RarityRare:      d.Rare,
		models.RarityLegendary: d.Legendary,
	}
	for r, p := range want {
		got := float64(counts[r]) / trials
		if math.Abs(got-p) > 0.02 {
			t.Errorf("%s frequency = %.3f, want ~%.3f", r, got, p)
		}
	}
}
