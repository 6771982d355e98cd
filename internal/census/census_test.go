package census

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/nvandessel/verdant/internal/models"
)

func gt(d, r string) models.GeneticTrait {
	return models.GeneticTrait{Dominant: models.AlleleID(d), Recessive: models.AlleleID(r), Expressed: models.AlleleID(d)}
}

func genetics(color models.GeneticTrait) models.PlantGenetics {
	return models.PlantGenetics{
		Color:     color,
		BloomSize: gt("large", "small"),
		Height:    gt("tall", "tall"),
		Pattern:   gt("solid", "striped"),
		Fragrance: gt("strong", "none"),
	}
}

func garden() *models.GardenState {
	planted := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &models.GardenState{
		ID: "default",
		Plants: []models.Plant{
			{ID: "p1", Position: models.Position{X: 0, Y: 1}, Genetics: genetics(gt("red", "white")), Stage: models.StageMature, GrowthProgress: 4.5, Health: 80, WaterLevel: 50, Rarity: models.RarityCommon, PlantedAt: planted},
			{ID: "p2", Position: models.Position{X: 2, Y: 3}, Genetics: genetics(gt("red", "red")), Stage: models.StageSprout, GrowthProgress: 1.5, Health: 100, WaterLevel: 70, Rarity: models.RarityRare, PlantedAt: planted},
		},
		Resources: models.Resources{
			Seeds: []models.Seed{{ID: "s1", Genetics: genetics(gt("white", "white")), Rarity: models.RarityCommon}},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(garden())

	if s.Plants != 2 || s.Seeds != 1 {
		t.Errorf("counts = %d plants %d seeds", s.Plants, s.Seeds)
	}
	if s.Stages["mature"] != 1 || s.Stages["sprout"] != 1 || s.Stages["seed"] != 0 {
		t.Errorf("stages = %v", s.Stages)
	}
	if s.Rarities["rare"] != 1 {
		t.Errorf("rarities = %v", s.Rarities)
	}
	if s.Health.Mean != 90 || s.Health.Min != 80 || s.Health.Max != 100 {
		t.Errorf("health = %+v", s.Health)
	}
	// Sample standard deviation of {80, 100}.
	if math.Abs(s.Health.StdDev-math.Sqrt(200)) > 1e-9 {
		t.Errorf("health stddev = %v, want %v", s.Health.StdDev, math.Sqrt(200))
	}

	// Color pool: red,white + red,red + white,white = 3 red, 3 white.
	colors := map[models.AlleleID]AlleleFrequency{}
	for _, f := range s.Alleles[models.TraitColor] {
		colors[f.Allele] = f
	}
	if colors["red"].Count != 3 || colors["white"].Count != 3 || colors["red"].Frequency != 0.5 {
		t.Errorf("color frequencies = %+v", s.Alleles[models.TraitColor])
	}
	if _, ok := colors["blue"]; !ok {
		t.Error("unseen alleles should be listed with zero count")
	}
	if s.Phenotypes[models.TraitColor]["red"] != 2 {
		t.Errorf("color phenotypes = %v", s.Phenotypes[models.TraitColor])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&models.GardenState{ID: "empty"})
	if s.Health != (Distribution{}) {
		t.Errorf("empty garden health = %+v", s.Health)
	}
	for _, f := range s.Alleles[models.TraitColor] {
		if f.Frequency != 0 {
			t.Errorf("empty garden frequency = %+v", f)
		}
	}
}

func TestSummarizeSinglePlant(t *testing.T) {
	g := garden()
	g.Plants = g.Plants[:1]
	s := Summarize(g)
	if s.Water.Mean != 50 || s.Water.StdDev != 0 {
		t.Errorf("single plant water = %+v", s.Water)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, garden().Plants); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "id,x,y,stage,growth_progress") {
		t.Errorf("header = %q", lines[0])
	}

	var rows []*PlantRow
	if err := gocsv.UnmarshalString(buf.String(), &rows); err != nil {
		t.Fatalf("UnmarshalString() error = %v", err)
	}
	if rows[1].ID != "p2" || rows[1].Stage != "sprout" || rows[1].Color != "red" || rows[1].Y != 3 {
		t.Errorf("row = %+v", rows[1])
	}
	if !strings.Contains(rows[0].Genotype, "color=red/white") {
		t.Errorf("genotype = %q", rows[0].Genotype)
	}
}
