// Package census computes population statistics for a garden and exports
// its plants as CSV.
package census

import (
	"sort"

	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/traits"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes one numeric plant attribute.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// AlleleFrequency is the share of one allele in a trait's gene pool.
type AlleleFrequency struct {
	Allele    models.AlleleID `json:"allele"`
	Count     int             `json:"count"`
	Frequency float64         `json:"frequency"`
}

// Summary is a census of one garden.
type Summary struct {
	GardenID string         `json:"garden_id"`
	Plants   int            `json:"plants"`
	Seeds    int            `json:"seeds"`
	Stages   map[string]int `json:"stages"`
	Rarities map[string]int `json:"rarities"`

	Health   Distribution `json:"health"`
	Water    Distribution `json:"water"`
	Progress Distribution `json:"progress"`

	// Alleles covers both alleles of every plant and seed, per trait,
	// ordered by descending count.
	Alleles map[models.TraitType][]AlleleFrequency `json:"alleles"`
	// Phenotypes counts expressed alleles among plants only.
	Phenotypes map[models.TraitType]map[models.AlleleID]int `json:"phenotypes"`
}

// Summarize computes a census of g.
func Summarize(g *models.GardenState) Summary {
	s := Summary{
		GardenID:   g.ID,
		Plants:     len(g.Plants),
		Seeds:      len(g.Resources.Seeds),
		Stages:     make(map[string]int),
		Rarities:   make(map[string]int),
		Alleles:    make(map[models.TraitType][]AlleleFrequency),
		Phenotypes: make(map[models.TraitType]map[models.AlleleID]int),
	}
	for stage := models.StageSeed; stage <= models.MaxStage; stage++ {
		s.Stages[stage.String()] = 0
	}

	health := make([]float64, 0, len(g.Plants))
	water := make([]float64, 0, len(g.Plants))
	progress := make([]float64, 0, len(g.Plants))
	for _, p := range g.Plants {
		s.Stages[p.Stage.String()]++
		s.Rarities[string(p.Rarity)]++
		health = append(health, p.Health)
		water = append(water, p.WaterLevel)
		progress = append(progress, p.GrowthProgress)
	}
	s.Health = describe(health)
	s.Water = describe(water)
	s.Progress = describe(progress)

	genomes := make([]models.PlantGenetics, 0, len(g.Plants)+len(g.Resources.Seeds))
	for _, p := range g.Plants {
		genomes = append(genomes, p.Genetics)
	}
	for _, sd := range g.Resources.Seeds {
		genomes = append(genomes, sd.Genetics)
	}

	for _, t := range models.TraitTypes {
		s.Alleles[t] = alleleFrequencies(t, genomes)
		phen := make(map[models.AlleleID]int)
		for _, p := range g.Plants {
			gt, _ := p.Genetics.Get(t)
			phen[gt.Expressed]++
		}
		s.Phenotypes[t] = phen
	}
	return s
}

func describe(xs []float64) Distribution {
	switch len(xs) {
	case 0:
		return Distribution{}
	case 1:
		return Distribution{Mean: xs[0], Min: xs[0], Max: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Distribution{Mean: mean, StdDev: std, Min: floats.Min(xs), Max: floats.Max(xs)}
}

func alleleFrequencies(t models.TraitType, genomes []models.PlantGenetics) []AlleleFrequency {
	counts := make(map[models.AlleleID]int)
	for _, a := range traits.Alleles(t) {
		counts[a] = 0
	}
	total := 0
	for _, g := range genomes {
		gt, _ := g.Get(t)
		counts[gt.Dominant]++
		counts[gt.Recessive]++
		total += 2
	}

	out := make([]AlleleFrequency, 0, len(counts))
	for a, n := range counts {
		f := AlleleFrequency{Allele: a, Count: n}
		if total > 0 {
			f.Frequency = float64(n) / float64(total)
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Allele < out[j].Allele
	})
	return out
}
