// Package traits defines the allele domains of each genetic trait and their
// dominance ranking. The table is static configuration.
package traits

import "github.com/nvandessel/verdant/internal/models"

// LowestRank is assigned to alleles missing from the table.
const LowestRank = 1

// Allele pairs a value with its dominance rank (higher wins).
type Allele struct {
	ID   models.AlleleID
	Rank int
}

// Colors.
const (
	Red    models.AlleleID = "red"
	Purple models.AlleleID = "purple"
	Blue   models.AlleleID = "blue"
	Yellow models.AlleleID = "yellow"
	Pink   models.AlleleID = "pink"
	White  models.AlleleID = "white"
)

var table = map[models.TraitType][]Allele{
	models.TraitColor: {
		{Red, 4}, {Purple, 3}, {Blue, 3}, {Yellow, 2}, {Pink, 2}, {White, 1},
	},
	models.TraitBloomSize: {
		{"large", 3}, {"medium", 2}, {"small", 1},
	},
	models.TraitHeight: {
		{"tall", 3}, {"medium", 2}, {"short", 1},
	},
	models.TraitPattern: {
		{"solid", 3}, {"striped", 2}, {"spotted", 2}, {"gradient", 1},
	},
	models.TraitFragrance: {
		{"strong", 3}, {"mild", 2}, {"none", 1},
	},
}

// Alleles returns the allowed allele values for t in table order.
// Unknown trait types have an empty domain.
func Alleles(t models.TraitType) []models.AlleleID {
	entries := table[t]
	out := make([]models.AlleleID, len(entries))
	for i, a := range entries {
		out[i] = a.ID
	}
	return out
}

// Rank returns the dominance rank of allele within t.
// Unknown alleles and trait types rank LowestRank.
func Rank(t models.TraitType, allele models.AlleleID) int {
	for _, a := range table[t] {
		if a.ID == allele {
			return a.Rank
		}
	}
	return LowestRank
}

// Known reports whether allele belongs to t's domain.
func Known(t models.TraitType, allele models.AlleleID) bool {
	for _, a := range table[t] {
		if a.ID == allele {
			return true
		}
	}
	return false
}
