package models

import "fmt"

// AlleleID is one concrete value of a genetic trait (e.g. "red" for color).
type AlleleID string

// TraitType names a genetic trait slot.
type TraitType string

const (
	TraitColor     TraitType = "color"
	TraitBloomSize TraitType = "bloom_size"
	TraitHeight    TraitType = "height"
	TraitPattern   TraitType = "pattern"
	TraitFragrance TraitType = "fragrance"
)

// TraitTypes lists every trait slot in canonical order.
var TraitTypes = []TraitType{TraitColor, TraitBloomSize, TraitHeight, TraitPattern, TraitFragrance}

// IsValid reports whether t is a known trait slot.
func (t TraitType) IsValid() bool {
	for _, known := range TraitTypes {
		if t == known {
			return true
		}
	}
	return false
}

// GeneticTrait is a resolved allele pair. Expressed is always one of
// Dominant or Recessive.
type GeneticTrait struct {
	Dominant  AlleleID `json:"dominant" yaml:"dominant"`
	Recessive AlleleID `json:"recessive" yaml:"recessive"`
	Expressed AlleleID `json:"expressed" yaml:"expressed"`
}

// Valid reports whether the expressed allele is one of the pair.
func (g GeneticTrait) Valid() bool {
	return g.Expressed == g.Dominant || g.Expressed == g.Recessive
}

// PlantGenetics holds one GeneticTrait per slot.
type PlantGenetics struct {
	Color     GeneticTrait `json:"color" yaml:"color"`
	BloomSize GeneticTrait `json:"bloom_size" yaml:"bloom_size"`
	Height    GeneticTrait `json:"height" yaml:"height"`
	Pattern   GeneticTrait `json:"pattern" yaml:"pattern"`
	Fragrance GeneticTrait `json:"fragrance" yaml:"fragrance"`
}

// Get returns the trait stored in the given slot.
func (p PlantGenetics) Get(t TraitType) (GeneticTrait, bool) {
	switch t {
	case TraitColor:
		return p.Color, true
	case TraitBloomSize:
		return p.BloomSize, true
	case TraitHeight:
		return p.Height, true
	case TraitPattern:
		return p.Pattern, true
	case TraitFragrance:
		return p.Fragrance, true
	default:
		return GeneticTrait{}, false
	}
}

// Set stores g in the given slot.
func (p *PlantGenetics) Set(t TraitType, g GeneticTrait) error {
	switch t {
	case TraitColor:
		p.Color = g
	case TraitBloomSize:
		p.BloomSize = g
	case TraitHeight:
		p.Height = g
	case TraitPattern:
		p.Pattern = g
	case TraitFragrance:
		p.Fragrance = g
	default:
		return fmt.Errorf("unknown trait type: %s", t)
	}
	return nil
}

// TraitSlot pairs a trait type with its value.
type TraitSlot struct {
	Type  TraitType
	Trait GeneticTrait
}

// Slots returns every slot in canonical order.
func (p PlantGenetics) Slots() []TraitSlot {
	out := make([]TraitSlot, 0, len(TraitTypes))
	for _, t := range TraitTypes {
		g, _ := p.Get(t)
		out = append(out, TraitSlot{Type: t, Trait: g})
	}
	return out
}

// Phenotype returns the expressed allele of every slot, keyed by trait.
func (p PlantGenetics) Phenotype() map[TraitType]AlleleID {
	out := make(map[TraitType]AlleleID, len(TraitTypes))
	for _, t := range TraitTypes {
		g, _ := p.Get(t)
		out[t] = g.Expressed
	}
	return out
}
