// Package genetics implements Punnett-square crossing of plant traits with
// rank-based dominance resolution and skill-scaled mutation.
//
// All randomness flows through the Source given to NewEngine, so a fixed
// seed reproduces every cross exactly.
package genetics

import (
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
	"github.com/nvandessel/verdant/internal/skill"
	"github.com/nvandessel/verdant/internal/traits"
)

// Engine crosses genetics using an injected random source.
type Engine struct {
	src   random.Source
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDFunc overrides seed id generation.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an Engine drawing from src.
func NewEngine(src random.Source, opts ...Option) *Engine {
	e := &Engine{src: src, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CrossResult is the offspring of a cross plus the slots that mutated.
type CrossResult struct {
	Seed      models.Seed
	Mutations []Mutation
}

// Mutation records a slot where a novel allele superseded inheritance.
type Mutation struct {
	Trait  models.TraitType
	Allele models.AlleleID
}

// CrossTrait crosses one trait slot.
//
// One allele is drawn from each parent (uniform over the four pairings),
// the higher-ranked allele becomes dominant and expressed, and ties are
// broken uniformly. With probability mutationRate a random allele from the
// trait's domain then replaces the dominant and expressed allele; the
// recessive allele is kept.
func (e *Engine) CrossTrait(p1, p2 models.GeneticTrait, t models.TraitType, mutationRate float64) (models.GeneticTrait, bool) {
	pairings := [4][2]models.AlleleID{
		{p1.Dominant, p2.Dominant},
		{p1.Dominant, p2.Recessive},
		{p1.Recessive, p2.Dominant},
		{p1.Recessive, p2.Recessive},
	}
	pick := pairings[e.src.IntN(len(pairings))]

	out := e.resolve(t, pick[0], pick[1])

	if !random.Chance(e.src, mutationRate) {
		return out, false
	}
	domain := traits.Alleles(t)
	if len(domain) == 0 {
		return out, false
	}
	novel := domain[e.src.IntN(len(domain))]
	out.Dominant = novel
	out.Expressed = novel
	return out, true
}

// CrossGenetics crosses every slot independently at the given mutation rate.
func (e *Engine) CrossGenetics(g1, g2 models.PlantGenetics, mutationRate float64) (models.PlantGenetics, []Mutation) {
	var child models.PlantGenetics
	var mutations []Mutation
	for _, t := range models.TraitTypes {
		a, _ := g1.Get(t)
		b, _ := g2.Get(t)
		crossed, mutated := e.CrossTrait(a, b, t, mutationRate)
		_ = child.Set(t, crossed)
		if mutated {
			mutations = append(mutations, Mutation{Trait: t, Allele: crossed.Expressed})
		}
	}
	return child, mutations
}

// CrossBreed produces a seed from two parents at the given skill level.
// Callers are responsible for checking that both parents are mature.
func (e *Engine) CrossBreed(p1, p2 models.Plant, level int, now time.Time) CrossResult {
	child, mutations := e.CrossGenetics(p1.Genetics, p2.Genetics, skill.MutationRate(level))
	parents := [2]string{p1.ID, p2.ID}
	return CrossResult{
		Seed: models.Seed{
			ID:        e.newID(),
			Genetics:  child,
			ParentIDs: &parents,
			CreatedAt: now,
			Rarity:    skill.RollRarity(level, e.src),
		},
		Mutations: mutations,
	}
}

// StarterGenetics rolls a random genetics record: two alleles per slot
// drawn from the domain and resolved by rank.
func (e *Engine) StarterGenetics() models.PlantGenetics {
	var g models.PlantGenetics
	for _, t := range models.TraitTypes {
		domain := traits.Alleles(t)
		a := domain[e.src.IntN(len(domain))]
		b := domain[e.src.IntN(len(domain))]
		_ = g.Set(t, e.resolve(t, a, b))
	}
	return g
}

// StarterSeed wraps StarterGenetics into a common seed with no parents.
func (e *Engine) StarterSeed(now time.Time) models.Seed {
	return models.Seed{
		ID:        e.newID(),
		Genetics:  e.StarterGenetics(),
		CreatedAt: now,
		Rarity:    models.RarityCommon,
	}
}

// resolve orders two alleles by dominance rank.
func (e *Engine) resolve(t models.TraitType, a, b models.AlleleID) models.GeneticTrait {
	ra, rb := traits.Rank(t, a), traits.Rank(t, b)
	dominant, recessive := a, b
	switch {
	case rb > ra:
		dominant, recessive = b, a
	case ra == rb && e.src.IntN(2) == 1:
		dominant, recessive = b, a
	}
	return models.GeneticTrait{Dominant: dominant, Recessive: recessive, Expressed: dominant}
}
