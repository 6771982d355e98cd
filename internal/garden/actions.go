package garden

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/genetics"
	"github.com/nvandessel/verdant/internal/growth"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/skill"
	"github.com/nvandessel/verdant/internal/store"
)

// PlantResult is returned by actions that target a plant.
type PlantResult struct {
	Plant     models.Plant `json:"plant"`
	XP        skill.Grant  `json:"xp"`
	WaterUsed float64      `json:"water_used,omitempty"`
	// Skipped is set when the action changed nothing.
	Skipped   SkipReason   `json:"skipped,omitempty"`
}

// SkipReason says why a water or fertilize call was a no-op. Skipped
// actions cost nothing and grant no experience.
type SkipReason string

const (
	SkipBarrelEmpty SkipReason = "barrel_empty"
	SkipWaterFull   SkipReason = "water_full"
	SkipHealthFull  SkipReason = "health_full"
)

// Describe renders the reason for players.
func (r SkipReason) Describe() string {
	switch r {
	case SkipBarrelEmpty:
		return "The water barrel is empty; it refills over time"
	case SkipWaterFull:
		return "The plant is already fully watered"
	case SkipHealthFull:
		return "The plant is already at full health; no fertilizer used"
	}
	return ""
}

// SeedResult is returned by actions that produce a seed.
type SeedResult struct {
	Seed      models.Seed         `json:"seed"`
	XP        skill.Grant         `json:"xp"`
	Mutations []genetics.Mutation `json:"mutations,omitempty"`
}

// Status summarizes a garden after catch-up.
type Status struct {
	Garden         *models.GardenState `json:"garden"`
	PlantCount     int                 `json:"plant_count"`
	SeedCount      int                 `json:"seed_count"`
	Season         models.Season       `json:"-"`
	SeasonName     string              `json:"season"`
	NextSeasonAt   time.Time           `json:"next_season_at"`
	SkillLevel     int                 `json:"skill_level"`
	Experience     float64             `json:"experience"`
	XPForNextLevel float64             `json:"xp_for_next_level"`
	Water          float64             `json:"water"`
	Fertilizer     int                 `json:"fertilizer"`
}

// CreateNew creates and saves a fresh garden with one starter seed.
func (s *Service) CreateNew(ctx context.Context, gardenID string) (*models.GardenState, error) {
	const op = "create"
	if err := store.ValidateID(gardenID); err != nil {
		return nil, &Error{Kind: KindPreconditionFailed, Op: op, Msg: "invalid garden id", Err: err}
	}

	unlock := s.lock(gardenID)
	defer unlock()

	if _, err := s.store.Load(ctx, gardenID); err == nil {
		s.recorder.ObserveAction(op, KindPreconditionFailed.String())
		return nil, preconditionFailed(op, "garden %q already exists", gardenID)
	} else if !errors.Is(err, store.ErrNotFound) {
		s.recorder.ObserveAction(op, KindPersistenceFailure.String())
		return nil, persistenceFailure(op, err)
	}

	now := s.clock.Now()
	state := &models.GardenState{
		ID:     gardenID,
		Plants: []models.Plant{},
		Resources: models.Resources{
			Water:      constants.StarterWater,
			Fertilizer: constants.StarterFertilizer,
			Seeds:      []models.Seed{s.engine.StarterSeed(now)},
		},
		Season:       models.Spring,
		SeasonStart:  now,
		Skill:        skill.NewLedger(),
		Achievements: DefaultAchievements(),
		Memories:     []models.Memory{},
		CreatedAt:    now,
		LastUpdate:   now,
	}
	tx := &txn{svc: s, op: op, state: state, now: now}
	tx.remember(models.Memory{
		Kind:    models.MemoryGardenCreated,
		Message: "A new garden was planted with one starter seed",
		SeedID:  state.Resources.Seeds[0].ID,
	})

	if err := s.commit(ctx, tx); err != nil {
		return nil, err
	}
	s.logger.Info("garden created", "garden", gardenID)
	return tx.state, nil
}

// Load returns the garden after replaying elapsed time, saving the result.
func (s *Service) Load(ctx context.Context, gardenID string) (*models.GardenState, error) {
	return s.update(ctx, "load", gardenID, nil)
}

// LoadOrCreate loads a garden, creating it first if it does not exist.
func (s *Service) LoadOrCreate(ctx context.Context, gardenID string) (*models.GardenState, error) {
	state, err := s.Load(ctx, gardenID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return state, err
	}
	state, err = s.CreateNew(ctx, gardenID)
	if errors.Is(err, ErrPreconditionFailed) {
		// Created concurrently.
		return s.Load(ctx, gardenID)
	}
	return state, err
}

// Gardens lists stored garden ids.
func (s *Service) Gardens(ctx context.Context) ([]string, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, persistenceFailure("list", err)
	}
	return ids, nil
}

// Status returns a summary of the garden.
func (s *Service) Status(ctx context.Context, gardenID string) (*Status, error) {
	state, err := s.update(ctx, "status", gardenID, nil)
	if err != nil {
		return nil, err
	}
	return &Status{
		Garden:         state,
		PlantCount:     len(state.Plants),
		SeedCount:      len(state.Resources.Seeds),
		Season:         state.Season,
		SeasonName:     state.Season.String(),
		NextSeasonAt:   state.SeasonStart.Add(s.cfg.SeasonDuration),
		SkillLevel:     state.Skill.Level,
		Experience:     state.Skill.Experience,
		XPForNextLevel: skill.XPForNextLevel(state.Skill.Level),
		Water:          state.Resources.Water,
		Fertilizer:     state.Resources.Fertilizer,
	}, nil
}

// PlantSeed moves a seed from inventory into the grid at pos.
func (s *Service) PlantSeed(ctx context.Context, gardenID, seedRef string, pos models.Position) (*PlantResult, error) {
	const op = "plant"
	var res PlantResult
	_, err := s.update(ctx, op, gardenID, func(tx *txn) error {
		g := tx.state
		idx, err := findSeed(op, g, seedRef)
		if err != nil {
			return err
		}
		if pos.X < 0 || pos.Y < 0 || pos.X >= s.cfg.GridWidth || pos.Y >= s.cfg.GridHeight {
			return preconditionFailed(op, "position %s is outside the %dx%d grid", pos, s.cfg.GridWidth, s.cfg.GridHeight)
		}
		if occupant, taken := g.PlantAt(pos); taken {
			return preconditionFailed(op, "position %s is occupied by plant %s", pos, shortID(occupant.ID))
		}

		seed := g.Resources.Seeds[idx]
		g.Resources.Seeds = append(g.Resources.Seeds[:idx:idx], g.Resources.Seeds[idx+1:]...)

		plant := models.Plant{
			ID:          s.newID(),
			Position:    pos,
			Genetics:    seed.Genetics,
			Stage:       models.StageSeed,
			Health:      constants.StarterHealth,
			WaterLevel:  constants.StarterWaterLevel,
			Rarity:      seed.Rarity,
			ParentIDs:   seed.ParentIDs,
			PlantedAt:   tx.now,
			LastWatered: tx.now,
			LastUpdate:  tx.now,
		}
		g.Plants = append(g.Plants, plant)
		tx.remember(models.Memory{
			Kind:    models.MemoryPlanted,
			Message: fmt.Sprintf("Planted seed %s at %s", shortID(seed.ID), pos),
			PlantID: plant.ID,
			SeedID:  seed.ID,
		})

		res.XP = tx.grant(skill.ActionPlant)
		res.Plant = plant
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("seed planted", "garden", gardenID, "plant", res.Plant.ID, "position", res.Plant.Position.String())
	return &res, nil
}

// WaterPlant waters a plant from the garden's barrel. amount <= 0 uses the
// default. Only what the barrel holds is applied, and only what the plant
// absorbs is drawn. An empty barrel or a fully watered plant is a no-op.
func (s *Service) WaterPlant(ctx context.Context, gardenID, plantRef string, amount float64) (*PlantResult, error) {
	const op = "water"
	if amount <= 0 || math.IsNaN(amount) {
		amount = constants.DefaultWaterAmount
	}

	var res PlantResult
	_, err := s.update(ctx, op, gardenID, func(tx *txn) error {
		g := tx.state
		idx, err := findPlant(op, g, plantRef)
		if err != nil {
			return err
		}
		p := &g.Plants[idx]
		res.Plant = *p

		available := math.Max(0, g.Resources.Water)
		switch {
		case p.WaterLevel >= constants.MaxGauge:
			res.Skipped = SkipWaterFull
			return nil
		case available <= 0:
			res.Skipped = SkipBarrelEmpty
			return nil
		}

		used := growth.WaterPlant(p, math.Min(amount, available), tx.now)
		g.Resources.Water = available - used
		res.WaterUsed = used
		tx.remember(models.Memory{
			Kind:    models.MemoryWatered,
			Message: fmt.Sprintf("Watered plant %s (+%.1f)", shortID(p.ID), used),
			PlantID: p.ID,
		})
		res.XP = tx.grant(skill.ActionWater)
		res.Plant = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FertilizePlant spends one fertilizer to boost a plant's health. A plant
// already at full health is a no-op and keeps the fertilizer.
func (s *Service) FertilizePlant(ctx context.Context, gardenID, plantRef string) (*PlantResult, error) {
	const op = "fertilize"
	var res PlantResult
	_, err := s.update(ctx, op, gardenID, func(tx *txn) error {
		g := tx.state
		idx, err := findPlant(op, g, plantRef)
		if err != nil {
			return err
		}
		p := &g.Plants[idx]
		if p.Health >= constants.MaxGauge {
			res.Skipped = SkipHealthFull
			res.Plant = *p
			return nil
		}
		if g.Resources.Fertilizer <= 0 {
			return preconditionFailed(op, "no fertilizer left")
		}

		g.Resources.Fertilizer--
		gain := growth.FertilizePlant(p)
		tx.remember(models.Memory{
			Kind:    models.MemoryFertilized,
			Message: fmt.Sprintf("Fertilized plant %s (+%.1f health)", shortID(p.ID), gain),
			PlantID: p.ID,
		})
		res.XP = tx.grant(skill.ActionFertilize)
		res.Plant = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CrossBreed crosses two mature plants and adds the offspring seed to inventory.
func (s *Service) CrossBreed(ctx context.Context, gardenID, parent1Ref, parent2Ref string) (*SeedResult, error) {
	const op = "cross"
	var res SeedResult
	_, err := s.update(ctx, op, gardenID, func(tx *txn) error {
		g := tx.state
		i1, err := findPlant(op, g, parent1Ref)
		if err != nil {
			return err
		}
		i2, err := findPlant(op, g, parent2Ref)
		if err != nil {
			return err
		}
		if i1 == i2 {
			return preconditionFailed(op, "a plant cannot be crossed with itself")
		}
		p1, p2 := g.Plants[i1], g.Plants[i2]
		for _, p := range []models.Plant{p1, p2} {
			if !p.IsMature() {
				return preconditionFailed(op, "plant %s is %s, not mature", shortID(p.ID), p.Stage)
			}
		}

		level := g.Skill.Level
		cross := s.engine.CrossBreed(p1, p2, level, tx.now)
		g.Resources.Seeds = append(g.Resources.Seeds, cross.Seed)
		tx.crossed = true
		tx.mutations += len(cross.Mutations)

		tx.remember(models.Memory{
			Kind:    models.MemoryCrossBred,
			Message: fmt.Sprintf("Crossed %s with %s: a %s seed", shortID(p1.ID), shortID(p2.ID), cross.Seed.Rarity),
			SeedID:  cross.Seed.ID,
		})
		for _, m := range cross.Mutations {
			tx.remember(models.Memory{
				Kind:    models.MemoryMutation,
				Message: fmt.Sprintf("Mutation! Seed %s carries %s %s", shortID(cross.Seed.ID), m.Allele, m.Trait),
				SeedID:  cross.Seed.ID,
				Trait:   m.Trait,
				Allele:  m.Allele,
			})
		}

		s.decisions.Log(map[string]any{
			"event":         "cross",
			"garden":        g.ID,
			"parents":       []string{p1.ID, p2.ID},
			"seed":          cross.Seed.ID,
			"skill_level":   level,
			"mutation_rate": skill.MutationRate(level),
			"mutations":     len(cross.Mutations),
			"rarity":        string(cross.Seed.Rarity),
			"phenotype":     cross.Seed.Genetics.Phenotype(),
		})

		res.Seed = cross.Seed
		res.Mutations = cross.Mutations
		res.XP = tx.grant(skill.ActionCrossBreed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("plants crossed", "garden", gardenID, "seed", res.Seed.ID, "mutations", len(res.Mutations))
	return &res, nil
}

// Harvest removes a mature plant and returns a seed with its genetics.
func (s *Service) Harvest(ctx context.Context, gardenID, plantRef string) (*SeedResult, error) {
	const op = "harvest"
	var res SeedResult
	_, err := s.update(ctx, op, gardenID, func(tx *txn) error {
		g := tx.state
		idx, err := findPlant(op, g, plantRef)
		if err != nil {
			return err
		}
		p := g.Plants[idx]
		if !p.IsMature() {
			return preconditionFailed(op, "plant %s is %s, not mature", shortID(p.ID), p.Stage)
		}

		parents := [2]string{p.ID, p.ID}
		seed := models.Seed{
			ID:        s.newID(),
			Genetics:  p.Genetics,
			ParentIDs: &parents,
			CreatedAt: tx.now,
			Rarity:    p.Rarity,
		}
		g.Plants = append(g.Plants[:idx:idx], g.Plants[idx+1:]...)
		g.Resources.Seeds = append(g.Resources.Seeds, seed)
		tx.remember(models.Memory{
			Kind:    models.MemoryHarvested,
			Message: fmt.Sprintf("Harvested plant %s for seed %s", shortID(p.ID), shortID(seed.ID)),
			PlantID: p.ID,
			SeedID:  seed.ID,
		})

		res.Seed = seed
		res.XP = tx.grant(skill.ActionHarvest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// grant awards XP for action and records any level-up.
func (tx *txn) grant(action skill.Action) skill.Grant {
	g := skill.GrantExperience(&tx.state.Skill, action, tx.svc.src)
	if g.LeveledUp {
		tx.levelUps += g.LevelsGained
		tx.remember(models.Memory{
			Kind:    models.MemoryLevelUp,
			Message: fmt.Sprintf("Reached gardening level %d", g.NewLevel),
			Level:   g.NewLevel,
		})
		tx.svc.logger.Info("level up", "garden", tx.state.ID, "level", g.NewLevel)
	}
	return g
}
