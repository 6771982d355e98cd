package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/nvandessel/verdant/internal/models"
)

// RecordVersion is the current serialized record format.
const RecordVersion = 1

// timeLayout renders timestamps losslessly (nanosecond precision, UTC).
const timeLayout = time.RFC3339Nano

// gardenRecord is the on-disk shape of a GardenState. Timestamps are
// strings and are re-parsed explicitly on load.
type gardenRecord struct {
	Version      int                 `json:"version"`
	ID           string              `json:"id"`
	Plants       []plantRecord       `json:"plants"`
	Resources    resourcesRecord     `json:"resources"`
	Season       string              `json:"season"`
	SeasonStart  string              `json:"season_start"`
	Skill        models.SkillLedger  `json:"skill"`
	Achievements []achievementRecord `json:"achievements"`
	Memories     []memoryRecord      `json:"memories"`
	CreatedAt    string              `json:"created_at"`
	LastUpdate   string              `json:"last_update"`
}

type plantRecord struct {
	ID             string               `json:"id"`
	Position       models.Position      `json:"position"`
	Genetics       models.PlantGenetics `json:"genetics"`
	Stage          string               `json:"stage"`
	GrowthProgress float64              `json:"growth_progress"`
	Health         float64              `json:"health"`
	WaterLevel     float64              `json:"water_level"`
	Rarity         string               `json:"rarity"`
	ParentIDs      []string             `json:"parent_ids,omitempty"`
	PlantedAt      string               `json:"planted_at"`
	LastWatered    string               `json:"last_watered"`
	LastUpdate     string               `json:"last_update"`
}

type seedRecord struct {
	ID        string               `json:"id"`
	Genetics  models.PlantGenetics `json:"genetics"`
	ParentIDs []string             `json:"parent_ids,omitempty"`
	CreatedAt string               `json:"created_at"`
	Rarity    string               `json:"rarity"`
}

type resourcesRecord struct {
	Water      float64      `json:"water"`
	Fertilizer int          `json:"fertilizer"`
	Seeds      []seedRecord `json:"seeds"`
}

type achievementRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  string `json:"unlocked_at,omitempty"`
}

type memoryRecord struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	At      string `json:"at"`
	PlantID string `json:"plant_id,omitempty"`
	SeedID  string `json:"seed_id,omitempty"`
	Stage   string `json:"stage"`
	Trait   string `json:"trait,omitempty"`
	Allele  string `json:"allele,omitempty"`
	Level   int    `json:"level,omitempty"`
	Season  string `json:"season"`
}

// Encode serializes a garden to its versioned JSON record.
func Encode(state *models.GardenState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("encode: nil garden state")
	}
	rec := toRecord(state)
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode garden %s: %w", state.ID, err)
	}
	return data, nil
}

// Decode parses a record produced by Encode, re-hydrating every timestamp.
func Decode(data []byte) (*models.GardenState, error) {
	var rec gardenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode garden record: %w", err)
	}
	if rec.Version > RecordVersion {
		return nil, fmt.Errorf("garden record version %d is newer than supported version %d", rec.Version, RecordVersion)
	}
	state, err := fromRecord(&rec)
	if err != nil {
		return nil, fmt.Errorf("decode garden %s: %w", rec.ID, err)
	}
	return state, nil
}

func toRecord(s *models.GardenState) gardenRecord {
	rec := gardenRecord{
		Version:      RecordVersion,
		ID:           s.ID,
		Plants:       make([]plantRecord, 0, len(s.Plants)),
		Season:       s.Season.String(),
		SeasonStart:  formatTime(s.SeasonStart),
		Skill:        s.Skill,
		Achievements: make([]achievementRecord, 0, len(s.Achievements)),
		Memories:     make([]memoryRecord, 0, len(s.Memories)),
		CreatedAt:    formatTime(s.CreatedAt),
		LastUpdate:   formatTime(s.LastUpdate),
		Resources: resourcesRecord{
			Water:      s.Resources.Water,
			Fertilizer: s.Resources.Fertilizer,
			Seeds:      make([]seedRecord, 0, len(s.Resources.Seeds)),
		},
	}

	for _, p := range s.Plants {
		rec.Plants = append(rec.Plants, plantRecord{
			ID:             p.ID,
			Position:       p.Position,
			Genetics:       p.Genetics,
			Stage:          p.Stage.String(),
			GrowthProgress: p.GrowthProgress,
			Health:         p.Health,
			WaterLevel:     p.WaterLevel,
			Rarity:         string(p.Rarity),
			ParentIDs:      parentSlice(p.ParentIDs),
			PlantedAt:      formatTime(p.PlantedAt),
			LastWatered:    formatTime(p.LastWatered),
			LastUpdate:     formatTime(p.LastUpdate),
		})
	}
	for _, sd := range s.Resources.Seeds {
		rec.Resources.Seeds = append(rec.Resources.Seeds, seedRecord{
			ID:        sd.ID,
			Genetics:  sd.Genetics,
			ParentIDs: parentSlice(sd.ParentIDs),
			CreatedAt: formatTime(sd.CreatedAt),
			Rarity:    string(sd.Rarity),
		})
	}
	for _, a := range s.Achievements {
		ar := achievementRecord{ID: a.ID, Name: a.Name, Description: a.Description, Unlocked: a.Unlocked}
		if a.UnlockedAt != nil {
			ar.UnlockedAt = formatTime(*a.UnlockedAt)
		}
		rec.Achievements = append(rec.Achievements, ar)
	}
	for _, m := range s.Memories {
		rec.Memories = append(rec.Memories, memoryRecord{
			ID:      m.ID,
			Kind:    string(m.Kind),
			Message: m.Message,
			At:      formatTime(m.At),
			PlantID: m.PlantID,
			SeedID:  m.SeedID,
			Stage:   m.Stage.String(),
			Trait:   string(m.Trait),
			Allele:  string(m.Allele),
			Level:   m.Level,
			Season:  m.Season.String(),
		})
	}
	return rec
}

func fromRecord(rec *gardenRecord) (*models.GardenState, error) {
	s := &models.GardenState{
		ID:           rec.ID,
		Plants:       make([]models.Plant, 0, len(rec.Plants)),
		Season:       parseSeasonOrDefault(rec.Season),
		Skill:        rec.Skill,
		Achievements: make([]models.Achievement, 0, len(rec.Achievements)),
		Memories:     make([]models.Memory, 0, len(rec.Memories)),
		Resources: models.Resources{
			Water:      rec.Resources.Water,
			Fertilizer: rec.Resources.Fertilizer,
			Seeds:      make([]models.Seed, 0, len(rec.Resources.Seeds)),
		},
	}

	var err error
	if s.SeasonStart, err = parseTime("season_start", rec.SeasonStart); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime("created_at", rec.CreatedAt); err != nil {
		return nil, err
	}
	if s.LastUpdate, err = parseTime("last_update", rec.LastUpdate); err != nil {
		return nil, err
	}

	for _, pr := range rec.Plants {
		p := models.Plant{
			ID:             pr.ID,
			Position:       pr.Position,
			Genetics:       pr.Genetics,
			Stage:          parseStageOrProgress(pr.Stage, pr.GrowthProgress),
			GrowthProgress: pr.GrowthProgress,
			Health:         pr.Health,
			WaterLevel:     pr.WaterLevel,
			Rarity:         models.Rarity(pr.Rarity),
			ParentIDs:      parentArray(pr.ParentIDs),
		}
		if p.PlantedAt, err = parseTime("plant "+pr.ID+" planted_at", pr.PlantedAt); err != nil {
			return nil, err
		}
		if p.LastWatered, err = parseTime("plant "+pr.ID+" last_watered", pr.LastWatered); err != nil {
			return nil, err
		}
		if p.LastUpdate, err = parseTime("plant "+pr.ID+" last_update", pr.LastUpdate); err != nil {
			return nil, err
		}
		s.Plants = append(s.Plants, p)
	}

	for _, sr := range rec.Resources.Seeds {
		sd := models.Seed{
			ID:        sr.ID,
			Genetics:  sr.Genetics,
			ParentIDs: parentArray(sr.ParentIDs),
			Rarity:    models.Rarity(sr.Rarity),
		}
		if sd.CreatedAt, err = parseTime("seed "+sr.ID+" created_at", sr.CreatedAt); err != nil {
			return nil, err
		}
		s.Resources.Seeds = append(s.Resources.Seeds, sd)
	}

	for _, ar := range rec.Achievements {
		a := models.Achievement{ID: ar.ID, Name: ar.Name, Description: ar.Description, Unlocked: ar.Unlocked}
		if ar.UnlockedAt != "" {
			t, err := parseTime("achievement "+ar.ID+" unlocked_at", ar.UnlockedAt)
			if err != nil {
				return nil, err
			}
			a.UnlockedAt = &t
		}
		s.Achievements = append(s.Achievements, a)
	}

	for _, mr := range rec.Memories {
		m := models.Memory{
			ID:      mr.ID,
			Kind:    models.MemoryKind(mr.Kind),
			Message: mr.Message,
			PlantID: mr.PlantID,
			SeedID:  mr.SeedID,
			Stage:   parseStageOrProgress(mr.Stage, 0),
			Level:   mr.Level,
			Season:  parseSeasonOrDefault(mr.Season),
		}
		// Mutation notes on trait slots this build does not know are dropped.
		if t := models.TraitType(mr.Trait); t.IsValid() {
			m.Trait, m.Allele = t, models.AlleleID(mr.Allele)
		}
		if m.At, err = parseTime("memory "+mr.ID+" at", mr.At); err != nil {
			return nil, err
		}
		s.Memories = append(s.Memories, m)
	}

	return s, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return t.UTC(), nil
}

// parseStageOrProgress falls back to the stage implied by progress when the
// stored name is unrecognized.
func parseStageOrProgress(name string, progress float64) models.GrowthStage {
	if stage, err := models.ParseGrowthStage(name); err == nil {
		return stage
	}
	if progress <= 0 || math.IsNaN(progress) {
		return models.StageSeed
	}
	stage := models.GrowthStage(math.Floor(progress))
	if stage > models.MaxStage {
		return models.MaxStage
	}
	return stage
}

func parseSeasonOrDefault(name string) models.Season {
	season, err := models.ParseSeason(name)
	if err != nil {
		return models.Spring
	}
	return season
}

func parentSlice(p *[2]string) []string {
	if p == nil {
		return nil
	}
	return []string{p[0], p[1]}
}

func parentArray(ids []string) *[2]string {
	if len(ids) != 2 {
		return nil
	}
	out := [2]string{ids[0], ids[1]}
	return &out
}
