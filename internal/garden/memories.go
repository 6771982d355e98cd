package garden

import (
	"context"
	"fmt"
	"time"

	"github.com/nvandessel/verdant/internal/models"
)

// MemoryFilter narrows a Memories query. Zero fields match everything.
type MemoryFilter struct {
	Kinds   []models.MemoryKind
	PlantID string
	Since   time.Time
}

func (f MemoryFilter) match(m models.Memory) bool {
	if f.PlantID != "" && m.PlantID != f.PlantID {
		return false
	}
	if !f.Since.IsZero() && m.At.Before(f.Since) {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if m.Kind == k {
			return true
		}
	}
	return false
}

// Memories returns the garden's events newest first. limit <= 0 returns all matches.
func (s *Service) Memories(ctx context.Context, gardenID string, filter MemoryFilter, limit int) ([]models.Memory, error) {
	state, err := s.update(ctx, "memories", gardenID, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.Memory, 0)
	for i := len(state.Memories) - 1; i >= 0; i-- {
		m := state.Memories[i]
		if !filter.match(m) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// remember appends a memory stamped with the transaction time.
func (tx *txn) remember(m models.Memory) {
	m.ID = tx.svc.newID()
	m.At = tx.now
	tx.state.Memories = append(tx.state.Memories, m)
}

func (tx *txn) rememberSeason(season models.Season) {
	tx.remember(models.Memory{
		Kind:    models.MemorySeasonChanged,
		Message: fmt.Sprintf("The season turned to %s", season),
		Season:  season,
	})
}

// trimMemories keeps the newest MaxMemories entries.
func (tx *txn) trimMemories() {
	limit := tx.svc.cfg.MaxMemories
	if n := len(tx.state.Memories); n > limit {
		kept := make([]models.Memory, limit)
		copy(kept, tx.state.Memories[n-limit:])
		tx.state.Memories = kept
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
