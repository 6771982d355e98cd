package census

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/nvandessel/verdant/internal/models"
)

// PlantRow is one CSV record per plant.
type PlantRow struct {
	ID        string  `csv:"id"`
	X         int     `csv:"x"`
	Y         int     `csv:"y"`
	Stage     string  `csv:"stage"`
	Progress  float64 `csv:"growth_progress"`
	Health    float64 `csv:"health"`
	Water     float64 `csv:"water_level"`
	Rarity    string  `csv:"rarity"`
	Color     string  `csv:"color"`
	BloomSize string  `csv:"bloom_size"`
	Height    string  `csv:"height"`
	Pattern   string  `csv:"pattern"`
	Fragrance string  `csv:"fragrance"`
	Genotype  string  `csv:"genotype"`
	PlantedAt string  `csv:"planted_at"`
}

// Rows converts plants to CSV rows.
func Rows(plants []models.Plant) []*PlantRow {
	rows := make([]*PlantRow, 0, len(plants))
	for _, p := range plants {
		g := p.Genetics
		rows = append(rows, &PlantRow{
			ID:        p.ID,
			X:         p.Position.X,
			Y:         p.Position.Y,
			Stage:     p.Stage.String(),
			Progress:  p.GrowthProgress,
			Health:    p.Health,
			Water:     p.WaterLevel,
			Rarity:    string(p.Rarity),
			Color:     string(g.Color.Expressed),
			BloomSize: string(g.BloomSize.Expressed),
			Height:    string(g.Height.Expressed),
			Pattern:   string(g.Pattern.Expressed),
			Fragrance: string(g.Fragrance.Expressed),
			Genotype:  genotype(g),
			PlantedAt: p.PlantedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

// WriteCSV writes one header line and one row per plant to w.
func WriteCSV(w io.Writer, plants []models.Plant) error {
	if err := gocsv.Marshal(Rows(plants), w); err != nil {
		return fmt.Errorf("writing plant csv: %w", err)
	}
	return nil
}

// genotype renders every slot as dominant/recessive, space separated.
func genotype(g models.PlantGenetics) string {
	out := ""
	for i, slot := range g.Slots() {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%s/%s", slot.Type, slot.Trait.Dominant, slot.Trait.Recessive)
	}
	return out
}
