package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/store"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show season, skill and resources of a garden",
		Long: `Show the garden after replaying the time since the last visit.

Examples:
  verdant status
  verdant status --garden patio --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.svc.Status(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"garden":            st.Garden.ID,
					"season":            st.SeasonName,
					"next_season_at":    st.NextSeasonAt.Format(time.RFC3339),
					"skill_level":       st.SkillLevel,
					"experience":        st.Experience,
					"xp_for_next_level": st.XPForNextLevel,
					"water":             st.Water,
					"fertilizer":        st.Fertilizer,
					"plant_count":       st.PlantCount,
					"seed_count":        st.SeedCount,
					"achievements":      unlockedAchievements(st.Garden),
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Garden %s\n", st.Garden.ID)
			fmt.Fprintf(w, "  Season:      %s (next: %s)\n", st.SeasonName, st.NextSeasonAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(w, "  Skill:       level %d (%.0f/%.0f XP)\n", st.SkillLevel, st.Experience, st.XPForNextLevel)
			fmt.Fprintf(w, "  Water:       %.1f\n", st.Water)
			fmt.Fprintf(w, "  Fertilizer:  %d\n", st.Fertilizer)
			fmt.Fprintf(w, "  Plants:      %d\n", st.PlantCount)
			fmt.Fprintf(w, "  Seeds:       %d\n", st.SeedCount)
			if names := unlockedAchievements(st.Garden); len(names) > 0 {
				fmt.Fprintf(w, "  Achievements: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func newGardensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gardens",
		Short: "List stored gardens",
		Long: `List every garden in the store as last saved, without replaying time.

Examples:
  verdant gardens
  verdant gardens --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.gardenSummaries(cmd.Context())
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"gardens": rows,
					"count":   len(rows),
				})
			}

			w := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(w, "No gardens yet. Run 'verdant init' to create one.")
				return nil
			}
			fmt.Fprintf(w, "Gardens (%d):\n", len(rows))
			for _, g := range rows {
				fmt.Fprintf(w, "  %-16s %-7s level %-3d plants %-3d updated %s\n",
					g.ID, g.Season, g.SkillLevel, g.PlantCount, g.UpdatedAt)
			}
			return nil
		},
	}
}

// gardenSummaries reads the sqlite listing columns when available and
// otherwise decodes each stored garden.
func (a *app) gardenSummaries(ctx context.Context) ([]store.GardenSummary, error) {
	if db, ok := a.store.(*store.SQLiteStore); ok {
		rows, err := db.Summaries(ctx)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []store.GardenSummary{}
		}
		return rows, nil
	}

	ids, err := a.svc.Gardens(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]store.GardenSummary, 0, len(ids))
	for _, id := range ids {
		g, err := a.store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load garden %s: %w", id, err)
		}
		rows = append(rows, store.GardenSummary{
			ID:         g.ID,
			Season:     g.Season.String(),
			SkillLevel: g.Skill.Level,
			PlantCount: len(g.Plants),
			UpdatedAt:  g.LastUpdate.UTC().Format(time.RFC3339),
		})
	}
	return rows, nil
}

func newSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seeds",
		Short: "List seeds in inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.Load(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"seeds": g.Resources.Seeds,
					"count": len(g.Resources.Seeds),
				})
			}

			w := cmd.OutOrStdout()
			if len(g.Resources.Seeds) == 0 {
				fmt.Fprintln(w, "No seeds in inventory. Harvest or cross mature plants to get more.")
				return nil
			}
			fmt.Fprintf(w, "Seeds (%d):\n", len(g.Resources.Seeds))
			for _, s := range g.Resources.Seeds {
				fmt.Fprintf(w, "  %s  %-9s  %s\n", shortID(s.ID), s.Rarity, describeGenetics(s.Genetics))
			}
			return nil
		},
	}
}

func newPlantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plants",
		Short: "List plants growing in the garden",
		RunE: func(cmd *cobra.Command, args []string) error {
			showGrid, _ := cmd.Flags().GetBool("grid")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.Load(cmd.Context(), a.gardenID)
			if err != nil {
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"plants": g.Plants,
					"count":  len(g.Plants),
				})
			}

			w := cmd.OutOrStdout()
			if showGrid {
				cfg := a.svc.Config()
				writeGrid(w, g, cfg.GridWidth, cfg.GridHeight)
				return nil
			}
			if len(g.Plants) == 0 {
				fmt.Fprintln(w, "No plants yet. Run 'verdant seeds' to see what you can plant.")
				return nil
			}

			plants := append([]models.Plant(nil), g.Plants...)
			sort.Slice(plants, func(i, j int) bool {
				pi, pj := plants[i].Position, plants[j].Position
				if pi.Y != pj.Y {
					return pi.Y < pj.Y
				}
				return pi.X < pj.X
			})
			fmt.Fprintf(w, "Plants (%d):\n", len(plants))
			for _, p := range plants {
				fmt.Fprintf(w, "  %s  %-7s %-7s %4.2f  health %3.0f  water %3.0f  %s\n",
					shortID(p.ID), p.Position, p.Stage, p.GrowthProgress,
					p.Health, p.WaterLevel, describeGenetics(p.Genetics))
			}
			return nil
		},
	}
	cmd.Flags().Bool("grid", false, "Draw the garden grid instead of a list")
	return cmd
}

// stageGlyphs draws one character per growth stage.
var stageGlyphs = [...]string{".", ",", "i", "Y", "*"}

func writeGrid(w io.Writer, g *models.GardenState, width, height int) {
	cells := make(map[models.Position]models.Plant, len(g.Plants))
	for _, p := range g.Plants {
		cells[p.Position] = p
	}
	for y := 0; y < height; y++ {
		var sb strings.Builder
		for x := 0; x < width; x++ {
			p, ok := cells[models.Position{X: x, Y: y}]
			switch {
			case !ok:
				sb.WriteString(" _")
			case int(p.Stage) < len(stageGlyphs):
				sb.WriteString(" " + stageGlyphs[p.Stage])
			default:
				sb.WriteString(" ?")
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// describeGenetics renders the expressed phenotype as "trait=allele" pairs.
func describeGenetics(gen models.PlantGenetics) string {
	parts := make([]string, 0, len(models.TraitTypes))
	for _, slot := range gen.Slots() {
		parts = append(parts, fmt.Sprintf("%s=%s", slot.Type, slot.Trait.Expressed))
	}
	return strings.Join(parts, " ")
}

func unlockedAchievements(g *models.GardenState) []string {
	var names []string
	for _, a := range g.Achievements {
		if a.Unlocked {
			names = append(names, a.Name)
		}
	}
	return names
}
