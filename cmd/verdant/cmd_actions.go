package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/skill"
	"github.com/spf13/cobra"
)

func newPlantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plant <seed> <x> <y>",
		Short: "Plant a seed from inventory at a grid position",
		Long: `Plant a seed at column x, row y. Seeds may be named by a unique id
prefix of at least 4 characters.

Examples:
  verdant plant 3f9a 0 0`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[1], err)
			}
			y, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[2], err)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.PlantSeed(cmd.Context(), a.gardenID, args[0], models.Position{X: x, Y: y})
			if err != nil {
				return err
			}
			return reportPlant(cmd.OutOrStdout(), a.jsonOut, res,
				fmt.Sprintf("Planted %s at %s", shortID(res.Plant.ID), res.Plant.Position))
		},
	}
}

func newWaterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "water <plant>",
		Short: "Water a plant from the garden's water barrel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, _ := cmd.Flags().GetFloat64("amount")
			if amount < 0 {
				return fmt.Errorf("--amount must be non-negative, got %g", amount)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.WaterPlant(cmd.Context(), a.gardenID, args[0], amount)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Watered %s with %.1f (water level %.1f)", shortID(res.Plant.ID), res.WaterUsed, res.Plant.WaterLevel)
			if res.Skipped != "" {
				msg = res.Skipped.Describe()
			}
			return reportPlant(cmd.OutOrStdout(), a.jsonOut, res, msg)
		},
	}
	cmd.Flags().Float64("amount", constants.DefaultWaterAmount, "Amount of water to give")
	return cmd
}

func newFertilizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fertilize <plant>",
		Short: "Spend one fertilizer to boost a plant's health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.FertilizePlant(cmd.Context(), a.gardenID, args[0])
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Fertilized %s (health %.1f)", shortID(res.Plant.ID), res.Plant.Health)
			if res.Skipped != "" {
				msg = res.Skipped.Describe()
			}
			return reportPlant(cmd.OutOrStdout(), a.jsonOut, res, msg)
		},
	}
}

func newCrossCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cross <parent1> <parent2>",
		Short: "Cross-breed two mature plants into a new seed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.CrossBreed(cmd.Context(), a.gardenID, args[0], args[1])
			if err != nil {
				return err
			}
			return reportSeed(cmd.OutOrStdout(), a.jsonOut, res,
				fmt.Sprintf("New %s seed %s", res.Seed.Rarity, shortID(res.Seed.ID)))
		},
	}
}

func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest <plant>",
		Short: "Harvest a mature plant for one seed",
		Long: `Harvest removes a mature plant from the grid and adds one seed with
its genetics to inventory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Harvest(cmd.Context(), a.gardenID, args[0])
			if err != nil {
				return err
			}
			return reportSeed(cmd.OutOrStdout(), a.jsonOut, res,
				fmt.Sprintf("Harvested seed %s", shortID(res.Seed.ID)))
		},
	}
}

func reportPlant(w io.Writer, jsonOut bool, res *garden.PlantResult, msg string) error {
	if jsonOut {
		return printJSON(w, map[string]interface{}{
			"plant":      res.Plant,
			"xp":         res.XP,
			"water_used": res.WaterUsed,
			"skipped":    res.Skipped,
			"message":    msg,
		})
	}
	fmt.Fprintln(w, msg)
	writeGrant(w, res.XP)
	return nil
}

func reportSeed(w io.Writer, jsonOut bool, res *garden.SeedResult, msg string) error {
	mutations := make([]string, 0, len(res.Mutations))
	for _, m := range res.Mutations {
		mutations = append(mutations, fmt.Sprintf("%s:%s", m.Trait, m.Allele))
	}
	if jsonOut {
		return printJSON(w, map[string]interface{}{
			"seed":      res.Seed,
			"xp":        res.XP,
			"mutations": mutations,
			"message":   msg,
		})
	}
	fmt.Fprintln(w, msg)
	fmt.Fprintf(w, "  %s\n", describeGenetics(res.Seed.Genetics))
	for _, m := range mutations {
		fmt.Fprintf(w, "  Mutation! %s\n", m)
	}
	writeGrant(w, res.XP)
	return nil
}

func writeGrant(w io.Writer, g skill.Grant) {
	if g.XPGained > 0 {
		fmt.Fprintf(w, "  +%d XP\n", g.XPGained)
	}
	if g.LeveledUp {
		fmt.Fprintf(w, "  Level up! Now level %d\n", g.NewLevel)
	}
}
