package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/verdant/internal/census"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/ratelimit"
)

// DefaultMemoryLimit caps garden_memories when the caller gives no limit.
const DefaultMemoryLimit = 20

// registerTools registers all garden MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_status",
		Description: "Show a garden after catching up on elapsed time: season, skill, resources, plants and seeds",
	}, s.handleGardenStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_plant",
		Description: "Plant a seed from inventory at a free grid position",
	}, s.handleGardenPlant)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_water",
		Description: "Water a plant from the garden's water barrel",
	}, s.handleGardenWater)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_fertilize",
		Description: "Spend one fertilizer to boost a plant's health",
	}, s.handleGardenFertilize)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_cross",
		Description: "Cross-breed two mature plants into a new seed; mutations are possible",
	}, s.handleGardenCross)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_harvest",
		Description: "Harvest a mature plant, freeing its plot and keeping one seed with its genetics",
	}, s.handleGardenHarvest)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_memories",
		Description: "List recent garden events (blooms, mutations, level-ups, seasons), newest first",
	}, s.handleGardenMemories)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "garden_census",
		Description: "Population statistics: stage counts, health and water distributions, allele frequencies",
	}, s.handleGardenCensus)
}

// registerResources registers the per-garden status resource.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: gardenURIPrefix + "{id}",
		Name:        "verdant-garden",
		Description: "Markdown overview of a garden: season, skill, plants and seeds.",
		MIMEType:    "text/markdown",
	}, s.handleGardenResource)
}

const gardenURIPrefix = "verdant://gardens/"

// begin applies the rate limit and returns the audit hook for a tool call.
func (s *Server) begin(tool, gardenID string, params map[string]interface{}) (func(error), error) {
	start := time.Now()
	done := func(err error) {
		s.auditTool(tool, gardenID, start, err, sanitizeToolParams(tool, params))
		if err != nil {
			s.logger.Debug("tool failed", "tool", tool, "garden", gardenID, "error", err)
		}
	}
	if err := ratelimit.CheckLimit(s.toolLimiters, tool, gardenID); err != nil {
		done(err)
		return nil, err
	}
	return done, nil
}

// handleGardenStatus implements the garden_status tool.
func (s *Server) handleGardenStatus(ctx context.Context, req *sdk.CallToolRequest, args GardenStatusInput) (_ *sdk.CallToolResult, _ GardenStatusOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_status", id, map[string]interface{}{"garden": id, "create": args.Create})
	if err != nil {
		return nil, GardenStatusOutput{}, err
	}
	defer func() { done(retErr) }()

	created := false
	if args.Create {
		if _, err := s.svc.CreateNew(ctx, id); err == nil {
			created = true
		} else if !errors.Is(err, garden.ErrPreconditionFailed) {
			return nil, GardenStatusOutput{}, err
		}
	}

	st, err := s.svc.Status(ctx, id)
	if err != nil {
		return nil, GardenStatusOutput{}, err
	}
	out := statusOutput(st)
	out.Created = created
	return nil, out, nil
}

// handleGardenPlant implements the garden_plant tool.
func (s *Server) handleGardenPlant(ctx context.Context, req *sdk.CallToolRequest, args GardenPlantInput) (_ *sdk.CallToolResult, _ PlantActionOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_plant", id, map[string]interface{}{"garden": id, "seed": args.Seed, "x": args.X, "y": args.Y})
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	defer func() { done(retErr) }()

	if args.Seed == "" {
		return nil, PlantActionOutput{}, fmt.Errorf("'seed' parameter is required")
	}
	res, err := s.svc.PlantSeed(ctx, id, args.Seed, models.Position{X: args.X, Y: args.Y})
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	return nil, plantOutput(res, fmt.Sprintf("Planted %s at %s", shortID(res.Plant.ID), res.Plant.Position)), nil
}

// handleGardenWater implements the garden_water tool.
func (s *Server) handleGardenWater(ctx context.Context, req *sdk.CallToolRequest, args GardenWaterInput) (_ *sdk.CallToolResult, _ PlantActionOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_water", id, map[string]interface{}{"garden": id, "plant": args.Plant, "amount": args.Amount})
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	defer func() { done(retErr) }()

	if args.Plant == "" {
		return nil, PlantActionOutput{}, fmt.Errorf("'plant' parameter is required")
	}
	if args.Amount < 0 {
		return nil, PlantActionOutput{}, fmt.Errorf("'amount' must be non-negative, got %g", args.Amount)
	}
	res, err := s.svc.WaterPlant(ctx, id, args.Plant, args.Amount)
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	msg := fmt.Sprintf("Watered %s with %.1f (water level %.1f)", shortID(res.Plant.ID), res.WaterUsed, res.Plant.WaterLevel)
	if res.Skipped != "" {
		msg = res.Skipped.Describe()
	}
	return nil, plantOutput(res, msg), nil
}

// handleGardenFertilize implements the garden_fertilize tool.
func (s *Server) handleGardenFertilize(ctx context.Context, req *sdk.CallToolRequest, args GardenPlantTarget) (_ *sdk.CallToolResult, _ PlantActionOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_fertilize", id, map[string]interface{}{"garden": id, "plant": args.Plant})
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	defer func() { done(retErr) }()

	if args.Plant == "" {
		return nil, PlantActionOutput{}, fmt.Errorf("'plant' parameter is required")
	}
	res, err := s.svc.FertilizePlant(ctx, id, args.Plant)
	if err != nil {
		return nil, PlantActionOutput{}, err
	}
	msg := fmt.Sprintf("Fertilized %s (health %.1f)", shortID(res.Plant.ID), res.Plant.Health)
	if res.Skipped != "" {
		msg = res.Skipped.Describe()
	}
	return nil, plantOutput(res, msg), nil
}

// handleGardenCross implements the garden_cross tool.
func (s *Server) handleGardenCross(ctx context.Context, req *sdk.CallToolRequest, args GardenCrossInput) (_ *sdk.CallToolResult, _ SeedActionOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_cross", id, map[string]interface{}{"garden": id, "parent1": args.Parent1, "parent2": args.Parent2})
	if err != nil {
		return nil, SeedActionOutput{}, err
	}
	defer func() { done(retErr) }()

	if args.Parent1 == "" || args.Parent2 == "" {
		return nil, SeedActionOutput{}, fmt.Errorf("'parent1' and 'parent2' parameters are required")
	}
	res, err := s.svc.CrossBreed(ctx, id, args.Parent1, args.Parent2)
	if err != nil {
		return nil, SeedActionOutput{}, err
	}

	out := seedOutput(res, fmt.Sprintf("New %s seed %s", res.Seed.Rarity, shortID(res.Seed.ID)))
	if len(out.Mutations) > 0 {
		out.Message += fmt.Sprintf(" with %d mutation(s): %s", len(out.Mutations), strings.Join(out.Mutations, ", "))
	}
	return nil, out, nil
}

// handleGardenHarvest implements the garden_harvest tool.
func (s *Server) handleGardenHarvest(ctx context.Context, req *sdk.CallToolRequest, args GardenPlantTarget) (_ *sdk.CallToolResult, _ SeedActionOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_harvest", id, map[string]interface{}{"garden": id, "plant": args.Plant})
	if err != nil {
		return nil, SeedActionOutput{}, err
	}
	defer func() { done(retErr) }()

	if args.Plant == "" {
		return nil, SeedActionOutput{}, fmt.Errorf("'plant' parameter is required")
	}
	res, err := s.svc.Harvest(ctx, id, args.Plant)
	if err != nil {
		return nil, SeedActionOutput{}, err
	}
	return nil, seedOutput(res, fmt.Sprintf("Harvested seed %s", shortID(res.Seed.ID))), nil
}

// handleGardenMemories implements the garden_memories tool.
func (s *Server) handleGardenMemories(ctx context.Context, req *sdk.CallToolRequest, args GardenMemoriesInput) (_ *sdk.CallToolResult, _ GardenMemoriesOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_memories", id, map[string]interface{}{
		"garden": id, "kinds": strings.Join(args.Kinds, ","), "plant": args.Plant, "since": args.Since, "limit": args.Limit,
	})
	if err != nil {
		return nil, GardenMemoriesOutput{}, err
	}
	defer func() { done(retErr) }()

	filter := garden.MemoryFilter{PlantID: args.Plant}
	for _, k := range args.Kinds {
		filter.Kinds = append(filter.Kinds, models.MemoryKind(k))
	}
	if args.Since != "" {
		since, err := time.Parse(time.RFC3339, args.Since)
		if err != nil {
			return nil, GardenMemoriesOutput{}, fmt.Errorf("invalid 'since' time %q: %w", args.Since, err)
		}
		filter.Since = since
	}

	limit := args.Limit
	if limit == 0 {
		limit = DefaultMemoryLimit
	}
	memories, err := s.svc.Memories(ctx, id, filter, limit)
	if err != nil {
		return nil, GardenMemoriesOutput{}, err
	}
	if memories == nil {
		memories = []models.Memory{}
	}
	return nil, GardenMemoriesOutput{Memories: memories, Count: len(memories)}, nil
}

// handleGardenCensus implements the garden_census tool.
func (s *Server) handleGardenCensus(ctx context.Context, req *sdk.CallToolRequest, args GardenCensusInput) (_ *sdk.CallToolResult, _ GardenCensusOutput, retErr error) {
	id := s.gardenOrDefault(args.Garden)
	done, err := s.begin("garden_census", id, map[string]interface{}{"garden": id})
	if err != nil {
		return nil, GardenCensusOutput{}, err
	}
	defer func() { done(retErr) }()

	g, err := s.svc.Load(ctx, id)
	if err != nil {
		return nil, GardenCensusOutput{}, err
	}
	return nil, GardenCensusOutput{Census: census.Summarize(g)}, nil
}

// handleGardenResource renders verdant://gardens/{id} as markdown.
func (s *Server) handleGardenResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, gardenURIPrefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	id := strings.TrimPrefix(uri, gardenURIPrefix)
	if id == "" {
		return nil, fmt.Errorf("garden ID is required")
	}

	st, err := s.svc.Status(ctx, id)
	if err != nil {
		if errors.Is(err, garden.ErrNotFound) {
			return nil, sdk.ResourceNotFoundError(uri)
		}
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Garden %s\n\n", id)
	fmt.Fprintf(&sb, "- Season: %s (next season %s)\n", st.SeasonName, st.NextSeasonAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Skill level: %d (%.0f/%.0f XP)\n", st.SkillLevel, st.Experience, st.XPForNextLevel)
	fmt.Fprintf(&sb, "- Water: %.1f, fertilizer: %d\n\n", st.Water, st.Fertilizer)

	sb.WriteString("## Plants\n\n")
	if st.PlantCount == 0 {
		sb.WriteString("No plants yet.\n")
	}
	for _, p := range st.Garden.Plants {
		fmt.Fprintf(&sb, "- `%s` at %s: %s, health %.0f, water %.0f, %s\n",
			shortID(p.ID), p.Position, p.Stage, p.Health, p.WaterLevel, phenotypeLine(p.Genetics))
	}

	sb.WriteString("\n## Seeds\n\n")
	if st.SeedCount == 0 {
		sb.WriteString("No seeds in inventory.\n")
	}
	for _, seed := range st.Garden.Resources.Seeds {
		fmt.Fprintf(&sb, "- `%s` (%s): %s\n", shortID(seed.ID), seed.Rarity, phenotypeLine(seed.Genetics))
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

func statusOutput(st *garden.Status) GardenStatusOutput {
	g := st.Garden
	out := GardenStatusOutput{
		Garden:         g.ID,
		Season:         st.SeasonName,
		NextSeasonAt:   st.NextSeasonAt,
		SkillLevel:     st.SkillLevel,
		Experience:     st.Experience,
		XPForNextLevel: st.XPForNextLevel,
		Water:          st.Water,
		Fertilizer:     st.Fertilizer,
		Plants:         make([]PlantView, 0, len(g.Plants)),
		Seeds:          make([]SeedView, 0, len(g.Resources.Seeds)),
	}
	for _, p := range g.Plants {
		out.Plants = append(out.Plants, plantView(p))
	}
	for _, seed := range g.Resources.Seeds {
		out.Seeds = append(out.Seeds, seedView(seed))
	}
	for _, a := range g.Achievements {
		if a.Unlocked {
			out.Achievements = append(out.Achievements, a.Name)
		}
	}
	return out
}

func plantOutput(res *garden.PlantResult, msg string) PlantActionOutput {
	return PlantActionOutput{
		Plant:     plantView(res.Plant),
		XP:        res.XP,
		WaterUsed: res.WaterUsed,
		Skipped:   string(res.Skipped),
		Message:   msg,
	}
}

func seedOutput(res *garden.SeedResult, msg string) SeedActionOutput {
	out := SeedActionOutput{
		Seed:    seedView(res.Seed),
		XP:      res.XP,
		Message: msg,
	}
	for _, m := range res.Mutations {
		out.Mutations = append(out.Mutations, string(m.Trait)+":"+string(m.Allele))
	}
	return out
}

func plantView(p models.Plant) PlantView {
	return PlantView{
		ID:        p.ID,
		X:         p.Position.X,
		Y:         p.Position.Y,
		Stage:     p.Stage.String(),
		Progress:  p.GrowthProgress,
		Health:    p.Health,
		Water:     p.WaterLevel,
		Rarity:    string(p.Rarity),
		Phenotype: phenotype(p.Genetics),
	}
}

func seedView(seed models.Seed) SeedView {
	v := SeedView{
		ID:        seed.ID,
		Rarity:    string(seed.Rarity),
		Phenotype: phenotype(seed.Genetics),
	}
	if seed.ParentIDs != nil {
		v.Parents = []string{seed.ParentIDs[0], seed.ParentIDs[1]}
	}
	return v
}

func phenotype(g models.PlantGenetics) map[string]string {
	out := make(map[string]string)
	for t, a := range g.Phenotype() {
		out[string(t)] = string(a)
	}
	return out
}

// phenotypeLine renders the expressed traits in a stable order.
func phenotypeLine(g models.PlantGenetics) string {
	p := phenotype(g)
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
