package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
	"github.com/nvandessel/verdant/internal/ratelimit"
	"github.com/nvandessel/verdant/internal/store"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	server *Server
	st     *store.MemoryStore
	root   string
	now    time.Time
	mu     sync.Mutex
}

func (e *testEnv) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{st: store.NewMemoryStore(), root: t.TempDir(), now: t0}

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id%06d", n)
	}
	svc := garden.NewService(env.st,
		garden.WithClock(env),
		garden.WithRandom(random.New(42)),
		garden.WithIDFunc(ids),
	)

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    env.root,
		Service: svc,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	env.server = server
	return env
}

// createGarden makes the default garden through the tool surface.
func (e *testEnv) createGarden(t *testing.T) GardenStatusOutput {
	t.Helper()
	_, out, err := e.server.handleGardenStatus(context.Background(), nil, GardenStatusInput{Create: true})
	if err != nil {
		t.Fatalf("garden_status(create) failed: %v", err)
	}
	return out
}

// addMaturePlants stores two mature plants directly in the default garden.
func (e *testEnv) addMaturePlants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	g, err := e.st.Load(ctx, "default")
	if err != nil {
		t.Fatal(err)
	}
	gen := models.PlantGenetics{
		Color:     models.GeneticTrait{Dominant: "red", Recessive: "white", Expressed: "red"},
		BloomSize: models.GeneticTrait{Dominant: "medium", Recessive: "medium", Expressed: "medium"},
		Height:    models.GeneticTrait{Dominant: "tall", Recessive: "tall", Expressed: "tall"},
		Pattern:   models.GeneticTrait{Dominant: "solid", Recessive: "solid", Expressed: "solid"},
		Fragrance: models.GeneticTrait{Dominant: "mild", Recessive: "mild", Expressed: "mild"},
	}
	for i, id := range []string{"mature-one", "mature-two"} {
		g.Plants = append(g.Plants, models.Plant{
			ID:             id,
			Position:       models.Position{X: 5 + i, Y: 5},
			Genetics:       gen,
			Stage:          models.StageMature,
			GrowthProgress: 4.5,
			Health:         100,
			WaterLevel:     80,
			Rarity:         models.RarityCommon,
			PlantedAt:      t0,
			LastWatered:    t0,
			LastUpdate:     t0,
		})
	}
	if err := e.st.Save(ctx, g); err != nil {
		t.Fatal(err)
	}
}

func TestNewServer_RequiresService(t *testing.T) {
	if _, err := NewServer(&Config{Name: "x", Root: t.TempDir()}); err == nil {
		t.Error("expected error without a garden service")
	}
}

func TestHandleGardenStatus(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, _, err := env.server.handleGardenStatus(ctx, nil, GardenStatusInput{})
	if !errors.Is(err, garden.ErrNotFound) {
		t.Fatalf("status of missing garden: err = %v, want NotFound", err)
	}

	out := env.createGarden(t)
	if !out.Created || out.Garden != "default" {
		t.Errorf("unexpected create output %+v", out)
	}
	if out.Season != "spring" || out.SkillLevel != 1 || out.Fertilizer != 10 {
		t.Errorf("unexpected fresh garden %+v", out)
	}
	if len(out.Seeds) != 1 || len(out.Plants) != 0 {
		t.Errorf("want 1 seed and no plants, got %d seeds, %d plants", len(out.Seeds), len(out.Plants))
	}
	if len(out.Seeds[0].Phenotype) != 5 {
		t.Errorf("seed phenotype has %d traits, want 5", len(out.Seeds[0].Phenotype))
	}

	// A second create is not an error and does not claim creation.
	_, again, err := env.server.handleGardenStatus(ctx, nil, GardenStatusInput{Create: true})
	if err != nil || again.Created {
		t.Errorf("repeat create: created=%v err=%v", again.Created, err)
	}
}

func TestHandleGardenPlantWaterFertilize(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	status := env.createGarden(t)
	seedID := status.Seeds[0].ID

	_, planted, err := env.server.handleGardenPlant(ctx, nil, GardenPlantInput{Seed: seedID[:6], X: 2, Y: 3})
	if err != nil {
		t.Fatalf("garden_plant failed: %v", err)
	}
	if planted.Plant.X != 2 || planted.Plant.Y != 3 || planted.Plant.Stage != "seed" {
		t.Errorf("unexpected plant %+v", planted.Plant)
	}
	if planted.XP.XPGained <= 0 {
		t.Error("planting should grant XP")
	}
	plantID := planted.Plant.ID

	_, watered, err := env.server.handleGardenWater(ctx, nil, GardenWaterInput{Plant: plantID, Amount: 10})
	if err != nil {
		t.Fatalf("garden_water failed: %v", err)
	}
	if watered.WaterUsed != 10 || watered.Plant.Water != 70 {
		t.Errorf("water used %.1f, level %.1f; want 10 and 70", watered.WaterUsed, watered.Plant.Water)
	}

	_, fed, err := env.server.handleGardenFertilize(ctx, nil, GardenPlantTarget{Plant: plantID})
	if err != nil {
		t.Fatalf("garden_fertilize failed: %v", err)
	}
	if fed.Plant.Health != 100 || fed.Skipped != "health_full" || fed.XP.XPGained != 0 {
		t.Errorf("fertilizing a healthy seedling: health %.1f skipped %q xp %d", fed.Plant.Health, fed.Skipped, fed.XP.XPGained)
	}
	if !strings.Contains(fed.Message, "full health") {
		t.Errorf("message = %q, want full health notice", fed.Message)
	}

	_, st, _ := env.server.handleGardenStatus(ctx, nil, GardenStatusInput{})
	if st.Fertilizer != 10 || st.Water != 90 {
		t.Errorf("resources after actions: fertilizer %d water %.1f", st.Fertilizer, st.Water)
	}
}

func TestHandleGardenPlant_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	status := env.createGarden(t)

	tests := []struct {
		name string
		args GardenPlantInput
		kind garden.Kind
	}{
		{"missing seed param", GardenPlantInput{}, garden.KindUnknown},
		{"unknown seed", GardenPlantInput{Seed: "nope-nope"}, garden.KindNotFound},
		{"outside grid", GardenPlantInput{Seed: status.Seeds[0].ID, X: 99}, garden.KindPreconditionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.server.handleGardenPlant(ctx, nil, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := garden.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.kind, err)
			}
		})
	}
}

func TestHandleGardenWater_Validation(t *testing.T) {
	env := setupTestServer(t)
	env.createGarden(t)

	if _, _, err := env.server.handleGardenWater(context.Background(), nil, GardenWaterInput{}); err == nil {
		t.Error("expected error without plant")
	}
	if _, _, err := env.server.handleGardenWater(context.Background(), nil, GardenWaterInput{Plant: "x", Amount: -1}); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestHandleGardenCrossAndHarvest(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.createGarden(t)
	env.addMaturePlants(t)

	_, crossed, err := env.server.handleGardenCross(ctx, nil, GardenCrossInput{Parent1: "mature-one", Parent2: "mature-two"})
	if err != nil {
		t.Fatalf("garden_cross failed: %v", err)
	}
	if len(crossed.Seed.Parents) != 2 || crossed.Seed.Parents[0] != "mature-one" {
		t.Errorf("unexpected parents %v", crossed.Seed.Parents)
	}
	if !strings.HasPrefix(crossed.Message, "New ") {
		t.Errorf("message = %q", crossed.Message)
	}

	_, _, err = env.server.handleGardenCross(ctx, nil, GardenCrossInput{Parent1: "mature-one", Parent2: "mature-one"})
	if !errors.Is(err, garden.ErrPreconditionFailed) {
		t.Errorf("self-cross err = %v, want PreconditionFailed", err)
	}

	_, harvested, err := env.server.handleGardenHarvest(ctx, nil, GardenPlantTarget{Plant: "mature-two"})
	if err != nil {
		t.Fatalf("garden_harvest failed: %v", err)
	}
	if harvested.Seed.Phenotype["color"] != "red" {
		t.Errorf("harvested phenotype = %v", harvested.Seed.Phenotype)
	}

	_, st, _ := env.server.handleGardenStatus(ctx, nil, GardenStatusInput{})
	if len(st.Plants) != 1 || len(st.Seeds) != 3 {
		t.Errorf("after cross+harvest: %d plants, %d seeds; want 1 and 3", len(st.Plants), len(st.Seeds))
	}
}

func TestHandleGardenMemories(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.createGarden(t)
	env.addMaturePlants(t)
	if _, _, err := env.server.handleGardenCross(ctx, nil, GardenCrossInput{Parent1: "mature-one", Parent2: "mature-two"}); err != nil {
		t.Fatal(err)
	}

	_, all, err := env.server.handleGardenMemories(ctx, nil, GardenMemoriesInput{Limit: -1})
	if err != nil {
		t.Fatalf("garden_memories failed: %v", err)
	}
	if all.Count < 2 || all.Memories[len(all.Memories)-1].Kind != models.MemoryGardenCreated {
		t.Errorf("want newest-first history ending in garden_created, got %+v", all.Memories)
	}

	_, crosses, err := env.server.handleGardenMemories(ctx, nil, GardenMemoriesInput{Kinds: []string{"cross_bred"}})
	if err != nil {
		t.Fatal(err)
	}
	if crosses.Count != 1 {
		t.Errorf("cross_bred memories = %d, want 1", crosses.Count)
	}

	_, none, err := env.server.handleGardenMemories(ctx, nil, GardenMemoriesInput{Since: t0.Add(time.Hour).Format(time.RFC3339)})
	if err != nil {
		t.Fatal(err)
	}
	if none.Count != 0 || none.Memories == nil {
		t.Errorf("future since: count %d, memories %v; want an empty list", none.Count, none.Memories)
	}

	if _, _, err := env.server.handleGardenMemories(ctx, nil, GardenMemoriesInput{Since: "last tuesday"}); err == nil {
		t.Error("expected error for unparseable since")
	}
}

func TestHandleGardenCensus(t *testing.T) {
	env := setupTestServer(t)
	env.createGarden(t)
	env.addMaturePlants(t)

	_, out, err := env.server.handleGardenCensus(context.Background(), nil, GardenCensusInput{})
	if err != nil {
		t.Fatalf("garden_census failed: %v", err)
	}
	if out.Census.Plants != 2 || out.Census.Seeds != 1 {
		t.Errorf("census plants=%d seeds=%d, want 2 and 1", out.Census.Plants, out.Census.Seeds)
	}
	if out.Census.Stages["mature"] != 2 {
		t.Errorf("mature count = %d, want 2", out.Census.Stages["mature"])
	}
}

func TestHandleGardenResource(t *testing.T) {
	env := setupTestServer(t)
	env.createGarden(t)
	ctx := context.Background()

	res, err := env.server.handleGardenResource(ctx, &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: gardenURIPrefix + "default"},
	})
	if err != nil {
		t.Fatalf("resource read failed: %v", err)
	}
	text := res.Contents[0].Text
	for _, want := range []string{"# Garden default", "Season: spring", "No plants yet."} {
		if !strings.Contains(text, want) {
			t.Errorf("resource text missing %q:\n%s", want, text)
		}
	}

	if _, err := env.server.handleGardenResource(ctx, &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: gardenURIPrefix + "absent"},
	}); err == nil {
		t.Error("expected error for missing garden")
	}
}

func TestRateLimit(t *testing.T) {
	env := setupTestServer(t)
	env.createGarden(t)
	env.server.toolLimiters = ratelimit.ToolLimiters{"garden_census": ratelimit.NewLimiter(0, 1)}

	ctx := context.Background()
	if _, _, err := env.server.handleGardenCensus(ctx, nil, GardenCensusInput{}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, _, err := env.server.handleGardenCensus(ctx, nil, GardenCensusInput{})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("second call err = %v, want rate limit", err)
	}
}

func TestAuditLogWrittenPerCall(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.createGarden(t)
	env.server.handleGardenWater(ctx, nil, GardenWaterInput{Plant: "ghost-plant"})

	if err := env.server.auditLogger.Close(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(filepath.Join(env.root, ".verdant", AuditFileName))
	if err != nil {
		t.Fatalf("audit log missing: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad audit line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	if entries[0].Tool != "garden_status" || entries[0].Status != "success" || entries[0].Params["create"] != "true" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	water := entries[1]
	if water.Status != "error" || water.ErrorKind != "not_found" || water.Params["plant"] != "(set)" {
		t.Errorf("unexpected water entry %+v", water)
	}
}

func TestInMemorySession(t *testing.T) {
	env := setupTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverT, clientT := sdk.NewInMemoryTransports()
	if _, err := env.server.Connect(ctx, serverT); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"garden_status", "garden_plant", "garden_water", "garden_fertilize",
		"garden_cross", "garden_harvest", "garden_memories", "garden_census"} {
		if !names[want] {
			t.Errorf("tool %s not listed", want)
		}
	}

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{
		Name:      "garden_status",
		Arguments: map[string]any{"garden": "remote", "create": true},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("garden_status returned a tool error: %+v", res.Content)
	}
	if _, err := env.st.Load(ctx, "remote"); err != nil {
		t.Errorf("garden not created through the session: %v", err)
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{
		Name:      "garden_harvest",
		Arguments: map[string]any{"garden": "remote", "plant": "nothing"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Error("harvest of unknown plant should be a tool error")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
