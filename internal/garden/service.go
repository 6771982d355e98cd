// Package garden orchestrates the simulation for one garden at a time: it
// loads state, replays elapsed time, applies a player action, and saves the
// result. Every exported action follows that cycle under a per-garden lock.
package garden

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/genetics"
	"github.com/nvandessel/verdant/internal/logging"
	"github.com/nvandessel/verdant/internal/models"
	"github.com/nvandessel/verdant/internal/random"
	"github.com/nvandessel/verdant/internal/store"
)

// Config holds the simulation knobs a Service applies.
type Config struct {
	GridWidth      int
	GridHeight     int
	SeasonDuration time.Duration
	// SeasonPolicy is constants.SeasonPolicyMulti or constants.SeasonPolicySingle.
	SeasonPolicy string
	MaxMemories  int
}

// DefaultConfig returns the standard simulation settings.
func DefaultConfig() Config {
	return Config{
		GridWidth:      constants.DefaultGridWidth,
		GridHeight:     constants.DefaultGridHeight,
		SeasonDuration: constants.SeasonDuration,
		SeasonPolicy:   constants.SeasonPolicyMulti,
		MaxMemories:    constants.MaxMemories,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GridWidth <= 0 {
		c.GridWidth = d.GridWidth
	}
	if c.GridHeight <= 0 {
		c.GridHeight = d.GridHeight
	}
	if c.SeasonDuration <= 0 {
		c.SeasonDuration = d.SeasonDuration
	}
	if c.SeasonPolicy != constants.SeasonPolicySingle {
		c.SeasonPolicy = constants.SeasonPolicyMulti
	}
	if c.MaxMemories <= 0 {
		c.MaxMemories = d.MaxMemories
	}
	return c
}

// Recorder receives action outcomes. *metrics.Recorder implements it.
type Recorder interface {
	ObserveAction(action string, errKind string)
	ObserveMutations(n int)
	ObserveLevelUps(n int)
	ObserveBlooms(n int)
	SetPlantCount(gardenID string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAction(string, string) {}
func (nopRecorder) ObserveMutations(int)         {}
func (nopRecorder) ObserveLevelUps(int)          {}
func (nopRecorder) ObserveBlooms(int)            {}
func (nopRecorder) SetPlantCount(string, int)    {}

// Service is the action boundary over a GardenStore.
type Service struct {
	store     store.GardenStore
	clock     Clock
	src       random.Source
	engine    *genetics.Engine
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	recorder  Recorder
	cfg       Config
	newID     func() string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithRandom sets the random source used for crossing, XP rolls and starter seeds.
func WithRandom(src random.Source) Option { return func(s *Service) { s.src = src } }

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithDecisionLogger enables JSONL decision tracing.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(s *Service) { s.decisions = dl }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithConfig overrides the simulation settings.
func WithConfig(cfg Config) Option { return func(s *Service) { s.cfg = cfg } }

// WithIDFunc overrides id generation for plants, seeds and memories.
func WithIDFunc(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// NewService creates a Service persisting to st.
func NewService(st store.GardenStore, opts ...Option) *Service {
	s := &Service{
		store:    st,
		clock:    SystemClock{},
		logger:   logging.Discard(),
		recorder: nopRecorder{},
		cfg:      DefaultConfig(),
		newID:    uuid.NewString,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = random.NewFromTime()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	s.src = random.Locked(s.src)
	s.cfg = s.cfg.withDefaults()
	s.engine = genetics.NewEngine(s.src, genetics.WithIDFunc(s.newID))
	return s
}

// Config returns the effective simulation settings.
func (s *Service) Config() Config { return s.cfg }

// Store returns the underlying store.
func (s *Service) Store() store.GardenStore { return s.store }

func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// txn carries one load → mutate → save cycle.
type txn struct {
	svc   *Service
	op    string
	state *models.GardenState
	now   time.Time

	blooms    int
	levelUps  int
	mutations int
	crossed   bool
}

// update runs fn against a freshly loaded and caught-up copy of the garden
// and returns the state only once it has been saved.
func (s *Service) update(ctx context.Context, op, gardenID string, fn func(tx *txn) error) (*models.GardenState, error) {
	unlock := s.lock(gardenID)
	defer unlock()

	state, err := s.load(ctx, op, gardenID)
	if err != nil {
		s.recorder.ObserveAction(op, KindOf(err).String())
		return nil, err
	}

	tx := &txn{svc: s, op: op, state: state, now: s.clock.Now()}
	s.catchUp(tx)

	if fn != nil {
		if err := fn(tx); err != nil {
			s.recorder.ObserveAction(op, KindOf(err).String())
			s.logger.Debug("action rejected", "op", op, "garden", gardenID, "error", err)
			return nil, err
		}
	}

	if err := s.commit(ctx, tx); err != nil {
		return nil, err
	}
	return tx.state, nil
}

func (s *Service) load(ctx context.Context, op, gardenID string) (*models.GardenState, error) {
	if err := store.ValidateID(gardenID); err != nil {
		return nil, &Error{Kind: KindNotFound, Op: op, Msg: "invalid garden id", Err: err}
	}
	state, err := s.store.Load(ctx, gardenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e := notFound(op, "garden %q not found", gardenID)
			if ids, listErr := s.store.List(ctx); listErr == nil {
				e.Suggestion = suggest(gardenID, ids)
			}
			return nil, e
		}
		return nil, persistenceFailure(op, err)
	}
	return state, nil
}

// commit finalizes achievements and the memory cap, then saves.
func (s *Service) commit(ctx context.Context, tx *txn) error {
	tx.evaluateAchievements()
	tx.trimMemories()
	tx.state.LastUpdate = laterOf(tx.state.LastUpdate, tx.now)

	if err := s.store.Save(ctx, tx.state); err != nil {
		s.recorder.ObserveAction(tx.op, KindPersistenceFailure.String())
		s.logger.Error("failed to save garden", "op", tx.op, "garden", tx.state.ID, "error", err)
		return persistenceFailure(tx.op, err)
	}

	s.recorder.ObserveAction(tx.op, "")
	s.recorder.ObserveBlooms(tx.blooms)
	s.recorder.ObserveLevelUps(tx.levelUps)
	s.recorder.ObserveMutations(tx.mutations)
	s.recorder.SetPlantCount(tx.state.ID, len(tx.state.Plants))
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
