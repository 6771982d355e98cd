package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/verdant/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists gardens in .verdant/verdant.db, one row per garden.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// GardenSummary is a listing row served from the denormalized columns.
type GardenSummary struct {
	ID         string `json:"id"`
	Season     string `json:"season"`
	SkillLevel int    `json:"skill_level"`
	PlantCount int    `json:"plant_count"`
	UpdatedAt  string `json:"updated_at"`
}

// NewSQLiteStore opens (or creates) the database under root/.verdant.
func NewSQLiteStore(root string) (*SQLiteStore, error) {
	dir := LocalVerdantPath(root)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create .verdant directory: %w", err)
	}
	return OpenSQLiteStore(context.Background(), filepath.Join(dir, "verdant.db"))
}

// OpenSQLiteStore opens the database file at dbPath and initializes its schema.
func OpenSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

func (s *SQLiteStore) Load(ctx context.Context, id string) (*models.GardenState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM gardens WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load garden %s: %w", id, err)
	}
	return Decode([]byte(payload))
}

func (s *SQLiteStore) Save(ctx context.Context, state *models.GardenState) error {
	if state == nil {
		return ErrNilState
	}
	if err := ValidateID(state.ID); err != nil {
		return err
	}
	data, err := Encode(state)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO gardens (id, record_version, payload, season, skill_level, plant_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record_version = excluded.record_version,
			payload = excluded.payload,
			season = excluded.season,
			skill_level = excluded.skill_level,
			plant_count = excluded.plant_count,
			updated_at = excluded.updated_at`,
		state.ID, RecordVersion, string(data),
		state.Season.String(), state.Skill.Level, len(state.Plants),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save garden %s: %w", state.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM gardens WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete garden %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM gardens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gardens: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan garden id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Summaries lists gardens using the denormalized columns.
func (s *SQLiteStore) Summaries(ctx context.Context) ([]GardenSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, season, skill_level, plant_count, updated_at FROM gardens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query garden summaries: %w", err)
	}
	defer rows.Close()

	var out []GardenSummary
	for rows.Next() {
		var g GardenSummary
		if err := rows.Scan(&g.ID, &g.Season, &g.SkillLevel, &g.PlantCount, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan garden summary: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
