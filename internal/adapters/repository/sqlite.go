package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codrutul/roster/internal/domain/model"
)

const backendSQLite = "sqlite"

// Schema is applied when a SQLiteStore opens. seq keeps insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS characters (
    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
    id               TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL,
    class            TEXT NOT NULL,
    level            INTEGER NOT NULL,
    hp               INTEGER NOT NULL,
    damage           INTEGER NOT NULL,
    armor            INTEGER NOT NULL,
    magic_resistance INTEGER NOT NULL,
    critical_chance  INTEGER NOT NULL,
    image_url        TEXT NOT NULL,
    description      TEXT NOT NULL,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS game_sessions (
    id             TEXT PRIMARY KEY,
    character_id   TEXT NOT NULL,
    character_name TEXT NOT NULL,
    x              INTEGER NOT NULL,
    y              INTEGER NOT NULL,
    created_at     INTEGER NOT NULL
);
`

const characterColumns = `id, name, class, level, hp, damage, armor, magic_resistance,
	critical_chance, image_url, description, created_at, updated_at`

// SQLiteStore keeps the roster in a SQLite database opened with the "sqlite" driver.
type SQLiteStore struct {
	settings
	db *sql.DB
}

var _ Backend = (*SQLiteStore)(nil)

// NewSQLiteStore applies the schema to db and returns a store over it.
// The pool is limited to one connection so ":memory:" databases are shared.
func NewSQLiteStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{settings: newSettings(opts), db: db}, nil
}

// Name returns the backend name.
func (s *SQLiteStore) Name() string { return backendSQLite }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (model.Character, error) {
	var (
		c                    model.Character
		class                string
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.Name, &class, &c.Level, &c.HP, &c.Damage, &c.Armor,
		&c.MagicResistance, &c.CriticalChance, &c.ImageURL, &c.Description, &createdAt, &updatedAt)
	if err != nil {
		return model.Character{}, err
	}
	c.Class = model.Class(class)
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return c, nil
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, in model.CharacterInput) (c model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendSQLite, "create", start, err) }()

	now := s.now().Truncate(time.Millisecond)
	c = model.Character{ID: s.newID(), CharacterInput: in, CreatedAt: now, UpdatedAt: now}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO characters (`+characterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Class), c.Level, c.HP, c.Damage, c.Armor, c.MagicResistance,
		c.CriticalChance, c.ImageURL, c.Description, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return model.Character{}, fmt.Errorf("create character: %w: %w", ErrBackend, err)
	}
	return c, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) (out []model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendSQLite, "list", start, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w: %w", ErrBackend, err)
	}
	defer rows.Close()

	out = []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Character, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Character{}, fmt.Errorf("get character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Character{}, fmt.Errorf("get character %s: %w: %w", id, ErrBackend, err)
	}
	return c, nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, id string, in model.CharacterInput) (c model.Character, err error) {
	start := time.Now()
	defer func() { observe(backendSQLite, "update", start, err) }()

	now := s.now().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx,
		`UPDATE characters SET name = ?, class = ?, level = ?, hp = ?, damage = ?, armor = ?,
		magic_resistance = ?, critical_chance = ?, image_url = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, string(in.Class), in.Level, in.HP, in.Damage, in.Armor, in.MagicResistance,
		in.CriticalChance, in.ImageURL, in.Description, now.UnixMilli(), id,
	)
	if err != nil {
		return model.Character{}, fmt.Errorf("update character %s: %w: %w", id, ErrBackend, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Character{}, fmt.Errorf("update character %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(backendSQLite, "delete", start, err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete character %s: %w: %w", id, ErrBackend, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete character %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM characters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count characters: %w: %w", ErrBackend, err)
	}
	return n, nil
}

// CreateSession implements SessionStore.
func (s *SQLiteStore) CreateSession(ctx context.Context, gs model.GameSession) (model.GameSession, error) {
	gs.ID = s.newID()
	gs.CreatedAt = s.now().Truncate(time.Millisecond)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, character_id, character_name, x, y, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		gs.ID, gs.CharacterID, gs.CharacterName, gs.Position.X, gs.Position.Y, gs.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return model.GameSession{}, fmt.Errorf("create session: %w: %w", ErrBackend, err)
	}
	return gs, nil
}

// GetSession implements SessionStore.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.GameSession, error) {
	var (
		gs        model.GameSession
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, character_id, character_name, x, y, created_at FROM game_sessions WHERE id = ?`, id,
	).Scan(&gs.ID, &gs.CharacterID, &gs.CharacterName, &gs.Position.X, &gs.Position.Y, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GameSession{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.GameSession{}, fmt.Errorf("get session %s: %w: %w", id, ErrBackend, err)
	}
	gs.CreatedAt = time.UnixMilli(createdAt).UTC()
	return gs, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
