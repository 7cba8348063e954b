package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores registry state in a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (creating if needed) the database at path and
// ensures its schema.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hidden_builtins (
			name TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS searched_spots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			position INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating registry tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Load reads the saved state. An empty database yields an empty state.
func (r *SQLiteRepository) Load(ctx context.Context) (State, error) {
	var st State

	rows, err := r.db.QueryContext(ctx, "SELECT name FROM hidden_builtins ORDER BY name")
	if err != nil {
		return State{}, fmt.Errorf("querying hidden builtins: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return State{}, fmt.Errorf("scanning hidden builtin: %w", err)
		}
		st.Hidden = append(st.Hidden, name)
	}
	if err := rows.Close(); err != nil {
		return State{}, err
	}

	rows, err = r.db.QueryContext(ctx, "SELECT id, name, latitude, longitude FROM searched_spots ORDER BY position")
	if err != nil {
		return State{}, fmt.Errorf("querying searched spots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SavedSpot
		if err := rows.Scan(&s.ID, &s.Name, &s.Coordinate.Latitude, &s.Coordinate.Longitude); err != nil {
			return State{}, fmt.Errorf("scanning searched spot: %w", err)
		}
		st.Searched = append(st.Searched, s)
	}
	return st, rows.Err()
}

// Save replaces the saved state in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, st State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM hidden_builtins"); err != nil {
		return fmt.Errorf("clearing hidden builtins: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM searched_spots"); err != nil {
		return fmt.Errorf("clearing searched spots: %w", err)
	}

	for _, name := range st.Hidden {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO hidden_builtins (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("saving hidden builtin: %w", err)
		}
	}
	for i, s := range st.Searched {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO searched_spots (id, name, latitude, longitude, position) VALUES (?, ?, ?, ?, ?)",
			s.ID, s.Name, s.Coordinate.Latitude, s.Coordinate.Longitude, i,
		)
		if err != nil {
			return fmt.Errorf("saving searched spot: %w", err)
		}
	}

	return tx.Commit()
}
