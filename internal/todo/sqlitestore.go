package todo

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists todos in a single sqlite database file. It is the
// alternative to FileStore for installations that prefer one file over a
// directory tree.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("init todos schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new todo.
func (s *SQLiteStore) Create(t *Todo) error {
	if t.ID == "" {
		t.ID = GenerateTodoID()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO todos (id, title, description, priority, due_date, completed, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Priority), t.DueDate,
		boolToInt(t.Completed), t.Source,
		t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// Get reads a todo by ID.
func (s *SQLiteStore) Get(id string) (*Todo, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, priority, due_date, completed, source, created_at, updated_at
		 FROM todos WHERE id = ?`, id)
	return scanTodo(row)
}

// List returns todos matching the filter, sorted by CreatedAt descending.
func (s *SQLiteStore) List(filter ListFilter) ([]*Todo, error) {
	query := `SELECT id, title, description, priority, due_date, completed, source, created_at, updated_at FROM todos`
	var conds []string
	var args []any

	if filter.Completed != nil {
		conds = append(conds, "completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	defer rows.Close()

	var todos []*Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Err: err}
	}
	return todos, nil
}

// Update rewrites a todo row.
func (s *SQLiteStore) Update(t *Todo) error {
	t.UpdatedAt = time.Now()

	res, err := s.db.Exec(
		`UPDATE todos SET title = ?, description = ?, priority = ?, due_date = ?, completed = ?, source = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, string(t.Priority), t.DueDate,
		boolToInt(t.Completed), t.Source, t.UpdatedAt.Format(time.RFC3339Nano), t.ID,
	)
	if err != nil {
		return &StoreError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a todo row.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return &StoreError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Toggle flips a todo's completed flag and returns the updated todo.
func (s *SQLiteStore) Toggle(id string) (*Todo, error) {
	_, err := s.db.Exec(
		`UPDATE todos SET completed = 1 - completed, updated_at = ? WHERE id = ?`,
		time.Now().Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return s.Get(id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*Todo, error) {
	var t Todo
	var completed int
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Title, &t.Description, (*string)(&t.Priority),
		&t.DueDate, &completed, &t.Source, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	t.Completed = completed != 0
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
