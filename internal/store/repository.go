package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Repository interface {
	GetSession(ctx context.Context, scriptPath string) (*Session, error)
	SaveSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, scriptPath string) error
	ListSessions(ctx context.Context) ([]*Session, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetSession returns nil without an error when the script has no saved
// session.
func (r *SQLiteRepository) GetSession(ctx context.Context, scriptPath string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, script_path, document, current_output, created_at, updated_at
		FROM sessions WHERE script_path = ?
	`, scriptPath)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// SaveSession inserts the session or replaces the saved state of its script.
// ID and CreatedAt are filled in from the stored row.
func (r *SQLiteRepository) SaveSession(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, script_path, document, current_output, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(script_path) DO UPDATE SET
			document = excluded.document,
			current_output = excluded.current_output,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`, s.ID, s.ScriptPath, string(s.Document), s.CurrentOutput,
		s.CreatedAt.Format(time.RFC3339), s.UpdatedAt.Format(time.RFC3339),
	).Scan(&s.ID, &createdAt)
	if err != nil {
		return err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, scriptPath string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE script_path = ?", scriptPath)
	return err
}

// ListSessions returns every saved session, most recently saved first.
func (r *SQLiteRepository) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, script_path, document, current_output, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, script_path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var s Session
	var document, createdAt, updatedAt string

	if err := row.Scan(&s.ID, &s.ScriptPath, &document, &s.CurrentOutput, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Document = []byte(document)
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &s, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
