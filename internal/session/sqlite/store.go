package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/session"
)

const sessionColumns = `id, guid, base_url, email, cookie_name, token, next_route, expires_at, created_at`

// Store implements session.Store.
type Store struct {
	db *DB
}

var _ session.Store = (*Store)(nil)

// Open opens the store at path.
func Open(path string) (*Store, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanSession(scanner interface{ Scan(...any) error }) (sessionModel, error) {
	var m sessionModel
	err := scanner.Scan(&m.ID, &m.GUID, &m.BaseURL, &m.Email, &m.CookieName, &m.Token, &m.NextRoute, &m.ExpiresAt, &m.CreatedAt)
	return m, err
}

// Save inserts sess. A missing GUID is generated.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	if sess.GUID == "" {
		sess.GUID = uuid.NewString()
	}
	m := toModel(sess)

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO sessions (guid, base_url, email, cookie_name, token, next_route, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.GUID, m.BaseURL, m.Email, m.CookieName, m.Token, m.NextRoute, m.ExpiresAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	log.Debug(log.CatDB, "Session saved", "guid", m.GUID, "email", m.Email)
	return nil
}

func (s *Store) Latest(ctx context.Context, baseURL string) (session.Session, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE base_url = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		baseURL,
	)
	m, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to find latest session: %w", err)
	}
	return m.toSession(), nil
}

func (s *Store) List(ctx context.Context, limit int) ([]session.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []session.Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, m.toSession())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	log.Info(log.CatDB, "Sessions cleared", "count", n)
	return n, nil
}
