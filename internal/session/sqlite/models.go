package sqlite

import (
	"database/sql"
	"time"

	"github.com/zjrosen/signup/internal/session"
)

// sessionModel is a row of the sessions table. Times are Unix milliseconds.
type sessionModel struct {
	ID         int64
	GUID       string
	BaseURL    string
	Email      string
	CookieName string
	Token      string
	NextRoute  string
	ExpiresAt  sql.NullInt64
	CreatedAt  int64
}

func toModel(s session.Session) sessionModel {
	m := sessionModel{
		GUID:       s.GUID,
		BaseURL:    s.BaseURL,
		Email:      s.Email,
		CookieName: s.CookieName,
		Token:      s.Token,
		NextRoute:  s.NextRoute,
		CreatedAt:  s.CreatedAt.UnixMilli(),
	}
	if !s.ExpiresAt.IsZero() {
		m.ExpiresAt = sql.NullInt64{Int64: s.ExpiresAt.UnixMilli(), Valid: true}
	}
	return m
}

func (m sessionModel) toSession() session.Session {
	s := session.Session{
		GUID:       m.GUID,
		BaseURL:    m.BaseURL,
		Email:      m.Email,
		CookieName: m.CookieName,
		Token:      m.Token,
		NextRoute:  m.NextRoute,
		CreatedAt:  time.UnixMilli(m.CreatedAt).UTC(),
	}
	if m.ExpiresAt.Valid {
		s.ExpiresAt = time.UnixMilli(m.ExpiresAt.Int64).UTC()
	}
	return s
}
