// Package localstore opens the client's sqlite file, migrates it with goose
// and exposes typed accessors over the prefs table.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/afterlog/internal/client/migrations"
	"github.com/dmitrijs2005/afterlog/internal/client/repositories/prefs"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	keyTheme        = "theme"
	keyRefreshToken = "session.refresh_token"
	keyUserID       = "session.user_id"
	keyEmail        = "session.email"
)

// SavedSession is what survives a restart: enough to ask the service for a
// fresh access token.
type SavedSession struct {
	RefreshToken string
	UserID       string
	Email        string
}

type Store struct {
	db    *sql.DB
	prefs prefs.Repository
}

// migrationLogger sends goose output to the client log instead of stderr,
// where it would land in the middle of the REPL.
type migrationLogger struct {
	l logging.Logger
}

func (m migrationLogger) Printf(format string, v ...any) {
	m.l.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (m migrationLogger) Fatalf(format string, v ...any) {
	m.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func RunMigrations(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(migrationLogger{l: logger})

	// Set the database dialect
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) and migrates the store at dsn. A nil
// logger discards migration output.
func Open(ctx context.Context, dsn string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive and shared
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("local store migrations: %w", err)
	}

	return &Store{db: db, prefs: prefs.NewSQLiteRepository(db)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Theme returns the saved theme name or "" when none was chosen.
func (s *Store) Theme(ctx context.Context) (string, error) {
	return s.prefs.Get(ctx, keyTheme)
}

func (s *Store) SetTheme(ctx context.Context, name string) error {
	return s.prefs.Set(ctx, keyTheme, name)
}

// LoadSession returns nil when no session was saved.
func (s *Store) LoadSession(ctx context.Context) (*SavedSession, error) {
	all, err := s.prefs.List(ctx)
	if err != nil {
		return nil, err
	}
	if all[keyRefreshToken] == "" {
		return nil, nil
	}
	return &SavedSession{
		RefreshToken: all[keyRefreshToken],
		UserID:       all[keyUserID],
		Email:        all[keyEmail],
	}, nil
}

func (s *Store) SaveSession(ctx context.Context, sess SavedSession) error {
	for k, v := range map[string]string{
		keyRefreshToken: sess.RefreshToken,
		keyUserID:       sess.UserID,
		keyEmail:        sess.Email,
	} {
		if err := s.prefs.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	for _, k := range []string{keyRefreshToken, keyUserID, keyEmail} {
		if err := s.prefs.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
