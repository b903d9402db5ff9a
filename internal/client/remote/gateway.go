// Package remote holds the client's view of the hosted service: the record
// gateway, the auth collaborator and archive export. GRPCClient talks to
// the real service; Memory is an in-process stand-in used by demo mode and
// tests.
//
// Every error returned from this package is an *apperr.Error.
package remote

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/models"
)

// Gateway is generic CRUD over the hosted store. It never retries.
type Gateway interface {
	Insert(ctx context.Context, collection string, rec models.Record) (models.Record, error)
	Update(ctx context.Context, collection, id string, patch models.Record) (models.Record, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q models.Query) ([]models.Record, error)
	// Ping reports whether the service is reachable.
	Ping(ctx context.Context) error
}

// Auth owns the current session.
type Auth interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes the session remotely and always drops it locally.
	SignOut(ctx context.Context) error
	// Resume exchanges a refresh token saved by an earlier run for a session.
	Resume(ctx context.Context, refreshToken string) (*Session, error)
	CurrentSession() *Session
	// Subscribe registers fn for session changes. fn runs on the goroutine
	// that changed the session and must not block.
	Subscribe(fn func(*Session)) (unsubscribe func())
}

type Exporter interface {
	Export(ctx context.Context) (*ExportResult, error)
}

// Service is everything the client needs from the hosted side.
type Service interface {
	Gateway
	Auth
	Exporter
}

// Session is an authenticated identity.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresAt    time.Time
}

// ExportResult points at an uploaded archive.
type ExportResult struct {
	URL       string
	Key       string
	Entries   int
	Todos     int
	ExpiresAt time.Time
}

// sessionHolder stores the current session and fans changes out to
// subscribers. Subscribers are called outside the lock.
type sessionHolder struct {
	mu   sync.Mutex
	cur  *Session
	subs map[int]func(*Session)
	next int
}

func (h *sessionHolder) get() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return nil
	}
	s := *h.cur
	return &s
}

func (h *sessionHolder) set(s *Session) {
	h.mu.Lock()
	if s != nil {
		c := *s
		s = &c
	}
	h.cur = s
	subs := make([]func(*Session), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range subs {
		if s == nil {
			fn(nil)
			continue
		}
		c := *s
		fn(&c)
	}
}

func (h *sessionHolder) subscribe(fn func(*Session)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = map[int]func(*Session){}
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}
