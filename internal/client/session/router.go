// Package session decides which top-level view is shown for a session and
// triggers the work that goes with entering it.
package session

import (
	"context"

	"github.com/dmitrijs2005/afterlog/internal/client/remote"
)

type Route int

const (
	// RouteNone is the state before the first Route call.
	RouteNone Route = iota
	RouteAuth
	RouteApp
)

func (r Route) String() string {
	switch r {
	case RouteAuth:
		return "auth"
	case RouteApp:
		return "app"
	}
	return "none"
}

// Target carries out a route change.
type Target interface {
	// EnterApp shows the main view and reloads everything for s.
	EnterApp(ctx context.Context, s *remote.Session)
	// EnterAuth shows the sign-in view and drops per-user state.
	EnterAuth(ctx context.Context)
}

// Router remembers the last route so repeated notifications for an
// equivalent session (same user, same route) do nothing.
type Router struct {
	target Target
	route  Route
	userID string
}

func NewRouter(target Target) *Router {
	return &Router{target: target}
}

// Route shows the view for s and reports whether anything changed.
func (r *Router) Route(ctx context.Context, s *remote.Session) bool {
	next, userID := RouteAuth, ""
	if s != nil && s.UserID != "" {
		next, userID = RouteApp, s.UserID
	}
	if next == r.route && userID == r.userID {
		return false
	}

	r.route, r.userID = next, userID
	if next == RouteApp {
		r.target.EnterApp(ctx, s)
	} else {
		r.target.EnterAuth(ctx)
	}
	return true
}

// Current returns the route in effect.
func (r *Router) Current() Route { return r.route }

// UserID returns the signed-in user, or "" on the auth route.
func (r *Router) UserID() string { return r.userID }
