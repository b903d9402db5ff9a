// Package prefs stores the client's small key/value settings: the chosen
// theme and the cached session used to resume at start-up.
package prefs

import (
	"context"
)

type Repository interface {
	// Get returns "" when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
