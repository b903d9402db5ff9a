// Package users declares and implements the account repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/afterlog/internal/server/models"
)

// Repository persists accounts.
type Repository interface {
	// Create stores user and fills in its ID and CreatedAt. A duplicate
	// email yields common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
