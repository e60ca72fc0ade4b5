package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/rewearhq/rewear-backend/internal/auth"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

// Register creates a user account. The balance starts at zero by
// construction: a user with no ledger entries has no points.
func (e *Engine) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Role:     models.RoleUser,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, validation(err.Error())
	}
	if len(password) < 8 {
		return models.User{}, validation("password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, translate(err)
	}
	out, err := e.store.CreateUser(ctx, u.Username, u.Email, hash, u.Role)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return models.User{}, conflict("email already registered")
		}
		return models.User{}, translate(err)
	}
	return out, nil
}

// Authenticate verifies credentials; token issuance is the HTTP layer's
// business.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, unauthorized("invalid credentials")
		}
		return models.User{}, translate(err)
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return models.User{}, unauthorized("invalid credentials")
	}
	return u, nil
}

func (e *Engine) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := e.store.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}
