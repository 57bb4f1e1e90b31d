// Package resolver computes the authoritative set of documents a user
// may read. It only reads the stores, never mutates them.
package resolver

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

type Resolver struct {
	users     *store.UserStore
	resources *store.ResourceStore
	log       *logger.Logger
}

func New(users *store.UserStore, resources *store.ResourceStore) *Resolver {
	return &Resolver{
		users:     users,
		resources: resources,
		log:       logger.New("resolver"),
	}
}

// Resolve returns the resources the user is authorized to read, in
// store order. Admins get every readable resource; everyone else gets
// only explicit can_access=true grants. Readable always means stored
// text that is non-null, non-empty and not "[ERROR"-prefixed — the
// filter applies to admins too.
//
// An unknown user resolves with the "user" rule (fail closed, never
// fail open to admin). An empty result is a valid state, not an error;
// the returned error is only ever a store failure.
func (r *Resolver) Resolve(ctx context.Context, userID string) ([]models.Resource, error) {
	role := models.UserRoleUser

	user, err := r.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		role = user.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
		r.log.Warn("Resolving access for unknown user %s, defaulting to user role", userID)
	default:
		return nil, err
	}

	if role == models.UserRoleAdmin {
		return r.resources.ListReadable(ctx)
	}
	return r.resources.ListGrantedTo(ctx, userID)
}
