package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// PermissionStore persists the per-(user, resource) access grid.
// Grant and revoke are both insert-or-replace on the composite key; a
// revoke leaves a can_access=false row behind rather than deleting.
type PermissionStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPermissionStore(db *gorm.DB) *PermissionStore {
	return &PermissionStore{db: db, log: logger.New("permission_store")}
}

func (s *PermissionStore) Grant(ctx context.Context, userID, resourceID, grantedBy string) error {
	return s.set(ctx, userID, resourceID, grantedBy, true)
}

func (s *PermissionStore) Revoke(ctx context.Context, userID, resourceID, revokedBy string) error {
	return s.set(ctx, userID, resourceID, revokedBy, false)
}

func (s *PermissionStore) set(ctx context.Context, userID, resourceID, by string, canAccess bool) error {
	perm := models.Permission{
		UserID:     userID,
		ResourceID: resourceID,
		CanAccess:  canAccess,
		GrantedBy:  by,
		GrantedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "resource_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"can_access": canAccess,
			"granted_by": by,
			"granted_at": perm.GrantedAt,
		}),
	}).Create(&perm).Error
}

// Get returns the permission row for the pair, or gorm.ErrRecordNotFound
// when no explicit grant or revoke exists.
func (s *PermissionStore) Get(ctx context.Context, userID, resourceID string) (*models.Permission, error) {
	var perm models.Permission
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// ListForUser returns all explicit rows for a user, grants and revokes
// both, with the resource preloaded for the admin matrix view.
func (s *PermissionStore) ListForUser(ctx context.Context, userID string) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).
		Preload("Resource").
		Where("user_id = ?", userID).
		Order("granted_at").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}
