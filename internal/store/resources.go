package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// ErrorTextPrefix tags extractions that failed outright. Resources whose
// stored text starts with it are invisible to every role.
const ErrorTextPrefix = "[ERROR"

// ResourceStore persists documents. The upsert identity is the URL
// column: writing the same URL twice updates the existing row.
type ResourceStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceStore(db *gorm.DB) *ResourceStore {
	return &ResourceStore{db: db, log: logger.New("resource_store")}
}

// Upsert describes one document write. ExtractedText nil means "keep
// whatever text is already stored" (COALESCE semantics).
type Upsert struct {
	Name          string
	URL           string
	FileType      string
	UploadedBy    string
	ExtractedText *string
	Meta          datatypes.JSON
}

// UpsertByURL inserts the resource or updates the existing row with the
// same URL in place. Returns the persisted row. The whole write is one
// transaction.
func (s *ResourceStore) UpsertByURL(ctx context.Context, up Upsert) (*models.Resource, error) {
	var out *models.Resource
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var existing models.Resource
		err := tx.Where("url = ?", up.URL).First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"name":           up.Name,
				"file_type":      up.FileType,
				"uploaded_by":    up.UploadedBy,
				"last_sync_time": &now,
			}
			if up.ExtractedText != nil {
				updates["extracted_text"] = up.ExtractedText
			}
			if up.Meta != nil {
				updates["meta"] = up.Meta
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			out = &existing
			return tx.Where("id = ?", existing.ID).First(out).Error

		case errors.Is(err, gorm.ErrRecordNotFound):
			res := models.Resource{
				Name:          up.Name,
				URL:           up.URL,
				FileType:      up.FileType,
				UploadedBy:    up.UploadedBy,
				ExtractedText: up.ExtractedText,
				LastSyncTime:  &now,
				Meta:          up.Meta,
			}
			if err := tx.Create(&res).Error; err != nil {
				return err
			}
			out = &res
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ResourceStore) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	var res models.Resource
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ResourceStore) GetByURL(ctx context.Context, url string) (*models.Resource, error) {
	var res models.Resource
	if err := s.db.WithContext(ctx).Where("url = ?", url).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ResourceStore) ListAll(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	if err := s.db.WithContext(ctx).Order("created_at").Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

// ListReadable returns every resource whose stored text is non-null,
// non-empty and not error-tagged. This is the admin-wide view.
func (s *ResourceStore) ListReadable(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	err := s.db.WithContext(ctx).
		Where("extracted_text IS NOT NULL").
		Where("extracted_text <> ''").
		Where("extracted_text NOT LIKE ?", ErrorTextPrefix+"%").
		Order("created_at").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// ListGrantedTo returns readable resources with an explicit
// can_access=true permission row for the user. A revoke row (false)
// excludes the resource just like no row at all.
func (s *ResourceStore) ListGrantedTo(ctx context.Context, userID string) ([]models.Resource, error) {
	var resources []models.Resource
	err := s.db.WithContext(ctx).
		Joins("INNER JOIN permissions p ON p.resource_id = resources.id AND p.user_id = ?", userID).
		Where("p.can_access = ?", true).
		Where("resources.extracted_text IS NOT NULL").
		Where("resources.extracted_text <> ''").
		Where("resources.extracted_text NOT LIKE ?", ErrorTextPrefix+"%").
		Order("resources.created_at").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// BumpAccess marks resources as used by an answered question.
func (s *ResourceStore) BumpAccess(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_accessed":  true,
			"access_count": gorm.Expr("access_count + 1"),
		}).Error
}

// Delete removes the row and returns its URL so the caller can clean up
// the matching vector entry.
func (s *ResourceStore) Delete(ctx context.Context, id string) (string, error) {
	var res models.Resource
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Resource{}).Error; err != nil {
		return "", err
	}
	return res.URL, nil
}
