package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// ChatStore is the append-only conversation log. Rows are never updated
// or deleted here; export/clear live outside the core.
type ChatStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db, log: logger.New("chat_store")}
}

func (s *ChatStore) Append(ctx context.Context, userID, message, response string) error {
	exchange := models.ChatExchange{
		UserID:   userID,
		Message:  message,
		Response: response,
	}
	return s.db.WithContext(ctx).Create(&exchange).Error
}

// History returns the most recent exchanges for a user, newest first.
func (s *ChatStore) History(ctx context.Context, userID string, limit int) ([]models.ChatExchange, error) {
	if limit <= 0 {
		limit = 50
	}
	var history []models.ChatExchange
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}
