// Package session carries the authenticated caller through the core.
// The resolver and the answering engine take an explicit *Session
// instead of reading ambient request state; one value per login.
package session

import (
	"time"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
)

type Session struct {
	UserID    string
	Username  string
	Role      models.UserRole
	CreatedAt time.Time
}

func New(user *models.User) *Session {
	return &Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.UserRoleAdmin
}
