package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account in the credential store. Role decides default
// document visibility: admins see every readable resource, users only
// what the permission matrix explicitly grants.
type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=2"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"not null;default:'user'" json:"role" validate:"required,user_role"`
}

// Resource is an ingested document. URL is the upsert identity: syncing
// the same URL again updates the row in place, never duplicates it.
// UploadedBy is the uploader's username (or a job identity like the
// scheduler's); it is informational and never consulted for access.
// ExtractedText is nullable and only overwritten by a non-nil
// replacement, so a failed re-extraction cannot erase prior good text.
type Resource struct {
	Base
	Name          string         `gorm:"not null" json:"name"`
	URL           string         `gorm:"uniqueIndex;not null" json:"url"`
	FileType      string         `gorm:"not null" json:"fileType"`
	UploadedBy    string         `gorm:"not null" json:"uploadedBy"`
	IsAccessed    bool           `gorm:"default:false" json:"isAccessed"`
	AccessCount   int            `gorm:"default:0" json:"accessCount"`
	ExtractedText *string        `json:"extractedText,omitempty"`
	LastSyncTime  *time.Time     `json:"lastSyncTime,omitempty"`
	Meta          datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
}

// Text returns the extracted text or "" when none is stored.
func (r *Resource) Text() string {
	if r.ExtractedText == nil {
		return ""
	}
	return *r.ExtractedText
}

// Permission is an explicit grant or an explicit revoke. A revoke is a
// row with CanAccess=false, which is not the same as no row at all: the
// access resolver treats absence as "never granted" and a false row as
// "granted then taken away".
type Permission struct {
	Base
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_resource" json:"userId"`
	User       *User     `json:"user,omitempty"`
	ResourceID string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_resource" json:"resourceId"`
	Resource   *Resource `json:"resource,omitempty"`
	CanAccess  bool      `gorm:"not null;default:true" json:"canAccess"`
	GrantedBy  string    `gorm:"not null" json:"grantedBy"`
	GrantedAt  time.Time `json:"grantedAt"`
}

// ChatExchange is one question/answer pair. Append-only; the core never
// mutates or deletes rows.
type ChatExchange struct {
	Base
	UserID   string `gorm:"type:uuid;not null;index" json:"userId"`
	User     *User  `json:"user,omitempty"`
	Message  string `gorm:"not null" json:"message"`
	Response string `gorm:"not null" json:"response"`
}
