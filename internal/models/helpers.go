package models

import (
	"gorm.io/gorm"
)

// GetUserByUsername retrieves a user from the database by username
func GetUserByUsername(username string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("username = ?", username).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func GetResourceByID(id string, db *gorm.DB) (*Resource, error) {
	resource := &Resource{}
	if err := db.Where("id = ?", id).First(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}
