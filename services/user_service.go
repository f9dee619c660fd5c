package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/postboard/models"
)

// UserService looks up and removes users.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService backed by db.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ByID returns the user with id or ErrNotFound.
func (s *UserService) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// Delete removes the user. Their posts and replies stay, keeping the
// denormalized username with a NULL user id.
func (s *UserService) Delete(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("user_id = ?", user.ID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("orphan posts: %w", err)
		}
		if err := tx.Model(&models.Reply{}).Where("user_id = ?", user.ID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("orphan replies: %w", err)
		}
		return tx.Delete(&user).Error
	})
}
