package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"gorm.io/gorm"
)

var ErrAPIKeyNotFound = errors.New("api key not found")

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// FindByKey loads the key together with the admin it acts as.
func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (models.APIKey, error) {
	var apiKey models.APIKey
	err := r.db.WithContext(ctx).Preload("Admin").Where("key = ?", key).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.APIKey{}, ErrAPIKeyNotFound
	}
	return apiKey, err
}

func (r *APIKeyRepository) ListByAdmin(ctx context.Context, adminID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (r *APIKeyRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.APIKey{}).Where("id = ?", id).Update("last_used_at", at).Error
}

// Revoke deletes a key owned by adminID. Keys of other admins are reported
// as missing.
func (r *APIKeyRepository) Revoke(ctx context.Context, id, adminID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND admin_id = ?", id, adminID).Delete(&models.APIKey{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}
