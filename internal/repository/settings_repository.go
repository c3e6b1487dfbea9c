package repository

import (
	"context"
	"errors"

	"support-chat/internal/domain/settings"
	support_errors "support-chat/pkg/errors"

	"gorm.io/gorm"
)

type PostgresSettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (settings.WorkspaceSettings, error) {
	var s settings.WorkspaceSettings
	err := r.db.WithContext(ctx).Where("id = ?", 1).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settings.WorkspaceSettings{}, support_errors.ErrNotFound
		}
		return settings.WorkspaceSettings{}, err
	}
	return s, nil
}

func (r *PostgresSettingsRepository) Update(ctx context.Context, s settings.WorkspaceSettings) error {
	s.ID = 1
	res := r.db.WithContext(ctx).Save(&s)
	if res.Error != nil {
		return res.Error
	}
	return nil
}
