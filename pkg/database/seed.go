package database

import (
	"errors"
	"log"
	"time"

	"support-chat/config"
	"support-chat/internal/domain/agent"
	"support-chat/internal/domain/settings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed ensures the admin agent and the workspace settings row exist. Safe to
// run on every start.
func Seed(cfg *config.Config) error {
	if err := seedAdminAgent(cfg); err != nil {
		return err
	}
	return seedWorkspaceSettings()
}

func seedAdminAgent(cfg *config.Config) error {
	var existing agent.Agent
	err := DB.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := agent.Agent{
		ID:           uuid.New(),
		AuthID:       uuid.NewString(),
		Email:        cfg.AdminEmail,
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         agent.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin agent %s", cfg.AdminEmail)
	return nil
}

func seedWorkspaceSettings() error {
	var existing settings.WorkspaceSettings
	err := DB.Where("id = ?", 1).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row := settings.WorkspaceSettings{
		ID:             1,
		Timezone:       "UTC",
		BusinessHours:  `{"monday":{"start":"09:00","end":"17:00"},"tuesday":{"start":"09:00","end":"17:00"},"wednesday":{"start":"09:00","end":"17:00"},"thursday":{"start":"09:00","end":"17:00"},"friday":{"start":"09:00","end":"17:00"}}`,
		WelcomeMessage: "Hi! How can we help you today?",
		UpdatedAt:      time.Now(),
	}
	return DB.Create(&row).Error
}
