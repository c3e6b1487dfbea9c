package repository

import (
	"context"
	"errors"
	"time"

	"support-chat/internal/domain/agent"
	support_errors "support-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresAgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &PostgresAgentRepository{db: db}
}

func (r *PostgresAgentRepository) Create(ctx context.Context, a *agent.Agent) error {
	res := r.db.WithContext(ctx).Create(a)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return support_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresAgentRepository) GetByID(ctx context.Context, id uuid.UUID) (agent.Agent, error) {
	var a agent.Agent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return agent.Agent{}, support_errors.ErrNotFound
		}
		return agent.Agent{}, err
	}
	return a, nil
}

func (r *PostgresAgentRepository) GetByEmail(ctx context.Context, email string) (agent.Agent, error) {
	var a agent.Agent
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return agent.Agent{}, support_errors.ErrNotFound
		}
		return agent.Agent{}, err
	}
	return a, nil
}

func (r *PostgresAgentRepository) Update(ctx context.Context, a agent.Agent) error {
	res := r.db.WithContext(ctx).Save(&a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAgentRepository) ListActive(ctx context.Context) ([]agent.Agent, error) {
	var agents []agent.Agent
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *PostgresAgentRepository) Heartbeat(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&agent.Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_online":    true,
			"last_seen_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAgentRepository) MarkOffline(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&agent.Agent{}).
		Where("id = ?", id).
		Update("is_online", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAgentRepository) AnyOnline(ctx context.Context, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&agent.Agent{}).
		Where("is_active = true AND is_online = true AND last_seen_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresAgentRepository) UpdateNotificationPrefs(ctx context.Context, id uuid.UUID, push, whatsapp bool, waPhone string) error {
	res := r.db.WithContext(ctx).
		Model(&agent.Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notify_push":      push,
			"notify_whats_app": whatsapp,
			"wa_phone":         nullableString(waPhone),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return support_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAgentRepository) AddPushSubscription(ctx context.Context, s *agent.PushSubscription) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return support_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresAgentRepository) ListPushSubscriptions(ctx context.Context, agentID uuid.UUID) ([]agent.PushSubscription, error) {
	var subs []agent.PushSubscription
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *PostgresAgentRepository) DeletePushSubscription(ctx context.Context, agentID uuid.UUID, endpoint string) error {
	return r.db.WithContext(ctx).
		Delete(&agent.PushSubscription{}, "agent_id = ? AND endpoint = ?", agentID, endpoint).Error
}
