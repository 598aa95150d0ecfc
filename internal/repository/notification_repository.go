package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/civic-billing/internal/domain"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, citizen_id, title, message, type, is_read, created_at)
		VALUES (:id, :citizen_id, :title, :message, :type, :is_read, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, notification)
	return err
}
