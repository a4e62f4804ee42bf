package services

import (
	"context"

	"remote-viewing-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier hands events to the notification service by appending rows to its
// inbox table. Delivery and ordering are that service's problem, not ours.
type Notifier struct {
	DB *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{DB: db}
}

// Notify records one notification. A nil userID is a broadcast/admin event.
func (n *Notifier) Notify(ctx context.Context, userID *string, message string) error {
	notif := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Message: message,
	}
	return n.DB.WithContext(ctx).Create(&notif).Error
}

// ListForUser returns a user's notifications plus broadcasts, newest first.
func (n *Notifier) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var notifs []models.Notification
	err := n.DB.WithContext(ctx).
		Where("user_id = ? OR user_id IS NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifs).Error
	return notifs, err
}

// MarkRead flags a single notification as read.
func (n *Notifier) MarkRead(ctx context.Context, id string) error {
	result := n.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
