package models

import (
	"time"
)

// Notification is an event handed off to the notification service. UserID nil
// means a broadcast/admin notification (scheduler boundary events).
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    *string   `json:"user_id,omitempty" gorm:"index"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
