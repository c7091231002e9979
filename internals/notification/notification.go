package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/pkg/kvstore"
)

type NotificationService struct {
	KV kvstore.KVStore
	DB *gorm.DB
}

func New(kv kvstore.KVStore, db *gorm.DB) *NotificationService {
	return &NotificationService{
		KV: kv,
		DB: db,
	}
}

func Channel(userID int) string {
	return fmt.Sprintf("notifications_%d", userID)
}

// Notify stores n and pushes it to the user's channel.
func (ns *NotificationService) Notify(ctx context.Context, n Notification) error {
	if n.Status == "" {
		n.Status = StatusUnseen
	}
	if err := ns.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("not able to store notification with err: %w", err)
	}
	out, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return ns.KV.Publish(Channel(n.UserID), string(out))
}

func (ns *NotificationService) GetNotifications(ctx context.Context, userID int) ([]Notification, error) {
	notifications := make([]Notification, 0)
	err := ns.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (ns *NotificationService) UpdateNotificationStatus(ctx context.Context, userID int) error {
	err := ns.DB.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND status = ?", userID, StatusUnseen).
		Update("status", StatusSeen).Error
	if err != nil {
		return fmt.Errorf("not able to update status of notification with err: %w", err)
	}
	return nil
}
