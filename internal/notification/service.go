package notification

import (
	"context"

	"ridelink/internal/database"
	"ridelink/internal/model"

	"gorm.io/gorm"
)

// NotificationService 处理用户通知
// 实际的推送投递由外部推送网关负责，这里只管记录
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService 创建通知服务实例
func NewNotificationService() *NotificationService {
	return &NotificationService{
		db: database.GetDB(),
	}
}

// ListNotifications 获取用户的通知列表
func (s *NotificationService) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead 标记单条通知为已读，只有归属者可以操作
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}
