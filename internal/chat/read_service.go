package chat

import (
	"context"
	"errors"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/feed"
	"ridelink/internal/model"

	"gorm.io/gorm"
)

// ReadService 处理消息已读状态的流转
// is_read 只会从 false 翻到 true，不会回退
type ReadService struct {
	db *gorm.DB
}

// NewReadService 创建已读服务实例
func NewReadService() *ReadService {
	return &ReadService{
		db: database.GetDB(),
	}
}

// MarkConversationRead 把会话里所有发给 viewer 的未读消息标记为已读
// 返回受影响条数；重复调用是幂等的，第二次起返回 0
func (s *ReadService) MarkConversationRead(ctx context.Context, viewer, conversationID string) (int64, error) {
	var conversation model.Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.ErrNotFound
		}
		return 0, err
	}

	if conversation.Participant1 != viewer && conversation.Participant2 != viewer {
		return 0, apperr.Forbidden("不是该会话的参与者")
	}

	// 只翻转发给 viewer 的未读消息，自己发的不动
	result := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND is_read = ? AND sender_id != ?", conversationID, false, viewer).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		s.publishReadEvent(ctx, conversationID, conversation.Participant1, conversation.Participant2)
	}

	return result.RowsAffected, nil
}

// MarkMessagesRead 按消息ID列表标记已读
// viewer 必须是所有涉及会话的参与者，任何一个不满足就整批拒绝；
// 已读的和自己发的消息静默排除，不报错也不计数
func (s *ReadService) MarkMessagesRead(ctx context.Context, viewer string, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, apperr.Validation("消息ID列表不能为空")
	}

	var messages []model.Message
	if err := s.db.WithContext(ctx).Where("id IN ?", messageIDs).Find(&messages).Error; err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	// 涉及的去重会话集合
	conversationIDs := make(map[string]struct{})
	for _, msg := range messages {
		conversationIDs[msg.ConversationID] = struct{}{}
	}

	// 批量授权：viewer 必须是每一个会话的参与者
	ids := make([]string, 0, len(conversationIDs))
	for id := range conversationIDs {
		ids = append(ids, id)
	}
	var conversations []model.Conversation
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&conversations).Error; err != nil {
		return 0, err
	}
	if len(conversations) != len(ids) {
		return 0, apperr.ErrNotFound
	}
	for _, conv := range conversations {
		if conv.Participant1 != viewer && conv.Participant2 != viewer {
			return 0, apperr.Forbidden("不是所有会话的参与者")
		}
	}

	// 只更新发给 viewer 且未读的那部分
	targets := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.SenderID != viewer && !msg.IsRead {
			targets = append(targets, msg.ID)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id IN ?", targets).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		for _, conv := range conversations {
			s.publishReadEvent(ctx, conv.ID, conv.Participant1, conv.Participant2)
		}
	}

	return result.RowsAffected, nil
}

// publishReadEvent 发布 UPDATE 事件，对账器收到后会做全量重算
// 变更源不区分更新了什么字段，所以不带增量信息
func (s *ReadService) publishReadEvent(ctx context.Context, conversationID string, participants ...string) {
	feed.PublishMessageEvent(ctx, feed.EventUpdate,
		model.Message{ConversationID: conversationID, IsRead: true}, participants...)
}
