package chat

import (
	"context"
	"errors"
	"time"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/feed"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService 处理消息的发送和查询
type MessageService struct {
	db *gorm.DB
}

// NewMessageService 创建消息服务实例
func NewMessageService() *MessageService {
	return &MessageService{
		db: database.GetDB(),
	}
}

// SendMessage 在会话中发送一条消息
// 发送者必须是会话的参与者；写入成功后向双方的变更频道
// 发布 INSERT 事件，供未读数对账器增量更新
func (s *MessageService) SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error) {
	if content == "" {
		return nil, apperr.Validation("消息内容不能为空")
	}

	var conversation model.Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if conversation.Participant1 != senderID && conversation.Participant2 != senderID {
		return nil, apperr.Forbidden("不是该会话的参与者")
	}

	now := time.Now()
	message := model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	// 更新会话的活跃时间
	s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", now)

	// 发布行插入事件，尽力而为
	feed.PublishMessageEvent(ctx, feed.EventInsert, message,
		conversation.Participant1, conversation.Participant2)

	return &message, nil
}

// GetMessages 获取会话的消息历史，调用者必须是参与者
func (s *MessageService) GetMessages(ctx context.Context, viewer, conversationID string, limit int) ([]model.Message, error) {
	var conversation model.Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if conversation.Participant1 != viewer && conversation.Participant2 != viewer {
		return nil, apperr.Forbidden("不是该会话的参与者")
	}

	if limit <= 0 {
		limit = 50
	}

	var messages []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// 反转为时间升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
