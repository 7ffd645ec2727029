package chat

import (
	"context"
	"errors"
	"time"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationService 处理会话的创建和幂等查找
type ConversationService struct {
	db *gorm.DB
}

// NewConversationService 创建会话服务实例
func NewConversationService() *ConversationService {
	return &ConversationService{
		db: database.GetDB(),
	}
}

// GetOrCreateResult 会话查找/创建结果
type GetOrCreateResult struct {
	ConversationID string `json:"conversationId"`
	Created        bool   `json:"created"`
}

// GetOrCreate 查找或创建两个用户之间的会话
// 同一对用户最多一个会话，与行程无关：已有会话原样返回，
// 后续带不同 rideId 的调用不会分裂出新会话。
// 并发首次联系靠配对唯一索引兜底，唯一键冲突说明对方刚创建，
// 重读赢家记录返回而不是报错
func (s *ConversationService) GetOrCreate(ctx context.Context, userA, userB, rideID string) (*GetOrCreateResult, error) {
	if userA == userB {
		return nil, apperr.Validation("不能和自己创建会话")
	}

	pairKey := model.PairKey(userA, userB)

	// 对称查找已有会话
	var existing model.Conversation
	err := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		return &GetOrCreateResult{ConversationID: existing.ID, Created: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 创建新会话
	now := time.Now()
	conversation := model.Conversation{
		ID:           uuid.New().String(),
		Participant1: userA,
		Participant2: userB,
		PairKey:      pairKey,
		RideID:       rideID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner model.Conversation
			if rerr := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&winner).Error; rerr != nil {
				return nil, rerr
			}
			return &GetOrCreateResult{ConversationID: winner.ID, Created: false}, nil
		}
		return nil, err
	}

	return &GetOrCreateResult{ConversationID: conversation.ID, Created: true}, nil
}

// GetConversation 获取会话记录，调用者必须是参与者
func (s *ConversationService) GetConversation(ctx context.Context, viewer, conversationID string) (*model.Conversation, error) {
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

	return &conversation, nil
}

// ConversationPreview 会话列表项
type ConversationPreview struct {
	Conversation model.Conversation `json:"conversation"`
	LastMessage  string             `json:"lastMessage"`
	Unread       int64              `json:"unread"`
}

// ListConversations 获取用户参与的所有会话，带最后一条消息和未读数
func (s *ConversationService) ListConversations(ctx context.Context, viewer string) ([]ConversationPreview, error) {
	var conversations []model.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_1 = ? OR participant_2 = ?", viewer, viewer).
		Order("updated_at desc").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	previews := make([]ConversationPreview, 0, len(conversations))
	for _, conv := range conversations {
		var lastMessage model.Message
		content := ""
		err := s.db.WithContext(ctx).
			Where("conversation_id = ?", conv.ID).
			Order("created_at desc").
			First(&lastMessage).Error
		if err == nil {
			content = lastMessage.Content
		}

		var unread int64
		s.db.WithContext(ctx).Model(&model.Message{}).
			Where("conversation_id = ? AND is_read = ? AND sender_id != ?", conv.ID, false, viewer).
			Count(&unread)

		previews = append(previews, ConversationPreview{
			Conversation: conv,
			LastMessage:  content,
			Unread:       unread,
		})
	}

	return previews, nil
}
