package chat

import (
	"context"
	"testing"

	"ridelink/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	db := setupTestDB(t)
	service := NewMessageService()
	ctx := context.Background()

	convID := seedConversation(t, db, "u1", "u2")

	message, err := service.SendMessage(ctx, "u1", convID, "拼车吗？")
	require.NoError(t, err)
	assert.Equal(t, "u1", message.SenderID)
	assert.False(t, message.IsRead)
}

func TestSendMessageAuthorization(t *testing.T) {
	db := setupTestDB(t)
	service := NewMessageService()
	ctx := context.Background()

	convID := seedConversation(t, db, "u1", "u2")

	// 非参与者不能发消息
	_, err := service.SendMessage(ctx, "u3", convID, "你好")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = service.SendMessage(ctx, "u1", uuid.New().String(), "你好")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = service.SendMessage(ctx, "u1", convID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetMessagesOrdering(t *testing.T) {
	db := setupTestDB(t)
	service := NewMessageService()
	ctx := context.Background()

	convID := seedConversation(t, db, "u1", "u2")
	for _, content := range []string{"第一条", "第二条", "第三条"} {
		_, err := service.SendMessage(ctx, "u1", convID, content)
		require.NoError(t, err)
	}

	messages, err := service.GetMessages(ctx, "u2", convID, 50)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// 返回时间升序
	assert.Equal(t, "第一条", messages[0].Content)
	assert.Equal(t, "第三条", messages[2].Content)

	// 非参与者不能读历史
	_, err = service.GetMessages(ctx, "u3", convID, 50)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
