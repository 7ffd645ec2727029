package chat

import (
	"context"
	"testing"
	"time"

	"ridelink/internal/apperr"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedConversation 建一个会话并返回ID
func seedConversation(t *testing.T, db *gorm.DB, userA, userB string) string {
	t.Helper()
	conversation := model.Conversation{
		ID: uuid.New().String(), Participant1: userA, Participant2: userB,
		PairKey: model.PairKey(userA, userB), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&conversation).Error)
	return conversation.ID
}

// seedMessage 在会话里插一条消息并返回ID
func seedMessage(t *testing.T, db *gorm.DB, conversationID, senderID string, isRead bool) string {
	t.Helper()
	message := model.Message{
		ID: uuid.New().String(), ConversationID: conversationID,
		SenderID: senderID, Content: "测试消息", IsRead: isRead,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&message).Error)
	return message.ID
}

// fetchMessage 每次用新的结构体查，避免上一次查询残留主键
func fetchMessage(t *testing.T, db *gorm.DB, id string) model.Message {
	t.Helper()
	var message model.Message
	require.NoError(t, db.Where("id = ?", id).First(&message).Error)
	return message
}

func TestMarkConversationRead(t *testing.T) {
	db := setupTestDB(t)
	service := NewReadService()
	ctx := context.Background()

	// m1 对方发的未读，m2 自己发的未读，m3 对方发的已读
	convID := seedConversation(t, db, "u1", "u2")
	m1 := seedMessage(t, db, convID, "u1", false)
	m2 := seedMessage(t, db, convID, "u2", false)
	m3 := seedMessage(t, db, convID, "u1", true)

	marked, err := service.MarkConversationRead(ctx, "u2", convID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	assert.True(t, fetchMessage(t, db, m1).IsRead)
	// 自己发的消息不动
	assert.False(t, fetchMessage(t, db, m2).IsRead)
	assert.True(t, fetchMessage(t, db, m3).IsRead)

	// 幂等：第二次调用没有新消息，计数为 0
	marked, err = service.MarkConversationRead(ctx, "u2", convID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, marked)
}

func TestMarkConversationReadAuthorization(t *testing.T) {
	db := setupTestDB(t)
	service := NewReadService()
	ctx := context.Background()

	convID := seedConversation(t, db, "u1", "u2")
	seedMessage(t, db, convID, "u1", false)

	_, err := service.MarkConversationRead(ctx, "u3", convID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = service.MarkConversationRead(ctx, "u1", uuid.New().String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkMessagesRead(t *testing.T) {
	db := setupTestDB(t)
	service := NewReadService()
	ctx := context.Background()

	conv1 := seedConversation(t, db, "u1", "u2")
	conv2 := seedConversation(t, db, "u2", "u3")

	incoming := seedMessage(t, db, conv1, "u1", false)
	own := seedMessage(t, db, conv1, "u2", false)
	alreadyRead := seedMessage(t, db, conv2, "u3", true)

	// 自己发的和已读的被静默排除，不报错也不计数
	marked, err := service.MarkMessagesRead(ctx, "u2", []string{incoming, own, alreadyRead})
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	assert.True(t, fetchMessage(t, db, incoming).IsRead)
	assert.False(t, fetchMessage(t, db, own).IsRead)
}

func TestMarkMessagesReadRejectsWholeBatch(t *testing.T) {
	db := setupTestDB(t)
	service := NewReadService()
	ctx := context.Background()

	mine := seedConversation(t, db, "u1", "u2")
	foreign := seedConversation(t, db, "u3", "u4")

	ok := seedMessage(t, db, mine, "u1", false)
	denied := seedMessage(t, db, foreign, "u3", false)

	// 任何一条消息属于无权会话，整批拒绝，不做部分更新
	_, err := service.MarkMessagesRead(ctx, "u2", []string{ok, denied})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.False(t, fetchMessage(t, db, ok).IsRead)
}

func TestMarkMessagesReadEmptyList(t *testing.T) {
	setupTestDB(t)
	service := NewReadService()

	_, err := service.MarkMessagesRead(context.Background(), "u1", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMarkMessagesReadUnknownIDs(t *testing.T) {
	setupTestDB(t)
	service := NewReadService()

	// 引用不存在的消息：没有可标记的内容，静默返回 0
	marked, err := service.MarkMessagesRead(context.Background(), "u1", []string{uuid.New().String()})
	require.NoError(t, err)
	assert.EqualValues(t, 0, marked)
}
