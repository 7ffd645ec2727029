package chat

import (
	"context"
	"testing"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, model.SetupDatabase(db))
	database.DB = db
	return db
}

func TestGetOrCreateNew(t *testing.T) {
	setupTestDB(t)
	service := NewConversationService()

	result, err := service.GetOrCreate(context.Background(), "u1", "u2", "")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotEmpty(t, result.ConversationID)
}

func TestGetOrCreateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	service := NewConversationService()
	ctx := context.Background()

	first, err := service.GetOrCreate(ctx, "u1", "u2", "")
	require.NoError(t, err)

	// 再次调用返回同一个会话
	second, err := service.GetOrCreate(ctx, "u1", "u2", "")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// 参数顺序颠倒也是同一个会话
	reversed, err := service.GetOrCreate(ctx, "u2", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, reversed.ConversationID)

	var count int64
	db.Model(&model.Conversation{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateRideContextDoesNotFork(t *testing.T) {
	db := setupTestDB(t)
	service := NewConversationService()
	ctx := context.Background()

	first, err := service.GetOrCreate(ctx, "u1", "u2", "ride1")
	require.NoError(t, err)

	// 换一个行程锚点不会分裂出新会话，原记录原样返回
	second, err := service.GetOrCreate(ctx, "u1", "u2", "ride2")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	var conversation model.Conversation
	require.NoError(t, db.Where("id = ?", first.ConversationID).First(&conversation).Error)
	assert.Equal(t, "ride1", conversation.RideID)
}

func TestGetOrCreateSelf(t *testing.T) {
	setupTestDB(t)
	service := NewConversationService()

	_, err := service.GetOrCreate(context.Background(), "u1", "u1", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConversationPairUniqueConstraint(t *testing.T) {
	db := setupTestDB(t)

	first := model.Conversation{
		ID: uuid.New().String(), Participant1: "u1", Participant2: "u2",
		PairKey: model.PairKey("u1", "u2"),
	}
	require.NoError(t, db.Create(&first).Error)

	// 并发首次联系的第二个插入会撞唯一索引
	second := model.Conversation{
		ID: uuid.New().String(), Participant1: "u2", Participant2: "u1",
		PairKey: model.PairKey("u2", "u1"),
	}
	err := db.Create(&second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestGetConversationAuthorization(t *testing.T) {
	setupTestDB(t)
	service := NewConversationService()
	ctx := context.Background()

	result, err := service.GetOrCreate(ctx, "u1", "u2", "")
	require.NoError(t, err)

	_, err = service.GetConversation(ctx, "u1", result.ConversationID)
	require.NoError(t, err)

	_, err = service.GetConversation(ctx, "u3", result.ConversationID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = service.GetConversation(ctx, "u1", uuid.New().String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListConversations(t *testing.T) {
	setupTestDB(t)
	convService := NewConversationService()
	msgService := NewMessageService()
	ctx := context.Background()

	c1, err := convService.GetOrCreate(ctx, "u1", "u2", "")
	require.NoError(t, err)
	_, err = convService.GetOrCreate(ctx, "u1", "u3", "")
	require.NoError(t, err)

	_, err = msgService.SendMessage(ctx, "u2", c1.ConversationID, "你好")
	require.NoError(t, err)

	previews, err := convService.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, previews, 2)

	// 有新消息的会话排在前面，带最后一条消息和未读数
	assert.Equal(t, c1.ConversationID, previews[0].Conversation.ID)
	assert.Equal(t, "你好", previews[0].LastMessage)
	assert.EqualValues(t, 1, previews[0].Unread)
	assert.EqualValues(t, 0, previews[1].Unread)
}
