package erasure

import (
	"context"
	"errors"
	"testing"
	"time"

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

// seedFootprint 给 u1 铺满全部数据足迹：
// 两个会话共3条消息、两个方向的联系关系、1个带关联会话的行程、
// 通知、订阅、举报、反馈、条款记录
func seedFootprint(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now()

	require.NoError(t, db.Create(&model.User{ID: "u1", Username: "张三", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, db.Create(&model.User{ID: "u2", Username: "李四", CreatedAt: now, UpdatedAt: now}).Error)

	ride := model.Ride{ID: "r1", DriverID: "u1", Origin: "北京", Destination: "天津", DepartureTime: now, Seats: 3, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&ride).Error)

	conv1 := model.Conversation{ID: "c1", Participant1: "u1", Participant2: "u2", PairKey: model.PairKey("u1", "u2"), RideID: "r1", CreatedAt: now, UpdatedAt: now}
	conv2 := model.Conversation{ID: "c2", Participant1: "u3", Participant2: "u1", PairKey: model.PairKey("u3", "u1"), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&conv1).Error)
	require.NoError(t, db.Create(&conv2).Error)

	for i, convID := range []string{"c1", "c1", "c2"} {
		msg := model.Message{ID: uuid.New().String(), ConversationID: convID, SenderID: "u1", Content: "消息", CreatedAt: now.Add(time.Duration(i) * time.Millisecond)}
		require.NoError(t, db.Create(&msg).Error)
	}

	cn1 := model.Connection{ID: "cn1", RequesterID: "u1", AddresseeID: "u2", PairKey: model.PairKey("u1", "u2"), Status: model.ConnectionPending, CreatedAt: now, UpdatedAt: now}
	cn2 := model.Connection{ID: "cn2", RequesterID: "u3", AddresseeID: "u1", PairKey: model.PairKey("u3", "u1"), Status: model.ConnectionBlocked, CreatedAt: now, UpdatedAt: now}
	cn3 := model.Connection{ID: "cn3", RequesterID: "u2", AddresseeID: "u3", PairKey: model.PairKey("u2", "u3"), Status: model.ConnectionAccepted, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Create(&cn1).Error)
	require.NoError(t, db.Create(&cn2).Error)
	require.NoError(t, db.Create(&cn3).Error)

	require.NoError(t, db.Create(&model.Notification{ID: "n1", UserID: "u1", Type: "connection_request", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.RouteWatch{ID: "w1", UserID: "u1", Origin: "北京", Destination: "上海", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Report{ID: "rp1", ReporterID: "u1", ReportedID: "u2", Reason: "测试", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.Report{ID: "rp2", ReporterID: "u2", ReportedID: "u1", Reason: "测试", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.BugReport{ID: "b1", UserID: "u1", Description: "测试", CreatedAt: now}).Error)
	require.NoError(t, db.Create(&model.LegalAcceptance{ID: "l1", UserID: "u1", Document: "terms", AcceptedAt: now}).Error)
}

func newTestCoordinator(db *gorm.DB, authErr error) *Coordinator {
	return &Coordinator{
		db: db,
		deleteAuthRecord: func(ctx context.Context, userID string) error {
			return authErr
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, dest interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(dest).Count(&count).Error)
	return count
}

func TestEraseRemovesAllFootprint(t *testing.T) {
	db := setupTestDB(t)
	seedFootprint(t, db)

	coordinator := newTestCoordinator(db, nil)
	require.NoError(t, coordinator.Erase(context.Background(), "u1"))

	assert.EqualValues(t, 0, countRows(t, db, &model.Message{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.Conversation{}))

	// u1 两个方向的联系关系都没了，不相关的 cn3 保留
	var connections []model.Connection
	require.NoError(t, db.Find(&connections).Error)
	require.Len(t, connections, 1)
	assert.Equal(t, "cn3", connections[0].ID)

	assert.EqualValues(t, 0, countRows(t, db, &model.Ride{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.Notification{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.RouteWatch{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.Report{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.BugReport{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.LegalAcceptance{}))

	// u1 的资料没了，无关用户 u2 还在
	var users []model.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
}

func TestEraseNonCriticalStepFailureStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	seedFootprint(t, db)

	// 让法律条款记录这一步失败
	require.NoError(t, db.Migrator().DropTable(&model.LegalAcceptance{}))

	coordinator := newTestCoordinator(db, nil)
	require.NoError(t, coordinator.Erase(context.Background(), "u1"))

	// 资料删除完成，整体仍然成功
	assert.EqualValues(t, 0, countRows(t, db, &model.Message{}))
	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", "u1").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestEraseCriticalStepFailure(t *testing.T) {
	db := setupTestDB(t)
	seedFootprint(t, db)

	// 资料表不可用：关键步骤失败，整体失败
	require.NoError(t, db.Migrator().DropTable(&model.User{}))

	coordinator := newTestCoordinator(db, nil)
	err := coordinator.Erase(context.Background(), "u1")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestEraseAuthRecordFailureStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	seedFootprint(t, db)

	// 外部认证记录删除失败不影响整体结果，应用层访问已经没了
	coordinator := newTestCoordinator(db, errors.New("认证服务不可用"))
	require.NoError(t, coordinator.Erase(context.Background(), "u1"))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", "u1").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
