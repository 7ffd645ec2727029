package relationship

import (
	"context"
	"errors"
	"log"
	"time"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 以某个用户视角看到的关系状态
const (
	StatusNone            = "none"
	StatusPendingSent     = "pending_sent"
	StatusPendingReceived = "pending_received"
	StatusConnected       = "connected"
	StatusBlockedByMe     = "blocked_by_me"
	StatusBlockedByThem   = "blocked_by_them"
	StatusSelf            = "self"
)

// ConnectionService 处理用户之间的联系请求和关系状态机
type ConnectionService struct {
	db *gorm.DB
}

// NewConnectionService 创建联系服务实例
func NewConnectionService() *ConnectionService {
	return &ConnectionService{
		db: database.GetDB(),
	}
}

// StatusResult 关系状态查询结果
type StatusResult struct {
	Status     string            `json:"status"`
	Connection *model.Connection `json:"connection,omitempty"`
}

// CheckStatus 查询 viewer 视角下与 other 的关系状态
// 同一对用户最多一条记录，方向无关，按规范化键查找
func (s *ConnectionService) CheckStatus(ctx context.Context, viewer, other string) (*StatusResult, error) {
	if viewer == other {
		return &StatusResult{Status: StatusSelf}, nil
	}

	var conn model.Connection
	err := s.db.WithContext(ctx).Where("pair_key = ?", model.PairKey(viewer, other)).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StatusResult{Status: StatusNone}, nil
		}
		return nil, err
	}

	return &StatusResult{Status: deriveStatus(&conn, viewer), Connection: &conn}, nil
}

// deriveStatus 根据存储的状态和请求方向推导视角状态
// blocked 记录的 requester 是拉黑操作的发起方
func deriveStatus(conn *model.Connection, viewer string) string {
	switch conn.Status {
	case model.ConnectionPending:
		if conn.RequesterID == viewer {
			return StatusPendingSent
		}
		return StatusPendingReceived
	case model.ConnectionAccepted:
		return StatusConnected
	case model.ConnectionBlocked:
		if conn.RequesterID == viewer {
			return StatusBlockedByMe
		}
		return StatusBlockedByThem
	}
	return StatusNone
}

// CreateRequest 发起联系请求
// 已有记录时返回冲突并携带现有记录，调用方按其状态分支处理；
// 已拉黑返回禁止。并发重复请求靠配对唯一索引兜底，
// 唯一键冲突视为"别人刚创建了"，重读后按同样的规则返回
func (s *ConnectionService) CreateRequest(ctx context.Context, requester, addressee string) (*model.Connection, error) {
	if requester == addressee {
		return nil, apperr.Validation("不能向自己发起联系请求")
	}

	pairKey := model.PairKey(requester, addressee)

	// 先查已有记录
	var existing model.Connection
	err := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		return nil, s.conflictFor(&existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 插入新的待处理请求
	now := time.Now()
	conn := model.Connection{
		ID:          uuid.New().String(),
		RequesterID: requester,
		AddresseeID: addressee,
		PairKey:     pairKey,
		Status:      model.ConnectionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 查-写窗口内被并发请求抢先，重读赢家记录
			var winner model.Connection
			if rerr := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&winner).Error; rerr != nil {
				return nil, rerr
			}
			return nil, s.conflictFor(&winner)
		}
		return nil, err
	}

	// 给对方发通知，失败只记日志不影响请求本身
	notification := model.Notification{
		ID:        uuid.New().String(),
		UserID:    addressee,
		Type:      "connection_request",
		Content:   "你收到一条新的联系请求",
		RelatedID: conn.ID,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Printf("创建联系请求通知失败: %v", err)
	}

	return &conn, nil
}

// conflictFor 已有记录的统一出口：拉黑 ⇒ 禁止，其他 ⇒ 冲突
func (s *ConnectionService) conflictFor(existing *model.Connection) error {
	if existing.Status == model.ConnectionBlocked {
		return apperr.Forbidden("无法向该用户发起联系请求")
	}
	return apperr.Conflict(existing)
}

// Accept 接受待处理的联系请求，只有被请求方可以操作
func (s *ConnectionService) Accept(ctx context.Context, viewer, connectionID string) (*model.Connection, error) {
	var conn model.Connection
	if err := s.db.WithContext(ctx).Where("id = ?", connectionID).First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if conn.AddresseeID != viewer {
		return nil, apperr.Forbidden("只有被请求方可以接受请求")
	}
	if conn.Status != model.ConnectionPending {
		return nil, apperr.Validation("只有待处理的请求可以被接受")
	}

	conn.Status = model.ConnectionAccepted
	conn.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&conn).Error; err != nil {
		return nil, err
	}

	return &conn, nil
}

// Block 拉黑另一个用户，双方任意一方都可以操作
// blocked 是终态，不会自动回到 pending 或 accepted；
// 没有已有记录时直接创建一条 blocked 记录
func (s *ConnectionService) Block(ctx context.Context, viewer, other string) (*model.Connection, error) {
	if viewer == other {
		return nil, apperr.Validation("不能拉黑自己")
	}

	pairKey := model.PairKey(viewer, other)

	var conn model.Connection
	err := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&conn).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		// 没有已有关系，直接建立拉黑记录
		now := time.Now()
		conn = model.Connection{
			ID:          uuid.New().String(),
			RequesterID: viewer,
			AddresseeID: other,
			PairKey:     pairKey,
			Status:      model.ConnectionBlocked,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if cerr := s.db.WithContext(ctx).Create(&conn).Error; cerr != nil {
			if errors.Is(cerr, gorm.ErrDuplicatedKey) {
				// 并发创建，改走更新路径
				if rerr := s.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&conn).Error; rerr != nil {
					return nil, rerr
				}
				return s.blockExisting(ctx, &conn, viewer, other)
			}
			return nil, cerr
		}
		return &conn, nil
	}

	return s.blockExisting(ctx, &conn, viewer, other)
}

// blockExisting 把已有记录转为 blocked，方向翻转为拉黑发起方
func (s *ConnectionService) blockExisting(ctx context.Context, conn *model.Connection, viewer, other string) (*model.Connection, error) {
	if conn.Status == model.ConnectionBlocked {
		// 已经是终态，保持原记录（包括原拉黑方向）
		return conn, nil
	}

	conn.RequesterID = viewer
	conn.AddresseeID = other
	conn.Status = model.ConnectionBlocked
	conn.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

// ListConnections 列出用户的关系记录，支持按状态和方向过滤
// typ: sent-我发起的, received-我收到的, 空-全部
func (s *ConnectionService) ListConnections(ctx context.Context, viewer, status, typ string) ([]model.Connection, error) {
	query := s.db.WithContext(ctx).Model(&model.Connection{})

	switch typ {
	case "sent":
		query = query.Where("requester_id = ?", viewer)
	case "received":
		query = query.Where("addressee_id = ?", viewer)
	default:
		query = query.Where("requester_id = ? OR addressee_id = ?", viewer, viewer)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var connections []model.Connection
	if err := query.Order("created_at desc").Find(&connections).Error; err != nil {
		return nil, err
	}

	return connections, nil
}
