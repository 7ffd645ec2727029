package unread

import (
	"context"
	"log"
	"sync"
	"time"

	"ridelink/internal/config"
	"ridelink/internal/database"
	"ridelink/internal/feed"

	"gorm.io/gorm"
)

// Reconciler 维护单个用户的实时未读消息数
// 两条独立的更新路径喂给同一个对账逻辑：
//   - 变更频道的 INSERT 事件做增量 +1
//   - 任何 UPDATE 事件触发全量重算（变更源不区分更新了什么）
//
// 增量算术永远不是唯一的事实来源：周期性全量重算兜底，
// 修复重复或乱序事件造成的漂移
type Reconciler struct {
	db       *gorm.DB
	viewerID string

	// Interval 全量重算周期，Run 之前可以覆盖
	Interval time.Duration

	mu    sync.RWMutex
	count int64

	updates chan int64
}

// NewReconciler 创建某个用户的未读数对账器
// 重算周期取自配置，未配置时默认30秒
func NewReconciler(viewerID string) *Reconciler {
	interval := time.Duration(config.GlobalConfig.Unread.RecountInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		db:       database.GetDB(),
		viewerID: viewerID,
		Interval: interval,
		updates:  make(chan int64, 16),
	}
}

// Count 当前未读数
func (r *Reconciler) Count() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Updates 未读数变化通知通道
func (r *Reconciler) Updates() <-chan int64 {
	return r.updates
}

// Run 驱动对账循环，直到 ctx 取消
// events 是该用户的变更事件流；订阅和定时器随 ctx 一起释放，
// 不会对已经不被观察的用户遗留后台工作
func (r *Reconciler) Run(ctx context.Context, events <-chan feed.Event) {
	// 启动时先算权威基线，并无条件推送一次初始值
	r.recompute(ctx)
	select {
	case r.updates <- r.Count():
	default:
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	defer close(r.updates)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				// 订阅断开，退化为纯轮询
				events = nil
				continue
			}
			r.apply(ctx, event)

		case <-ticker.C:
			// 周期性重算是对丢失/重复事件的正确性兜底
			r.recompute(ctx)
		}
	}
}

// apply 处理一条变更事件
func (r *Reconciler) apply(ctx context.Context, event feed.Event) {
	switch event.Type {
	case feed.EventInsert:
		// 只有发给自己的未读消息才计数
		if event.Message.SenderID != r.viewerID && !event.Message.IsRead {
			r.setCount(r.Count() + 1)
		}
	case feed.EventUpdate:
		// 更新事件太粗，放弃增量，直接重算
		r.recompute(ctx)
	}
}

// recompute 全量重算权威未读数
// 失败时吞掉错误、保留上一次的值，不把瞬时故障暴露给用户
func (r *Reconciler) recompute(ctx context.Context) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE m.is_read = ? AND m.sender_id != ?
		  AND (c.participant_1 = ? OR c.participant_2 = ?)
	`, false, r.viewerID, r.viewerID, r.viewerID).Scan(&count).Error
	if err != nil {
		log.Printf("重算用户 %s 的未读数失败: %v", r.viewerID, err)
		return
	}

	r.setCount(count)
}

// setCount 更新计数并推送变化通知
func (r *Reconciler) setCount(count int64) {
	r.mu.Lock()
	changed := r.count != count
	r.count = count
	r.mu.Unlock()

	if !changed {
		return
	}

	select {
	case r.updates <- count:
	default:
		// 消费方没跟上，丢掉中间值，下一次推送会带上最新值
	}
}
