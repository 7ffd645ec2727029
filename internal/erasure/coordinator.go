package erasure

import (
	"context"
	"fmt"
	"log"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/model"
	"ridelink/internal/redisclient"

	"gorm.io/gorm"
)

// Coordinator 执行用户数据的按序级联抹除
// 前置步骤是尽力而为的：单个步骤失败只记日志继续往下走，
// 用户的被遗忘权不应该被无关表上的瞬时故障挡住。
// 资料行删除是关键步骤，失败则整体失败；
// 外部认证记录在资料行之后删除，失败不影响整体结果，
// 因为应用层访问已经随资料行一起消失了
type Coordinator struct {
	db *gorm.DB

	// deleteAuthRecord 删除外部认证记录，跨系统边界，
	// 无法参与同一个事务
	deleteAuthRecord func(ctx context.Context, userID string) error
}

// NewCoordinator 创建抹除协调器
func NewCoordinator() *Coordinator {
	return &Coordinator{
		db:               database.GetDB(),
		deleteAuthRecord: redisclient.DeleteSession,
	}
}

// erasureStep 一个有名字的抹除步骤
type erasureStep struct {
	name string
	run  func(ctx context.Context, userID string) error
}

// Erase 抹除某个用户的全部数据足迹
// 步骤顺序尊重引用依赖，后面的步骤不会留下悬空引用
// 让前面的步骤失败
func (c *Coordinator) Erase(ctx context.Context, userID string) error {
	steps := []erasureStep{
		{"通知", c.deleteNotifications},
		{"消息", c.deleteMessages},
		{"会话", c.deleteConversations},
		{"联系关系", c.deleteConnections},
		{"行程", c.deleteRides},
		{"路线订阅", c.deleteRouteWatches},
		{"举报", c.deleteReports},
		{"问题反馈", c.deleteBugReports},
		{"法律条款记录", c.deleteLegalAcceptances},
	}

	// 尽力而为的前置步骤
	for _, step := range steps {
		if err := step.run(ctx, userID); err != nil {
			log.Printf("抹除用户 %s 的%s失败（继续执行后续步骤）: %v", userID, step.name, err)
		}
	}

	// 关键步骤：资料行删除是不可回头的点
	if err := c.db.WithContext(ctx).Where("id = ?", userID).Delete(&model.User{}).Error; err != nil {
		log.Printf("删除用户 %s 的资料失败: %v", userID, err)
		return fmt.Errorf("%w: 删除用户资料失败", apperr.ErrUpstream)
	}

	// 外部认证记录在资料之后处理；失败只记日志，
	// 孤儿认证记录由调用方带外清理
	if err := c.deleteAuthRecord(ctx, userID); err != nil {
		log.Printf("删除用户 %s 的认证记录失败（需要带外清理）: %v", userID, err)
	}

	log.Printf("用户 %s 的数据抹除完成", userID)
	return nil
}

func (c *Coordinator) deleteNotifications(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Notification{}).Error
}

func (c *Coordinator) deleteMessages(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("sender_id = ?", userID).Delete(&model.Message{}).Error
}

// deleteConversations 删除用户参与的会话
// 会话里另一方的消息也一并删除，避免留下指向已删会话的消息
func (c *Coordinator) deleteConversations(ctx context.Context, userID string) error {
	var conversationIDs []string
	err := c.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("participant_1 = ? OR participant_2 = ?", userID, userID).
		Pluck("id", &conversationIDs).Error
	if err != nil {
		return err
	}
	if len(conversationIDs) == 0 {
		return nil
	}

	if err := c.db.WithContext(ctx).Where("conversation_id IN ?", conversationIDs).Delete(&model.Message{}).Error; err != nil {
		return err
	}

	return c.db.WithContext(ctx).Where("id IN ?", conversationIDs).Delete(&model.Conversation{}).Error
}

// deleteConnections 删除用户两个方向上的联系关系，
// 不给已删除的用户留下悬挂的 pending/blocked 状态
func (c *Coordinator) deleteConnections(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Delete(&model.Connection{}).Error
}

func (c *Coordinator) deleteRides(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("driver_id = ?", userID).Delete(&model.Ride{}).Error
}

func (c *Coordinator) deleteRouteWatches(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RouteWatch{}).Error
}

func (c *Coordinator) deleteReports(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("reporter_id = ? OR reported_id = ?", userID, userID).Delete(&model.Report{}).Error
}

func (c *Coordinator) deleteBugReports(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.BugReport{}).Error
}

func (c *Coordinator) deleteLegalAcceptances(ctx context.Context, userID string) error {
	return c.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.LegalAcceptance{}).Error
}
