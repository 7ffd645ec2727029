package feed

import (
	"context"
	"encoding/json"
	"log"

	"ridelink/internal/model"
	"ridelink/internal/redisclient"
)

// 事件类型
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
)

// 每个用户一个频道，消息表的行变更推送到双方参与者的频道
const channelPrefix = "feed:messages:"

// Event 消息表的行变更事件
// 变更源是至少一次投递，可能重复或乱序；消费方必须能容忍
type Event struct {
	Type    string        `json:"type"` // INSERT / UPDATE
	Message model.Message `json:"message"`
}

// PublishMessageEvent 向每个参与者的频道发布一条行变更事件
// 发布是尽力而为的：失败只记日志，不影响写入本身，
// 订阅方的周期性全量重算会补平丢失的事件
func PublishMessageEvent(ctx context.Context, eventType string, msg model.Message, userIDs ...string) {
	if !redisclient.IsRedisEnabled() {
		return
	}

	event := Event{Type: eventType, Message: msg}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("序列化变更事件失败: %v", err)
		return
	}

	client := redisclient.GetRedisClient()
	for _, userID := range userIDs {
		if err := client.Publish(ctx, channelPrefix+userID, payload).Err(); err != nil {
			log.Printf("发布变更事件到用户 %s 失败: %v", userID, err)
		}
	}
}

// SubscribeMessages 订阅某个用户的消息变更频道
// 返回事件通道和取消函数；取消后通道关闭，订阅资源随之释放
func SubscribeMessages(ctx context.Context, userID string) (<-chan Event, func()) {
	events := make(chan Event, 64)

	if !redisclient.IsRedisEnabled() {
		// 无Redis时返回空订阅，消费方退化为纯轮询
		close(events)
		return events, func() {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	pubsub := redisclient.GetRedisClient().Subscribe(subCtx, channelPrefix+userID)

	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("解析变更事件失败: %v", err)
					continue
				}
				select {
				case events <- event:
				default:
					// 消费方积压时丢弃，周期性重算兜底
					log.Printf("用户 %s 的变更事件队列已满，丢弃一条事件", userID)
				}
			}
		}
	}()

	return events, cancel
}
