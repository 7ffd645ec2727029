package model

import (
	"time"

	"gorm.io/gorm"
)

// 连接状态
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionBlocked  = "blocked"
)

// User 用户模型
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex" json:"username"`
	Password  string    `gorm:"type:varchar(100)" json:"-"`
	Nickname  string    `gorm:"type:varchar(50)" json:"nickname"`
	AvatarURL string    `gorm:"type:varchar(255)" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connection 两个用户之间的联系请求/关系
// PairKey 是无序对 {requester, addressee} 的规范化键，
// 唯一索引保证同一对用户最多只有一条记录（与方向无关）
type Connection struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RequesterID string    `gorm:"type:varchar(36);index" json:"requester_id"`
	AddresseeID string    `gorm:"type:varchar(36);index" json:"addressee_id"`
	PairKey     string    `gorm:"type:varchar(73);uniqueIndex" json:"-"`
	Status      string    `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, accepted, blocked
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation 会话，恰好两个参与者，可选锚定到一个行程
// PairKey 同 Connection：同一对用户最多一个会话，与 ride_id 无关
type Conversation struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Participant1 string    `gorm:"column:participant_1;type:varchar(36);index" json:"participant_1"`
	Participant2 string    `gorm:"column:participant_2;type:varchar(36);index" json:"participant_2"`
	PairKey      string    `gorm:"type:varchar(73);uniqueIndex" json:"-"`
	RideID       string    `gorm:"type:varchar(36);index" json:"ride_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message 会话内的消息
type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);index" json:"conversation_id"`
	SenderID       string    `gorm:"type:varchar(36);index" json:"sender_id"`
	Content        string    `gorm:"type:text" json:"content"`
	IsRead         bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Notification 通知，归接收者所有
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index" json:"user_id"`
	Type      string    `gorm:"type:varchar(30)" json:"type"` // connection_request, new_message
	Content   string    `gorm:"type:varchar(255)" json:"content"`
	RelatedID string    `gorm:"type:varchar(36)" json:"related_id"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Ride 行程
type Ride struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DriverID      string    `gorm:"type:varchar(36);index" json:"driver_id"`
	Origin        string    `gorm:"type:varchar(100)" json:"origin"`
	Destination   string    `gorm:"type:varchar(100)" json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	Seats         int       `gorm:"default:1" json:"seats"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RouteWatch 路线订阅，有新行程匹配时通知用户
type RouteWatch struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index" json:"user_id"`
	Origin      string    `gorm:"type:varchar(100)" json:"origin"`
	Destination string    `gorm:"type:varchar(100)" json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
}

// Report 用户举报
type Report struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReporterID string    `gorm:"type:varchar(36);index" json:"reporter_id"`
	ReportedID string    `gorm:"type:varchar(36);index" json:"reported_id"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// BugReport 问题反馈
type BugReport struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index" json:"user_id"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// LegalAcceptance 法律条款同意记录
type LegalAcceptance struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string    `gorm:"type:varchar(36);index" json:"user_id"`
	Document   string    `gorm:"type:varchar(50)" json:"document"` // terms, privacy
	AcceptedAt time.Time `json:"accepted_at"`
}

// PairKey 把无序对 {a,b} 规范化为一个确定的键
// 唯一索引建立在这个键上，保证 (a,b) 和 (b,a) 指向同一条记录
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// SetupDatabase 初始化数据库表结构
func SetupDatabase(db *gorm.DB) error {
	// 自动迁移表结构
	return db.AutoMigrate(
		&User{},
		&Connection{},
		&Conversation{},
		&Message{},
		&Notification{},
		&Ride{},
		&RouteWatch{},
		&Report{},
		&BugReport{},
		&LegalAcceptance{},
	)
}
