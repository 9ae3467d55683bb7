package user

import (
	"time"
)

// 用户身份类型
const (
	// TypeGuest 表示由设备创建的临时访客身份
	TypeGuest = "guest"
	// TypeSynced 表示已通过同步码合并的持久身份
	TypeSynced = "synced"
)

// GuestIDFloor 是访客代理ID的下界。
// 访客ID从 [10^12, 2^53) 中随机分配，永远不会与平台分配的真实用户ID冲突。
const GuestIDFloor = int64(1_000_000_000_000)

// User 定义了用户在数据库中的持久化模型。
// 每个 user_id 只有一行存活记录；访客行在合并完成后被硬删除。
type User struct {
	// UserID 是用户的主键。持久用户使用外部平台ID，访客使用保留区间内的随机代理ID。
	UserID int64 `gorm:"primaryKey;autoIncrement:false;column:user_id"`

	Username  string
	Birthdate *time.Time

	// Score 是正负分数增量的单调净值，没有下限
	Score int

	// Level 既是进度指针，也是下一次答题提交的防重放令牌
	Level int `gorm:"default:1"`

	// Energy 是每日可恢复的动作预算，取值 [0, maxEnergy]
	Energy int

	// LastActiveDate 是上一次能量重置发生的UTC日期
	LastActiveDate time.Time

	// DeviceID 是访客的设备绑定键，用于访客到持久身份的关联
	DeviceID *string `gorm:"uniqueIndex"`

	// TokenHash 是不透明承载凭证的SHA-256摘要，按摘要精确匹配解析身份
	TokenHash string `gorm:"size:64;uniqueIndex"`

	// UserType 取值 guest 或 synced
	UserType string `gorm:"size:16"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 固定表名，能量账本以裸表名访问同一张表。
func (User) TableName() string {
	return "users"
}
