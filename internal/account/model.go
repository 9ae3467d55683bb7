package account

import (
	"time"
)

// SyncCode 是一个短寿命的一次性同步凭证。
// 以user_id为主键：同一用户重新申请会覆盖旧码，任何时刻每个用户
// 至多存在一个有效码。消费通过条件删除完成，天然一次性。
type SyncCode struct {
	UserID    int64  `gorm:"primaryKey;autoIncrement:false;column:user_id"`
	Code      string `gorm:"size:16;uniqueIndex"`
	ExpiresAt time.Time
}

// TableName 固定表名。
func (SyncCode) TableName() string {
	return "sync_codes"
}
