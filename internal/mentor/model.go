package mentor

import (
	"time"
)

// 对话角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 是一条持久化的导师对话记录。
type Message struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	Role      string `gorm:"size:16"`
	Content   string
	CreatedAt time.Time
}

// TableName 固定表名。
func (Message) TableName() string {
	return "mentor_messages"
}
