package journal

import (
	"time"
)

// Entry 是一条用户日记。
type Entry struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index"`
	Text      string
	CreatedAt time.Time
}

// TableName 固定表名。
func (Entry) TableName() string {
	return "journal_entries"
}
