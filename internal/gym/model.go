package gym

import (
	"time"
)

// Scenario 是一条情境题的内容模板。
// 模板ID只决定展示内容，防重放语义始终以用户的level计数器为准。
type Scenario struct {
	ID    uint `gorm:"primaryKey"`
	Title string
	Text  string

	// 三个选项与各自的分数增量，负值代表“糟糕选择”的惩罚
	OptionA string
	ScoreA  int
	OptionB string
	ScoreB  int
	OptionC string
	ScoreC  int
}

// Move 是一条不可变的答题历史记录，用于每日小结与审计。
type Move struct {
	ID         uint  `gorm:"primaryKey"`
	UserID     int64 `gorm:"index"`
	Level      int
	ScoreDelta int
	CreatedAt  time.Time
}
