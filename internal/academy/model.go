package academy

import (
	"time"
)

// Article 是学院的一篇文章，按日历（月/日）组织。
type Article struct {
	ID      uint `gorm:"primaryKey"`
	Day     int
	Month   int
	Title   string
	Content string
}

// TableName 固定表名。
func (Article) TableName() string {
	return "academy_articles"
}

// Progress 标记一个用户学完了一篇文章。
// (user_id, article_id) 唯一：重复学习不产生新记录。
type Progress struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex:idx_academy_user_article"`
	ArticleID uint  `gorm:"uniqueIndex:idx_academy_user_article"`
	CreatedAt time.Time
}

// TableName 固定表名。
func (Progress) TableName() string {
	return "academy_progress"
}
