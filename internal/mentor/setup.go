package mentor

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移导师对话表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Message{}); err != nil {
		return fmt.Errorf("无法迁移mentor表: %w", err)
	}
	fmt.Println("Mentor数据库表迁移成功。")
	return nil
}
