package journal

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移日记表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("无法迁移journal表: %w", err)
	}
	fmt.Println("Journal数据库表迁移成功。")
	return nil
}
