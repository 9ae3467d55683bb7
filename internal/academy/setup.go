package academy

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移学院相关的表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Article{}, &Progress{}); err != nil {
		return fmt.Errorf("无法迁移academy表: %w", err)
	}
	fmt.Println("Academy数据库表迁移成功。")
	return nil
}
