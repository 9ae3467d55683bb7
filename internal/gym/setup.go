package gym

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移答题相关的表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Scenario{}, &Move{}); err != nil {
		return fmt.Errorf("无法迁移gym表: %w", err)
	}
	fmt.Println("Gym数据库表迁移成功。")
	return nil
}
