package account

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移同步码表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&SyncCode{}); err != nil {
		return fmt.Errorf("无法迁移sync_codes表: %w", err)
	}
	fmt.Println("SyncCode数据库表迁移成功。")
	return nil
}
