package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/stoic-trainer-backend/internal/academy"
	"github.com/SlpAus/stoic-trainer-backend/internal/account"
	"github.com/SlpAus/stoic-trainer-backend/internal/gym"
	"github.com/SlpAus/stoic-trainer-backend/internal/journal"
	"github.com/SlpAus/stoic-trainer-backend/internal/mentor"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"gorm.io/gorm"
)

// InitializeApplication 是应用首次启动时执行的总入口：
// 迁移所有表结构，然后预热排行榜缓存。
func InitializeApplication(db *gorm.DB, users *user.Repository) error {
	fmt.Println("开始应用首次初始化...")

	if err := user.PrimeDB(db); err != nil {
		return err
	}
	if err := gym.PrimeDB(db); err != nil {
		return err
	}
	if err := journal.PrimeDB(db); err != nil {
		return err
	}
	if err := mentor.PrimeDB(db); err != nil {
		return err
	}
	if err := academy.PrimeDB(db); err != nil {
		return err
	}
	if err := account.PrimeDB(db); err != nil {
		return err
	}

	// 排行榜缓存预热失败不阻塞启动，读路径有数据库兜底
	if err := users.WarmupRanking(context.Background()); err != nil {
		fmt.Printf("警告: 排行榜缓存预热失败: %v\n", err)
	}

	fmt.Println("应用初始化完成！")
	return nil
}
