package database

import (
	"context"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

// StartRedisHealthCheck 启动后台的持续健康检查循环。
// 它周期性地Ping Redis并更新全局健康状态，直到收到停机信号。
func StartRedisHealthCheck(handle *lifecycle.Handle, rdb *redis.Client) {
	defer handle.Close()

	for {
		ctx, cancel := context.WithTimeout(Ctx, pingTimeout)
		err := rdb.Ping(ctx).Err()
		cancel()
		SetRedisHealthy(err == nil)

		if err := handle.Sleep(checkInterval); err != nil {
			return
		}
	}
}
