package user

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// RankingKey 是一个 Redis Sorted Set 的键，用于存储用户的分数排名。
// Score: 用户的总分
// Member: 用户ID的十进制字符串
const RankingKey = "user:ranking"

// UpdateRankingScore 将用户的最新分数写入排行榜缓存。
// 这是尽力而为的加速操作：Redis不可用时静默跳过，SQL仍是事实来源。
func (r *Repository) UpdateRankingScore(ctx context.Context, userID int64, score int) {
	if r.rdb == nil || !database.IsRedisHealthy() {
		return
	}
	member := strconv.FormatInt(userID, 10)
	if err := r.rdb.ZAdd(ctx, RankingKey, redis.Z{Score: float64(score), Member: member}).Err(); err != nil {
		fmt.Printf("更新排行榜缓存失败: %v\n", err)
	}
}

// RemoveFromRanking 将一个已删除的身份从排行榜缓存中移除。
func (r *Repository) RemoveFromRanking(ctx context.Context, userID int64) {
	if r.rdb == nil || !database.IsRedisHealthy() {
		return
	}
	member := strconv.FormatInt(userID, 10)
	if err := r.rdb.ZRem(ctx, RankingKey, member).Err(); err != nil {
		fmt.Printf("移除排行榜成员失败: %v\n", err)
	}
}

// GlobalRank 返回用户按分数的全局名次（从1开始）。
// 优先使用Redis的ZRevRank，缓存不可用时退化为SQL计数。
func (r *Repository) GlobalRank(ctx context.Context, userID int64, score int) (int64, error) {
	if r.rdb != nil && database.IsRedisHealthy() {
		member := strconv.FormatInt(userID, 10)
		rank, err := r.rdb.ZRevRank(ctx, RankingKey, member).Result()
		if err == nil {
			return rank + 1, nil
		}
		// 成员缺失或Redis出错，落回SQL
	}

	var ahead int64
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("score > ?", score).
		Count(&ahead).Error
	if err != nil {
		return 0, fmt.Errorf("计算全局名次失败: %w", err)
	}
	return ahead + 1, nil
}

// WarmupRanking 从SQL加载所有用户分数，重建排行榜缓存。
// 在应用启动时调用一次。
func (r *Repository) WarmupRanking(ctx context.Context) error {
	if r.rdb == nil {
		return nil
	}

	var users []User
	if err := r.db.WithContext(ctx).Select("user_id", "score").Find(&users).Error; err != nil {
		return fmt.Errorf("无法读取用户分数: %w", err)
	}

	pipe := r.rdb.Pipeline()
	// 先清空旧的缓存，确保数据一致性
	pipe.Del(ctx, RankingKey)
	for _, u := range users {
		pipe.ZAdd(ctx, RankingKey, redis.Z{
			Score:  float64(u.Score),
			Member: strconv.FormatInt(u.UserID, 10),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("预热排行榜缓存失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户到排行榜缓存。\n", len(users))
	return nil
}
