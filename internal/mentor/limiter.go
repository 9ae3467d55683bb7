package mentor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// Verdict 是一次配额检查的结论。
type Verdict string

const (
	// VerdictOK 表示请求被放行且已被记录
	VerdictOK Verdict = "ok"
	// VerdictCooldown 表示距离上一次请求的间隔不足
	VerdictCooldown Verdict = "cooldown"
	// VerdictLimitReached 表示当日请求数已达上限
	VerdictLimitReached Verdict = "limit_reached"
)

// ErrLimiterUnavailable 表示限流存储暂时不可用，请求应被拒绝而非放行。
var ErrLimiterUnavailable = errors.New("服务暂时不可用，无法校验导师配额")

// quotaScript 在Redis服务端原子地完成“检查并记录”：
// 冷却与日上限的判断和计数的推进在同一次求值内发生，
// 两个并发请求不可能都观察到“未达冷却/未达上限”而双双通过。
// KEYS[1] 上次请求时间键  KEYS[2] 当日计数键
// ARGV[1] 当前毫秒时间戳  ARGV[2] 冷却毫秒数
// ARGV[3] 日上限  ARGV[4] 计数键TTL秒  ARGV[5] 时间键TTL秒
var quotaScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) < tonumber(ARGV[2]) then
	return 'cooldown'
end
local count = tonumber(redis.call('GET', KEYS[2]) or '0')
if count >= tonumber(ARGV[3]) then
	return 'limit_reached'
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[5])
redis.call('INCR', KEYS[2])
redis.call('EXPIRE', KEYS[2], ARGV[4])
return 'ok'
`)

// Limiter 实施导师请求的最小间隔与每日上限。
// 日界与能量账本一致，统一使用UTC。
type Limiter struct {
	rdb        *redis.Client
	cooldown   time.Duration
	dailyLimit int
	now        func() time.Time
}

// NewLimiter 创建导师限流器。
func NewLimiter(rdb *redis.Client, cooldown time.Duration, dailyLimit int) *Limiter {
	return &Limiter{rdb: rdb, cooldown: cooldown, dailyLimit: dailyLimit, now: time.Now}
}

// Check 对一次导师请求做原子的检查并记录。
// 只有返回VerdictOK时本次请求才被计入配额。
func (l *Limiter) Check(ctx context.Context, userID int64) (Verdict, error) {
	if l.rdb == nil || !database.IsRedisHealthy() {
		return "", ErrLimiterUnavailable
	}

	now := l.now().UTC()
	day := now.Format("2006-01-02")
	lastKey := fmt.Sprintf("mentor:last:%d", userID)
	countKey := fmt.Sprintf("mentor:quota:%d:%s", userID, day)

	// 计数键活到当日结束即可，留一小时缓冲
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	countTTL := int64(endOfDay.Sub(now)/time.Second) + 3600

	lastTTL := int64(l.cooldown/time.Second)*2 + 1

	res, err := quotaScript.Run(ctx, l.rdb,
		[]string{lastKey, countKey},
		now.UnixMilli(),
		l.cooldown.Milliseconds(),
		l.dailyLimit,
		countTTL,
		lastTTL,
	).Text()
	if err != nil {
		return "", fmt.Errorf("执行配额脚本失败: %w", err)
	}

	switch Verdict(res) {
	case VerdictOK, VerdictCooldown, VerdictLimitReached:
		return Verdict(res), nil
	default:
		return "", fmt.Errorf("配额脚本返回了未知结论: %q", res)
	}
}
