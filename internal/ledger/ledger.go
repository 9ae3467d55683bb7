package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNoEnergy 表示用户的能量已经耗尽，动作被拒绝。
var ErrNoEnergy = errors.New("能量已耗尽")

// Ledger 负责授权或拒绝消耗能量的动作。
// 所有日界判断统一使用UTC，能量的重置与扣减都通过
// 单条条件UPDATE完成，保证同一用户的并发请求不会双重生效。
type Ledger struct {
	db        *gorm.DB
	maxEnergy int
	now       func() time.Time
}

// New 创建一个新的能量账本。
func New(db *gorm.DB, maxEnergy int) *Ledger {
	return NewWithClock(db, maxEnergy, time.Now)
}

// NewWithClock 创建一个使用指定时钟的能量账本。
// 日界判断依赖时钟，依赖方注入同一个时钟可以保证各组件对“今天”达成一致。
func NewWithClock(db *gorm.DB, maxEnergy int, now func() time.Time) *Ledger {
	return &Ledger{db: db, maxEnergy: maxEnergy, now: now}
}

// Today 返回当前UTC日期的零点，作为所有每日重置的统一边界。
func (l *Ledger) Today() time.Time {
	t := l.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckEnergy 返回用户当前的能量值。
// 如果用户上次活跃日期早于今天，则先将能量原子地重置为上限。
// 同一天内重复调用是幂等的：条件UPDATE的WHERE子句保证重置最多发生一次。
// 用户不存在时返回0而非错误，调用方会因能量不足而拒绝动作。
func (l *Ledger) CheckEnergy(ctx context.Context, userID int64) (int, error) {
	today := l.Today()

	// 1. 原子重置：只有 last_active_date 严格早于今天的行会被更新
	res := l.db.WithContext(ctx).Table("users").
		Where("user_id = ? AND last_active_date < ?", userID, today).
		Updates(map[string]interface{}{
			"energy":           l.maxEnergy,
			"last_active_date": today,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("重置能量失败: %w", res.Error)
	}

	// 2. 读取（可能刚被重置的）当前值
	var row struct {
		Energy int
	}
	err := l.db.WithContext(ctx).Table("users").
		Select("energy").
		Where("user_id = ?", userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("读取能量失败: %w", err)
	}
	return row.Energy, nil
}

// DecreaseEnergy 将用户能量扣减1。
// 存储层施加 energy > 0 的下限保护：两个并发的扣减最多只有一个生效，
// 另一个会收到ErrNoEnergy。
func (l *Ledger) DecreaseEnergy(ctx context.Context, userID int64) error {
	res := l.db.WithContext(ctx).Table("users").
		Where("user_id = ? AND energy > 0", userID).
		Update("energy", gorm.Expr("energy - 1"))
	if res.Error != nil {
		return fmt.Errorf("扣减能量失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoEnergy
	}
	return nil
}
