package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/SlpAus/stoic-trainer-backend/pkg/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sweepInterval 是后台清理过期同步码的周期。
const sweepInterval = time.Minute

// Repository 封装同步码的存储访问。
type Repository struct {
	db      *gorm.DB
	ttl     time.Duration
	codeLen int
	now     func() time.Time
}

// NewRepository 创建同步码仓库。
func NewRepository(db *gorm.DB, ttl time.Duration, codeLen int) *Repository {
	return &Repository{db: db, ttl: ttl, codeLen: codeLen, now: time.Now}
}

// IssueCode 为用户签发一个新的同步码，覆盖其之前的码。
// 码与其他用户撞车时换一个重试。
func (r *Repository) IssueCode(ctx context.Context, userID int64) (string, time.Time, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomDigits(r.codeLen)
		if err != nil {
			return "", time.Time{}, err
		}
		expiresAt := r.now().UTC().Add(r.ttl)

		sc := SyncCode{UserID: userID, Code: code, ExpiresAt: expiresAt}
		err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"code":       code,
				"expires_at": expiresAt,
			}),
		}).Create(&sc).Error
		if err == nil {
			return code, expiresAt, nil
		}
		if database.IsDuplicateKeyError(err) {
			// 撞上了其他用户的未过期码
			continue
		}
		return "", time.Time{}, fmt.Errorf("签发同步码失败: %w", err)
	}
	return "", time.Time{}, fmt.Errorf("无法分配同步码")
}

// SweepExpired 删除所有已过期的同步码，返回删除的行数。
func (r *Repository) SweepExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now().UTC()).
		Delete(&SyncCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("清理过期同步码失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// StartSweeper 启动后台循环，周期性清理过期的同步码，直到收到停机信号。
func (r *Repository) StartSweeper(handle *lifecycle.Handle) {
	defer handle.Close()

	for {
		if err := handle.Sleep(sweepInterval); err != nil {
			return
		}
		if n, err := r.SweepExpired(handle.Ctx()); err != nil {
			fmt.Printf("同步码清理失败: %v\n", err)
		} else if n > 0 {
			fmt.Printf("已清理 %d 个过期同步码。\n", n)
		}
	}
}

// randomDigits 生成指定位数的随机数字串。
// 丢弃250以上的字节做拒绝采样，保证十个数字等概率出现。
func randomDigits(n int) (string, error) {
	digits := make([]byte, 0, n)
	var buf [32]byte
	for len(digits) < n {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("无法生成同步码: %w", err)
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			digits = append(digits, '0'+b%10)
			if len(digits) == n {
				break
			}
		}
	}
	return string(digits), nil
}
