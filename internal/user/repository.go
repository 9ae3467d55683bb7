package user

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnauthenticated 表示承载凭证缺失或无法解析到任何用户。
var ErrUnauthenticated = errors.New("凭证无效")

// guestIDSpan 是访客代理ID区间的宽度，上界取2^53以保持JSON安全整数。
const guestIDSpan = int64(1)<<53 - GuestIDFloor

// Repository 封装了用户身份记录的所有存储访问。
// 关系型数据库是唯一的事实来源，Redis只承载排行榜加速结构。
type Repository struct {
	db  *gorm.DB
	rdb *redis.Client
	now func() time.Time
}

// NewRepository 创建一个新的用户仓库。rdb 可以为 nil，排行榜将退化为SQL查询。
func NewRepository(db *gorm.DB, rdb *redis.Client) *Repository {
	return &Repository{db: db, rdb: rdb, now: time.Now}
}

// DB 暴露底层数据库句柄，供需要跨模块事务的协调器使用。
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// GetByID 按主键读取用户。不存在时返回 (nil, nil)。
func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取用户失败: %w", err)
	}
	return &u, nil
}

// Upsert 以主键为冲突目标插入或更新用户档案。
// 已存在时只覆盖用户名（以及显式提供的生日），不触碰任何游戏状态。
func (r *Repository) Upsert(ctx context.Context, userID int64, username string, birthdate *time.Time) error {
	assignments := map[string]interface{}{"username": username}
	if birthdate != nil {
		assignments["birthdate"] = *birthdate
	}

	u := User{
		UserID:         userID,
		Username:       username,
		Birthdate:      birthdate,
		Level:          1,
		LastActiveDate: todayUTC(r.now()),
		UserType:       TypeSynced,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&u).Error
	if err != nil {
		return fmt.Errorf("写入用户失败: %w", err)
	}
	return nil
}

// CreateGuest 创建一个新的访客身份并返回其明文凭证。
// 代理ID随机分配，主键或设备ID冲突时重试有限次数。
func (r *Repository) CreateGuest(ctx context.Context, username string, birthdate *time.Time, deviceID *string, maxEnergy int) (*User, string, error) {
	token, err := NewToken()
	if err != nil {
		return nil, "", err
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := randomGuestID()
		if err != nil {
			return nil, "", err
		}

		u := User{
			UserID:         id,
			Username:       username,
			Birthdate:      birthdate,
			Level:          1,
			Energy:         maxEnergy,
			LastActiveDate: todayUTC(r.now()),
			DeviceID:       deviceID,
			TokenHash:      HashToken(token),
			UserType:       TypeGuest,
		}
		err = r.db.WithContext(ctx).Create(&u).Error
		if err == nil {
			return &u, token, nil
		}
		if database.IsDuplicateKeyError(err) {
			// 代理ID撞车的概率极低，换一个ID重试
			continue
		}
		return nil, "", fmt.Errorf("创建访客失败: %w", err)
	}
	return nil, "", errors.New("无法分配访客ID")
}

// IssueToken 为已存在的用户轮换并返回一个新的承载凭证。
func (r *Repository) IssueToken(ctx context.Context, userID int64) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Update("token_hash", HashToken(token))
	if res.Error != nil {
		return "", fmt.Errorf("写入凭证失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// ResolveToken 将不透明凭证解析为持久的用户ID。
func (r *Repository) ResolveToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthenticated
	}
	var u User
	err := r.db.WithContext(ctx).
		Select("user_id").
		Where("token_hash = ?", HashToken(token)).
		Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("解析凭证失败: %w", err)
	}
	return u.UserID, nil
}

// FindByDevice 按设备绑定键查找访客身份。不存在时返回 (nil, nil)。
func (r *Repository) FindByDevice(ctx context.Context, deviceID string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("按设备查找用户失败: %w", err)
	}
	return &u, nil
}

// Leaderboard 返回按分数降序排列的前若干名用户。
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Order("score DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("读取排行榜失败: %w", err)
	}
	return users, nil
}

// CountUsers 返回用户总数。
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计用户数失败: %w", err)
	}
	return count, nil
}

// randomGuestID 从保留区间内抽取一个随机代理ID。
func randomGuestID() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("无法生成访客ID: %w", err)
	}
	n := int64(binary.BigEndian.Uint64(b[:]) >> 11) // 保留53位
	return GuestIDFloor + n%guestIDSpan, nil
}

// todayUTC 返回给定时刻所在UTC日期的零点。
func todayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
