package account

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/academy"
	"github.com/SlpAus/stoic-trainer-backend/internal/gym"
	"github.com/SlpAus/stoic-trainer-backend/internal/journal"
	"github.com/SlpAus/stoic-trainer-backend/internal/mentor"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{}, &SyncCode{},
		&journal.Entry{}, &gym.Move{}, &mentor.Message{}, &academy.Progress{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, at time.Time) *Service {
	t.Helper()
	repo := NewRepository(db, 10*time.Minute, 6)
	repo.now = func() time.Time { return at }
	svc := NewService(db, repo, user.NewRepository(db, nil))
	svc.now = func() time.Time { return at }
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, id int64, userType string, score, level int) {
	t.Helper()
	require.NoError(t, db.Create(&user.User{
		UserID:         id,
		Username:       fmt.Sprintf("user-%d", id),
		Score:          score,
		Level:          level,
		Energy:         5,
		LastActiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TokenHash:      fmt.Sprintf("hash-%d", id),
		UserType:       userType,
	}).Error)
}

func seedCode(t *testing.T, db *gorm.DB, targetID int64, code string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&SyncCode{
		UserID:    targetID,
		Code:      code,
		ExpiresAt: expiresAt,
	}).Error)
}

const guestID = user.GuestIDFloor + 7

func TestSyncByCodeMergesGuest(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedUser(t, db, 100, user.TypeSynced, 100, 5)
	seedUser(t, db, guestID, user.TypeGuest, 30, 8)
	seedCode(t, db, 100, "123456", now.Add(5*time.Minute))

	require.NoError(t, db.Create(&journal.Entry{UserID: guestID, Text: "evening reflection"}).Error)
	require.NoError(t, db.Create(&gym.Move{UserID: guestID, Level: 7, ScoreDelta: 10}).Error)
	require.NoError(t, db.Create(&mentor.Message{UserID: guestID, Role: mentor.RoleUser, Content: "hello"}).Error)
	require.NoError(t, db.Create(&academy.Progress{UserID: guestID, ArticleID: 1}).Error)
	require.NoError(t, db.Create(&academy.Progress{UserID: guestID, ArticleID: 2}).Error)
	// 目标身份已经学过文章1，合并后这条重复进度被丢弃
	require.NoError(t, db.Create(&academy.Progress{UserID: 100, ArticleID: 1}).Error)

	merged, err := svc.SyncByCode(context.Background(), "123456", guestID)
	require.NoError(t, err)

	// 分数相加，level取较大值
	assert.EqualValues(t, 100, merged.UserID)
	assert.Equal(t, 130, merged.Score)
	assert.Equal(t, 8, merged.Level)
	assert.Equal(t, user.TypeSynced, merged.UserType)
	assert.Equal(t, fmt.Sprintf("user-%d", guestID), merged.Username)

	// 访客行已被删除
	var guestCount int64
	require.NoError(t, db.Model(&user.User{}).Where("user_id = ?", guestID).Count(&guestCount).Error)
	assert.EqualValues(t, 0, guestCount)

	// 所有记录都改挂到持久身份上
	var n int64
	require.NoError(t, db.Model(&journal.Entry{}).Where("user_id = ?", int64(100)).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Model(&gym.Move{}).Where("user_id = ?", int64(100)).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Model(&mentor.Message{}).Where("user_id = ?", int64(100)).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// 学习进度：文章2被转移，文章1保留目标原记录，访客副本消失
	require.NoError(t, db.Model(&academy.Progress{}).Where("user_id = ?", int64(100)).Count(&n).Error)
	assert.EqualValues(t, 2, n)
	require.NoError(t, db.Model(&academy.Progress{}).Where("user_id = ?", guestID).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestSyncByCodeSingleUse(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedUser(t, db, 100, user.TypeSynced, 0, 1)
	seedUser(t, db, guestID, user.TypeGuest, 10, 2)
	seedCode(t, db, 100, "123456", now.Add(5*time.Minute))

	_, err := svc.SyncByCode(context.Background(), "123456", guestID)
	require.NoError(t, err)

	// 第二次消费同一个码必须失败
	_, err = svc.SyncByCode(context.Background(), "123456", guestID)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSyncByCodeExpired(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedUser(t, db, 100, user.TypeSynced, 0, 1)
	seedUser(t, db, guestID, user.TypeGuest, 10, 2)
	seedCode(t, db, 100, "123456", now.Add(-time.Minute))

	_, err := svc.SyncByCode(context.Background(), "123456", guestID)
	assert.ErrorIs(t, err, ErrInvalidCode)

	// 失败的合并不触碰任何数据
	var guest user.User
	require.NoError(t, db.Where("user_id = ?", guestID).Take(&guest).Error)
	assert.Equal(t, 10, guest.Score)
}

func TestSyncByCodeUnknownCode(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	seedUser(t, db, guestID, user.TypeGuest, 0, 1)

	_, err := svc.SyncByCode(context.Background(), "000000", guestID)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSyncByCodeWithoutGuestData(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedUser(t, db, 100, user.TypeSynced, 42, 3)
	seedCode(t, db, 100, "123456", now.Add(5*time.Minute))

	// 调用者没有对应的访客行：码被消费，目标身份原样返回
	merged, err := svc.SyncByCode(context.Background(), "123456", user.GuestIDFloor+99)
	require.NoError(t, err)
	assert.Equal(t, 42, merged.Score)
	assert.Equal(t, 3, merged.Level)

	var codes int64
	require.NoError(t, db.Model(&SyncCode{}).Count(&codes).Error)
	assert.EqualValues(t, 0, codes)
}

func TestIssueCodeReplacesPrevious(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)
	seedUser(t, db, 100, user.TypeSynced, 0, 1)

	_, _, err := svc.IssueCode(context.Background(), 100)
	require.NoError(t, err)
	second, expiresAt, err := svc.IssueCode(context.Background(), 100)
	require.NoError(t, err)

	assert.Len(t, second, 6)
	assert.True(t, expiresAt.After(now))

	// 每个用户同一时刻至多一个有效码
	var codes []SyncCode
	require.NoError(t, db.Find(&codes).Error)
	require.Len(t, codes, 1)
	assert.Equal(t, second, codes[0].Code)
}

func TestIssueCodeUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	_, _, err := svc.IssueCode(context.Background(), 999)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := randomDigits(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, ch >= '0' && ch <= '9', "非数字字符: %q", ch)
		}
	}

	// 长码需要多轮采样填满
	long, err := randomDigits(100)
	require.NoError(t, err)
	assert.Len(t, long, 100)
}

func TestSweepExpired(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewRepository(db, 10*time.Minute, 6)
	repo.now = func() time.Time { return now }

	seedCode(t, db, 1, "111111", now.Add(-time.Minute))
	seedCode(t, db, 2, "222222", now.Add(time.Minute))

	n, err := repo.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var remaining []SyncCode
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "222222", remaining[0].Code)
}
