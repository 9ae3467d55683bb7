package user

import (
	"context"
	"fmt"
	"testing"
	"time"

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
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func TestCreateGuestAndResolveToken(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	deviceID := "device-abc"
	u, token, err := repo.CreateGuest(ctx, "Marcus", nil, &deviceID, 5)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// 代理ID落在保留区间内，且是JSON安全整数
	assert.GreaterOrEqual(t, u.UserID, GuestIDFloor)
	assert.Less(t, u.UserID, int64(1)<<53)
	assert.Equal(t, TypeGuest, u.UserType)
	assert.Equal(t, 5, u.Energy)
	assert.Equal(t, 1, u.Level)

	// 数据库中只存摘要，明文凭证可以解析回用户
	assert.Equal(t, HashToken(token), u.TokenHash)
	id, err := repo.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, id)

	_, err = repo.ResolveToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = repo.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueTokenRotates(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	u, oldToken, err := repo.CreateGuest(ctx, "Marcus", nil, nil, 5)
	require.NoError(t, err)

	newToken, err := repo.IssueToken(ctx, u.UserID)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, newToken)

	// 旧凭证立即失效
	_, err = repo.ResolveToken(ctx, oldToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	id, err := repo.ResolveToken(ctx, newToken)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, id)

	_, err = repo.IssueToken(ctx, 999)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpsertKeepsGameState(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 100, "Marcus", nil))

	// 模拟已有的游戏进度
	require.NoError(t, db.Model(&User{}).Where("user_id = ?", 100).
		Updates(map[string]interface{}{"score": 77, "level": 4}).Error)

	// 再次注册只更新档案，不触碰游戏状态
	require.NoError(t, repo.Upsert(ctx, 100, "Marcus Aurelius", nil))

	u, err := repo.GetByID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Marcus Aurelius", u.Username)
	assert.Equal(t, 77, u.Score)
	assert.Equal(t, 4, u.Level)
}

func TestFindByDevice(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	deviceID := "device-xyz"
	created, _, err := repo.CreateGuest(ctx, "Marcus", nil, &deviceID, 5)
	require.NoError(t, err)

	found, err := repo.FindByDevice(ctx, deviceID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.UserID, found.UserID)

	missing, err := repo.FindByDevice(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGlobalRankFallsBackToSQL(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	for i, score := range []int{300, 200, 100} {
		require.NoError(t, db.Create(&User{
			UserID:         int64(i + 1),
			Score:          score,
			Level:          1,
			LastActiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			TokenHash:      fmt.Sprintf("hash-%d", i),
			UserType:       TypeSynced,
		}).Error)
	}

	rank, err := repo.GlobalRank(ctx, 3, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rank)

	rank, err = repo.GlobalRank(ctx, 1, 300)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rank)
}

func TestRankName(t *testing.T) {
	assert.Equal(t, "Novice", RankName(0))
	assert.Equal(t, "Novice", RankName(49))
	assert.Equal(t, "Seeker", RankName(50))
	assert.Equal(t, "Sage", RankName(2500))
	assert.Equal(t, "Stoic Master", RankName(5000))
	assert.Equal(t, "Stoic Master", RankName(99999))

	assert.Equal(t, 50, NextRankScore(0))
	assert.Equal(t, 5000, NextRankScore(2600))
	assert.Equal(t, 0, NextRankScore(5000))
}
