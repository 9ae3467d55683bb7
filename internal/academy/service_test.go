package academy

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

func newTestService(t *testing.T, at time.Time) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Article{}, &Progress{}))

	svc := NewService(db, 5)
	svc.now = func() time.Time { return at }
	return svc, db
}

func TestCompleteEnforcesDailyLimit(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := uint(1); i <= 5; i++ {
		isNew, err := svc.Complete(ctx, 1, i)
		require.NoError(t, err)
		assert.True(t, isNew)
	}

	_, err := svc.Complete(ctx, 1, 6)
	assert.ErrorIs(t, err, ErrDailyLimit)

	// 其他用户不受影响
	isNew, err := svc.Complete(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestCompleteDuplicateIsNotNew(t *testing.T) {
	svc, db := newTestService(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	isNew, err := svc.Complete(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = svc.Complete(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, isNew)

	var count int64
	require.NoError(t, db.Model(&Progress{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetStatusRanks(t *testing.T) {
	svc, db := newTestService(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	status, err := svc.GetStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalLearned)
	assert.Equal(t, "Listener", status.Rank)
	assert.True(t, status.CanLearnMore)

	// 历史上学完20篇（今天只算1篇）
	for i := 1; i <= 20; i++ {
		createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		if i == 20 {
			createdAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		}
		require.NoError(t, db.Create(&Progress{
			UserID: 1, ArticleID: uint(i), CreatedAt: createdAt,
		}).Error)
	}

	status, err = svc.GetStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, status.TotalLearned)
	assert.Equal(t, "Scholar", status.Rank)
	assert.Equal(t, 1, status.DailyCount)
	assert.True(t, status.CanLearnMore)
}

func TestGetArticleAndLibrary(t *testing.T) {
	svc, db := newTestService(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, db.Create(&Article{ID: 1, Day: 1, Month: 1, Title: "On Beginnings", Content: "..."}).Error)
	require.NoError(t, db.Create(&Article{ID: 2, Day: 2, Month: 1, Title: "On Patience", Content: "..."}).Error)

	article, err := svc.GetArticle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "On Beginnings", article.Title)

	_, err = svc.GetArticle(ctx, 99)
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = svc.Complete(ctx, 1, 2)
	require.NoError(t, err)

	read, err := svc.IsRead(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, read)
	read, err = svc.IsRead(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, read)

	library, err := svc.Library(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, library, 1)
	assert.Equal(t, "On Patience", library[0].Title)
}
