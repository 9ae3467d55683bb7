package journal

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

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))
	return NewService(db)
}

func TestSaveAndHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	first, err := svc.Save(ctx, 1, "Morning reflection")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	at = at.Add(2 * time.Hour)
	svc.now = func() time.Time { return at }
	_, err = svc.Save(ctx, 1, "Midday note")
	require.NoError(t, err)

	// 他人的日记不可见
	_, err = svc.Save(ctx, 2, "Someone else")
	require.NoError(t, err)

	entries, err := svc.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// 按时间降序
	assert.Equal(t, "Midday note", entries[0].Text)
	assert.Equal(t, "Morning reflection", entries[1].Text)
}

func TestDeleteChecksOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Save(ctx, 1, "Private thought")
	require.NoError(t, err)

	// 他人无法删除
	err = svc.Delete(ctx, 2, entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	require.NoError(t, svc.Delete(ctx, 1, entry.ID))

	// 再次删除视为不存在
	err = svc.Delete(ctx, 1, entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	entries, err := svc.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
