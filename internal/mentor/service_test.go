package mentor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeCompleter 按配置返回固定回复或错误。
type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, turns []ChatTurn) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Message{}))
	return db
}

func newChatTestService(t *testing.T, db *gorm.DB, completer Completer) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewLimiter(rdb, time.Millisecond, 100)
	limiter.now = func() time.Time { return at }

	svc := NewService(db, limiter, completer)
	svc.now = func() time.Time { return at }
	return svc
}

func TestChatPersistsBothSides(t *testing.T) {
	db := newChatTestDB(t)
	completer := &fakeCompleter{reply: "The obstacle is the way."}
	svc := newChatTestService(t, db, completer)

	reply, err := svc.Chat(context.Background(), 1, []ChatTurn{
		{Role: RoleUser, Content: "How do I handle a setback?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The obstacle is the way.", reply)
	assert.Equal(t, 1, completer.calls)

	history, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "How do I handle a setback?", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, "The obstacle is the way.", history[1].Content)
}

func TestChatFallsBackOnCompletionFailure(t *testing.T) {
	db := newChatTestDB(t)
	completer := &fakeCompleter{err: errors.New("upstream timeout")}
	svc := newChatTestService(t, db, completer)

	// 补全失败对用户不可见，降级为固定回复
	reply, err := svc.Chat(context.Background(), 1, []ChatTurn{
		{Role: RoleUser, Content: "Are you there?"},
	})
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply)

	// 用户消息已记录，降级回复不进入历史
	history, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, RoleUser, history[0].Role)
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	db := newChatTestDB(t)
	svc := newChatTestService(t, db, &fakeCompleter{reply: "x"})

	_, err := svc.Chat(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestChatMapsLimiterVerdicts(t *testing.T) {
	db := newChatTestDB(t)
	completer := &fakeCompleter{reply: "Steady."}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewLimiter(rdb, 5*time.Second, 2)
	limiter.now = func() time.Time { return at }
	svc := NewService(db, limiter, completer)
	svc.now = limiter.now

	turns := []ChatTurn{{Role: RoleUser, Content: "hello"}}

	_, err := svc.Chat(context.Background(), 1, turns)
	require.NoError(t, err)

	// 冷却期内
	at = at.Add(time.Second)
	limiter.now = func() time.Time { return at }
	_, err = svc.Chat(context.Background(), 1, turns)
	assert.ErrorIs(t, err, ErrCooldown)

	// 达到日上限
	at = at.Add(10 * time.Second)
	limiter.now = func() time.Time { return at }
	_, err = svc.Chat(context.Background(), 1, turns)
	require.NoError(t, err)

	at = at.Add(10 * time.Second)
	limiter.now = func() time.Time { return at }
	_, err = svc.Chat(context.Background(), 1, turns)
	assert.ErrorIs(t, err, ErrDailyLimit)

	// 被限流的请求不会写入任何对话记录
	history, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
