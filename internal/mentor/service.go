package mentor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrCooldown 表示距离上一次导师请求的间隔不足。
	ErrCooldown = errors.New("导师请求过于频繁")
	// ErrDailyLimit 表示当日导师请求数已达上限。
	ErrDailyLimit = errors.New("当日导师请求已达上限")
	// ErrEmptyQuestion 表示请求中没有可回答的内容。
	ErrEmptyQuestion = errors.New("没有收到问题")
)

// fallbackReply 是补全服务失败时的降级回复，请求整体仍然成功。
const fallbackReply = "My mind is clouded right now. Ask me again in a little while."

// Service 负责导师对话：配额校验、历史持久化与补全调用。
type Service struct {
	db        *gorm.DB
	limiter   *Limiter
	completer Completer
	now       func() time.Time
}

// NewService 创建导师服务。
func NewService(db *gorm.DB, limiter *Limiter, completer Completer) *Service {
	return &Service{db: db, limiter: limiter, completer: completer, now: time.Now}
}

// Chat 处理一轮导师对话。
// 配额检查在任何状态写入之前完成；补全失败降级为固定回复，
// 不向用户暴露错误。
func (s *Service) Chat(ctx context.Context, userID int64, turns []ChatTurn) (string, error) {
	if len(turns) == 0 {
		return "", ErrEmptyQuestion
	}

	verdict, err := s.limiter.Check(ctx, userID)
	if err != nil {
		return "", err
	}
	switch verdict {
	case VerdictCooldown:
		return "", ErrCooldown
	case VerdictLimitReached:
		return "", ErrDailyLimit
	}

	// 记录用户的最新一条消息
	last := turns[len(turns)-1]
	userMsg := Message{
		UserID:    userID,
		Role:      RoleUser,
		Content:   last.Content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&userMsg).Error; err != nil {
		return "", fmt.Errorf("写入对话记录失败: %w", err)
	}

	reply, err := s.completer.Complete(ctx, turns)
	if err != nil {
		// 补全失败不是用户可见的失败，降级为固定回复
		if logger.Log != nil {
			logger.Log.Warn("导师补全失败，使用降级回复",
				zap.Int64("userID", userID), zap.Error(err))
		}
		return fallbackReply, nil
	}

	assistantMsg := Message{
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   reply,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&assistantMsg).Error; err != nil {
		return "", fmt.Errorf("写入对话记录失败: %w", err)
	}

	return reply, nil
}

// History 返回用户的导师对话历史，按时间升序。
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]Message, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("读取对话历史失败: %w", err)
	}
	return messages, nil
}
