package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrEntryNotFound 表示日记不存在，或不属于请求者。
// 两种情况对外不作区分，避免泄露他人日记的存在性。
var ErrEntryNotFound = errors.New("日记不存在")

// Service 提供日记的读写能力。
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService 创建日记服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Save 保存一条新的日记。
func (s *Service) Save(ctx context.Context, userID int64, text string) (*Entry, error) {
	entry := Entry{
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("保存日记失败: %w", err)
	}
	return &entry, nil
}

// History 返回用户最近的若干条日记，按时间降序。
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("读取日记失败: %w", err)
	}
	return entries, nil
}

// Delete 删除一条日记。
// 删除条件同时校验归属，防止删除他人的日记；
// 影响行数为零即视为不存在。
func (s *Service) Delete(ctx context.Context, userID int64, entryID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&Entry{})
	if res.Error != nil {
		return fmt.Errorf("删除日记失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
