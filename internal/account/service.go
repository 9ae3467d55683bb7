package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/academy"
	"github.com/SlpAus/stoic-trainer-backend/internal/gym"
	"github.com/SlpAus/stoic-trainer-backend/internal/journal"
	"github.com/SlpAus/stoic-trainer-backend/internal/mentor"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCode 表示同步码不存在或已过期。
	// 这不是可重试的情况，客户端需要重新申请一个码。
	ErrInvalidCode = errors.New("同步码无效或已过期")
	// ErrMergeConflict 表示访客身份在合并过程中被并发的另一次合并抢先处理。
	ErrMergeConflict = errors.New("访客身份已被其他合并处理")
)

// Service 是账号合并协调器。
// 它把一个访客身份一次性折叠进同步码指向的持久身份：
// 码的消费、数据转移和访客删除在同一个数据库事务内完成，
// 要么全部提交，要么全部回滚，不存在部分合并的中间态。
type Service struct {
	db    *gorm.DB
	repo  *Repository
	users *user.Repository
	now   func() time.Time
}

// NewService 创建账号合并服务。
func NewService(db *gorm.DB, repo *Repository, users *user.Repository) *Service {
	return &Service{db: db, repo: repo, users: users, now: time.Now}
}

// IssueCode 为用户签发一个新的同步码。
func (s *Service) IssueCode(ctx context.Context, userID int64) (string, time.Time, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if u == nil {
		return "", time.Time{}, user.ErrUserNotFound
	}
	return s.repo.IssueCode(ctx, userID)
}

// SyncByCode 用一个同步码把调用者的访客身份合并进持久身份。
//
// 整个流程是一个事务：
//  1. 条件删除未过期的码行（消费）。影响行数为零即拒绝——
//     码是一次性的，这一步的原子性保证同一个码不会被成功消费两次。
//  2. 读取访客的全部可变状态。访客不存在时退化为无数据转移的身份关联。
//  3. 转移：用户名/生日以访客为准，分数相加，level取两者较大值，
//     日记、答题记录、导师对话、学习进度全部改挂到持久身份上；
//     学习进度遇到 (user, article) 重复时保留持久身份的记录。
//  4. 删除访客行。删除影响行数为零说明另一次合并抢先完成，整个事务回滚。
//
// 提交成功后读回并返回合并后的完整档案。
func (s *Service) SyncByCode(ctx context.Context, code string, guestID int64) (*user.User, error) {
	var merged user.User
	var guestMerged bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 消费同步码
		var sc SyncCode
		err := tx.Where("code = ?", code).Take(&sc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCode
			}
			return fmt.Errorf("读取同步码失败: %w", err)
		}
		res := tx.Where("user_id = ? AND code = ? AND expires_at > ?", sc.UserID, code, s.now().UTC()).
			Delete(&SyncCode{})
		if res.Error != nil {
			return fmt.Errorf("消费同步码失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidCode
		}
		targetID := sc.UserID

		// 2. 读取访客状态
		var guest user.User
		haveGuest := guestID != targetID
		if haveGuest {
			err = tx.Where("user_id = ? AND user_type = ?", guestID, user.TypeGuest).Take(&guest).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 访客已被合并过或从未存在：无数据可转移
					haveGuest = false
				} else {
					return fmt.Errorf("读取访客失败: %w", err)
				}
			}
		}

		if haveGuest {
			// 3a/b/c. 更新持久身份的档案与进度
			updates := map[string]interface{}{
				"score":     gorm.Expr("score + ?", guest.Score),
				"level":     gorm.Expr("CASE WHEN level < ? THEN ? ELSE level END", guest.Level, guest.Level),
				"user_type": user.TypeSynced,
			}
			if guest.Username != "" {
				updates["username"] = guest.Username
			}
			if guest.Birthdate != nil {
				updates["birthdate"] = *guest.Birthdate
			}
			res = tx.Model(&user.User{}).Where("user_id = ?", targetID).Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("更新持久身份失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("同步码指向的用户 %d 不存在", targetID)
			}

			// 3d. 把所有外键记录改挂到持久身份
			if err := tx.Model(&journal.Entry{}).Where("user_id = ?", guestID).
				Update("user_id", targetID).Error; err != nil {
				return fmt.Errorf("转移日记失败: %w", err)
			}
			if err := tx.Model(&gym.Move{}).Where("user_id = ?", guestID).
				Update("user_id", targetID).Error; err != nil {
				return fmt.Errorf("转移答题记录失败: %w", err)
			}
			if err := tx.Model(&mentor.Message{}).Where("user_id = ?", guestID).
				Update("user_id", targetID).Error; err != nil {
				return fmt.Errorf("转移导师对话失败: %w", err)
			}

			// 学习进度受 (user, article) 唯一约束：只转移持久身份还没有的文章，
			// 重复的进度保留持久身份的原记录，访客的副本随后丢弃。
			existing := tx.Model(&academy.Progress{}).Select("article_id").Where("user_id = ?", targetID)
			if err := tx.Model(&academy.Progress{}).
				Where("user_id = ? AND article_id NOT IN (?)", guestID, existing).
				Update("user_id", targetID).Error; err != nil {
				return fmt.Errorf("转移学习进度失败: %w", err)
			}
			if err := tx.Where("user_id = ?", guestID).Delete(&academy.Progress{}).Error; err != nil {
				return fmt.Errorf("丢弃重复学习进度失败: %w", err)
			}

			// 4. 删除已清空的访客行。并发的另一次合并会在这里落空并整体回滚。
			res = tx.Where("user_id = ?", guestID).Delete(&user.User{})
			if res.Error != nil {
				return fmt.Errorf("删除访客失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrMergeConflict
			}
			guestMerged = true
		}

		// 5. 在事务内读回合并后的档案
		if err := tx.Where("user_id = ?", targetID).Take(&merged).Error; err != nil {
			return fmt.Errorf("读取合并后档案失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后修正排行榜缓存
	if guestMerged {
		s.users.RemoveFromRanking(ctx, guestID)
	}
	s.users.UpdateRankingScore(ctx, merged.UserID, merged.Score)

	return &merged, nil
}
