package gym

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/ledger"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"gorm.io/gorm"
)

var (
	// ErrStaleLevel 表示提交的level与服务端当前level不一致，
	// 请求是过期的或被重放的，奖励不会被再次应用。
	ErrStaleLevel = errors.New("提交的关卡已过期或重复")
	// ErrScenarioNotFound 表示找不到情境模板。
	ErrScenarioNotFound = errors.New("情境不存在")
)

// AnswerResult 是一次被接受的答题产生的新状态。
type AnswerResult struct {
	NewScore int `json:"new_score"`
	NewLevel int `json:"new_level"`
}

// NextScenario 是下一道情境题及随行状态。
type NextScenario struct {
	Scenario *Scenario `json:"scenario"`
	Energy   int       `json:"energy"`
	Level    int       `json:"level"`
	Endless  bool      `json:"is_endless"`
}

// DailySummary 是当日（UTC）的答题小结。
type DailySummary struct {
	Moves    int `json:"moves"`
	NetScore int `json:"net_score"`
}

// Service 是答题进度的校验器。
// 它保证level只能逐一前进，且同一level的提交最多被接受一次。
type Service struct {
	db     *gorm.DB
	users  *user.Repository
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewService 创建答题服务。
func NewService(db *gorm.DB, users *user.Repository, ldg *ledger.Ledger) *Service {
	return &Service{db: db, users: users, ledger: ldg, now: time.Now}
}

// SubmitAnswer 接受或拒绝一次答题提交。
// 核心是针对level的比较并交换：更新语句以 level = claimedLevel 且
// energy > 0 为条件，影响行数为零即拒绝。两个并发的同level提交
// 最多只有一个会生效，网络重试因此可以安全重放。
func (s *Service) SubmitAnswer(ctx context.Context, userID int64, claimedLevel int, scoreDelta int) (*AnswerResult, error) {
	var result AnswerResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 条件推进：CAS on level，同时施加能量下限保护
		res := tx.Model(&user.User{}).
			Where("user_id = ? AND level = ? AND energy > 0", userID, claimedLevel).
			Updates(map[string]interface{}{
				"score":  gorm.Expr("score + ?", scoreDelta),
				"level":  gorm.Expr("level + 1"),
				"energy": gorm.Expr("energy - 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("推进进度失败: %w", res.Error)
		}

		// 2. 零行受影响时区分拒绝原因
		if res.RowsAffected == 0 {
			var u user.User
			err := tx.Where("user_id = ?", userID).Take(&u).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return user.ErrUserNotFound
				}
				return fmt.Errorf("读取用户失败: %w", err)
			}
			if u.Level != claimedLevel {
				return ErrStaleLevel
			}
			return ledger.ErrNoEnergy
		}

		// 3. 追加不可变的历史记录
		move := Move{
			UserID:     userID,
			Level:      claimedLevel,
			ScoreDelta: scoreDelta,
			CreatedAt:  s.now().UTC(),
		}
		if err := tx.Create(&move).Error; err != nil {
			return fmt.Errorf("写入答题记录失败: %w", err)
		}

		// 4. 读回提交后的状态
		var row struct {
			Score int
			Level int
		}
		if err := tx.Model(&user.User{}).
			Select("score", "level").
			Where("user_id = ?", userID).
			Take(&row).Error; err != nil {
			return fmt.Errorf("读取新状态失败: %w", err)
		}
		result.NewScore = row.Score
		result.NewLevel = row.Level
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后尽力刷新排行榜缓存
	s.users.UpdateRankingScore(ctx, userID, result.NewScore)

	return &result, nil
}

// GetNextScenario 返回用户的下一道情境题。
// 能量为零时返回 ledger.ErrNoEnergy；level超出模板数量时进入无尽模式，
// 随机选择一个模板ID，这只影响展示内容，不影响防重放语义。
func (s *Service) GetNextScenario(ctx context.Context, userID int64) (*NextScenario, error) {
	energy, err := s.ledger.CheckEnergy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if energy <= 0 {
		return nil, ledger.ErrNoEnergy
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Scenario{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计情境数量失败: %w", err)
	}
	if total == 0 {
		return nil, ErrScenarioNotFound
	}

	endless := int64(u.Level) > total
	targetID := uint(u.Level)
	if endless {
		targetID = uint(rand.Int64N(total)) + 1
	}

	var scenario Scenario
	err = s.db.WithContext(ctx).Where("id = ?", targetID).Take(&scenario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("读取情境失败: %w", err)
	}

	return &NextScenario{
		Scenario: &scenario,
		Energy:   energy,
		Level:    u.Level,
		Endless:  endless,
	}, nil
}

// GetDailySummary 汇总用户当日（UTC）的答题记录。
func (s *Service) GetDailySummary(ctx context.Context, userID int64) (*DailySummary, error) {
	today := s.ledger.Today()

	var row struct {
		Moves    int
		NetScore int
	}
	err := s.db.WithContext(ctx).Model(&Move{}).
		Select("COUNT(*) AS moves, COALESCE(SUM(score_delta), 0) AS net_score").
		Where("user_id = ? AND created_at >= ?", userID, today).
		Take(&row).Error
	if err != nil {
		return nil, fmt.Errorf("汇总每日答题失败: %w", err)
	}
	return &DailySummary{Moves: row.Moves, NetScore: row.NetScore}, nil
}
