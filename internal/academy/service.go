package academy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDailyLimit 表示当日学习篇数已达上限。
	ErrDailyLimit = errors.New("今天学习的文章已达上限")
	// ErrArticleNotFound 表示文章不存在。
	ErrArticleNotFound = errors.New("文章不存在")
)

// 学院段位的篇数阈值与名称。
var (
	academyThresholds = []int{5, 15, 30, 60}
	academyRanks      = []string{
		"Listener", "Reader", "Scholar", "Mentor", "Keeper of Wisdom",
	}
)

// academyRankName 根据已学篇数返回学院段位。
func academyRankName(total int) string {
	for i, t := range academyThresholds {
		if total < t {
			return academyRanks[i]
		}
	}
	return academyRanks[len(academyRanks)-1]
}

// Status 是用户的学院进度概览。
type Status struct {
	TotalLearned int    `json:"total_learned"`
	Rank         string `json:"rank"`
	DailyCount   int    `json:"daily_count"`
	CanLearnMore bool   `json:"can_learn_more"`
}

// ArticleSummary 是文章列表的一行。
type ArticleSummary struct {
	ID    uint   `json:"id"`
	Day   int    `json:"day"`
	Month int    `json:"month"`
	Title string `json:"title"`
}

// Service 提供学院文章与学习进度的能力。
type Service struct {
	db         *gorm.DB
	dailyLimit int
	now        func() time.Time
}

// NewService 创建学院服务。
func NewService(db *gorm.DB, dailyLimit int) *Service {
	return &Service{db: db, dailyLimit: dailyLimit, now: time.Now}
}

// today 返回当前UTC日期的零点。
func (s *Service) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Complete 标记用户学完一篇文章。
// 当日篇数达到上限时拒绝；重复学习返回 isNew=false，
// 唯一索引加 DO NOTHING 保证每篇文章至多一条进度记录。
func (s *Service) Complete(ctx context.Context, userID int64, articleID uint) (bool, error) {
	daily, err := s.dailyCount(ctx, userID)
	if err != nil {
		return false, err
	}
	if daily >= s.dailyLimit {
		return false, ErrDailyLimit
	}

	progress := Progress{
		UserID:    userID,
		ArticleID: articleID,
		CreatedAt: s.now().UTC(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&progress)
	if res.Error != nil {
		return false, fmt.Errorf("写入学习进度失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetStatus 返回用户的学院进度概览。
func (s *Service) GetStatus(ctx context.Context, userID int64) (*Status, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&Progress{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("统计学习进度失败: %w", err)
	}

	daily, err := s.dailyCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Status{
		TotalLearned: int(total),
		Rank:         academyRankName(int(total)),
		DailyCount:   daily,
		CanLearnMore: daily < s.dailyLimit,
	}, nil
}

// IsRead 判断用户是否已学完某篇文章。
func (s *Service) IsRead(ctx context.Context, userID int64, articleID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Progress{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询学习进度失败: %w", err)
	}
	return count > 0, nil
}

// ListArticles 返回按日历排序的文章列表。
func (s *Service) ListArticles(ctx context.Context, limit, offset int) ([]ArticleSummary, error) {
	var articles []ArticleSummary
	err := s.db.WithContext(ctx).Model(&Article{}).
		Select("id", "day", "month", "title").
		Order("month, day").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("读取文章列表失败: %w", err)
	}
	return articles, nil
}

// GetArticle 返回一篇文章的全文。
func (s *Service) GetArticle(ctx context.Context, articleID uint) (*Article, error) {
	var article Article
	err := s.db.WithContext(ctx).Where("id = ?", articleID).Take(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("读取文章失败: %w", err)
	}
	return &article, nil
}

// Library 返回用户已学完的文章，按学习时间降序。
func (s *Service) Library(ctx context.Context, userID int64, limit int) ([]ArticleSummary, error) {
	var articles []ArticleSummary
	err := s.db.WithContext(ctx).Model(&Progress{}).
		Select("academy_articles.id", "academy_articles.day", "academy_articles.month", "academy_articles.title").
		Joins("JOIN academy_articles ON academy_articles.id = academy_progress.article_id").
		Where("academy_progress.user_id = ?", userID).
		Order("academy_progress.created_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("读取书架失败: %w", err)
	}
	return articles, nil
}

// dailyCount 统计用户当日（UTC）学完的篇数。
func (s *Service) dailyCount(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Progress{}).
		Where("user_id = ? AND created_at >= ?", userID, s.today()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计当日学习篇数失败: %w", err)
	}
	return int(count), nil
}
