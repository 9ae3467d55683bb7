package user

import (
	"context"
	"errors"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/internal/ledger"
)

// ErrUserNotFound 表示请求的用户不存在。
var ErrUserNotFound = errors.New("用户不存在")

// DefaultUsername 是未填写用户名时对外展示的名字。
const DefaultUsername = "Wanderer"

// 斯多葛段位的分数阈值与名称，阈值与名称一一对应，超过最后一档为最高段位。
var (
	rankThresholds = []int{50, 150, 500, 1000, 2500, 5000}
	rankNames      = []string{
		"Novice", "Seeker", "Student", "Practitioner",
		"Philosopher", "Sage", "Stoic Master",
	}
)

// RankName 根据分数返回段位名称。
func RankName(score int) string {
	for i, t := range rankThresholds {
		if score < t {
			return rankNames[i]
		}
	}
	return rankNames[len(rankNames)-1]
}

// NextRankScore 返回下一段位的分数门槛，已达最高段位时返回0。
func NextRankScore(score int) int {
	for _, t := range rankThresholds {
		if score < t {
			return t
		}
	}
	return 0
}

// Stats 是 GetStats 返回的用户概览。
type Stats struct {
	UserID        int64      `json:"user_id"`
	Username      string     `json:"name"`
	Score         int        `json:"score"`
	Level         int        `json:"level"`
	Energy        int        `json:"energy"`
	Birthdate     *time.Time `json:"birthdate,omitempty"`
	Rank          string     `json:"rank"`
	GlobalRank    int64      `json:"global_rank"`
	NextRankScore int        `json:"next_rank_score"`
	UserType      string     `json:"user_type"`
}

// LeaderboardEntry 是排行榜的一行。
type LeaderboardEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	RankName string `json:"rank_name"`
}

// Service 提供用户档案与排行的读取能力。
type Service struct {
	repo   *Repository
	ledger *ledger.Ledger
}

// NewService 创建用户服务。
func NewService(repo *Repository, ldg *ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: ldg}
}

// Repo 返回底层仓库。
func (s *Service) Repo() *Repository {
	return s.repo
}

// GetStats 返回用户的完整概览。
// 能量值经过账本的当日惰性重置，排行名次来自缓存或SQL。
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	energy, err := s.ledger.CheckEnergy(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank, err := s.repo.GlobalRank(ctx, userID, u.Score)
	if err != nil {
		return nil, err
	}

	name := u.Username
	if name == "" {
		name = DefaultUsername
	}

	return &Stats{
		UserID:        u.UserID,
		Username:      name,
		Score:         u.Score,
		Level:         u.Level,
		Energy:        energy,
		Birthdate:     u.Birthdate,
		Rank:          RankName(u.Score),
		GlobalRank:    rank,
		NextRankScore: NextRankScore(u.Score),
		UserType:      u.UserType,
	}, nil
}

// Leaderboard 返回分数最高的若干用户。
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	users, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = DefaultUsername
		}
		entries = append(entries, LeaderboardEntry{
			UserID:   u.UserID,
			Username: name,
			Score:    u.Score,
			RankName: RankName(u.Score),
		})
	}
	return entries, nil
}
