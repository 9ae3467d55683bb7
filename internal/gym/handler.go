package gym

import (
	"errors"
	"net/http"

	"github.com/SlpAus/stoic-trainer-backend/internal/ledger"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 聚合答题相关的HTTP入口。
type Handler struct {
	svc *Service
}

// NewHandler 创建答题处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// AnswerRequestBody 定义了提交答案时请求体的JSON结构
type AnswerRequestBody struct {
	Level int `json:"level" binding:"required"`
	Score int `json:"score"`
}

// GetScenario 返回用户的下一道情境题。
// 能量耗尽时返回带每日小结的结构化拒绝，而非错误。
func (h *Handler) GetScenario(c *gin.Context) {
	userID := user.CurrentUserID(c)
	ctx := c.Request.Context()

	next, err := h.svc.GetNextScenario(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNoEnergy):
			summary, sumErr := h.svc.GetDailySummary(ctx, userID)
			if sumErr != nil {
				summary = &DailySummary{}
			}
			c.JSON(http.StatusOK, gin.H{
				"error":   "no_energy",
				"message": "今天的能量已经用完了",
				"summary": summary,
			})
		case errors.Is(err, user.ErrUserNotFound), errors.Is(err, ErrScenarioNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "情境不存在"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "读取情境失败"})
		}
		return
	}

	c.JSON(http.StatusOK, next)
}

// SubmitAnswer 处理一次答题提交。
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var body AnswerRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := user.CurrentUserID(c)
	result, err := h.svc.SubmitAnswer(c.Request.Context(), userID, body.Level, body.Score)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleLevel):
			// 客户端应当重新拉取当前状态，而不是原样重试
			c.JSON(http.StatusConflict, gin.H{"error": "stale_or_replayed"})
		case errors.Is(err, ledger.ErrNoEnergy):
			c.JSON(http.StatusOK, gin.H{"error": "no_energy", "message": "今天的能量已经用完了"})
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理答题失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"new_score": result.NewScore,
		"new_level": result.NewLevel,
	})
}
