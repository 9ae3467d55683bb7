package mentor

import (
	"errors"
	"net/http"

	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 聚合导师相关的HTTP入口。
type Handler struct {
	svc *Service
}

// NewHandler 创建导师处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ChatRequestBody 定义了导师对话请求体的JSON结构
type ChatRequestBody struct {
	Messages []ChatTurn `json:"messages" binding:"required"`
}

// Chat 处理一轮导师对话。
// 配额类拒绝是高频的预期结果，以结构化拒绝返回，不记为失败。
func (h *Handler) Chat(c *gin.Context) {
	var body ChatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := user.CurrentUserID(c)
	reply, err := h.svc.Chat(c.Request.Context(), userID, body.Messages)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuestion):
			c.JSON(http.StatusOK, gin.H{"reply": "I did not hear your question."})
		case errors.Is(err, ErrCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "cooldown"})
		case errors.Is(err, ErrDailyLimit):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "limit_reached"})
		case errors.Is(err, ErrLimiterUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理对话失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// GetHistory 返回导师对话历史。
func (h *Handler) GetHistory(c *gin.Context) {
	userID := user.CurrentUserID(c)
	messages, err := h.svc.History(c.Request.Context(), userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取对话历史失败"})
		return
	}
	c.JSON(http.StatusOK, messages)
}
