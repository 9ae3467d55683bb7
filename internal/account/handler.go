package account

import (
	"errors"
	"net/http"

	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 聚合账号同步相关的HTTP入口。
type Handler struct {
	svc *Service
}

// NewHandler 创建账号同步处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SyncRequestBody 定义了同步请求体的JSON结构
type SyncRequestBody struct {
	Code string `json:"code" binding:"required"`
}

// IssueCode 为当前用户签发一个同步码。
func (h *Handler) IssueCode(c *gin.Context) {
	userID := user.CurrentUserID(c)
	code, expiresAt, err := h.svc.IssueCode(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发同步码失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"code":       code,
		"expires_at": expiresAt,
	})
}

// Sync 把当前（访客）身份合并进同步码指向的持久身份。
func (h *Handler) Sync(c *gin.Context) {
	var body SyncRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	guestID := user.CurrentUserID(c)
	merged, err := h.svc.SyncByCode(c.Request.Context(), body.Code, guestID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_or_expired"})
		default:
			// 事务已整体回滚，对外只暴露一个通用失败
			c.JSON(http.StatusInternalServerError, gin.H{"error": "同步失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"user_id": merged.UserID,
		"user_data": gin.H{
			"username":  merged.Username,
			"birthdate": merged.Birthdate,
			"score":     merged.Score,
			"level":     merged.Level,
			"rank":      user.RankName(merged.Score),
		},
	})
}
