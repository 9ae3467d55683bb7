package journal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 聚合日记相关的HTTP入口。
type Handler struct {
	svc *Service
}

// NewHandler 创建日记处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SaveRequestBody 定义了保存日记时请求体的JSON结构
type SaveRequestBody struct {
	Text string `json:"text" binding:"required"`
}

// Save 保存一条日记。
func (h *Handler) Save(c *gin.Context) {
	var body SaveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := user.CurrentUserID(c)
	entry, err := h.svc.Save(c.Request.Context(), userID, body.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存日记失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "entry_id": entry.ID})
}

// GetHistory 返回最近的日记。
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	userID := user.CurrentUserID(c)
	entries, err := h.svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取日记失败"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Delete 删除一条日记。
func (h *Handler) Delete(c *gin.Context) {
	entryID, err := strconv.ParseUint(c.Param("entry_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日记ID格式错误"})
		return
	}

	userID := user.CurrentUserID(c)
	if err := h.svc.Delete(c.Request.Context(), userID, uint(entryID)); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "日记不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除日记失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
