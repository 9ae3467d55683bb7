package academy

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 聚合学院相关的HTTP入口。
type Handler struct {
	svc *Service
}

// NewHandler 创建学院处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CompleteRequestBody 定义了完成学习时请求体的JSON结构
type CompleteRequestBody struct {
	ArticleID uint `json:"article_id" binding:"required"`
}

// Complete 标记一篇文章学习完成。
func (h *Handler) Complete(c *gin.Context) {
	var body CompleteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := user.CurrentUserID(c)
	isNew, err := h.svc.Complete(c.Request.Context(), userID, body.ArticleID)
	if err != nil {
		if errors.Is(err, ErrDailyLimit) {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "limit_reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "写入学习进度失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "is_new": isNew})
}

// GetStatus 返回学院进度概览。
func (h *Handler) GetStatus(c *gin.Context) {
	userID := user.CurrentUserID(c)
	status, err := h.svc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取学院进度失败"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListArticles 返回文章列表。
func (h *Handler) ListArticles(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	articles, err := h.svc.ListArticles(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文章列表失败"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

// GetArticle 返回一篇文章的全文。
func (h *Handler) GetArticle(c *gin.Context) {
	articleID, err := strconv.ParseUint(c.Param("article_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文章ID格式错误"})
		return
	}

	article, err := h.svc.GetArticle(c.Request.Context(), uint(articleID))
	if err != nil {
		if errors.Is(err, ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "文章不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文章失败"})
		return
	}
	c.JSON(http.StatusOK, article)
}

// GetLibrary 返回用户已学完的文章。
func (h *Handler) GetLibrary(c *gin.Context) {
	userID := user.CurrentUserID(c)
	articles, err := h.svc.Library(c.Request.Context(), userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取书架失败"})
		return
	}
	c.JSON(http.StatusOK, articles)
}
