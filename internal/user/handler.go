package user

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler 聚合用户相关的HTTP入口。
type Handler struct {
	svc       *Service
	maxEnergy int
}

// NewHandler 创建用户处理器。
func NewHandler(svc *Service, maxEnergy int) *Handler {
	return &Handler{svc: svc, maxEnergy: maxEnergy}
}

// GuestRequestBody 定义了创建访客时请求体的JSON结构
type GuestRequestBody struct {
	Username  string `json:"username" binding:"required"`
	Birthdate string `json:"birthdate"`
	DeviceID  string `json:"device_id"`
}

// RegisterRequestBody 定义了平台回调注册持久用户时请求体的JSON结构
type RegisterRequestBody struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Birthdate string `json:"birthdate"`
}

// CreateGuest 创建一个访客身份并一次性下发其承载凭证。
func (h *Handler) CreateGuest(c *gin.Context) {
	var body GuestRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	birthdate, err := parseBirthdate(body.Birthdate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "生日格式错误，应为YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()

	var deviceID *string
	if body.DeviceID != "" {
		deviceID = &body.DeviceID

		// 同一设备重复创建时，复用已有的访客身份并轮换凭证
		existing, err := h.svc.Repo().FindByDevice(ctx, body.DeviceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建访客失败"})
			return
		}
		if existing != nil {
			token, err := h.svc.Repo().IssueToken(ctx, existing.UserID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "签发凭证失败"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  "success",
				"user_id": existing.UserID,
				"token":   token,
			})
			return
		}
	}

	u, token, err := h.svc.Repo().CreateGuest(ctx, body.Username, birthdate, deviceID, h.maxEnergy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建访客失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"user_id": u.UserID,
		"token":   token,
	})
}

// Register 由可信的平台回调调用，写入持久用户并轮换其凭证。
func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	birthdate, err := parseBirthdate(body.Birthdate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "生日格式错误，应为YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Repo().Upsert(ctx, body.UserID, body.Username, birthdate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		return
	}
	token, err := h.svc.Repo().IssueToken(ctx, body.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发凭证失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"user_id": body.UserID,
		"token":   token,
	})
}

// GetStats 返回用户概览。
func (h *Handler) GetStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "用户ID格式错误"})
		return
	}

	stats, err := h.svc.GetStats(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取用户概览失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLeaderboard 返回排行榜。
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取排行榜失败"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func parseBirthdate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
