package api

import (
	"net/http"

	"github.com/SlpAus/stoic-trainer-backend/internal/academy"
	"github.com/SlpAus/stoic-trainer-backend/internal/account"
	"github.com/SlpAus/stoic-trainer-backend/internal/gym"
	"github.com/SlpAus/stoic-trainer-backend/internal/journal"
	"github.com/SlpAus/stoic-trainer-backend/internal/mentor"
	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handlers 聚合所有领域的HTTP处理器，由main装配后注入。
type Handlers struct {
	User    *user.Handler
	Gym     *gym.Handler
	Journal *journal.Handler
	Mentor  *mentor.Handler
	Academy *academy.Handler
	Account *account.Handler
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers, users *user.Repository) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"redis":  database.IsRedisHealthy(),
		})
	})

	api := router.Group("/api")
	{
		// 认证与账号
		auth := api.Group("/auth")
		{
			auth.POST("/guest", h.User.CreateGuest)
			auth.POST("/register", h.User.Register)
			auth.POST("/code", user.AuthMiddleware(users), h.Account.IssueCode)
			auth.POST("/sync", user.AuthMiddleware(users), h.Account.Sync)
		}

		// 公共只读接口
		api.GET("/stats/:user_id", h.User.GetStats)
		api.GET("/leaderboard", h.User.GetLeaderboard)

		// 以下路由都要求携带有效令牌
		authed := api.Group("", user.AuthMiddleware(users))
		{
			gymRoutes := authed.Group("/gym")
			{
				gymRoutes.GET("/scenario", h.Gym.GetScenario)
				gymRoutes.POST("/answer", h.Gym.SubmitAnswer)
			}

			journalRoutes := authed.Group("/journal")
			{
				journalRoutes.POST("", h.Journal.Save)
				journalRoutes.GET("", h.Journal.GetHistory)
				journalRoutes.DELETE("/:entry_id", h.Journal.Delete)
			}

			mentorRoutes := authed.Group("/mentor")
			{
				mentorRoutes.POST("/chat", h.Mentor.Chat)
				mentorRoutes.GET("/history", h.Mentor.GetHistory)
			}

			academyRoutes := authed.Group("/academy")
			{
				academyRoutes.GET("/articles", h.Academy.ListArticles)
				academyRoutes.GET("/articles/:article_id", h.Academy.GetArticle)
				academyRoutes.POST("/complete", h.Academy.Complete)
				academyRoutes.GET("/status", h.Academy.GetStatus)
				academyRoutes.GET("/library", h.Academy.GetLibrary)
			}
		}
	}
}
