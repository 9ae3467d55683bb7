package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/api"
	"github.com/SlpAus/stoic-trainer-backend/internal/academy"
	"github.com/SlpAus/stoic-trainer-backend/internal/account"
	"github.com/SlpAus/stoic-trainer-backend/internal/gym"
	"github.com/SlpAus/stoic-trainer-backend/internal/journal"
	"github.com/SlpAus/stoic-trainer-backend/internal/ledger"
	"github.com/SlpAus/stoic-trainer-backend/internal/mentor"
	"github.com/SlpAus/stoic-trainer-backend/internal/platform/config"
	"github.com/SlpAus/stoic-trainer-backend/internal/platform/database"
	"github.com/SlpAus/stoic-trainer-backend/internal/platform/shutdown"
	"github.com/SlpAus/stoic-trainer-backend/internal/platform/startup"
	"github.com/SlpAus/stoic-trainer-backend/internal/user"
	"github.com/SlpAus/stoic-trainer-backend/pkg/lifecycle"
	"github.com/SlpAus/stoic-trainer-backend/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env缺失不是错误，生产环境靠真实环境变量
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}

	if err := logger.InitLogger(&cfg.Logger); err != nil {
		panic(fmt.Sprintf("日志初始化失败: %v", err))
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("数据库初始化失败: %v", err))
	}
	rdb, err := database.InitRedis(cfg.Database.Redis)
	if err != nil {
		// Redis不可用时降级运行：排行榜走数据库兜底，导师限流会拒绝服务
		fmt.Printf("警告: Redis初始化失败，进入降级模式: %v\n", err)
		database.SetRedisHealthy(false)
		rdb = nil
	}

	// 1. 装配各领域服务
	users := user.NewRepository(db, rdb)
	ldg := ledger.New(db, cfg.Game.MaxEnergy)
	userSvc := user.NewService(users, ldg)
	gymSvc := gym.NewService(db, users, ldg)
	journalSvc := journal.NewService(db)
	academySvc := academy.NewService(db, cfg.Game.AcademyDailyLimit)

	limiter := mentor.NewLimiter(rdb, cfg.Game.MentorCooldown(), cfg.Game.MentorDailyLimit)
	mentorClient := mentor.NewClient(cfg.Mentor, os.Getenv(cfg.Mentor.APIKeyEnv))
	mentorSvc := mentor.NewService(db, limiter, mentorClient)

	codes := account.NewRepository(db, cfg.Game.SyncCodeTTL(), cfg.Game.SyncCodeLength)
	accountSvc := account.NewService(db, codes, users)

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(db, users); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 启动后台服务
	gracefulMgr := lifecycle.NewManager()

	sweeperHandle, err := gracefulMgr.NewServiceHandle("sync-code-sweeper")
	if err != nil {
		panic(err)
	}
	go codes.StartSweeper(sweeperHandle)

	if rdb != nil {
		healthHandle, err := gracefulMgr.NewServiceHandle("redis-health-checker")
		if err != nil {
			panic(err)
		}
		go database.StartRedisHealthCheck(healthHandle, rdb)
	}

	// 4. 创建Gin引擎并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers := api.Handlers{
		User:    user.NewHandler(userSvc, cfg.Game.MaxEnergy),
		Gym:     gym.NewHandler(gymSvc),
		Journal: journal.NewHandler(journalSvc),
		Mentor:  mentor.NewHandler(mentorSvc),
		Academy: academy.NewHandler(academySvc),
		Account: account.NewHandler(accountSvc),
	}
	api.SetupRoutes(r, handlers, users)

	// 5. 启动HTTP服务器并等待停机信号
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}
	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("服务器启动失败: %v", err))
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
