// Package main 是服务端的入口点
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/assistant"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cache"
	"github.com/AmrElDessouki22/popcorn-ai/internal/config"
	"github.com/AmrElDessouki22/popcorn-ai/internal/database"
	"github.com/AmrElDessouki22/popcorn-ai/internal/events"
	"github.com/AmrElDessouki22/popcorn-ai/internal/handler"
	"github.com/AmrElDessouki22/popcorn-ai/internal/job"
	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
	"github.com/AmrElDessouki22/popcorn-ai/internal/logger"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/internal/router"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/internal/websocket"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/jwt"
)

func main() {
	configDir := flag.String("config", "./configs", "配置文件目录")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(cfg.Database, cfg.Server.Mode)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	// 初始化 Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		zlog.Fatal("failed to init redis", zap.Error(err))
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpire, cfg.JWT.RefreshExpire)

	// Repository 层
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 购物助手
	llmClient, err := llm.New(ctx, cfg.AI)
	if err != nil {
		zlog.Fatal("failed to init llm client", zap.Error(err))
	}
	catalogService := service.NewCatalogService(productRepo, redisCache, cfg.Catalog.CacheTTL)
	orchestrator := assistant.NewOrchestrator(llmClient, catalogService, messageRepo, assistant.Options{
		HistoryLimit: cfg.AI.HistoryLimit,
		MaxCarousel:  cfg.AI.MaxCarousel,
		Timeout:      cfg.AI.Timeout,
	})
	zlog.Info("assistant ready", zap.String("provider", llmClient.Provider()), zap.String("model", llmClient.Model()))

	publisher, err := events.NewPublisher(cfg.NATS)
	if err != nil {
		// 事件总线不可用不影响对话
		zlog.Warn("nats unavailable, events disabled", zap.Error(err))
		publisher = events.NopPublisher{}
	}

	// Service 层
	authService := service.NewAuthService(userRepo, redisCache, jwtService)
	userService := service.NewUserService(userRepo)
	conversationService := service.NewConversationService(conversationRepo, messageRepo)
	chatService := service.NewChatService(userRepo, conversationRepo, messageRepo, orchestrator, publisher)

	// WebSocket Hub
	wsHub := websocket.NewHub(chatService)
	chatService.SetNotifier(wsHub)
	go wsHub.Run(ctx)

	// 定时任务
	scheduler := job.NewScheduler(cfg.Jobs.Timezone)
	if err := scheduler.RegisterIdleSweep(cfg.Jobs.SweepSpec, conversationRepo, cfg.Jobs.IdleDays); err != nil {
		zlog.Fatal("invalid jobs.sweep_spec", zap.String("spec", cfg.Jobs.SweepSpec), zap.Error(err))
	}
	scheduler.Start()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.New(router.Options{
		Logger:      zlog,
		JWT:         jwtService,
		Blacklist:   redisCache,
		CORSOrigins: cfg.Server.CORS,
		Metrics:     true,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		User:         handler.NewUserHandler(userService),
		Product:      handler.NewProductHandler(catalogService),
		Conversation: handler.NewConversationHandler(conversationService),
		AI:           handler.NewAIHandler(chatService),
		Health:       handler.NewHealthHandler(db, redisCache),
		WS:           websocket.NewHandler(ctx, wsHub, jwtService, redisCache, cfg.Server.CORS),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     engine,
		ReadTimeout: 10 * time.Second,
		// 写超时要覆盖一次模型调用
		WriteTimeout: cfg.AI.Timeout + 10*time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop()
	publisher.Close()
	if err := redisCache.Close(); err != nil {
		zlog.Warn("failed to close redis", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zlog.Info("server exited")
}
