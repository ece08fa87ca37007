package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/internal/handler"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/verification-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/verification-api/internal/repository/redis"
	"github.com/yourusername/verification-api/internal/service"
	"github.com/yourusername/verification-api/pkg/auth"
	"github.com/yourusername/verification-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, cfg.Database, zlog); err != nil {
		return err
	}

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if redisClient == nil {
		return err
	}
	if err != nil {
		// Кеш сессий и лимитер работают в режиме fail-open, источник истины - БД
		zlog.Warn("Redis недоступен, продолжаем без кеша сессий", zap.Error(err))
	} else {
		zlog.Info("Successfully connected to Redis")
	}
	defer redisClient.Close()

	// Репозитории
	accountRepo := pgRepo.NewAccountRepo(db)
	verificationRepo := pgRepo.NewVerificationRepo(db)
	logRepo := pgRepo.NewVerificationLogRepo(db)
	rateLimitRepo := pgRepo.NewRateLimitRepo(db)
	sessionRepo, err := redisRepo.NewSessionRepo(redisClient, cfg.Security.SessionTTL)
	if err != nil {
		return err
	}

	// Сервисы
	sender, err := service.NewEmailSender(cfg.Email, zlog)
	if err != nil {
		return err
	}
	renderer, err := service.NewTemplateRenderer(cfg.Email)
	if err != nil {
		return err
	}
	audit := service.NewAuditLogger(logRepo, zlog)

	verificationService, err := service.NewVerificationService(cfg.Verification, service.VerificationDeps{
		Records:     verificationRepo,
		Accounts:    accountRepo,
		Sessions:    sessionRepo,
		Limiter:     service.NewRateLimiter(rateLimitRepo, zlog),
		Sender:      sender,
		Renderer:    renderer,
		Audit:       audit,
		SendTimeout: cfg.Email.SendTimeout,
		Logger:      zlog,
	})
	if err != nil {
		return err
	}

	accountService, err := service.NewAccountService(cfg.Verification, service.AccountDeps{
		Accounts:     accountRepo,
		Records:      verificationRepo,
		Logs:         logRepo,
		RateLimits:   rateLimitRepo,
		Sessions:     sessionRepo,
		Verification: verificationService,
		Audit:        audit,
		Logger:       zlog,
	})
	if err != nil {
		return err
	}

	adminService, err := service.NewAdminService(cfg.Verification, service.AdminDeps{
		Records:     verificationRepo,
		Logs:        logRepo,
		Sender:      sender,
		Renderer:    renderer,
		Audit:       audit,
		SendTimeout: cfg.Email.SendTimeout,
		Logger:      zlog,
	})
	if err != nil {
		return err
	}

	// Периодическая очистка истекших кодов, журнала и счетчиков
	sweeper := service.NewSweeper(cfg.Verification, verificationRepo, logRepo, rateLimitRepo, zlog)
	go sweeper.Run(ctx)

	router := newRouter(cfg, zlog, routerDeps{
		verification: handler.NewVerificationHandler(verificationService, cfg.Security.CSRFSecret, zlog),
		accounts:     handler.NewAccountHandler(accountService, zlog),
		admin:        handler.NewAdminHandler(adminService, zlog),
		limiter:      middleware.NewRateLimiter(redisClient, zlog),
	})

	// HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("email_provider", sender.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// После SIGINT/SIGTERM отменяем ctx для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}
	zlog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}
	zlog.Info("Server exited properly")
	return nil
}

type routerDeps struct {
	verification *handler.VerificationHandler
	accounts     *handler.AccountHandler
	admin        *handler.AdminHandler
	limiter      *middleware.RateLimiter
}

func newRouter(cfg *config.Config, zlog *zap.Logger, deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	// Доверенные прокси для корректной работы c.ClientIP(): IP входит в ключ лимитера
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		zlog.Warn("failed to set trusted proxies", zap.Error(err))
	}

	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CSRFHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	session := middleware.Session(middleware.SessionConfig{
		CookieName: cfg.Security.SessionCookieName,
		TTL:        cfg.Security.SessionTTL,
		Secure:     cfg.Security.CookieSecure,
	})
	csrf := middleware.RequireCSRF(cfg.Security.CSRFSecret)

	api := router.Group("/api/v1")
	api.Use(session, deps.limiter.LimitByIP(middleware.DefaultPublicRateLimitConfig()))
	{
		verification := api.Group("/verification")
		{
			verification.GET("/csrf-token", deps.verification.CSRFToken)
			verification.POST("/send", csrf, deps.verification.SendCode)
			verification.POST("/verify", csrf, deps.verification.VerifyCode)
			verification.POST("/resend", csrf, deps.verification.ResendCode)
			verification.POST("/status", csrf, deps.verification.Status)
		}

		api.POST("/checkout/validate", csrf, deps.verification.ValidateCheckout)

		accounts := api.Group("/accounts")
		accounts.Use(csrf)
		{
			accounts.POST("/register", deps.accounts.Register)
			accounts.POST("/login-check", deps.accounts.LoginCheck)
		}
	}

	verifier, err := auth.NewAdminTokenVerifier(cfg.Security.AdminJWTSecret)
	if err != nil {
		// В release режиме config.Load не пропустит пустой секрет
		zlog.Warn("admin routes disabled", zap.Error(err))
		return router
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier, zlog)

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware.AdminOnly(), session)
	{
		admin.GET("/verification/stats", deps.admin.Stats)
		admin.GET("/verification/logs", deps.admin.Logs)
		admin.GET("/verification/logs/export", deps.admin.ExportLogs)
		admin.GET("/verification/template/default", deps.admin.DefaultTemplate)
		admin.GET("/verification/settings", deps.admin.Settings)
		admin.GET("/accounts", deps.accounts.List)

		// Изменяющие состояние маршруты требуют CSRF токен
		mutating := admin.Group("")
		mutating.Use(csrf)
		{
			mutating.POST("/verification/send-test", deps.admin.SendTest)
			mutating.POST("/accounts/bulk-verify", deps.accounts.BulkVerify)
			mutating.POST("/accounts/bulk-unverify", deps.accounts.BulkUnverify)
			mutating.PUT("/accounts/email", deps.accounts.ChangeEmail)
			mutating.DELETE("/accounts/:email", deps.accounts.Delete)
		}
	}

	return router
}
