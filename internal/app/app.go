package app

import (
	"context"
	"errors"
	"fmt"

	"iceberg_backend/database"
	"iceberg_backend/internal/auth"
	"iceberg_backend/internal/cache"
	"iceberg_backend/internal/config"
	"iceberg_backend/internal/email"
	"iceberg_backend/internal/handlers"
	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/middleware"
	"iceberg_backend/internal/models"
	"iceberg_backend/internal/repositories"
	"iceberg_backend/internal/routes"
	"iceberg_backend/internal/services"
	"iceberg_backend/internal/validator"
	"iceberg_backend/internal/workers"
	"iceberg_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.Debug = cfg.Server.Env != "production"

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Auto migrate failed", "error", err)
	}
	logger.Info("Database connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userCache, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer userCache.Close()
	if userCache.Enabled() {
		logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB, userCache)

	// Фоновая уборка отработавших токенов
	sweeper := workers.NewTokenSweepWorker(
		gormDB,
		repositories.NewRefreshSessionRepository(),
		repositories.NewRevokedTokenRepository(),
	)
	sweeper.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает полностью готовый gin.Engine.
// Вынесен отдельно, чтобы интеграционные тесты поднимали то же
// приложение без сетевого слушателя.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, userCache *cache.Cache) *gin.Engine {
	emailProvider := buildEmailProvider(cfg)

	tokens := auth.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	serviceContainer := initializeServices(cfg, tokens, emailProvider, userCache)
	appHandlers := initializeHandlers(serviceContainer)

	ginRouter := initializeGinRouter(cfg, gormDB)

	authMW := middleware.AuthMiddleware(
		tokens,
		repositories.NewRevokedTokenRepository(),
		repositories.NewUserRepository(),
	)
	stepUpMW := middleware.RequireTwoFactor(serviceContainer.TwoFactorService)

	routes.RegisterRoutes(ginRouter, appHandlers, authMW, stepUpMW)

	return ginRouter
}

func buildEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP is not configured, using mock email provider")
		return email.NewMockProvider()
	}

	smtpConfig := email.DefaultConfig()
	smtpConfig.Host = cfg.Email.SMTPHost
	smtpConfig.Port = cfg.Email.SMTPPort
	smtpConfig.Username = cfg.Email.SMTPUsername
	smtpConfig.Password = cfg.Email.SMTPPassword
	smtpConfig.FromEmail = cfg.Email.FromEmail
	smtpConfig.FromName = cfg.Email.FromName

	return email.NewSMTPProvider(smtpConfig, email.NewDefaultRenderer())
}

func initializeServices(cfg *config.Config, tokens *auth.TokenIssuer, emailProvider email.Provider, userCache *cache.Cache) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository()
	profileRepo := repositories.NewProfileRepository()
	sessionRepo := repositories.NewRefreshSessionRepository()
	revokedRepo := repositories.NewRevokedTokenRepository()
	deviceRepo := repositories.NewTrustedDeviceRepository()
	backupRepo := repositories.NewBackupCodeRepository()
	districtRepo := repositories.NewDistrictRepository()
	applicationRepo := repositories.NewStaffApplicationRepository()

	authService := services.NewAuthService(
		userRepo, profileRepo, sessionRepo, revokedRepo,
		tokens, emailProvider, userCache,
	)
	twoFactorService := services.NewTwoFactorService(
		userRepo, deviceRepo, backupRepo, sessionRepo,
		tokens, emailProvider, cfg.App.Name, cfg.App.BaseURL,
	)
	roleService := services.NewRoleService(userRepo, profileRepo, districtRepo, userCache)
	applicationService := services.NewStaffApplicationService(applicationRepo, roleService, emailProvider)

	return &services.ServiceContainer{
		AuthService:             authService,
		TwoFactorService:        twoFactorService,
		RoleService:             roleService,
		StaffApplicationService: applicationService,
	}
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:             handlers.NewAuthHandler(baseHandler, container.AuthService),
		TwoFactorHandler:        handlers.NewTwoFactorHandler(baseHandler, container.TwoFactorService),
		AdminHandler:            handlers.NewAdminHandler(baseHandler, container.RoleService),
		StaffApplicationHandler: handlers.NewStaffApplicationHandler(baseHandler, container.StaffApplicationService),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin создает супер-администратора при первом старте.
// Существующий пользователь с этим email не трогается.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("Superadmin credentials are not configured, skipping seeding")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		result := tx.Where("email = ?", adminEmail).First(&existing)
		if result.Error == nil {
			logger.Info("Superadmin already exists, skipping creation", "email", adminEmail)
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for superadmin: %w", result.Error)
		}

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash superadmin password: %w", err)
		}

		adminName := cfg.Admin.Name
		if adminName == "" {
			adminName = "Администратор"
		}

		admin := &models.User{
			Email:        adminEmail,
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
			AdminProfile: &models.AdminProfile{
				Name:         adminName,
				IsSuperAdmin: true,
			},
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create superadmin: %w", err)
		}

		logger.Info("Superadmin created", "email", adminEmail)
		return nil
	})
}
