package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"home-budget/internal/auth"
	"home-budget/internal/config"
	apphttp "home-budget/internal/http"
	"home-budget/internal/repository/sqlite"
	"home-budget/internal/service"
	"home-budget/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	categoryRepo := sqlite.NewCategoryRepository(db)
	expenseRepo := sqlite.NewExpenseRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := categoryRepo.Init(ctx); err != nil {
		logger.Fatalf("init category repository: %v", err)
	}
	if err := expenseRepo.Init(ctx); err != nil {
		logger.Fatalf("init expense repository: %v", err)
	}

	tokenService := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	})

	userService := service.NewUserService(userRepo, cfg.Auth.StartingBalance)
	categoryService := service.NewCategoryService(categoryRepo)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo)
	reportService := service.NewReportService(expenseRepo)

	var storageSvc storage.Service
	if cfg.Storage.Bucket != "" {
		storageSvc, err = buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
	} else {
		logger.Info("no storage bucket configured, expense export disabled")
	}
	exportService := service.NewExportService(expenseRepo, categoryRepo, storageSvc, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		categoryService,
		expenseService,
		reportService,
		exportService,
		tokenService,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("exports go to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
