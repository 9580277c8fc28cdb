package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"keepintouch/config"
	_ "keepintouch/docs"
	"keepintouch/internal/adapters/auth"
	"keepintouch/internal/adapters/email"
	delivery "keepintouch/internal/delivery/http"
	"keepintouch/internal/delivery/http/controllers"
	"keepintouch/internal/delivery/http/middleware"
	"keepintouch/internal/repository/postgres"
	"keepintouch/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title KeepInTouch API
// @version 1.0
// @description Personal relationship management API: contacts, groups, connection cadence, and invites.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	userRepo := postgres.NewUserRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewJWT(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	userService := services.NewUserService(userRepo, hasher, tokens, cfg.TokenExpiry)
	contactService := services.NewContactService(contactRepo, groupRepo, serviceTimeout)
	groupService := services.NewGroupService(groupRepo, contactRepo, serviceTimeout)
	inviteService := services.NewInviteService(inviteRepo, userRepo, emailService, cfg.AppOrigin, serviceTimeout)

	userController := controllers.NewUserController(logger, userService)
	contactController := controllers.NewContactController(logger, contactService)
	groupController := controllers.NewGroupController(logger, groupService)
	inviteController := controllers.NewInviteController(logger, inviteService)

	requireAuth := middleware.RequireAuth(tokens, logger)
	mux := delivery.NewRouter(userController, contactController, groupController, inviteController, requireAuth)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
