package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/auth"
	"account_service/internal/config"
	"account_service/internal/http_server/handlers/forgot_password"
	"account_service/internal/http_server/handlers/login"
	"account_service/internal/http_server/handlers/reset_password"
	"account_service/internal/http_server/handlers/signup"
	"account_service/internal/http_server/handlers/update_password"
	"account_service/internal/http_server/handlers/users"
	"account_service/internal/http_server/middleware/authgate"
	rateLimit "account_service/internal/middleware/ratelimit"
	"account_service/internal/models"
	"account_service/internal/rabbitmq"
	"account_service/internal/storage/postgres"
	usersvc "account_service/internal/users"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting account service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	authService := auth.New(
		log,
		storage,
		storage,
		msgBroker,
		cfg.Tokens.SessionTokenSecret,
		cfg.Tokens.SessionTokenTTL,
		cfg.Tokens.ResetTokenTTL,
	)

	usersService := usersvc.New(log, storage, storage)

	router := setupRouter(log, authService, usersService, cfg.Tokens.SessionTokenTTL)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	usersService *usersvc.Users,
	tokenTTL time.Duration,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.With(rateLimit.Signup()).Post("/signup",
		signup.New(log, validate, authService, tokenTTL),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService, tokenTTL),
	)
	r.With(rateLimit.ForgotPassword()).Post("/forgot-password",
		forgotpassword.New(log, validate, authService),
	)
	r.With(rateLimit.ResetPassword()).Patch("/reset-password/{token}",
		resetpassword.New(log, validate, authService, tokenTTL),
	)

	r.Group(func(r chi.Router) {
		r.Use(authgate.Protect(log, authService))

		r.With(rateLimit.UpdatePassword()).Patch("/update-password",
			updatepassword.New(log, validate, authService, tokenTTL),
		)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.List(log, usersService))
			r.Get("/{id}", users.Get(log, usersService))

			r.Group(func(r chi.Router) {
				r.Use(authgate.RestrictTo(log, models.RoleAdmin))

				r.Post("/", users.Create(log, validate, usersService))
				r.Put("/{id}", users.Update(log, validate, usersService))
				r.Delete("/{id}", users.Delete(log, usersService))
			})
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
