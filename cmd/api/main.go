package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amd-webhook/internal/auth"
	"amd-webhook/internal/calls"
	"amd-webhook/internal/config"
	"amd-webhook/internal/dispatch"
	"amd-webhook/internal/events"
	"amd-webhook/internal/profile"
	"amd-webhook/internal/rbac"
	"amd-webhook/internal/telephony"
	"amd-webhook/internal/webhook"
	"amd-webhook/pkg/logger"
	"amd-webhook/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional env file loaded before reading configuration")
	issueSubject := flag.String("issue-token", "", "print an operator API token for this subject and exit")
	issueRole := flag.String("role", rbac.RoleOperator, "role for -issue-token (operator or admin)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("env file load failed", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogFormat)
	slog.SetDefault(log)

	if *issueSubject != "" {
		if err := issueToken(os.Stdout, cfg.Auth, *issueSubject, *issueRole, time.Now()); err != nil {
			log.Error("token issuance failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	prof, err := profile.Lookup(cfg.App.Profile)
	if err != nil {
		log.Error("profile lookup failed", "err", err)
		os.Exit(1)
	}
	prompts, err := dispatch.LoadPrompts(cfg.App.PromptsFile)
	if err != nil {
		log.Error("prompts load failed", "path", cfg.App.PromptsFile, "err", err)
		os.Exit(1)
	}

	norm := webhook.NewNormalizer(prof.UnitLabels)
	h := telephony.Handlers{
		Profile:    prof,
		Normalizer: norm,
		Reporter:   dispatch.NewReporter(prof.Report, norm),
		Responder:  dispatch.NewResponder(prompts),
		Out:        os.Stdout,
	}

	var db *sql.DB
	switch cfg.Journal.Backend {
	case config.BackendMemory:
		h.Journal = events.NewService(events.NewMemoryRepo(cfg.Journal.MemoryLimit))
	case config.BackendPostgres:
		db, err = utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := events.NewPostgresRepo(db)
		if err := repo.EnsureSchema(rootCtx); err != nil {
			log.Error("journal schema init failed", "err", err)
			os.Exit(1)
		}
		h.Journal = events.NewService(repo)
	}

	var rdb *redis.Client
	switch cfg.CallState.Backend {
	case config.BackendMemory:
		h.Calls = calls.NewMemoryStore(cfg.CallState.TTL)
	case config.BackendRedis:
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		h.Calls = calls.NewRedisStore(rdb, cfg.CallState.TTL)
	}

	var authManager *auth.Manager
	if cfg.OperatorAPIEnabled() {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	// Gin router
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		Telephony: h,
		Twilio:    cfg.Twilio,
		Auth:      authManager,
		DB:        db,
		Redis:     rdb,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	printBanner(os.Stdout, prof, srv.Addr, cfg.Twilio.PublicBaseURL)

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"profile", prof.Name,
			"journal", cfg.Journal.Backend,
			"call_state", cfg.CallState.Backend,
			"signature_check", cfg.Twilio.AuthToken != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func issueToken(w io.Writer, cfg config.AuthConfig, subject, role string, now time.Time) error {
	if role != rbac.RoleOperator && role != rbac.RoleAdmin {
		return fmt.Errorf("role must be %s or %s, got %q", rbac.RoleOperator, rbac.RoleAdmin, role)
	}
	m, err := auth.NewManager(cfg)
	if err != nil {
		return err
	}
	tok, err := m.Issue(now, subject, role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}
