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

	"github.com/sitelangsirat/deswita-backend/internal/config"
	"github.com/sitelangsirat/deswita-backend/internal/modules/auth"
	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
	"github.com/sitelangsirat/deswita-backend/internal/modules/media"
	"github.com/sitelangsirat/deswita-backend/internal/server"
	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

func main() {
	cfg, envLoaded := config.Load()

	log := logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Output:    cfg.LogOutput,
		Component: "api",
	})
	defer log.Close()

	if !envLoaded {
		log.Info("no .env file found, using process environment")
	}

	ctx := context.Background()

	// ── Persistence ─────────────────────────────────────────
	var repo content.Repository
	switch cfg.StoreDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		pg := content.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("create schema", "error", err)
			os.Exit(1)
		}
		repo = pg
		log.Info("using postgres store")
	default:
		fs, err := content.NewFileStore(cfg.DataFile, log.WithComponent("store"))
		if err != nil {
			log.Error("open data file", "path", cfg.DataFile, "error", err)
			os.Exit(1)
		}
		repo = fs
		log.Info("using file store", "path", cfg.DataFile)
	}

	// ── Media ───────────────────────────────────────────────
	var store media.Store
	switch cfg.MediaDriver {
	case "minio":
		ms, err := media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
		if err != nil {
			log.Error("connect minio", "error", err)
			os.Exit(1)
		}
		store = ms
		log.Info("using minio uploads", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	default:
		ds, err := media.NewDiskStore(cfg.UploadDir)
		if err != nil {
			log.Error("open upload dir", "error", err)
			os.Exit(1)
		}
		store = ds
		log.Info("using disk uploads", "dir", ds.Dir())
	}
	mediaService := media.NewService(store)

	// ── Auth ────────────────────────────────────────────────
	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
		os.Exit(1)
	}
	authService := auth.NewService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret)
	if !authService.Enabled() {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin endpoints are open")
	}

	router := server.NewRouter(server.Deps{
		Content: content.NewService(repo, mediaService, log.WithComponent("content")),
		Media:   mediaService,
		Auth:    authService,
		Log:     log,
	})

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("server stopped")
}
