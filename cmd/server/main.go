package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/requill-tracker/internal/api"
	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/extractor"
	"github.com/requill-tracker/internal/middleware"
	"github.com/requill-tracker/internal/notify"
	"github.com/requill-tracker/internal/scheduler"
	"github.com/requill-tracker/internal/storage"

	_ "github.com/requill-tracker/docs" // swagger docs
)

// @title Requill Tracker API
// @version 1.0
// @description Job application tracker: import postings from job-board URLs, track application status and schedule bulk imports.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your JWT token with the `Bearer ` prefix, e.g. "Bearer eyJhbGci..."

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Enter your API key

func main() {
	cfg := config.Load()

	log.Println("Loading site catalog...")
	catalog, err := config.LoadCatalog(cfg.Extractor.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load site catalog: %v", err)
	}
	if cfg.Proxy.APIKey == "" {
		log.Println("Warning: SCRAPING_PROXY_API_KEY is not set, URL imports will fail")
	}

	log.Println("Connecting to database...")
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Running migrations...")
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := storage.NewUserRepository(db)
	jobRepo := storage.NewJobRepository(db)
	taskRepo := storage.NewImportTaskRepository(db)
	execRepo := storage.NewExecutionRepository(db)
	cacheRepo := storage.NewURLCacheRepository(db)

	ctx := context.Background()
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		admin, err := userRepo.CreateAdmin(ctx, adminEmail, adminPassword, "Admin")
		if err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Printf("Admin user ready: %s", admin.Email)
		}
	}

	// Redis is optional; without it concurrent duplicate extractions are not
	// suppressed.
	var urlLock *storage.URLLock
	if cfg.Redis.URL != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: redis unavailable, in-flight lock disabled: %v", err)
		} else {
			defer rdb.Close()
			urlLock = storage.NewURLLock(rdb, cfg.Redis.LockTTL)
		}
	}

	pipeline, err := extractor.New(catalog, cfg.Proxy, extractor.WithJobStore(jobRepo))
	if err != nil {
		log.Fatalf("Failed to initialize extractor: %v", err)
	}
	log.Printf("Extractor ready with %d site families", len(pipeline.Profiles().All()))

	notifier := notify.NewDiscordNotifier(cfg.Discord)

	runner := scheduler.NewImportRunner(
		taskRepo,
		execRepo,
		cacheRepo,
		jobRepo,
		pipeline,
		notifier,
		time.Duration(cfg.Extractor.ImportDelayMs)*time.Millisecond,
	)
	sched := scheduler.NewScheduler(taskRepo, runner)

	if days := cfg.Extractor.RetentionDays; days > 0 {
		err := sched.AddMaintenance("@daily", "history cleanup", func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -days)
			execs, err := execRepo.DeleteOld(ctx, cutoff)
			if err != nil {
				return err
			}
			urls, err := cacheRepo.CleanOld(ctx, cutoff)
			if err != nil {
				return err
			}
			log.Printf("History cleanup removed %d executions and %d cached urls", execs, urls)
			return nil
		})
		if err != nil {
			log.Printf("Warning: failed to schedule history cleanup: %v", err)
		}
	}

	log.Println("Starting scheduler...")
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT, userRepo)

	handler := api.NewHandler(api.Deps{
		Users:          userRepo,
		Jobs:           jobRepo,
		Tasks:          taskRepo,
		Executions:     execRepo,
		Pipeline:       pipeline,
		Lock:           urlLock,
		Scheduler:      sched,
		Auth:           authMiddleware,
		ExtractTimeout: cfg.Extractor.ExtractTimeout,
	})
	router := api.NewRouter(handler, authMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
