package main

import (
	"log"
	"time"

	api "github.com/OmarHesham88/Code-Receive/cmd/api"
	authdomain "github.com/OmarHesham88/Code-Receive/internal/auth/domain"
	authRepo "github.com/OmarHesham88/Code-Receive/internal/auth/repository"
	authUsecase "github.com/OmarHesham88/Code-Receive/internal/auth/usecase"
	codeDelivery "github.com/OmarHesham88/Code-Receive/internal/code/delivery"
	codedomain "github.com/OmarHesham88/Code-Receive/internal/code/domain"
	codeRepo "github.com/OmarHesham88/Code-Receive/internal/code/repository"
	codeUsecase "github.com/OmarHesham88/Code-Receive/internal/code/usecase"
	"github.com/OmarHesham88/Code-Receive/pkg/config"
	"github.com/OmarHesham88/Code-Receive/pkg/database"
	"github.com/OmarHesham88/Code-Receive/pkg/imap"
)

// readLimit caps how many codes a single read returns.
const readLimit = 50

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&codedomain.Code{}, &authdomain.AdminSession{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	codeRepository := codeRepo.NewCodeRepository(db)
	sessionRepository := authRepo.NewAdminSessionRepository(db)

	// The one persistent IMAP session of the process
	mailManager := imap.NewManager(cfg)
	defer mailManager.Close()

	if !cfg.HasIMAPCredentials() {
		log.Printf("[WARN] IMAP credentials not configured; mailbox operations will fail until they are")
	}

	// Pick the deployment profile: durable store fed by the background
	// sync engine, or on-demand mailbox queries behind the cache.
	var source codeUsecase.RecordSource
	switch cfg.SourceMode {
	case "live":
		cache := codeUsecase.NewCache(cfg.CacheFreshness)
		source = codeUsecase.NewLiveSource(mailManager, cache, lookback(cfg))
		log.Printf("[MAIN] running in live mode (on-demand mailbox queries)")
	default:
		syncEngine := codeUsecase.NewSyncEngine(codeRepository, mailManager, lookback(cfg), cfg.SyncInterval)
		syncEngine.Start()
		source = codeUsecase.NewStoreSource(codeRepository, recency(cfg), readLimit)
		log.Printf("[MAIN] running in store mode (background sync every %s)", cfg.SyncInterval)
	}

	// Initialize use cases (dependency injection)
	adminUsecaseInstance := authUsecase.NewAdminUsecase(sessionRepository, cfg)

	// Initialize HTTP handler
	codeHandler := codeDelivery.NewCodeHandler(source, mailManager, adminUsecaseInstance, cfg)
	handler := api.NewHandler(codeHandler, adminUsecaseInstance)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func lookback(cfg *config.Config) time.Duration {
	return time.Duration(cfg.LookbackMinutes) * time.Minute
}

func recency(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RecencyMinutes) * time.Minute
}
