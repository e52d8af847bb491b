package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/zumaops/stockboard/internal/cache"
	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/master"
	"github.com/zumaops/stockboard/internal/pipeline"
	"github.com/zumaops/stockboard/internal/report"
	"github.com/zumaops/stockboard/internal/repository/postgres"
	"github.com/zumaops/stockboard/internal/service"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/internal/storage"
	"github.com/zumaops/stockboard/pkg/logger"
)

// syncd exposes a webhook that re-runs the dashboard pipeline, so a
// scheduler or the warehouse team can trigger a refresh after dropping
// new export files.
func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel("info")

	var fetcher sheets.Fetcher
	if cfg.Sheets.CredentialsJSON != "" {
		apiFetcher, err := sheets.NewAPIFetcher(context.Background(), cfg.Sheets.CredentialsJSON, cfg.Sheets.SpreadsheetID)
		if err != nil {
			log.Fatalf("Failed to initialize sheets fetcher: %v", err)
		}
		fetcher = apiFetcher
	} else {
		fetcher = sheets.NewPublishedFetcher(cfg.Sheets)
	}
	sheetCache, err := cache.NewSheetCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Sheet cache unavailable, fetching directly")
		sheetCache = cache.NewNoopSheetCache()
	}
	fetcher = cache.NewCachingFetcher(fetcher, sheetCache)

	renderer, err := report.NewHTMLRenderer()
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		store, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize archive storage: %v", err)
		}
		archiver = storage.NewArchiver(store)
	}

	svc := service.NewInventoryService(pipeline.NewGenerator(fetcher, cfg), renderer, archiver, cfg)

	var repo *postgres.InventoryRepository
	if cfg.Database.SyncEnabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		repo = postgres.NewInventoryRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare inventory schema: %v", err)
		}
	}

	r := mux.NewRouter()

	r.HandleFunc("/api/v1/sync", func(w http.ResponseWriter, req *http.Request) {
		result, err := svc.Refresh(req.Context())
		if err != nil {
			logger.Log.Error().Err(err).Msg("Sync failed")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		if repo != nil {
			storeArea := map[string]string{}
			if result.Snapshot.Masters != nil {
				storeArea = result.Snapshot.Masters.StoreArea
			}
			rows := pipeline.Flatten(result.Snapshot, master.NewAreaResolver(storeArea))
			if err := repo.ReplaceAll(req.Context(), rows); err != nil {
				logger.Log.Error().Err(err).Int("rows", len(rows)).Msg("Database sync failed")
			} else {
				logger.Log.Info().Int("rows", len(rows)).Msg("Inventory synced to database")
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := map[string]any{"status": "ok"}
		if last := svc.LastRefresh(); !last.IsZero() {
			status["last_refresh"] = last.UTC().Format(time.RFC3339)
		}
		json.NewEncoder(w).Encode(status)
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Sync server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
