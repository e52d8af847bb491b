package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/zumaops/stockboard/internal/cache"
	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/master"
	"github.com/zumaops/stockboard/internal/pipeline"
	"github.com/zumaops/stockboard/internal/report"
	"github.com/zumaops/stockboard/internal/repository/postgres"
	"github.com/zumaops/stockboard/internal/service"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/internal/storage"
	"github.com/zumaops/stockboard/internal/supabase"
	"github.com/zumaops/stockboard/pkg/logger"
)

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing the stock export CSV files",
		Value:   ".",
		EnvVars: []string{"INGEST_DATA_DIR"},
	}
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Postgres connection string; when set, rows go to Postgres instead of Supabase",
		EnvVars: []string{"DATABASE_URL"},
	}
}

// newFetcher builds the sheet fetcher: the Sheets API when a service
// account is configured, the published CSV endpoint otherwise, both
// behind the optional Redis cache.
func newFetcher(ctx context.Context, cfg *config.Config) (sheets.Fetcher, error) {
	var fetcher sheets.Fetcher
	if cfg.Sheets.CredentialsJSON != "" {
		apiFetcher, err := sheets.NewAPIFetcher(ctx, cfg.Sheets.CredentialsJSON, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("sheets api fetcher: %w", err)
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
	return cache.NewCachingFetcher(fetcher, sheetCache), nil
}

func newService(ctx context.Context, cfg *config.Config) (*service.InventoryService, error) {
	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	renderer, err := report.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		store, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("archive storage: %w", err)
		}
		archiver = storage.NewArchiver(store)
	}

	generator := pipeline.NewGenerator(fetcher, cfg)
	return service.NewInventoryService(generator, renderer, archiver, cfg), nil
}

func loadConfig(c *cli.Context) *config.Config {
	cfg := config.Load()
	if dir := c.String("data-dir"); dir != "" {
		cfg.Ingest.DataDir = dir
	}
	return cfg
}

func runGenerate(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := newService(c.Context, cfg)
	if err != nil {
		return err
	}
	result, err := svc.Refresh(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Dashboard generated: %s (%d items, %s)\n", result.OutputPath, result.Items, result.Duration)
	return nil
}

// snapshotAreas rebuilds the area resolver from the masters carried by
// the snapshot, so flattening resolves areas the same way parsing did.
func snapshotAreas(snapshot *domain.Snapshot) *master.AreaResolver {
	storeArea := map[string]string{}
	if snapshot.Masters != nil {
		storeArea = snapshot.Masters.StoreArea
	}
	return master.NewAreaResolver(storeArea)
}

func runUpload(c *cli.Context) error {
	cfg := loadConfig(c)

	fetcher, err := newFetcher(c.Context, cfg)
	if err != nil {
		return err
	}
	generator := pipeline.NewGenerator(fetcher, cfg)
	snapshot, err := generator.Run(c.Context)
	if err != nil {
		return err
	}
	rows := pipeline.Flatten(snapshot, snapshotAreas(snapshot))
	logger.Log.Info().Int("rows", len(rows)).Msg("Flattened snapshot for upload")

	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDBFromURL(dbURL)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := postgres.NewInventoryRepository(db)
		if err := repo.EnsureSchema(c.Context); err != nil {
			return err
		}
		if c.Bool("replace") {
			return repo.ReplaceAll(c.Context, rows)
		}
		return repo.Upsert(c.Context, rows)
	}

	client, err := supabase.NewClient(cfg.Supabase)
	if err != nil {
		return err
	}
	if c.Bool("replace") {
		if err := client.Clear(c.Context); err != nil {
			return err
		}
	}
	uploaded, failed, err := client.Upsert(c.Context, rows)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d rows (%d failed)\n", uploaded, failed)
	return nil
}

func runFetch(c *cli.Context) error {
	cfg := loadConfig(c)

	if c.Bool("from-archive") {
		return runFetchFromArchive(c, cfg)
	}

	var rows []domain.FlatRow
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDBFromURL(dbURL)
		if err != nil {
			return err
		}
		defer db.Close()

		fetched, err := postgres.NewInventoryRepository(db).FetchAll(c.Context, cfg.Supabase.PageSize)
		if err != nil {
			return err
		}
		rows = fetched
	} else {
		client, err := supabase.NewClient(cfg.Supabase)
		if err != nil {
			return err
		}
		fetched, err := client.FetchAll(c.Context)
		if err != nil {
			return err
		}
		rows = fetched
	}

	if len(rows) == 0 {
		return fmt.Errorf("no inventory rows found")
	}

	snapshot := pipeline.Assemble(rows, cfg.Ingest.EntityOrder)
	renderer, err := report.NewHTMLRenderer()
	if err != nil {
		return err
	}
	outPath, err := renderer.RenderToFile(snapshot, cfg.App.OutputDir, cfg.App.OutputFile)
	if err != nil {
		return err
	}
	fmt.Printf("Dashboard generated from %d rows: %s\n", len(rows), outPath)
	return nil
}

// runFetchFromArchive re-renders the dashboard from an archived
// snapshot, skipping the exports and the database entirely.
func runFetchFromArchive(c *cli.Context, cfg *config.Config) error {
	store, err := storage.NewMinioClient(cfg.Archive)
	if err != nil {
		return fmt.Errorf("archive storage: %w", err)
	}

	snapshot, err := storage.NewArchiver(store).LoadSnapshot(c.Context, c.String("archive-date"))
	if err != nil {
		return err
	}

	renderer, err := report.NewHTMLRenderer()
	if err != nil {
		return err
	}
	outPath, err := renderer.RenderToFile(snapshot, cfg.App.OutputDir, cfg.App.OutputFile)
	if err != nil {
		return err
	}
	fmt.Printf("Dashboard restored from archive: %s\n", outPath)
	return nil
}

func runExport(c *cli.Context) error {
	cfg := loadConfig(c)

	fetcher, err := newFetcher(c.Context, cfg)
	if err != nil {
		return err
	}
	snapshot, err := pipeline.NewGenerator(fetcher, cfg).Run(c.Context)
	if err != nil {
		return err
	}

	out := c.String("out")
	switch c.String("format") {
	case "xlsx":
		if out == "" {
			out = filepath.Join(cfg.App.OutputDir, "stock_export.xlsx")
		}
		return report.WriteXLSX(snapshot, out)
	case "csv":
		if out == "" {
			out = filepath.Join(cfg.App.OutputDir, "stock_export.csv")
		}
		rows := pipeline.Flatten(snapshot, snapshotAreas(snapshot))
		return report.WriteCSV(rows, out)
	default:
		return fmt.Errorf("unknown export format %q (want xlsx or csv)", c.String("format"))
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "stockboard",
		Usage: "Generate and publish the Zuma stock dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Parse the stock exports and write the dashboard HTML",
				Flags:  []cli.Flag{newDataDirFlag()},
				Action: runGenerate,
			},
			{
				Name:  "upload",
				Usage: "Flatten the current exports and push them to Supabase or Postgres",
				Flags: []cli.Flag{
					newDataDirFlag(),
					newDBURLFlag(),
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Clear existing rows before uploading",
					},
				},
				Action: runUpload,
			},
			{
				Name:  "fetch",
				Usage: "Rebuild the dashboard from rows stored in Supabase or Postgres",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.BoolFlag{
						Name:  "from-archive",
						Usage: "Restore an archived snapshot instead of querying the database",
					},
					&cli.StringFlag{
						Name:  "archive-date",
						Usage: "Archived snapshot date (YYYY-MM-DD), latest when empty",
					},
				},
				Action: runFetch,
			},
			{
				Name:  "export",
				Usage: "Export the parsed stock data as XLSX or CSV",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: xlsx or csv",
						Value: "xlsx",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file path",
					},
				},
				Action: runExport,
			},
			{
				Name:  "serve",
				Usage: "Serve the dashboard and inventory API over HTTP",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.IntFlag{
						Name:    "refresh-interval",
						Usage:   "Seconds between automatic refreshes, 0 disables",
						Value:   0,
						EnvVars: []string{"REFRESH_INTERVAL_SECONDS"},
					},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
