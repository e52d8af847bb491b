// internal/service/inventory_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/pipeline"
	"github.com/zumaops/stockboard/internal/report"
	"github.com/zumaops/stockboard/internal/storage"
	"github.com/zumaops/stockboard/pkg/logger"
)

// InventoryService owns one full refresh cycle: ingest the exports,
// render the dashboard, write it to disk and optionally archive it.
// Refreshes are serialized; a second trigger waits for the running one.
type InventoryService struct {
	generator *pipeline.Generator
	renderer  *report.HTMLRenderer
	archiver  *storage.Archiver
	cfg       *config.Config

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewInventoryService(generator *pipeline.Generator, renderer *report.HTMLRenderer, archiver *storage.Archiver, cfg *config.Config) *InventoryService {
	return &InventoryService{
		generator: generator,
		renderer:  renderer,
		archiver:  archiver,
		cfg:       cfg,
	}
}

// RefreshResult reports what one refresh produced.
type RefreshResult struct {
	Snapshot   *domain.Snapshot `json:"-"`
	Page       []byte           `json:"-"`
	OutputPath string           `json:"output_path"`
	Items      int              `json:"items"`
	Duration   string           `json:"duration"`
}

// Refresh runs the pipeline end to end and returns the new snapshot
// with its rendered page.
func (s *InventoryService) Refresh(ctx context.Context) (*RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snapshot, err := s.generator.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate snapshot: %w", err)
	}

	page, err := s.renderer.Render(snapshot)
	if err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}

	outPath, err := s.renderer.RenderToFile(snapshot, s.cfg.App.OutputDir, s.cfg.App.OutputFile)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveDashboard(ctx, page, start); err != nil {
			logger.Log.Warn().Err(err).Msg("Dashboard archive failed")
		}
		if err := s.archiver.ArchiveSnapshot(ctx, snapshot, start); err != nil {
			logger.Log.Warn().Err(err).Msg("Snapshot archive failed")
		}
	}

	s.lastRefresh = time.Now()
	result := &RefreshResult{
		Snapshot:   snapshot,
		Page:       page,
		OutputPath: outPath,
		Items:      len(snapshot.Items()),
		Duration:   time.Since(start).Round(time.Millisecond).String(),
	}
	logger.Log.Info().
		Int("items", result.Items).
		Str("duration", result.Duration).
		Msg("Refresh complete")
	return result, nil
}

// LastRefresh reports when the last successful refresh finished, zero
// when none has run yet.
func (s *InventoryService) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}
