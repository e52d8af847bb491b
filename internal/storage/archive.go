package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/pkg/logger"
)

// Archiver keeps a dated history of generated dashboards and their
// snapshots in object storage, plus a "latest" copy for direct serving.
// The bucket is created on first use, so a fresh deployment needs no
// manual provisioning.
type Archiver struct {
	store ObjectStorage

	ensureOnce sync.Once
	ensureErr  error
}

func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{store: store}
}

func (a *Archiver) ensure(ctx context.Context) error {
	a.ensureOnce.Do(func() {
		a.ensureErr = a.store.EnsureBucket(ctx)
	})
	return a.ensureErr
}

// ArchiveDashboard uploads the rendered page under a date-stamped key
// and refreshes latest/index.html.
func (a *Archiver) ArchiveDashboard(ctx context.Context, page []byte, at time.Time) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	key := fmt.Sprintf("dashboards/%s/dashboard_inventory.html", at.Format("2006-01-02"))
	if err := a.store.UploadObject(ctx, key, page, "text/html; charset=utf-8"); err != nil {
		return err
	}
	if err := a.store.UploadObject(ctx, "latest/index.html", page, "text/html; charset=utf-8"); err != nil {
		return err
	}
	logger.Log.Info().Str("key", key).Int("bytes", len(page)).Msg("Dashboard archived")
	return nil
}

// ArchiveSnapshot stores the raw snapshot JSON next to the dashboard,
// so a past run can be re-rendered without re-reading the exports.
func (a *Archiver) ArchiveSnapshot(ctx context.Context, snapshot *domain.Snapshot, at time.Time) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	key := fmt.Sprintf("snapshots/%s/snapshot.json", at.Format("2006-01-02"))
	if err := a.store.UploadObject(ctx, key, data, "application/json"); err != nil {
		return err
	}
	logger.Log.Info().Str("key", key).Msg("Snapshot archived")
	return nil
}

// LoadSnapshot pulls an archived snapshot back, by date (2006-01-02)
// or, when date is empty, the most recent one. The date-stamped key
// layout sorts lexicographically, so the newest key is the largest.
func (a *Archiver) LoadSnapshot(ctx context.Context, date string) (*domain.Snapshot, error) {
	if err := a.ensure(ctx); err != nil {
		return nil, err
	}

	key := ""
	if date != "" {
		key = fmt.Sprintf("snapshots/%s/snapshot.json", date)
	} else {
		objects, err := a.store.ListObjects(ctx, "snapshots/")
		if err != nil {
			return nil, fmt.Errorf("list archived snapshots: %w", err)
		}
		for _, obj := range objects {
			if !strings.HasSuffix(obj.Key, "/snapshot.json") {
				continue
			}
			if obj.Key > key {
				key = obj.Key
			}
		}
		if key == "" {
			return nil, fmt.Errorf("no archived snapshots found")
		}
	}

	tmpDir, err := os.MkdirTemp("", "stockboard-archive")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	destPath := filepath.Join(tmpDir, "snapshot.json")
	if err := a.store.DownloadObject(ctx, key, destPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		return nil, fmt.Errorf("read downloaded snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	// Masters are not archived; give downstream consumers empty maps
	// instead of nil.
	snapshot.Masters = domain.NewMasterSet()

	logger.Log.Info().Str("key", key).Msg("Snapshot restored from archive")
	return &snapshot, nil
}
