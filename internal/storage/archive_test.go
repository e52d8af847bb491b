package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/domain"
)

type fakeStore struct {
	ensured   int
	ensureErr error
	objects   map[string][]byte
}

func (s *fakeStore) EnsureBucket(context.Context) error {
	s.ensured++
	return s.ensureErr
}

func (s *fakeStore) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (s *fakeStore) DownloadObject(_ context.Context, key, destPath string) error {
	data, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("no object %s", key)
	}
	return os.WriteFile(destPath, data, 0644)
}

func (s *fakeStore) UploadObject(_ context.Context, key string, data []byte, _ string) error {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func archivedSnapshot(total int) *domain.Snapshot {
	snapshot := domain.NewSnapshot([]string{"DDD"}, domain.NewMasterSet())
	snapshot.Data["DDD"].Warehouse = []domain.InventoryItem{{
		SKU:        "Z2BT01Z24",
		KodeKecil:  "Z2BT01",
		Total:      total,
		StoreStock: map[string]int{"WAREHOUSE PLUIT": total},
		Entity:     "DDD",
		Type:       domain.ListWarehouse,
	}}
	return snapshot
}

func TestArchiveDashboardEnsuresBucketOnce(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)

	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, archiver.ArchiveDashboard(context.Background(), []byte("<html>"), at))
	require.NoError(t, archiver.ArchiveSnapshot(context.Background(), archivedSnapshot(7), at))

	assert.Equal(t, 1, store.ensured)
	assert.Contains(t, store.objects, "dashboards/2026-08-30/dashboard_inventory.html")
	assert.Contains(t, store.objects, "latest/index.html")
	assert.Contains(t, store.objects, "snapshots/2026-08-30/snapshot.json")
}

func TestArchiveDashboardBucketFailure(t *testing.T) {
	store := &fakeStore{ensureErr: fmt.Errorf("no such bucket")}
	archiver := NewArchiver(store)

	err := archiver.ArchiveDashboard(context.Background(), []byte("<html>"), time.Now())
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestLoadSnapshotPicksLatest(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)

	older := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	require.NoError(t, archiver.ArchiveSnapshot(context.Background(), archivedSnapshot(3), older))
	require.NoError(t, archiver.ArchiveSnapshot(context.Background(), archivedSnapshot(9), newer))

	snapshot, err := archiver.LoadSnapshot(context.Background(), "")
	require.NoError(t, err)

	ddd := snapshot.Data["DDD"]
	require.NotNil(t, ddd)
	require.Len(t, ddd.Warehouse, 1)
	assert.Equal(t, 9, ddd.Warehouse[0].Total)
	require.NotNil(t, snapshot.Masters)
}

func TestLoadSnapshotByDate(t *testing.T) {
	store := &fakeStore{}
	archiver := NewArchiver(store)

	at := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	require.NoError(t, archiver.ArchiveSnapshot(context.Background(), archivedSnapshot(3), at))

	snapshot, err := archiver.LoadSnapshot(context.Background(), "2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.Data["DDD"].Warehouse[0].Total)

	_, err = archiver.LoadSnapshot(context.Background(), "2026-01-01")
	assert.Error(t, err)
}

func TestLoadSnapshotEmptyArchive(t *testing.T) {
	archiver := NewArchiver(&fakeStore{})

	_, err := archiver.LoadSnapshot(context.Background(), "")
	assert.Error(t, err)
}
