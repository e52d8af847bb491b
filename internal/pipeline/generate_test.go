// internal/pipeline/generate_test.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/master"
)

type stubFetcher struct {
	sheets map[int]string
}

func (f *stubFetcher) FetchSheet(_ context.Context, gid int) (string, error) {
	text, ok := f.sheets[gid]
	if !ok {
		return "", fmt.Errorf("no sheet %d", gid)
	}
	return text, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	warehouseCSV := "Kode Barang;Nama Barang;WAREHOUSE PLUIT;Total\n" +
		"Z2BT01Z24;BABY BATMAN 1, 23/24, BLUE;12;12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stock WH DDD.csv"), []byte(warehouseCSV), 0644))

	retailCSV := "Kode Barang;Nama Barang;ZUMA MALL BALI GALERIA;Total\n" +
		"Z2BT01Z24;BABY BATMAN 1, 23/24, BLUE;5;5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stok Retail DDD.csv"), []byte(retailCSV), 0644))

	return &config.Config{
		Sheets: config.SheetsConfig{
			GIDMasterData:   0,
			GIDMasterProduk: 1,
			GIDMasterStore:  2,
			GIDMaxStock:     3,
			GIDAssortment:   4,
		},
		Ingest: config.IngestConfig{
			DataDir:     dir,
			EntityOrder: []string{"DDD", "LJBB"},
			Entities: map[string]config.EntityFiles{
				"DDD":  {Warehouse: "Stock WH DDD.csv", Retail: "Stok Retail DDD.csv"},
				"LJBB": {Warehouse: "Stock WH LJBB.csv"},
			},
		},
	}
}

func TestGeneratorRun(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &stubFetcher{sheets: map[int]string{
		2: "Store,Area,,,Warehouse,Area\nZUMA MALL BALI GALERIA,Bali,,,WAREHOUSE PLUIT,Jakarta\n",
	}}

	snapshot, err := NewGenerator(fetcher, cfg).Run(context.Background())
	require.NoError(t, err)

	ddd := snapshot.Data["DDD"]
	require.NotNil(t, ddd)
	require.Len(t, ddd.Warehouse, 1)
	require.Len(t, ddd.Retail, 1)
	assert.Equal(t, 12, ddd.Warehouse[0].Total)
	assert.Equal(t, 5, ddd.Retail[0].Total)

	// The missing LJBB export is skipped, not fatal.
	ljbb := snapshot.Data["LJBB"]
	require.NotNil(t, ljbb)
	assert.Empty(t, ljbb.Warehouse)

	locs := snapshot.Locations["DDD"]
	require.Len(t, locs.Warehouse, 1)
	assert.Equal(t, "Jakarta", locs.Warehouse[0].Area)
	require.Len(t, locs.Retail, 1)
	assert.Equal(t, "Bali", locs.Retail[0].Area)
}

func TestGeneratorRunNoFiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingest.DataDir = t.TempDir()

	_, err := NewGenerator(&stubFetcher{}, cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestGeneratorRunMalformedExportDegrades(t *testing.T) {
	cfg := testConfig(t)

	// A present but garbage export (no recognizable header row) must
	// not cost the healthy entities their snapshot.
	garbage := "not;a;stock;export\njust noise\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Ingest.DataDir, "Stock WH LJBB.csv"), []byte(garbage), 0644))

	snapshot, err := NewGenerator(&stubFetcher{}, cfg).Run(context.Background())
	require.NoError(t, err)

	ddd := snapshot.Data["DDD"]
	require.NotNil(t, ddd)
	require.Len(t, ddd.Warehouse, 1)
	assert.Equal(t, 12, ddd.Warehouse[0].Total)

	ljbb := snapshot.Data["LJBB"]
	require.NotNil(t, ljbb)
	assert.Empty(t, ljbb.Warehouse)
}

func TestGeneratorRunAllExportsMalformed(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.Ingest.DataDir = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stock WH DDD.csv"), []byte("garbage\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stok Retail DDD.csv"), []byte(""), 0644))

	_, err := NewGenerator(&stubFetcher{}, cfg).Run(context.Background())
	assert.Error(t, err)
}

func buildSnapshot() *domain.Snapshot {
	masters := domain.NewMasterSet()
	masters.StoreArea["zuma mall bali galeria"] = "Bali"

	snapshot := domain.NewSnapshot([]string{"DDD"}, masters)
	snapshot.Data["DDD"].Warehouse = []domain.InventoryItem{{
		SKU:       "Z2BT01Z24",
		KodeKecil: "Z2BT01",
		Name:      "BABY BATMAN 1, 23/24, BLUE",
		Category:  "BABY",
		Color:     "BLUE",
		Total:     12,
		StoreStock: map[string]int{
			"WAREHOUSE PLUIT": 12,
			"WH BALI GATSU":   0,
		},
		Entity: "DDD",
		Type:   domain.ListWarehouse,
	}}
	snapshot.Data["DDD"].Retail = []domain.InventoryItem{{
		SKU:        "Z2BT01Z24",
		KodeKecil:  "Z2BT01",
		Name:       "BABY BATMAN 1, 23/24, BLUE",
		Category:   "BABY",
		Total:      5,
		StoreStock: map[string]int{"ZUMA MALL BALI GALERIA": 5},
		Entity:     "DDD",
		Type:       domain.ListRetail,
	}}
	return snapshot
}

func TestFlattenDropsZeroQuantities(t *testing.T) {
	snapshot := buildSnapshot()
	areas := master.NewAreaResolver(snapshot.Masters.StoreArea)

	rows := Flatten(snapshot, areas)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.NotZero(t, row.Qty)
		assert.Equal(t, "DDD", row.Entity)
		assert.Equal(t, "Z2BT01Z24", row.SKUCode)
	}
	assert.Equal(t, "Bali", rows[rowIndexByLocation(rows, "ZUMA MALL BALI GALERIA")].Area)
}

func rowIndexByLocation(rows []domain.FlatRow, location string) int {
	for i, row := range rows {
		if row.LocationName == location {
			return i
		}
	}
	return -1
}

func TestFlattenAssembleRoundTrip(t *testing.T) {
	snapshot := buildSnapshot()
	areas := master.NewAreaResolver(snapshot.Masters.StoreArea)

	rows := Flatten(snapshot, areas)
	rebuilt := Assemble(rows, []string{"DDD"})

	ddd := rebuilt.Data["DDD"]
	require.Len(t, ddd.Warehouse, 1)
	require.Len(t, ddd.Retail, 1)

	wh := ddd.Warehouse[0]
	assert.Equal(t, "Z2BT01Z24", wh.SKU)
	assert.Equal(t, 12, wh.Total)
	assert.Equal(t, 12, wh.StoreStock["WAREHOUSE PLUIT"])
	// Zero-quantity locations are not stored, so they do not come back.
	_, ok := wh.StoreStock["WH BALI GATSU"]
	assert.False(t, ok)

	rt := ddd.Retail[0]
	assert.Equal(t, 5, rt.Total)
	assert.Equal(t, domain.ListRetail, rt.Type)

	locs := rebuilt.Locations["DDD"]
	require.Len(t, locs.Retail, 1)
	assert.Equal(t, "ZUMA MALL BALI GALERIA", locs.Retail[0].Name)
	assert.Equal(t, "Bali", locs.Retail[0].Area)
}
