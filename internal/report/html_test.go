// internal/report/html_test.go
package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/domain"
)

func testSnapshot() *domain.Snapshot {
	masters := domain.NewMasterSet()
	masters.StoreArea["zuma mall bali galeria"] = "Bali"
	masters.MaxStock["zuma mall bali galeria"] = domain.MaxStockEntry{Name: "ZUMA MALL BALI GALERIA", MaxStock: 1500}
	masters.Assortment["Z2BT01"] = "3-4-3"

	snapshot := domain.NewSnapshot([]string{"DDD"}, masters)
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
	snapshot.Locations["DDD"].Retail = []domain.Location{
		{Name: "ZUMA MALL BALI GALERIA", Area: "Bali", ColIndex: 3},
	}
	return snapshot
}

func TestRenderEmbedsData(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)

	page, err := renderer.Render(testSnapshot())
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "const allData = ")
	assert.Contains(t, html, `"Z2BT01Z24"`)
	assert.Contains(t, html, `"ZUMA MALL BALI GALERIA"`)
	assert.Contains(t, html, `"3-4-3"`)
	assert.Contains(t, html, "const maxStockMap = ")
	assert.Contains(t, html, "Monitoring Stock Retail")
}

func TestRenderEscapesScriptBreakout(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Data["DDD"].Retail[0].Name = `EVIL</script><script>alert(1)`

	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)
	page, err := renderer.Render(snapshot)
	require.NoError(t, err)

	assert.NotContains(t, string(page), "EVIL</script>")
}

func TestRenderToFileWritesIndexCopy(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	require.NoError(t, err)

	dir := t.TempDir()
	outPath, err := renderer.RenderToFile(testSnapshot(), dir, "dashboard_inventory.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dashboard_inventory.html"), outPath)

	main, err := os.ReadFile(outPath)
	require.NoError(t, err)
	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(main), "const allData"))
	assert.Equal(t, main, index)
}
