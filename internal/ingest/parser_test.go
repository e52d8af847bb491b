package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/master"
)

const retailExport = `LAPORAN STOK RETAIL
PT ZUMA INDONESIA
Per 31/08/2026

No;Kode Barang;Nama Barang;ZUMA MALL BALI GALERIA;ZUMA CITY OF TOMORROW MALL;Total
1;Z2BT01Z24;BABY BATMAN 1, 23/24, BLUE;10;8;15
2;Z2BT01Z24;BABY BATMAN 1, 23/24, BLUE;99;99;99
3;HG0001X;HANGER DISPLAY, ZUMA;1;2;3
4;L1SP02Z37;LADIES SPORT, 37, PINK;-2;0;-2
TOTAL;;;108;109;115
`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Stok Retail DDD.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestParser() *Parser {
	areas := master.NewAreaResolver(map[string]string{
		"zuma mall bali galeria": "Bali",
	})
	return NewParser(domain.NewMasterSet(), areas, []string{"zuma city of tomorrow mall"})
}

func TestParseFile(t *testing.T) {
	parser := newTestParser()
	path := writeExport(t, retailExport)

	items, locations, err := parser.ParseFile(path, "DDD", domain.ListRetail)
	require.NoError(t, err)

	require.Len(t, locations, 2)
	assert.Equal(t, "ZUMA MALL BALI GALERIA", locations[0].Name)
	assert.Equal(t, "Bali", locations[0].Area)
	assert.Equal(t, "ZUMA CITY OF TOMORROW MALL", locations[1].Name)

	// The hanger row is excluded, the duplicate SKU collapsed.
	require.Len(t, items, 2)

	batman := items[0]
	assert.Equal(t, "Z2BT01Z24", batman.SKU)
	assert.Equal(t, "Z2BT01", batman.KodeKecil)
	assert.Equal(t, "BABY BATMAN 1, 23/24, BLUE", batman.Name)
	assert.Equal(t, "BABY", batman.Category)
	assert.Equal(t, "BLUE", batman.Color)
	assert.Equal(t, 15, batman.Total)
	assert.Equal(t, "DDD", batman.Entity)
	assert.Equal(t, domain.ListRetail, batman.Type)
	assert.Equal(t, 10, batman.StoreStock["ZUMA MALL BALI GALERIA"])
	// Doubled store quantities are halved, truncating toward zero.
	assert.Equal(t, 4, batman.StoreStock["ZUMA CITY OF TOMORROW MALL"])

	// First occurrence wins over the later duplicate.
	assert.NotEqual(t, 99, batman.Total)

	sport := items[1]
	assert.Equal(t, "L1SP02Z37", sport.SKU)
	assert.Equal(t, "LADIES", sport.Category)
	// Negative stock passes through untouched.
	assert.Equal(t, -2, sport.Total)
	assert.Equal(t, -2, sport.StoreStock["ZUMA MALL BALI GALERIA"])
	// Explicit zeros are kept, they feed the out-of-stock view.
	stock, ok := sport.StoreStock["ZUMA CITY OF TOMORROW MALL"]
	assert.True(t, ok)
	assert.Equal(t, 0, stock)
}

func TestParseFileCommaDelimited(t *testing.T) {
	content := "Kode Barang,Nama Barang,WAREHOUSE PLUIT,WH BALI GATSU,Spare,Extra,Total\n" +
		"Z2DN01Z21,\"BABY DINO, 21/22, NAVY\",7,3,0,0,10\n"
	parser := newTestParser()
	path := writeExport(t, content)

	items, locations, err := parser.ParseFile(path, "DDD", domain.ListWarehouse)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, locations, 2)

	assert.Equal(t, 10, items[0].Total)
	assert.Equal(t, 7, items[0].StoreStock["WAREHOUSE PLUIT"])
	assert.Equal(t, "Warehouse", locations[0].Area)
}

func TestParseFileNoHeader(t *testing.T) {
	parser := newTestParser()
	path := writeExport(t, "just some text\nwith no structure\n")

	_, _, err := parser.ParseFile(path, "DDD", domain.ListRetail)
	assert.Error(t, err)
}

func TestParseFileMissing(t *testing.T) {
	parser := newTestParser()
	_, _, err := parser.ParseFile(filepath.Join(t.TempDir(), "nope.csv"), "DDD", domain.ListRetail)
	assert.Error(t, err)
}
