package master

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/config"
)

type fakeFetcher struct {
	sheets map[int]string
}

func (f *fakeFetcher) FetchSheet(_ context.Context, gid int) (string, error) {
	text, ok := f.sheets[gid]
	if !ok {
		return "", fmt.Errorf("no sheet with gid %d", gid)
	}
	return text, nil
}

const masterDataCSV = `MASTER DATA,,,,,,,,,
Kode Variant(*),Kode Kecil,Barcode,Nama,Brand,Size,Tier,Gender,HPP,Series
Z2BT01Z24,Z2BT01,890123,BABY BATMAN 1,ZUMA,23/24,2,BABY,10000,BATMAN
L1SP02Z37,L1SP02,890124,LADIES SPORT,ZUMA,37,1,LADIES,20000,SPORT
,,,,,,,,,
`

const masterProdukCSV = `MASTER PRODUK,,,,,,
,,,,,,
No,Code,Article,Tipe,Series,Gender,Tier
1,Z2BT01,BABY BATMAN 1,Jepit,BATMAN,BABY,1
2,L1SP02,LADIES SPORT,Slide,SPORT,LADIES,2
`

const masterStoreCSV = `Store,Area,,,Warehouse,Area
ZUMA MALL BALI GALERIA,Bali,,,WAREHOUSE PLUIT,Jakarta
ZUMA TANAH LOT,Bali,,,WH BALI GATSU,Bali
`

const maxStockCSV = `Store,Max Stock
ZUMA MALL BALI GALERIA,1.500
WAREHOUSE PLUIT,tidak diketahui
`

const assortmentCSV = `No,Kode Kecil,Assortment
1,Z2BT01,3-4-3
2,Z2BT01,3-4-3
3,L1SP02,2-2-2-2
`

func testSheetsConfig() config.SheetsConfig {
	return config.SheetsConfig{
		GIDMasterData:   0,
		GIDMasterProduk: 1,
		GIDMasterStore:  2,
		GIDMaxStock:     3,
		GIDAssortment:   4,
	}
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{sheets: map[int]string{
		0: masterDataCSV,
		1: masterProdukCSV,
		2: masterStoreCSV,
		3: maxStockCSV,
		4: assortmentCSV,
	}}
}

func TestLoadAll(t *testing.T) {
	loader := NewLoader(testFetcher(), testSheetsConfig())
	set := loader.LoadAll(context.Background())

	require.Len(t, set.Data, 2)
	rec := set.Data["Z2BT01Z24"]
	assert.Equal(t, "Z2BT01", rec.KodeKecil)
	assert.Equal(t, "BABY BATMAN 1", rec.Nama)
	assert.Equal(t, "23/24", rec.Size)
	assert.Equal(t, "2", rec.Tier)
	assert.Equal(t, "BABY", rec.Gender)
	assert.Equal(t, "BATMAN", rec.Series)

	require.Len(t, set.Produk, 2)
	produk := set.Produk["Z2BT01"]
	assert.Equal(t, "Jepit", produk.Tipe)
	assert.Equal(t, "1", produk.Tier)
	assert.Equal(t, "1", set.TierByName["BABY BATMAN 1"])

	// Full names plus brand-stripped short variants.
	assert.Equal(t, "Bali", set.StoreArea["zuma mall bali galeria"])
	assert.Equal(t, "Bali", set.StoreArea["mall bali galeria"])
	assert.Equal(t, "Jakarta", set.StoreArea["warehouse pluit"])
	assert.Equal(t, "Jakarta", set.StoreArea["pluit"])
	assert.Equal(t, "Bali", set.StoreArea["wh bali gatsu"])

	assert.Equal(t, 1500, set.MaxStock["zuma mall bali galeria"].MaxStock)
	// Unparseable capacity degrades to zero, the entry still exists.
	assert.Equal(t, 0, set.MaxStock["warehouse pluit"].MaxStock)

	assert.Equal(t, "3-4-3", set.Assortment["Z2BT01"])
	assert.Equal(t, "2-2-2-2", set.Assortment["L1SP02"])
}

func TestLoadAllDegradesOnFetchFailure(t *testing.T) {
	fetcher := testFetcher()
	delete(fetcher.sheets, 0)
	delete(fetcher.sheets, 2)

	loader := NewLoader(fetcher, testSheetsConfig())
	set := loader.LoadAll(context.Background())

	// Failed sheets come back empty, the rest still load.
	assert.Empty(t, set.Data)
	assert.Empty(t, set.StoreArea)
	assert.Len(t, set.Produk, 2)
	assert.Len(t, set.Assortment, 2)
}
