// internal/master/loader.go
package master

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/pkg/logger"
)

// Column offsets inside each master sheet. The workbook is maintained
// by non-engineers; the layout is positional, not named, so these are
// pinned here and validated by the header scan.
const (
	// Master Data sheet (per-SKU attributes).
	colDataSKU       = 0
	colDataKodeKecil = 1
	colDataNama      = 3
	colDataSize      = 5
	colDataTier      = 6
	colDataGender    = 7
	colDataSeries    = 9
	minDataColumns   = 10

	// Master Produk sheet (per-kode-kecil attributes).
	colProdukCode    = 1
	colProdukArticle = 2
	colProdukTipe    = 3
	colProdukSeries  = 4
	colProdukGender  = 5
	colProdukTier    = 6
	minProdukColumns = 7
	produkDataRow    = 3 // two decorative rows plus the header row

	// Master Store sheet: retail pairs on the left, warehouses on the right.
	colStoreName   = 0
	colStoreArea   = 1
	colStoreWHName = 4
	colStoreWHArea = 5

	// Max Stock and Assortment sheets.
	colMaxStockName  = 0
	colMaxStockValue = 1
	colAssortKecil   = 1
	colAssortValue   = 2

	headerScanRows = 10
)

// Loader populates a MasterSet from the five auxiliary sheets.
type Loader struct {
	fetcher sheets.Fetcher
	cfg     config.SheetsConfig
}

func NewLoader(fetcher sheets.Fetcher, cfg config.SheetsConfig) *Loader {
	return &Loader{fetcher: fetcher, cfg: cfg}
}

// LoadAll fetches all five sheets concurrently. A failed sheet leaves
// its map empty and logs a warning; LoadAll itself never fails, so a
// run degrades to unenriched records instead of aborting.
func (l *Loader) LoadAll(ctx context.Context) *domain.MasterSet {
	set := domain.NewMasterSet()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.loadSheet(gctx, "master data", l.cfg.GIDMasterData, func(rows [][]string) int {
			return parseMasterData(rows, set.Data)
		})
		return nil
	})
	g.Go(func() error {
		l.loadSheet(gctx, "master produk", l.cfg.GIDMasterProduk, func(rows [][]string) int {
			return parseMasterProduk(rows, set.Produk, set.TierByName)
		})
		return nil
	})
	g.Go(func() error {
		l.loadSheet(gctx, "master store", l.cfg.GIDMasterStore, func(rows [][]string) int {
			return parseMasterStore(rows, set.StoreArea)
		})
		return nil
	})
	g.Go(func() error {
		l.loadSheet(gctx, "max stock", l.cfg.GIDMaxStock, func(rows [][]string) int {
			return parseMaxStock(rows, set.MaxStock)
		})
		return nil
	})
	g.Go(func() error {
		l.loadSheet(gctx, "assortment", l.cfg.GIDAssortment, func(rows [][]string) int {
			return parseAssortment(rows, set.Assortment)
		})
		return nil
	})

	// Goroutines swallow their errors; Wait only propagates ctx cancellation.
	_ = g.Wait()

	return set
}

func (l *Loader) loadSheet(ctx context.Context, name string, gid int, parse func([][]string) int) {
	text, err := l.fetcher.FetchSheet(ctx, gid)
	if err != nil {
		logger.Log.Warn().Err(err).Str("sheet", name).Int("gid", gid).Msg("sheet fetch failed, continuing with empty data")
		return
	}

	rows, err := readCSVRows(text)
	if err != nil {
		logger.Log.Warn().Err(err).Str("sheet", name).Msg("sheet parse failed, continuing with empty data")
		return
	}

	count := parse(rows)
	logger.Log.Info().Str("sheet", name).Int("records", count).Msg("master sheet loaded")
}

func readCSVRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// parseMasterData reads the per-SKU sheet. The header position drifts
// as decorative rows are added above it, so it is discovered by token.
func parseMasterData(rows [][]string, out map[string]domain.MasterRecord) int {
	headerRow := 0
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		joined := strings.ToLower(strings.Join(row, ""))
		if strings.Contains(joined, "kode variant") || strings.Contains(joined, "kode(*)") {
			headerRow = i
			break
		}
	}

	count := 0
	for _, row := range rows[min(headerRow+1, len(rows)):] {
		if len(row) < minDataColumns {
			continue
		}

		sku := strings.ToUpper(strings.TrimSpace(row[colDataSKU]))
		if sku == "" || sku == "KODE VARIANT(*)" || sku == "KODE VARIANT" {
			continue
		}

		out[sku] = domain.MasterRecord{
			KodeKecil: strings.ToUpper(strings.TrimSpace(row[colDataKodeKecil])),
			Nama:      strings.TrimSpace(row[colDataNama]),
			Size:      strings.TrimSpace(row[colDataSize]),
			Tier:      strings.TrimSpace(row[colDataTier]),
			Gender:    strings.TrimSpace(row[colDataGender]),
			Series:    strings.TrimSpace(row[colDataSeries]),
		}
		count++
	}
	return count
}

func parseMasterProduk(rows [][]string, out map[string]domain.ProdukRecord, tierByName map[string]string) int {
	if len(rows) <= produkDataRow {
		return 0
	}

	count := 0
	for _, row := range rows[produkDataRow:] {
		if len(row) < minProdukColumns {
			continue
		}

		kode := strings.ToUpper(strings.TrimSpace(row[colProdukCode]))
		switch kode {
		case "", "CODE", "NO", "1":
			continue
		}

		rec := domain.ProdukRecord{
			Article: strings.TrimSpace(row[colProdukArticle]),
			Tipe:    strings.TrimSpace(row[colProdukTipe]),
			Series:  strings.TrimSpace(row[colProdukSeries]),
			Gender:  strings.TrimSpace(row[colProdukGender]),
			Tier:    strings.TrimSpace(row[colProdukTier]),
		}
		out[kode] = rec

		if rec.Article != "" && rec.Tier != "" {
			tierByName[strings.ToUpper(rec.Article)] = rec.Tier
		}
		count++
	}
	return count
}

// parseMasterStore records both the full lowercase name and short
// variants with the brand/warehouse prefixes stripped, so the
// substring matcher can hit either form.
func parseMasterStore(rows [][]string, out map[string]string) int {
	if len(rows) < 2 {
		return 0
	}

	count := 0
	for _, row := range rows[1:] {
		if len(row) >= colStoreArea+1 {
			name := strings.TrimSpace(row[colStoreName])
			area := strings.TrimSpace(row[colStoreArea])
			if name != "" && area != "" {
				lower := strings.ToLower(name)
				out[lower] = area
				if short := stripNameNoise(lower, "zuma ", "zuma"); short != "" {
					out[short] = area
				}
				count++
			}
		}

		if len(row) >= colStoreWHArea+1 {
			name := strings.TrimSpace(row[colStoreWHName])
			area := strings.TrimSpace(row[colStoreWHArea])
			if name != "" && area != "" {
				lower := strings.ToLower(name)
				out[lower] = area
				if short := stripNameNoise(lower, "warehouse ", "wh "); short != "" {
					out[short] = area
				}
				count++
			}
		}
	}
	return count
}

func stripNameNoise(lower string, noise ...string) string {
	short := lower
	for _, n := range noise {
		short = strings.ReplaceAll(short, n, "")
	}
	short = strings.TrimSpace(short)
	if short == lower {
		return ""
	}
	return short
}

func parseMaxStock(rows [][]string, out map[string]domain.MaxStockEntry) int {
	if len(rows) < 2 {
		return 0
	}

	count := 0
	for _, row := range rows[1:] {
		if len(row) < colMaxStockValue+1 {
			continue
		}

		name := strings.TrimSpace(row[colMaxStockName])
		raw := strings.TrimSpace(row[colMaxStockValue])
		if name == "" || raw == "" {
			continue
		}

		// Values show up as "1.500", "1,500" or "tidak diketahui".
		cleaned := strings.NewReplacer(",", "", ".", "").Replace(raw)
		maxStock, err := strconv.Atoi(cleaned)
		if err != nil {
			maxStock = 0
		}

		entry := domain.MaxStockEntry{Name: name, MaxStock: maxStock}
		lower := strings.ToLower(name)
		out[lower] = entry
		if short := stripNameNoise(lower, "zuma ", "zuma", "warehouse "); short != "" && short != lower {
			out[short] = entry
		}
		count++
	}
	return count
}

func parseAssortment(rows [][]string, out map[string]string) int {
	if len(rows) < 2 {
		return 0
	}

	count := 0
	for _, row := range rows[1:] {
		if len(row) < colAssortValue+1 {
			continue
		}

		kode := strings.ToUpper(strings.TrimSpace(row[colAssortKecil]))
		assortment := strings.TrimSpace(row[colAssortValue])
		if kode == "" || assortment == "" {
			continue
		}

		// The sheet repeats the ratio once per size row; keep the first.
		if _, ok := out[kode]; !ok {
			out[kode] = assortment
			count++
		}
	}
	return count
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
