// internal/ingest/parser.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/master"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/pkg/logger"
)

const (
	delimiterSampleSize  = 2000
	headerScanLimit      = 15
	minDataRowColumns    = 3
	longNameMinLength    = 10
	doubledStoreFactor   = 0.5
	storeHeaderMinLength = 3
)

// skuCellRe matches a plausible SKU cell: alphanumeric (plus dashes),
// at least five characters.
var skuCellRe = regexp.MustCompile(`(?i)^[A-Z0-9\-]{5,}$`)

// Parser turns one stock export CSV into inventory items. It holds the
// master set and the area resolver for the whole run; ParseFile itself
// is stateless across calls.
type Parser struct {
	masters *domain.MasterSet
	areas   *master.AreaResolver
	// doubled maps lowercase store names whose export rows appear twice
	// (old and new store code) to the correction factor.
	doubled map[string]float64
}

func NewParser(masters *domain.MasterSet, areas *master.AreaResolver, doubledStores []string) *Parser {
	doubled := make(map[string]float64, len(doubledStores))
	for _, name := range doubledStores {
		doubled[strings.ToLower(name)] = doubledStoreFactor
	}
	return &Parser{masters: masters, areas: areas, doubled: doubled}
}

// ParseFile reads a warehouse or retail export and returns its items
// and detected location columns. Row-level problems are skipped, never
// fatal; only an unreadable or structureless file returns an error.
func (p *Parser) ParseFile(path, entity string, listType domain.ListType) ([]domain.InventoryItem, []domain.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read stock export: %w", err)
	}

	text := sheets.DecodeText(data)
	rows, err := readStockRows(text)
	if err != nil {
		return nil, nil, fmt.Errorf("parse stock export %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("stock export %s is empty", path)
	}

	headerRow, layout, ok := findHeader(rows)
	if !ok {
		return nil, nil, fmt.Errorf("stock export %s: no recognizable header row", path)
	}

	locations := p.buildLocations(layout)
	items := p.parseDataRows(rows[headerRow+1:], layout, entity, listType)

	logger.Log.Info().
		Str("file", path).
		Str("entity", entity).
		Str("type", string(listType)).
		Int("items", len(items)).
		Int("locations", len(locations)).
		Msg("stock export parsed")

	return items, locations, nil
}

// readStockRows sniffs the delimiter from a content sample before
// parsing; the exports come in both semicolon and comma dialects.
func readStockRows(text string) ([][]string, error) {
	sample := text
	if len(sample) > delimiterSampleSize {
		sample = sample[:delimiterSampleSize]
	}

	delim := ','
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		delim = ';'
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// columnLayout is the classified header of one export.
type columnLayout struct {
	skuCol    int
	nameCol   int
	totalCol  int
	storeCols map[int]string // column index -> location name
}

// findHeader scans the leading rows for the header (recognized by its
// literal phrases) and classifies each header cell.
func findHeader(rows [][]string) (int, columnLayout, bool) {
	layout := columnLayout{skuCol: -1, nameCol: -1, totalCol: -1, storeCols: map[int]string{}}

	for i, row := range rows {
		if i >= headerScanLimit {
			break
		}
		joined := strings.ToLower(strings.Join(row, ""))
		if !strings.Contains(joined, "kode barang") &&
			!(strings.Contains(joined, "nama barang") && len(row) > 5) {
			continue
		}

		for idx, h := range row {
			cell := strings.TrimSpace(h)
			lower := strings.ToLower(cell)

			switch {
			case strings.Contains(lower, "kode barang") || lower == "kode":
				layout.skuCol = idx
			case strings.Contains(lower, "nama barang"):
				layout.nameCol = idx
			case strings.Contains(lower, "total"):
				layout.totalCol = idx
			case len(cell) >= storeHeaderMinLength && isLocationHeader(cell):
				layout.storeCols[idx] = cell
			}
		}
		return i, layout, true
	}

	return 0, layout, false
}

func isLocationHeader(cell string) bool {
	upper := strings.ToUpper(cell)
	for _, kw := range []string{"ZUMA", "WAREHOUSE", "WH"} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	// Mixed-case markers used by the retail exports.
	for _, kw := range []string{"Mall", "Store", "Toko"} {
		if strings.Contains(cell, kw) {
			return true
		}
	}
	return false
}

func (p *Parser) buildLocations(layout columnLayout) []domain.Location {
	cols := make([]int, 0, len(layout.storeCols))
	for idx := range layout.storeCols {
		cols = append(cols, idx)
	}
	sort.Ints(cols)

	locations := make([]domain.Location, 0, len(cols))
	for _, idx := range cols {
		name := layout.storeCols[idx]
		area, rule := p.areas.ResolveDetail(name)
		if rule == master.MatchDefault {
			logger.Log.Debug().Str("location", name).Str("area", area).Msg("location not in roster, using default area")
		}
		locations = append(locations, domain.Location{Name: name, Area: area, ColIndex: idx})
	}
	return locations
}

func (p *Parser) parseDataRows(rows [][]string, layout columnLayout, entity string, listType domain.ListType) []domain.InventoryItem {
	items := []domain.InventoryItem{}
	seen := map[string]struct{}{}

	for _, row := range rows {
		if len(row) < minDataRowColumns {
			continue
		}

		sku := findSKU(row)
		if sku == "" {
			continue
		}

		// First occurrence wins; the exports repeat SKUs for summary rows.
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}

		name := resolveRawName(row, layout)
		total := resolveTotal(row, layout)
		storeStock := p.resolveStoreStock(row, layout)

		attrs := ResolveAttributes(p.masters, name, sku)

		displayName := attrs.NamaMaster
		if displayName == "" {
			displayName = name
		}
		if displayName == "" {
			displayName = sku
		}

		if !IsSandalProduct(displayName, sku) {
			continue
		}

		items = append(items, domain.InventoryItem{
			SKU:        sku,
			KodeKecil:  attrs.KodeKecil,
			Name:       displayName,
			Size:       attrs.Size,
			Category:   attrs.Category,
			Gender:     attrs.Gender,
			Series:     attrs.Series,
			Tipe:       attrs.Tipe,
			Tier:       attrs.Tier,
			Color:      attrs.Color,
			Total:      total,
			StoreStock: storeStock,
			Entity:     entity,
			Type:       listType,
		})
	}

	return items
}

// findSKU picks the first cell that looks like a SKU: long enough,
// alphanumeric, no spaces, and not a totals marker.
func findSKU(row []string) string {
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if c == "" || !skuCellRe.MatchString(c) {
			continue
		}
		if strings.Contains(c, " ") || strings.Contains(strings.ToLower(c), "total") {
			continue
		}
		return c
	}
	return ""
}

func resolveRawName(row []string, layout columnLayout) string {
	if layout.nameCol >= 0 && layout.nameCol < len(row) {
		if name := strings.TrimSpace(row[layout.nameCol]); name != "" {
			return name
		}
	}
	// Fallback: product names are long and carry a ", SIZE, COLOR" tail.
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if len(c) > longNameMinLength && strings.Contains(c, ",") {
			return c
		}
	}
	return ""
}

func resolveTotal(row []string, layout columnLayout) int {
	if layout.totalCol >= 0 && layout.totalCol < len(row) {
		return ParseNumber(row[layout.totalCol])
	}
	// No total column: take the last cell that parses to something.
	for j := len(row) - 1; j >= 0; j-- {
		c := strings.TrimSpace(row[j])
		if c == "" || c == "-" {
			continue
		}
		val := ParseNumber(c)
		if val != 0 || strings.Contains(c, "0") {
			return val
		}
	}
	return 0
}

// resolveStoreStock reads every detected location column, keeping
// explicit zeros: zero stock drives the out-of-stock view downstream.
func (p *Parser) resolveStoreStock(row []string, layout columnLayout) map[string]int {
	stock := make(map[string]int, len(layout.storeCols))
	for idx, name := range layout.storeCols {
		if idx >= len(row) {
			continue
		}
		val := ParseNumber(row[idx])
		if factor, ok := p.doubled[strings.ToLower(name)]; ok {
			val = int(float64(val) * factor)
		}
		stock[name] = val
	}
	return stock
}
