// internal/report/xlsx.go
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/pkg/logger"
)

// WriteXLSX exports the snapshot as one worksheet per (entity, list
// type) pair, one row per SKU with per-location columns appended after
// the fixed attribute columns.
func WriteXLSX(snapshot *domain.Snapshot, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	entities := make([]string, 0, len(snapshot.Data))
	for entity := range snapshot.Data {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	first := true
	for _, entity := range entities {
		ed := snapshot.Data[entity]
		el := snapshot.Locations[entity]
		for _, part := range []struct {
			suffix string
			items  []domain.InventoryItem
			locs   []domain.Location
		}{
			{"Warehouse", ed.Warehouse, el.Warehouse},
			{"Retail", ed.Retail, el.Retail},
		} {
			if len(part.items) == 0 {
				continue
			}
			sheet := fmt.Sprintf("%s %s", entity, part.suffix)
			if first {
				if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
					return fmt.Errorf("rename sheet: %w", err)
				}
				first = false
			} else {
				if _, err := f.NewSheet(sheet); err != nil {
					return fmt.Errorf("add sheet %s: %w", sheet, err)
				}
			}
			if err := writeEntitySheet(f, sheet, part.items, part.locs); err != nil {
				return err
			}
		}
	}

	if first {
		return fmt.Errorf("nothing to export")
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	logger.Log.Info().Str("path", path).Msg("XLSX export written")
	return nil
}

func writeEntitySheet(f *excelize.File, sheet string, items []domain.InventoryItem, locs []domain.Location) error {
	header := []interface{}{
		"SKU",
		"Kode Kecil",
		"Nama",
		"Size",
		"Kategori",
		"Gender",
		"Series",
		"Tipe",
		"Tier",
		"Warna",
		"Total",
	}
	for _, loc := range locs {
		header = append(header, loc.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header on %s: %w", sheet, err)
	}

	sorted := make([]domain.InventoryItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SKU < sorted[j].SKU })

	for i, item := range sorted {
		row := []interface{}{
			item.SKU,
			item.KodeKecil,
			item.Name,
			item.Size,
			item.Category,
			item.Gender,
			item.Series,
			item.Tipe,
			item.Tier,
			item.Color,
			item.Total,
		}
		for _, loc := range locs {
			row = append(row, item.StoreStock[loc.Name])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row on %s: %w", sheet, err)
		}
	}
	return nil
}
