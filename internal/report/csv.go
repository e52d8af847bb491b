// internal/report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/zumaops/stockboard/internal/domain"
)

// WriteCSV exports flat rows as a single semicolon-delimited file, the
// same delimiter convention the warehouse exports use.
func WriteCSV(rows []domain.FlatRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	header := []string{
		"sku_code", "kode_kecil", "product_name", "size", "category",
		"gender", "series", "tier", "color",
		"location_name", "area", "qty", "entity", "list_type",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.SKUCode, row.KodeKecil, row.ProductName, row.Size, row.Category,
			row.Gender, row.Series, row.Tier, row.Color,
			row.LocationName, row.Area, strconv.Itoa(row.Qty), row.Entity, row.ListType,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
