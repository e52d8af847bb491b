// internal/ingest/number.go
package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// sizeSuffixRe matches the trailing size token of a variant SKU, e.g.
// the "Z24" of "Z2BT01Z24". Stripping it leaves the kode kecil.
var sizeSuffixRe = regexp.MustCompile(`(?i)Z\d{2,3}$`)

// ExtractKodeKecil derives the base article code from a full SKU. A SKU
// without a trailing size token is its own kode kecil.
func ExtractKodeKecil(sku string) string {
	if sku == "" {
		return ""
	}
	return sizeSuffixRe.ReplaceAllString(strings.TrimSpace(sku), "")
}

// ParseNumber parses a quantity cell using the Indonesian convention:
// "." is a thousands separator and "," the decimal mark, so "1.234,5"
// is 1234.5. The result is rounded to the nearest int. Anything
// unparseable is 0, a bad cell never kills a row.
func ParseNumber(val string) int {
	if val == "" {
		return 0
	}
	s := strings.TrimSpace(strings.ReplaceAll(val, `"`, ""))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

// excludeKeywords marks accessories and display material that ride
// along in the exports but are not sellable sandals.
var excludeKeywords = []string{
	"HANGER", "GANTUNGAN", "DISPLAY", "AKSESORIS", "AKSESORI",
	"BAG ", "TAS ", "POUCH", "SOCK", "KAOS KAKI", "DOMPET",
}

// IsSandalProduct reports whether the resolved display name describes
// an actual product. The check runs against the name, after master
// name resolution, so upstream naming decides inclusion.
func IsSandalProduct(name, sku string) bool {
	if name == "" && sku == "" {
		return true
	}

	upper := strings.ToUpper(name)
	for _, kw := range excludeKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}
