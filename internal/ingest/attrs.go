// internal/ingest/attrs.go
package ingest

import (
	"regexp"
	"strings"

	"github.com/zumaops/stockboard/internal/domain"
)

// Attributes is the resolved product metadata for one (name, sku) pair.
type Attributes struct {
	Size       string
	Category   string
	Gender     string
	Series     string
	Tipe       string
	Color      string
	KodeKecil  string
	NamaMaster string
	Tier       string
}

var sizeFromSKURe = regexp.MustCompile(`Z(\d{2,3})$`)

// genderCategory maps the master gender field to the dashboard
// category. Unknown genders fall through to the SKU-prefix heuristic.
var genderCategory = map[string]string{
	"BABY":   "BABY",
	"BOYS":   "BOYS",
	"GIRLS":  "GIRLS",
	"JUNIOR": "JUNIOR",
	"LADIES": "LADIES",
	"MEN":    "MEN",
}

// skuPrefixCategory guesses a category from the SKU prefix, checked in
// order. Z-prefixed codes are the baby line, which is also the default.
var skuPrefixCategory = []struct {
	prefixes []string
	category string
}{
	{[]string{"Z", "BB"}, "BABY"},
	{[]string{"B2", "B1"}, "BOYS"},
	{[]string{"G2", "G1"}, "GIRLS"},
	{[]string{"J"}, "JUNIOR"},
	{[]string{"L"}, "LADIES"},
	{[]string{"M"}, "MEN"},
}

// ResolveAttributes joins a raw CSV (name, sku) against the master
// sheets. Priority: per-SKU master record for size/gender/series/tier,
// per-kode-kecil produk record for tipe and a tier override, then SKU
// heuristics for whatever is still blank.
func ResolveAttributes(masters *domain.MasterSet, name, sku string) Attributes {
	var attrs Attributes

	skuUpper := strings.ToUpper(strings.TrimSpace(sku))

	if rec, ok := masters.Data[skuUpper]; ok {
		attrs.KodeKecil = rec.KodeKecil
		attrs.NamaMaster = rec.Nama
		attrs.Series = rec.Series
		attrs.Gender = rec.Gender
		attrs.Tier = rec.Tier
		attrs.Size = rec.Size
	} else {
		attrs.KodeKecil = ExtractKodeKecil(sku)
	}
	if attrs.KodeKecil == "" {
		attrs.KodeKecil = ExtractKodeKecil(sku)
	}

	if produk, ok := masters.Produk[strings.ToUpper(attrs.KodeKecil)]; ok {
		attrs.Tipe = produk.Tipe
		// Produk tier is curated per article; it wins over the per-SKU tier.
		if produk.Tier != "" {
			attrs.Tier = produk.Tier
		}
	}

	if attrs.Size == "" {
		if m := sizeFromSKURe.FindStringSubmatch(skuUpper); m != nil {
			attrs.Size = m[1]
		}
	}

	if cat, ok := genderCategory[strings.ToUpper(attrs.Gender)]; ok {
		attrs.Category = cat
	} else {
		attrs.Category = categoryFromSKU(skuUpper)
	}

	if strings.TrimSpace(attrs.Series) == "" {
		attrs.Series = "-"
	}

	if idx := strings.LastIndex(name, ","); idx >= 0 && idx+1 < len(name) {
		attrs.Color = strings.TrimSpace(name[idx+1:])
	}

	return attrs
}

func categoryFromSKU(skuUpper string) string {
	for _, pc := range skuPrefixCategory {
		for _, prefix := range pc.prefixes {
			if strings.HasPrefix(skuUpper, prefix) {
				return pc.category
			}
		}
	}
	return "BABY"
}
