// internal/master/area.go
package master

import (
	"sort"
	"strings"
)

// MatchRule reports which step of the resolution chain produced an
// area, mainly so unmapped locations can be surfaced in logs.
type MatchRule string

const (
	MatchExact            MatchRule = "exact"
	MatchSubstring        MatchRule = "substring"
	MatchKeyword          MatchRule = "keyword"
	MatchWarehouseDefault MatchRule = "warehouse_default"
	MatchDefault          MatchRule = "default"
)

// keywordFallback maps location-name fragments to areas when the
// roster sheet has no entry. Order matters: first hit wins.
var keywordFallback = []struct {
	keyword string
	area    string
}{
	{"WAREHOUSE", "Warehouse"},
	{"PUSAT", "Jawa Timur"},
	{"WH", "Warehouse"},
	{"GUDANG", "Warehouse"},
	{"BOX", "Bali"},
	{"PROTOL", "Bali"},
	{"REJECT", "Bali"},
}

// AreaResolver resolves store/warehouse names to area labels using the
// roster sheet first and a keyword fallback chain after. It always
// returns a value; Resolve can never fail, only misclassify.
type AreaResolver struct {
	areas map[string]string
	// keys sorted longest-first so the substring step is deterministic
	// instead of inheriting map iteration order.
	orderedKeys []string
}

func NewAreaResolver(storeArea map[string]string) *AreaResolver {
	keys := make([]string, 0, len(storeArea))
	for k := range storeArea {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &AreaResolver{areas: storeArea, orderedKeys: keys}
}

// Resolve returns the area label for a location name.
func (r *AreaResolver) Resolve(location string) string {
	area, _ := r.ResolveDetail(location)
	return area
}

// ResolveDetail also reports which rule matched. Longest roster key
// wins on the substring step; ties break lexicographically.
func (r *AreaResolver) ResolveDetail(location string) (string, MatchRule) {
	if location == "" {
		return "Warehouse", MatchDefault
	}

	lower := strings.ToLower(strings.TrimSpace(location))

	if area, ok := r.areas[lower]; ok {
		return area, MatchExact
	}

	for _, key := range r.orderedKeys {
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return r.areas[key], MatchSubstring
		}
	}

	upper := strings.ToUpper(location)
	for _, kf := range keywordFallback {
		if strings.Contains(upper, kf.keyword) {
			return kf.area, MatchKeyword
		}
	}

	if strings.Contains(upper, "WAREHOUSE") || strings.Contains(upper, "WH ") || strings.Contains(upper, "GUDANG") {
		return "Warehouse", MatchWarehouseDefault
	}

	// Most unmapped stores historically turned out to be Bali outlets.
	return "Bali", MatchDefault
}
