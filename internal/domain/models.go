// internal/domain/models.go
package domain

// ListType distinguishes warehouse exports from retail exports.
type ListType string

const (
	ListWarehouse ListType = "warehouse"
	ListRetail    ListType = "retail"
)

// MasterRecord is one row of the Master Data sheet, keyed by full SKU.
type MasterRecord struct {
	KodeKecil string `json:"kode_kecil"`
	Nama      string `json:"nama"`
	Size      string `json:"size"`
	Tier      string `json:"tier"`
	Gender    string `json:"gender"`
	Series    string `json:"series"`
}

// ProdukRecord is one row of the Master Produk sheet, keyed by kode kecil.
// Its tier wins over the per-SKU tier when both are present.
type ProdukRecord struct {
	Article string `json:"article"`
	Tipe    string `json:"tipe"`
	Series  string `json:"series"`
	Gender  string `json:"gender"`
	Tier    string `json:"tier"`
}

// MaxStockEntry holds the configured capacity for one store or warehouse.
type MaxStockEntry struct {
	Name     string `json:"name"`
	MaxStock int    `json:"max_stock"`
}

// MasterSet bundles the auxiliary sheets for one run. It is built once
// by the master loaders and treated as read-only afterwards.
type MasterSet struct {
	Data       map[string]MasterRecord  // full SKU (upper) -> record
	Produk     map[string]ProdukRecord  // kode kecil (upper) -> record
	TierByName map[string]string        // article name (upper) -> tier
	StoreArea  map[string]string        // location name (lower) -> area
	MaxStock   map[string]MaxStockEntry // location name (lower) -> capacity
	Assortment map[string]string        // kode kecil (upper) -> assortment ratio ("3-4-3")
}

// NewMasterSet returns a MasterSet with all maps allocated, so a failed
// sheet fetch degrades to empty lookups instead of nil map panics.
func NewMasterSet() *MasterSet {
	return &MasterSet{
		Data:       make(map[string]MasterRecord),
		Produk:     make(map[string]ProdukRecord),
		TierByName: make(map[string]string),
		StoreArea:  make(map[string]string),
		MaxStock:   make(map[string]MaxStockEntry),
		Assortment: make(map[string]string),
	}
}

// Location is one per-store or per-warehouse column found in a stock export.
type Location struct {
	Name     string `json:"name"`
	Area     string `json:"area"`
	ColIndex int    `json:"col_index"`
}

// InventoryItem is the unit of dashboard output: one SKU within one
// (entity, list type) export. Quantities are signed; negative stock
// represents over-issued or unreconciled rows and passes through as-is.
type InventoryItem struct {
	SKU        string         `json:"sku" db:"sku_code"`
	KodeKecil  string         `json:"kode_kecil" db:"kode_kecil"`
	Name       string         `json:"name" db:"product_name"`
	Size       string         `json:"size" db:"size"`
	Category   string         `json:"category" db:"category"`
	Gender     string         `json:"gender" db:"gender"`
	Series     string         `json:"series" db:"series"`
	Tipe       string         `json:"tipe" db:"tipe"`
	Tier       string         `json:"tier" db:"tier"`
	Color      string         `json:"color" db:"color"`
	Total      int            `json:"total" db:"total"`
	StoreStock map[string]int `json:"store_stock" db:"-"`
	Entity     string         `json:"entity" db:"entity"`
	Type       ListType       `json:"type" db:"list_type"`
}

// EntityData holds the parsed exports for one entity.
type EntityData struct {
	Warehouse []InventoryItem `json:"warehouse"`
	Retail    []InventoryItem `json:"retail"`
}

// EntityLocations mirrors EntityData for the detected location columns.
type EntityLocations struct {
	Warehouse []Location `json:"warehouse"`
	Retail    []Location `json:"retail"`
}

// Snapshot is the full result of one ingestion run: everything the
// dashboard template and the export surfaces consume.
type Snapshot struct {
	Data      map[string]*EntityData      `json:"data"`      // entity code -> items
	Locations map[string]*EntityLocations `json:"locations"` // entity code -> locations
	Masters   *MasterSet                  `json:"-"`
}

// NewSnapshot returns an empty Snapshot for the given entity codes.
func NewSnapshot(entities []string, masters *MasterSet) *Snapshot {
	s := &Snapshot{
		Data:      make(map[string]*EntityData, len(entities)),
		Locations: make(map[string]*EntityLocations, len(entities)),
		Masters:   masters,
	}
	for _, e := range entities {
		s.Data[e] = &EntityData{Warehouse: []InventoryItem{}, Retail: []InventoryItem{}}
		s.Locations[e] = &EntityLocations{Warehouse: []Location{}, Retail: []Location{}}
	}
	return s
}

// Items returns every item in the snapshot, entity order unspecified.
func (s *Snapshot) Items() []InventoryItem {
	var out []InventoryItem
	for _, ed := range s.Data {
		out = append(out, ed.Warehouse...)
		out = append(out, ed.Retail...)
	}
	return out
}

// FlatRow is the per-(sku, location, entity) shape pushed to Supabase
// or Postgres and re-assembled by the fetch path.
type FlatRow struct {
	SKUCode      string `json:"sku_code" db:"sku_code"`
	KodeKecil    string `json:"kode_kecil" db:"kode_kecil"`
	ProductName  string `json:"product_name" db:"product_name"`
	Size         string `json:"size" db:"size"`
	Category     string `json:"category" db:"category"`
	Gender       string `json:"gender" db:"gender"`
	Series       string `json:"series" db:"series"`
	Tier         string `json:"tier" db:"tier"`
	Color        string `json:"color" db:"color"`
	LocationName string `json:"location_name" db:"location_name"`
	Area         string `json:"area" db:"area"`
	Qty          int    `json:"qty" db:"qty"`
	Entity       string `json:"entity" db:"entity"`
	ListType     string `json:"list_type" db:"list_type"`
}
