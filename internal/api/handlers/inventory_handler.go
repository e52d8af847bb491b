package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zumaops/stockboard/internal/domain"
)

// InventoryHandler serves the dashboard page and a JSON view of the
// most recent snapshot. The snapshot is swapped atomically after every
// refresh, so requests never see a partially built one.
type InventoryHandler struct {
	mu          sync.RWMutex
	snapshot    *domain.Snapshot
	page        []byte
	refreshedAt time.Time
}

func NewInventoryHandler() *InventoryHandler {
	return &InventoryHandler{}
}

// SetSnapshot installs a freshly generated snapshot and its rendered
// dashboard page.
func (h *InventoryHandler) SetSnapshot(snapshot *domain.Snapshot, page []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = snapshot
	h.page = page
	h.refreshedAt = time.Now()
}

func (h *InventoryHandler) current() (*domain.Snapshot, []byte, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot, h.page, h.refreshedAt
}

func (h *InventoryHandler) GetDashboard(c *gin.Context) {
	_, page, _ := h.current()
	if page == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dashboard not generated yet"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *InventoryHandler) GetHealth(c *gin.Context) {
	snapshot, _, refreshedAt := h.current()
	status := gin.H{
		"status": "ok",
		"ready":  snapshot != nil,
	}
	if snapshot != nil {
		status["refreshed_at"] = refreshedAt.UTC().Format(time.RFC3339)
		status["entities"] = len(snapshot.Data)
	}
	c.JSON(http.StatusOK, status)
}

type itemFilter struct {
	entity   string
	listType string
	category string
	tier     string
	search   string
	page     int
	pageSize int
}

func (h *InventoryHandler) parseFilter(c *gin.Context) itemFilter {
	filter := itemFilter{
		entity:   strings.ToUpper(strings.TrimSpace(c.Query("entity"))),
		listType: strings.ToLower(strings.TrimSpace(c.Query("type"))),
		category: strings.ToUpper(strings.TrimSpace(c.Query("category"))),
		tier:     strings.TrimSpace(c.Query("tier")),
		search:   strings.ToLower(strings.TrimSpace(c.Query("search"))),
		page:     1,
		pageSize: 50,
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 && size <= 500 {
		filter.pageSize = size
	}
	return filter
}

func (f itemFilter) matches(item domain.InventoryItem) bool {
	if f.entity != "" && item.Entity != f.entity {
		return false
	}
	if f.listType != "" && string(item.Type) != f.listType {
		return false
	}
	if f.category != "" && item.Category != f.category {
		return false
	}
	if f.tier != "" && item.Tier != f.tier {
		return false
	}
	if f.search != "" {
		haystack := strings.ToLower(item.SKU + " " + item.Name + " " + item.Series)
		if !strings.Contains(haystack, f.search) {
			return false
		}
	}
	return true
}

func (h *InventoryHandler) GetItems(c *gin.Context) {
	snapshot, _, _ := h.current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	filter := h.parseFilter(c)
	var matched []domain.InventoryItem
	for _, item := range snapshot.Items() {
		if filter.matches(item) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Total != matched[j].Total {
			return matched[i].Total > matched[j].Total
		}
		return matched[i].SKU < matched[j].SKU
	})

	total := len(matched)
	start := (filter.page - 1) * filter.pageSize
	if start > total {
		start = total
	}
	end := start + filter.pageSize
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     matched[start:end],
		"total":     total,
		"page":      filter.page,
		"page_size": filter.pageSize,
	})
}

func (h *InventoryHandler) GetSummary(c *gin.Context) {
	snapshot, _, refreshedAt := h.current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	type entitySummary struct {
		Entity        string `json:"entity"`
		WarehouseSKUs int    `json:"warehouse_skus"`
		WarehousePcs  int    `json:"warehouse_pcs"`
		RetailSKUs    int    `json:"retail_skus"`
		RetailPcs     int    `json:"retail_pcs"`
	}

	entities := make([]string, 0, len(snapshot.Data))
	for entity := range snapshot.Data {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	summaries := make([]entitySummary, 0, len(entities))
	for _, entity := range entities {
		ed := snapshot.Data[entity]
		s := entitySummary{
			Entity:        entity,
			WarehouseSKUs: len(ed.Warehouse),
			RetailSKUs:    len(ed.Retail),
		}
		for _, item := range ed.Warehouse {
			s.WarehousePcs += item.Total
		}
		for _, item := range ed.Retail {
			s.RetailPcs += item.Total
		}
		summaries = append(summaries, s)
	}

	c.JSON(http.StatusOK, gin.H{
		"entities":     summaries,
		"refreshed_at": refreshedAt.UTC().Format(time.RFC3339),
	})
}

func (h *InventoryHandler) GetLocations(c *gin.Context) {
	snapshot, _, _ := h.current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	entity := strings.ToUpper(strings.TrimSpace(c.Query("entity")))
	if entity != "" {
		el, ok := snapshot.Locations[entity]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity " + entity})
			return
		}
		c.JSON(http.StatusOK, el)
		return
	}
	c.JSON(http.StatusOK, snapshot.Locations)
}
