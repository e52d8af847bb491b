// internal/pipeline/generate.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/internal/ingest"
	"github.com/zumaops/stockboard/internal/master"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/pkg/logger"
)

// parseWorkers caps concurrent CSV parses. The exports are small, this
// mostly bounds open file handles when entities grow.
const parseWorkers = 4

// Generator runs one full ingestion pass: master sheets, then every
// configured stock export, producing a Snapshot the report and upload
// surfaces consume.
type Generator struct {
	fetcher sheets.Fetcher
	cfg     *config.Config
}

func NewGenerator(fetcher sheets.Fetcher, cfg *config.Config) *Generator {
	return &Generator{fetcher: fetcher, cfg: cfg}
}

// parseJob is one (entity, list type, file) unit of work. Each job owns
// a distinct Snapshot slot, so workers write without locking.
type parseJob struct {
	entity   string
	listType domain.ListType
	path     string
}

// Run loads the master sheets, parses every configured export and
// returns the assembled snapshot. Missing or unreadable export files
// are logged and skipped; a run only fails when no export could be
// parsed at all.
func (g *Generator) Run(ctx context.Context) (*domain.Snapshot, error) {
	loader := master.NewLoader(g.fetcher, g.cfg.Sheets)
	masters := loader.LoadAll(ctx)

	areas := master.NewAreaResolver(masters.StoreArea)
	parser := ingest.NewParser(masters, areas, g.cfg.Ingest.DoubledStores)

	snapshot := domain.NewSnapshot(g.cfg.Ingest.EntityOrder, masters)

	jobs := g.collectJobs()
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no stock export files found under %s", g.cfg.Ingest.DataDir)
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(parseWorkers)

	var parsed atomic.Int32
	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			items, locations, err := parser.ParseFile(job.path, job.entity, job.listType)
			if err != nil {
				// A broken export must not cost the healthy
				// entities their dashboard.
				logger.Log.Warn().
					Err(err).
					Str("entity", job.entity).
					Str("file", filepath.Base(job.path)).
					Msg("Stock export unreadable, skipping")
				return nil
			}
			parsed.Add(1)

			entityData := snapshot.Data[job.entity]
			entityLocs := snapshot.Locations[job.entity]
			switch job.listType {
			case domain.ListWarehouse:
				entityData.Warehouse = items
				entityLocs.Warehouse = locations
			case domain.ListRetail:
				entityData.Retail = items
				entityLocs.Retail = locations
			}

			logger.Log.Info().
				Str("entity", job.entity).
				Str("type", string(job.listType)).
				Int("items", len(items)).
				Int("locations", len(locations)).
				Msg("Parsed stock export")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if parsed.Load() == 0 {
		return nil, fmt.Errorf("no stock export could be parsed under %s", g.cfg.Ingest.DataDir)
	}

	for _, entity := range g.cfg.Ingest.EntityOrder {
		ed := snapshot.Data[entity]
		logger.Log.Info().
			Str("entity", entity).
			Int("warehouse", len(ed.Warehouse)).
			Int("retail", len(ed.Retail)).
			Msg("Entity complete")
	}

	return snapshot, nil
}

// collectJobs resolves the configured export files against the data
// directory, dropping the ones that are not present on disk.
func (g *Generator) collectJobs() []parseJob {
	var jobs []parseJob
	for _, entity := range g.cfg.Ingest.EntityOrder {
		files, ok := g.cfg.Ingest.Entities[entity]
		if !ok {
			continue
		}
		for _, src := range []struct {
			listType domain.ListType
			name     string
		}{
			{domain.ListWarehouse, files.Warehouse},
			{domain.ListRetail, files.Retail},
		} {
			if src.name == "" {
				continue
			}
			path := filepath.Join(g.cfg.Ingest.DataDir, src.name)
			if _, err := os.Stat(path); err != nil {
				logger.Log.Warn().
					Str("entity", entity).
					Str("file", src.name).
					Msg("Stock export not found, skipping")
				continue
			}
			jobs = append(jobs, parseJob{entity: entity, listType: src.listType, path: path})
		}
	}
	return jobs
}

// Flatten expands a snapshot into per-(sku, location, entity) rows for
// the database surfaces. Zero quantities are dropped; the fetch path
// re-creates them as absent map keys.
func Flatten(snapshot *domain.Snapshot, areas *master.AreaResolver) []domain.FlatRow {
	var rows []domain.FlatRow

	entities := make([]string, 0, len(snapshot.Data))
	for entity := range snapshot.Data {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		ed := snapshot.Data[entity]
		for _, items := range [][]domain.InventoryItem{ed.Warehouse, ed.Retail} {
			for _, item := range items {
				locations := make([]string, 0, len(item.StoreStock))
				for name := range item.StoreStock {
					locations = append(locations, name)
				}
				sort.Strings(locations)

				for _, name := range locations {
					qty := item.StoreStock[name]
					if qty == 0 {
						continue
					}
					rows = append(rows, domain.FlatRow{
						SKUCode:      item.SKU,
						KodeKecil:    item.KodeKecil,
						ProductName:  item.Name,
						Size:         item.Size,
						Category:     item.Category,
						Gender:       item.Gender,
						Series:       item.Series,
						Tier:         item.Tier,
						Color:        item.Color,
						LocationName: name,
						Area:         areas.Resolve(name),
						Qty:          qty,
						Entity:       entity,
						ListType:     string(item.Type),
					})
				}
			}
		}
	}
	return rows
}

// Assemble is the inverse of Flatten: it groups flat rows back into a
// snapshot keyed by entity and list type, summing quantities into the
// per-item totals. Master enrichment carried by the rows is kept as-is.
func Assemble(rows []domain.FlatRow, entityOrder []string) *domain.Snapshot {
	snapshot := domain.NewSnapshot(entityOrder, domain.NewMasterSet())

	type slotKey struct {
		entity   string
		listType domain.ListType
	}
	index := make(map[slotKey]map[string]int)
	seenLocs := make(map[slotKey]map[string]bool)

	for _, row := range rows {
		listType := domain.ListType(row.ListType)
		if listType != domain.ListWarehouse && listType != domain.ListRetail {
			listType = domain.ListRetail
		}

		if _, ok := snapshot.Data[row.Entity]; !ok {
			snapshot.Data[row.Entity] = &domain.EntityData{Warehouse: []domain.InventoryItem{}, Retail: []domain.InventoryItem{}}
			snapshot.Locations[row.Entity] = &domain.EntityLocations{Warehouse: []domain.Location{}, Retail: []domain.Location{}}
		}

		key := slotKey{entity: row.Entity, listType: listType}
		if index[key] == nil {
			index[key] = make(map[string]int)
			seenLocs[key] = make(map[string]bool)
		}

		ed := snapshot.Data[row.Entity]
		items := &ed.Warehouse
		if listType == domain.ListRetail {
			items = &ed.Retail
		}

		pos, ok := index[key][row.SKUCode]
		if !ok {
			*items = append(*items, domain.InventoryItem{
				SKU:        row.SKUCode,
				KodeKecil:  row.KodeKecil,
				Name:       row.ProductName,
				Size:       row.Size,
				Category:   row.Category,
				Gender:     row.Gender,
				Series:     row.Series,
				Tipe:       "Jepit",
				Tier:       row.Tier,
				Color:      row.Color,
				StoreStock: make(map[string]int),
				Entity:     row.Entity,
				Type:       listType,
			})
			pos = len(*items) - 1
			index[key][row.SKUCode] = pos
		}

		item := &(*items)[pos]
		item.StoreStock[row.LocationName] = row.Qty
		item.Total += row.Qty

		if !seenLocs[key][row.LocationName] {
			seenLocs[key][row.LocationName] = true
			el := snapshot.Locations[row.Entity]
			loc := domain.Location{Name: row.LocationName, Area: row.Area, ColIndex: -1}
			if listType == domain.ListWarehouse {
				el.Warehouse = append(el.Warehouse, loc)
			} else {
				el.Retail = append(el.Retail, loc)
			}
		}
	}

	for _, el := range snapshot.Locations {
		sort.Slice(el.Warehouse, func(i, j int) bool { return el.Warehouse[i].Name < el.Warehouse[j].Name })
		sort.Slice(el.Retail, func(i, j int) bool { return el.Retail[i].Name < el.Retail[j].Name })
	}

	return snapshot
}
