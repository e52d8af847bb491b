package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/pkg/logger"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS inventory (
	id            BIGSERIAL PRIMARY KEY,
	sku_code      TEXT NOT NULL,
	kode_kecil    TEXT NOT NULL DEFAULT '',
	product_name  TEXT NOT NULL DEFAULT '',
	size          TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	gender        TEXT NOT NULL DEFAULT '',
	series        TEXT NOT NULL DEFAULT '',
	tier          TEXT NOT NULL DEFAULT '',
	color         TEXT NOT NULL DEFAULT '',
	location_name TEXT NOT NULL,
	area          TEXT NOT NULL DEFAULT '',
	qty           INTEGER NOT NULL DEFAULT 0,
	entity        TEXT NOT NULL,
	list_type     TEXT NOT NULL DEFAULT 'retail',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (sku_code, location_name, entity)
)`

const upsertBatchSize = 500

// InventoryRepository persists flat inventory rows in Postgres. It is
// the self-hosted alternative to the Supabase REST path.
type InventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// EnsureSchema creates the inventory table when it does not exist.
func (r *InventoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, inventorySchema); err != nil {
		return fmt.Errorf("ensure inventory schema: %w", err)
	}
	return nil
}

// ReplaceAll clears the table and inserts the given rows in one
// transaction, so readers never observe a half-written snapshot.
func (r *InventoryRepository) ReplaceAll(ctx context.Context, rows []domain.FlatRow) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM inventory"); err != nil {
			return fmt.Errorf("clear inventory: %w", err)
		}
		return upsertRows(ctx, tx, rows)
	})
}

// Upsert inserts or updates rows on the (sku_code, location_name,
// entity) key, leaving rows outside the batch untouched.
func (r *InventoryRepository) Upsert(ctx context.Context, rows []domain.FlatRow) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return upsertRows(ctx, tx, rows)
	})
}

func upsertRows(ctx context.Context, tx *sql.Tx, rows []domain.FlatRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory (
			sku_code, kode_kecil, product_name, size, category,
			gender, series, tier, color,
			location_name, area, qty, entity, list_type, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())
		ON CONFLICT (sku_code, location_name, entity) DO UPDATE SET
			kode_kecil = EXCLUDED.kode_kecil,
			product_name = EXCLUDED.product_name,
			size = EXCLUDED.size,
			category = EXCLUDED.category,
			gender = EXCLUDED.gender,
			series = EXCLUDED.series,
			tier = EXCLUDED.tier,
			color = EXCLUDED.color,
			area = EXCLUDED.area,
			qty = EXCLUDED.qty,
			list_type = EXCLUDED.list_type,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.SKUCode, row.KodeKecil, row.ProductName, row.Size, row.Category,
			row.Gender, row.Series, row.Tier, row.Color,
			row.LocationName, row.Area, row.Qty, row.Entity, row.ListType,
		)
		if err != nil {
			return fmt.Errorf("upsert row %d (%s/%s): %w", i, row.SKUCode, row.LocationName, err)
		}
		if (i+1)%upsertBatchSize == 0 {
			logger.Log.Debug().Int("rows", i+1).Msg("Upsert progress")
		}
	}
	logger.Log.Info().Int("rows", len(rows)).Msg("Inventory rows written to Postgres")
	return nil
}

// FetchAll returns every inventory row ordered by id, paging with
// limit/offset to keep memory bounded on large tables.
func (r *InventoryRepository) FetchAll(ctx context.Context, pageSize int) ([]domain.FlatRow, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}

	var all []domain.FlatRow
	offset := 0
	for {
		var page []domain.FlatRow
		err := r.db.SelectContext(ctx, &page, `
			SELECT sku_code, kode_kecil, product_name, size, category,
			       gender, series, tier, color,
			       location_name, area, qty, entity, list_type
			FROM inventory
			ORDER BY id
			LIMIT $1 OFFSET $2`, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("select inventory page at %d: %w", offset, err)
		}

		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
		offset += pageSize
	}
	return all, nil
}
