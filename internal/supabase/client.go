// internal/supabase/client.go
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/pkg/logger"
)

// conflictColumns matches the table's unique constraint, so repeated
// uploads update rows in place instead of failing.
const conflictColumns = "sku_code,location_name,entity"

// Client talks to the Supabase PostgREST endpoint with the anon key.
type Client struct {
	baseURL   string
	anonKey   string
	table     string
	batchSize int
	pageSize  int
	http      *http.Client
}

func NewClient(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase URL and anon key are required")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:   cfg.URL,
		anonKey:   cfg.AnonKey,
		table:     cfg.Table,
		batchSize: batchSize,
		pageSize:  pageSize,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) tableURL(query url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/json")
}

// Upsert pushes the rows in batches. A failed batch is logged and
// counted; the remaining batches still go out. The returned error is
// non-nil only when every batch failed.
func (c *Client) Upsert(ctx context.Context, rows []domain.FlatRow) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	query := url.Values{}
	query.Set("on_conflict", conflictColumns)
	endpoint := c.tableURL(query)

	uploaded, failed := 0, 0
	for start := 0; start < len(rows); start += c.batchSize {
		end := start + c.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if err := c.upsertBatch(ctx, endpoint, batch); err != nil {
			failed += len(batch)
			logger.Log.Error().Err(err).
				Int("offset", start).
				Int("size", len(batch)).
				Msg("Supabase batch upsert failed")
			continue
		}
		uploaded += len(batch)

		logger.Log.Info().
			Int("uploaded", uploaded).
			Int("failed", failed).
			Int("total", len(rows)).
			Msg("Supabase upload progress")
	}

	if uploaded == 0 && failed > 0 {
		return uploaded, failed, fmt.Errorf("all %d rows failed to upload", failed)
	}
	return uploaded, failed, nil
}

func (c *Client) upsertBatch(ctx context.Context, endpoint string, batch []domain.FlatRow) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upsert status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Clear deletes all rows from the table in id ranges, page by page,
// until a fetch comes back empty.
func (c *Client) Clear(ctx context.Context) error {
	deleted := 0
	for {
		ids, err := c.fetchIDs(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		minID, maxID := ids[0], ids[0]
		for _, id := range ids[1:] {
			if id < minID {
				minID = id
			}
			if id > maxID {
				maxID = id
			}
		}

		query := url.Values{}
		query.Set("id", "gte."+strconv.FormatInt(minID, 10))
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.tableURL(query)+"&id=lte."+strconv.FormatInt(maxID, 10), nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("delete status %d", resp.StatusCode)
		}

		deleted += len(ids)
		logger.Log.Info().Int("deleted", deleted).Msg("Clearing inventory table")
	}
	return nil
}

func (c *Client) fetchIDs(ctx context.Context) ([]int64, error) {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("limit", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(query), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch ids status %d", resp.StatusCode)
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode ids: %w", err)
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// FetchAll pages through the whole table ordered by id and returns
// every row. A page shorter than the page size ends the scan.
func (c *Client) FetchAll(ctx context.Context) ([]domain.FlatRow, error) {
	var all []domain.FlatRow
	offset := 0
	for {
		query := url.Values{}
		query.Set("select", "*")
		query.Set("order", "id.asc")
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(query), nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("fetch status %d: %s", resp.StatusCode, detail)
		}

		var page []domain.FlatRow
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode page at offset %d: %w", offset, err)
		}

		all = append(all, page...)
		logger.Log.Debug().
			Int("offset", offset).
			Int("page", len(page)).
			Int("total", len(all)).
			Msg("Fetched inventory page")

		if len(page) < c.pageSize {
			break
		}
		offset += c.pageSize
	}

	logger.Log.Info().Int("rows", len(all)).Msg("Fetched inventory from Supabase")
	return all, nil
}
