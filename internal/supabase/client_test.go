// internal/supabase/client_test.go
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/domain"
)

func testClient(t *testing.T, srv *httptest.Server, batchSize, pageSize int) *Client {
	t.Helper()
	client, err := NewClient(config.SupabaseConfig{
		URL:       srv.URL,
		AnonKey:   "test-key",
		Table:     "inventory",
		BatchSize: batchSize,
		PageSize:  pageSize,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.SupabaseConfig{})
	assert.Error(t, err)
}

func TestUpsertBatches(t *testing.T) {
	var batches [][]domain.FlatRow
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/inventory", r.URL.Path)
		assert.Equal(t, "sku_code,location_name,entity", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))

		var batch []domain.FlatRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batches = append(batches, batch)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rows := make([]domain.FlatRow, 5)
	for i := range rows {
		rows[i] = domain.FlatRow{SKUCode: fmt.Sprintf("SKU%03d", i), LocationName: "X", Entity: "DDD", Qty: 1}
	}

	uploaded, failed, err := testClient(t, srv, 2, 100).Upsert(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 5, uploaded)
	assert.Zero(t, failed)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
}

func TestUpsertCountsFailedBatches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rows := make([]domain.FlatRow, 4)
	uploaded, failed, err := testClient(t, srv, 2, 100).Upsert(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, uploaded)
	assert.Equal(t, 2, failed)
}

func TestFetchAllPaginates(t *testing.T) {
	total := 5
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		assert.Equal(t, "id.asc", r.URL.Query().Get("order"))

		var page []domain.FlatRow
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, domain.FlatRow{SKUCode: fmt.Sprintf("SKU%03d", i), Qty: i})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	rows, err := testClient(t, srv, 100, 2).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, total)
	assert.Equal(t, "SKU000", rows[0].SKUCode)
	assert.Equal(t, "SKU004", rows[4].SKUCode)
}

func TestClearDeletesByIDRange(t *testing.T) {
	remaining := []int64{1, 2, 3}
	var deletes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			type idRow struct {
				ID int64 `json:"id"`
			}
			page := make([]idRow, 0, len(remaining))
			for _, id := range remaining {
				page = append(page, idRow{ID: id})
			}
			json.NewEncoder(w).Encode(page)
		case http.MethodDelete:
			deletes = append(deletes, r.URL.RawQuery)
			remaining = nil
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	err := testClient(t, srv, 100, 100).Clear(context.Background())
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.True(t, strings.Contains(deletes[0], "gte.1"))
	assert.True(t, strings.Contains(deletes[0], "lte.3"))
}
