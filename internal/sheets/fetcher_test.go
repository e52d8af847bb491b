package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zumaops/stockboard/internal/config"
)

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "plain ascii", DecodeText([]byte("plain ascii")))
	assert.Equal(t, "kafé", DecodeText([]byte("kafé")))

	// 0xE9 is é in latin-1 but invalid as standalone UTF-8.
	latin1 := []byte{'k', 'a', 'f', 0xE9}
	assert.Equal(t, "kafé", DecodeText(latin1))
}

func TestPublishedFetcher(t *testing.T) {
	payload := "Kode Barang;Nama Barang;Total\n" + strings.Repeat("Z2BT01Z24;BABY BATMAN;1\n", 5)
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewPublishedFetcher(config.SheetsConfig{BaseURL: srv.URL + "/pub", TimeoutSeconds: 5})
	text, err := f.FetchSheet(context.Background(), 813944059)
	require.NoError(t, err)
	assert.Equal(t, payload, text)
	assert.Equal(t, "/pub?gid=813944059&single=true&output=csv", gotURL)
}

func TestPublishedFetcherRejectsShortBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	f := NewPublishedFetcher(config.SheetsConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	_, err := f.FetchSheet(context.Background(), 0)
	assert.Error(t, err)
}

func TestPublishedFetcherRejectsLoadingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Loading the published document, please wait a moment..."))
	}))
	defer srv.Close()

	f := NewPublishedFetcher(config.SheetsConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	_, err := f.FetchSheet(context.Background(), 0)
	assert.Error(t, err)
}

func TestPublishedFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewPublishedFetcher(config.SheetsConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	_, err := f.FetchSheet(context.Background(), 0)
	assert.Error(t, err)
}
