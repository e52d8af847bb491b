// internal/report/html.go
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/zumaops/stockboard/internal/domain"
	"github.com/zumaops/stockboard/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// templateData carries the snapshot into the dashboard template. The
// JSON blobs are injected as template.JS: the maps are rendered once
// and all filtering happens client side.
type templateData struct {
	GeneratedAt string
	AllData     template.JS
	AllStores   template.JS
	StoreArea   template.JS
	MaxStock    template.JS
	Assortment  template.JS
}

// HTMLRenderer writes the self-contained dashboard page.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render produces the dashboard HTML for the snapshot. Map keys are
// marshaled in sorted order, so identical snapshots yield identical
// bytes apart from the timestamp.
func (r *HTMLRenderer) Render(snapshot *domain.Snapshot) ([]byte, error) {
	data, err := buildTemplateData(snapshot)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute dashboard template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders the snapshot and writes it to outputDir as both
// the configured file name and index.html, so the directory can be
// served as-is.
func (r *HTMLRenderer) RenderToFile(snapshot *domain.Snapshot, outputDir, outputFile string) (string, error) {
	page, err := r.Render(snapshot)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outPath := filepath.Join(outputDir, outputFile)
	if err := os.WriteFile(outPath, page, 0644); err != nil {
		return "", fmt.Errorf("write dashboard: %w", err)
	}

	indexPath := filepath.Join(outputDir, "index.html")
	if err := os.WriteFile(indexPath, page, 0644); err != nil {
		return "", fmt.Errorf("write index copy: %w", err)
	}

	logger.Log.Info().
		Str("path", outPath).
		Int("bytes", len(page)).
		Msg("Dashboard written")
	return outPath, nil
}

func buildTemplateData(snapshot *domain.Snapshot) (*templateData, error) {
	allData, err := marshalJS(snapshot.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal inventory data: %w", err)
	}
	allStores, err := marshalJS(snapshot.Locations)
	if err != nil {
		return nil, fmt.Errorf("marshal locations: %w", err)
	}

	masters := snapshot.Masters
	if masters == nil {
		masters = domain.NewMasterSet()
	}
	storeArea, err := marshalJS(masters.StoreArea)
	if err != nil {
		return nil, fmt.Errorf("marshal store areas: %w", err)
	}
	maxStock, err := marshalJS(masters.MaxStock)
	if err != nil {
		return nil, fmt.Errorf("marshal max stock: %w", err)
	}
	assortment, err := marshalJS(masters.Assortment)
	if err != nil {
		return nil, fmt.Errorf("marshal assortment: %w", err)
	}

	return &templateData{
		GeneratedAt: time.Now().Format("2 January 2006 15:04"),
		AllData:     allData,
		AllStores:   allStores,
		StoreArea:   storeArea,
		MaxStock:    maxStock,
		Assortment:  assortment,
	}, nil
}

// marshalJS encodes v for a <script> block. The "<" escaping built
// into encoding/json keeps embedded product names from closing the tag.
func marshalJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
