package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	natsadapter "github.com/facilops/sitepane/internal/adapters/nats"
	"github.com/facilops/sitepane/internal/adapters/postgres"
	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/ports"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Feeds  []FeedEntry `json:"feeds"`
}

// FeedEntry names one site export. Either URL or Path must be set; Path wins.
type FeedEntry struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Category string `json:"category,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("sitepane-seeder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var pub ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("nats unavailable, overlays will not refresh: %v", err)
	} else {
		defer publisher.Close()
		pub = publisher
	}

	svc := usecases.NewSiteService(postgres.NewSiteRepo(db), nil, pub)

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("Sitepane Seeder — %d feeds from %s", len(manifest.Feeds), manifest.Source)

	// Filter feeds (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, feed := range manifest.Feeds {
		if len(slugFilter) > 0 && !slugFilter[feed.Slug] {
			continue
		}

		wg.Add(1)
		go func(f FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := seedFeed(ctx, svc, client, f); err != nil {
				log.Printf("ERROR [%s]: %v", f.Slug, err)
			}
		}(feed)
	}

	wg.Wait()
	log.Println("seeding complete")
}

// ---------------------------------------------------------------------------
// Per-feed seeding
// ---------------------------------------------------------------------------

func seedFeed(ctx context.Context, svc *usecases.SiteService, client *http.Client, feed FeedEntry) error {
	data, err := fetchFeed(client, feed)
	if err != nil {
		return err
	}

	sites, err := parseSites(data, feed)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	log.Printf("[%s] %d rows parsed", feed.Slug, len(sites))

	const batchSize = 500
	imported, skipped := 0, 0
	for start := 0; start < len(sites); start += batchSize {
		end := start + batchSize
		if end > len(sites) {
			end = len(sites)
		}
		n, s, err := svc.Import(ctx, sites[start:end], feed.Slug)
		if err != nil {
			return fmt.Errorf("import batch at %d: %w", start, err)
		}
		imported += n
		skipped += s
	}

	log.Printf("[%s] done: %d imported, %d skipped", feed.Slug, imported, skipped)
	return nil
}

func fetchFeed(client *http.Client, feed FeedEntry) ([]byte, error) {
	if feed.Path != "" {
		return os.ReadFile(feed.Path)
	}

	log.Printf("[%s] downloading %s", feed.Slug, feed.URL)
	resp, err := client.Get(feed.URL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, feed.URL)
	}
	return io.ReadAll(resp.Body)
}

// ---------------------------------------------------------------------------
// CSV parsing
// ---------------------------------------------------------------------------

// parseSites reads a site export. Required columns: site_id, name, lat, lon.
// Optional: category, selectable, assigned_to (semicolon-separated). Any
// other column lands in the site's metadata.
func parseSites(data []byte, feed FeedEntry) ([]domain.Site, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := indexColumns(header)

	known := map[string]bool{
		"site_id": true, "name": true, "lat": true, "lon": true,
		"category": true, "selectable": true, "assigned_to": true,
	}

	var sites []domain.Site
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, _ := strconv.ParseFloat(getField(record, cols, "lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, cols, "lon"), 64)

		site := domain.Site{
			SiteID:   getField(record, cols, "site_id"),
			Name:     getField(record, cols, "name"),
			Location: domain.GeoPoint{Lat: lat, Lon: lon},
			Category: getField(record, cols, "category"),
		}
		if site.SiteID == "" || site.Name == "" {
			continue
		}
		if site.Category == "" {
			site.Category = feed.Category
		}

		// Sites are selectable unless the export marks them otherwise.
		switch strings.ToLower(getField(record, cols, "selectable")) {
		case "0", "false", "no":
			site.Selectable = false
		default:
			site.Selectable = true
		}

		if assigned := getField(record, cols, "assigned_to"); assigned != "" {
			for _, u := range strings.Split(assigned, ";") {
				if u = strings.TrimSpace(u); u != "" {
					site.AssignedTo = append(site.AssignedTo, u)
				}
			}
		}

		for name, idx := range cols {
			if known[name] || idx >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[idx]); v != "" {
				if site.Metadata == nil {
					site.Metadata = make(map[string]any)
				}
				site.Metadata[name] = v
			}
		}

		sites = append(sites, site)
	}

	return sites, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.TrimSpace(col)] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
