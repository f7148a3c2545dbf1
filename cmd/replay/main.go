package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/pkg/config"
	"github.com/facilops/sitepane/internal/pkg/geospatial"
)

// Replay plays a recorded overlay trace through the interaction core and
// prints every emitted signal, one JSON object per line. Traces are JSONL
// files of the same messages the WebSocket endpoint receives, so a capture
// from a misbehaving client can be rerun against tuned thresholds offline.
//
// usage: replay <trace.jsonl> [sites.json]

type traceEvent struct {
	Type    string   `json:"type"`
	DX      float64  `json:"dx"`
	DY      float64  `json:"dy"`
	T       int64    `json:"t"`
	Elapsed float64  `json:"elapsed"`
	SiteID  string   `json:"site_id"`
	Mode    string   `json:"mode"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: replay <trace.jsonl> [sites.json]")
	}

	cfg, err := config.Load("sitepane-replay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var sites []domain.Site
	if len(os.Args) > 2 {
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.Fatalf("read sites: %v", err)
		}
		if err := json.Unmarshal(data, &sites); err != nil {
			log.Fatalf("parse sites: %v", err)
		}
	}

	svc := usecases.NewSiteService(&memoryRepo{sites: sites}, nil, nil)
	overlay := usecases.NewOverlayService(svc, nil, nil, cfg.Gesture.Runtime(), cfg.Viewport.Runtime())

	out := json.NewEncoder(os.Stdout)
	sink := func(sig domain.Signal) {
		_ = out.Encode(sig)
	}

	ctx := context.Background()
	sess, err := overlay.StartSession(ctx, "replay", domain.SiteModeAll, sink)
	if err != nil {
		log.Fatalf("start session: %v", err)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var lastT int64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var ev traceEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			log.Printf("line %d: %v", line, err)
			continue
		}

		// Honor the recorded pacing so the cooldown, grace, and watchdog
		// windows fire as they did live.
		if ev.T > 0 && lastT > 0 && ev.T > lastT {
			time.Sleep(time.Duration(ev.T-lastT) * time.Millisecond)
		}
		if ev.T > 0 {
			lastT = ev.T
		}

		switch ev.Type {
		case "gesture.move":
			sess.HandleSample(domain.GestureSample{DX: ev.DX, DY: ev.DY, TimestampMS: ev.T})
		case "gesture.end":
			sess.HandleEnd(domain.GestureSample{DX: ev.DX, DY: ev.DY, TimestampMS: ev.T}, ev.Elapsed)
		case "gesture.cancel":
			sess.HandleCancel()
		case "site.tap":
			sess.HandleTap(ev.SiteID)
		case "site.longpress":
			sess.HandleLongPress(ev.SiteID)
		case "mode":
			if err := sess.SetMode(ctx, domain.SiteMode(ev.Mode)); err != nil {
				log.Printf("line %d: %v", line, err)
			}
		case "focus":
			if ev.Lat != nil && ev.Lon != nil {
				sess.SetFocus(&domain.GeoPoint{Lat: *ev.Lat, Lon: *ev.Lon})
			} else {
				sess.SetFocus(nil)
			}
		default:
			log.Printf("line %d: unknown event type %q", line, ev.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read trace: %v", err)
	}

	// Let trailing cooldown, grace, and watchdog resets land before closing.
	time.Sleep(cfg.Gesture.Runtime().Watchdog + 100*time.Millisecond)
	overlay.EndSession(ctx, sess.ID)
}

// memoryRepo serves a fixed site set so traces replay without a database.
type memoryRepo struct {
	sites []domain.Site
}

func (r *memoryRepo) Upsert(ctx context.Context, site *domain.Site) error {
	r.sites = append(r.sites, *site)
	return nil
}

func (r *memoryRepo) UpsertBatch(ctx context.Context, sites []domain.Site) error {
	r.sites = append(r.sites, sites...)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	for i := range r.sites {
		if r.sites[i].ID == id || r.sites[i].SiteID == id {
			return &r.sites[i], nil
		}
	}
	return nil, fmt.Errorf("site %s not found", id)
}

func (r *memoryRepo) List(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
	var out []domain.Site
	for _, s := range r.sites {
		if mode == domain.SiteModeMine && !assignedTo(s, user) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error) {
	var out []domain.Site
	for _, s := range r.sites {
		d := geospatial.Haversine(lat, lon, s.Location.Lat, s.Location.Lon)
		if d <= radiusMeters {
			site := s
			site.Distance = &d
			out = append(out, site)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memoryRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error) {
	var out []domain.Site
	for _, s := range r.sites {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(query)) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memoryRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.sites)), nil
}

func assignedTo(s domain.Site, user string) bool {
	for _, u := range s.AssignedTo {
		if u == user {
			return true
		}
	}
	return false
}
