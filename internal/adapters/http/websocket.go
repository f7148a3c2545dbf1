package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/pkg/metrics"
)

// wsClientMessage is one input event from an overlay client. Type selects
// which fields are read.
// Gesture samples carry the translation since the gesture began, in points,
// with dy growing downward.
type wsClientMessage struct {
	Type    string   `json:"type"`    // gesture.move | gesture.end | gesture.cancel | site.tap | site.longpress | mode | focus
	DX      float64  `json:"dx"`      // gesture.move / gesture.end
	DY      float64  `json:"dy"`      // gesture.move / gesture.end
	T       int64    `json:"t"`       // client timestamp, ms
	Elapsed float64  `json:"elapsed"` // gesture.end: seconds since the previous sample
	SiteID  string   `json:"site_id"` // site.tap / site.longpress
	Mode    string   `json:"mode"`    // mode: "mine" | "all"
	Lat     *float64 `json:"lat"`     // focus; omit both coordinates to clear
	Lon     *float64 `json:"lon"`
}

const wsSendBuffer = 64

// WebSocketHandler upgrades one overlay client, starts a session for it, and
// bridges both directions: client input events into the session, session
// signals back out as JSON text frames.
// Connect with ?user=<id>&mode=mine|all. Example input:
// {"type":"gesture.move","dx":3,"dy":40,"t":1714730000123}
func WebSocketHandler(overlay *usecases.OverlayService) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		user := c.Query("user")
		mode := domain.SiteMode(c.Query("mode", string(domain.SiteModeAll)))

		// The sink runs with the session lock held, so it must never block.
		// A stalled client loses signals rather than stalling arbitration;
		// the watchdog covers streams that die outright.
		outbox := make(chan domain.Signal, wsSendBuffer)
		sink := func(sig domain.Signal) {
			recordSignal(sig)
			select {
			case outbox <- sig:
			default:
			}
		}

		startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
		sess, err := overlay.StartSession(startCtx, user, mode, sink)
		cancelStart()
		if err != nil {
			slog.Error("ws session start failed", "user", user, "error", err)
			_ = c.WriteJSON(domain.Signal{Type: domain.SignalError, Message: "session start failed"})
			return
		}

		metrics.ActiveSessions.Inc()
		slog.Info("ws client connected", "session", sess.ID, "user", user, "remote", c.RemoteAddr().String())

		var wmu sync.Mutex
		done := make(chan struct{})

		// Writer: drains session signals to the socket.
		go func() {
			for {
				select {
				case sig := <-outbox:
					data, err := json.Marshal(sig)
					if err != nil {
						continue
					}
					wmu.Lock()
					err = c.WriteMessage(websocket.TextMessage, data)
					wmu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					wmu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					wmu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsClientMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				sink(domain.Signal{Type: domain.SignalError, Message: "invalid JSON"})
				continue
			}

			switch m.Type {
			case "gesture.move":
				sess.HandleSample(domain.GestureSample{DX: m.DX, DY: m.DY, TimestampMS: m.T})
			case "gesture.end":
				sess.HandleEnd(domain.GestureSample{DX: m.DX, DY: m.DY, TimestampMS: m.T}, m.Elapsed)
			case "gesture.cancel":
				sess.HandleCancel()
			case "site.tap":
				sess.HandleTap(m.SiteID)
			case "site.longpress":
				sess.HandleLongPress(m.SiteID)
			case "mode":
				if err := sess.SetMode(context.Background(), domain.SiteMode(m.Mode)); err != nil {
					sink(domain.Signal{Type: domain.SignalError, Message: err.Error()})
				}
			case "focus":
				if m.Lat != nil && m.Lon != nil {
					sess.SetFocus(&domain.GeoPoint{Lat: *m.Lat, Lon: *m.Lon})
				} else {
					sess.SetFocus(nil)
				}
			default:
				sink(domain.Signal{Type: domain.SignalError, Message: "unknown message type: " + m.Type})
			}
		}

		close(done)
		endCtx, cancelEnd := context.WithTimeout(context.Background(), 5*time.Second)
		overlay.EndSession(endCtx, sess.ID)
		cancelEnd()
		metrics.ActiveSessions.Dec()
		slog.Info("ws client disconnected", "session", sess.ID)
	}
}

// recordSignal feeds the overlay counters from the emitted signal stream.
func recordSignal(sig domain.Signal) {
	switch sig.Type {
	case domain.SignalState:
		if sig.State.Locked() || sig.State == domain.GesturePointInteraction {
			metrics.GesturesClassified.WithLabelValues(string(sig.State)).Inc()
		}
	case domain.SignalDismiss:
		outcome := "spring_back"
		if sig.Committed {
			outcome = "committed"
		}
		metrics.DismissOutcomes.WithLabelValues(outcome).Inc()
	case domain.SignalDismissFeedback:
		metrics.PrecommitWarnings.Inc()
	case domain.SignalSelect:
		metrics.SiteSelections.WithLabelValues(string(sig.Intent)).Inc()
	case domain.SignalReset:
		metrics.SessionResets.WithLabelValues(sig.Cause).Inc()
	case domain.SignalViewport:
		metrics.ViewportFits.Inc()
	}
}
