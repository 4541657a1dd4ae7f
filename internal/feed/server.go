package feed

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/logger"
	"codeberg.org/mutker/telemetryd/internal/session"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

// Source is the read side of a session that the feed exposes.
type Source interface {
	Snapshot() session.Snapshot
	WriteHistoryCSV(w io.Writer) error
}

// Server serves the UI consumer: live snapshots over WebSocket, a JSON
// snapshot, CSV export and a health probe.
type Server struct {
	source   Source
	hub      *Hub
	log      logger.Logger
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewServer(source Source, hub *Hub) *Server {
	return &Server{
		source: source,
		hub:    hub,
		log:    hub.log,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the dashboard is served from a different origin during development
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes returns the HTTP handler for all feed endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.log.ErrorWithCode(errors.New().Wrap(ErrUpgrade, err)).Msg("WebSocket upgrade failed")
		return
	}

	c := newClient(s.hub, conn, r.RemoteAddr)

	snap := s.source.Snapshot()
	if initial, err := encode(MessageSnapshot, &snap, s.now()); err == nil {
		c.send <- initial
	}

	if !s.hub.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+session.ExportFilename(s.now())+`"`)
	w.WriteHeader(http.StatusOK)

	if err := s.source.WriteHistoryCSV(w); err != nil {
		s.log.Error().Err(err).Msg("Failed to write history export")
	}
}

type healthResponse struct {
	Status          string `json:"status"`
	SessionID       string `json:"session_id"`
	Clients         int    `json:"clients"`
	Connected       bool   `json:"connected"`
	LastUpdate      string `json:"last_update"`
	LastUpdateHuman string `json:"last_update_human"`
	Phase           string `json:"phase"`
	MissionElapsed  string `json:"mission_elapsed"`
	HistorySamples  int    `json:"history_samples"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	snap := s.source.Snapshot()
	lastUpdate := time.UnixMilli(snap.Connection.LastUpdate)

	resp := healthResponse{
		Status:          "ok",
		SessionID:       snap.SessionID,
		Clients:         s.hub.ClientCount(),
		Connected:       snap.Connection.Connected,
		LastUpdate:      lastUpdate.UTC().Format(time.RFC3339),
		LastUpdateHuman: humanize.RelTime(lastUpdate, s.now(), "ago", "from now"),
		Phase:           snap.Mission.Phase.String(),
		MissionElapsed:  telemetry.FormatDuration(snap.MissionDuration()),
		HistorySamples:  len(snap.History),
	}
	if !snap.Connection.Connected {
		resp.Status = "stale"
	}

	writeJSON(w, http.StatusOK, resp)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
