package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akuzmin/lifetrack/internal/handler"
	"github.com/akuzmin/lifetrack/internal/middleware"
	"github.com/akuzmin/lifetrack/internal/store"
	ws "github.com/akuzmin/lifetrack/internal/websocket"
)

// Config holds the server's runtime options.
type Config struct {
	// CORSOrigin is the SPA origin allowed to call the API. Empty means
	// same-origin only.
	CORSOrigin string
	// StaticDir is the directory holding the built client bundle.
	StaticDir string
}

type Server struct {
	db       *sql.DB
	hub      *ws.Hub
	trackerH *handler.TrackerHandler
	taskH    *handler.TaskHandler
	cfg      Config
	logger   *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	trackerStore := store.NewTrackerStore(db)
	taskStore := store.NewTaskStore(db)

	return &Server{
		db:       db,
		hub:      hub,
		trackerH: handler.NewTrackerHandler(trackerStore, hub, logger.With("component", "tracker")),
		taskH:    handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Tracker API routes
	mux.HandleFunc("GET /api/trackers", s.trackerH.List)
	mux.HandleFunc("POST /api/trackers", s.trackerH.Create)
	mux.HandleFunc("PUT /api/trackers/{id}", s.trackerH.Update)
	mux.HandleFunc("DELETE /api/trackers/{id}", s.trackerH.Delete)
	mux.HandleFunc("GET /api/trackers/{id}/entries", s.trackerH.ListEntries)
	mux.HandleFunc("POST /api/trackers/{id}/entries", s.trackerH.CreateEntry)

	// Task API routes
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Client bundle
	if s.cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	var h http.Handler = mux
	h = middleware.CORS(s.cfg.CORSOrigin)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
