package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/lain-code/lain/internal/aggregator"
	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/pricing"
)

// Session keys for the dashboard's last used filter
const (
	prefProjects = "projects"
	prefStart    = "start"
	prefEnd      = "end"
	prefSince    = "since"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	agg        *aggregator.Aggregator
	sessionMgr *scs.SessionManager
	templates  *template.Template
	static     fs.FS
	logger     *slog.Logger
}

// New creates a new Handler
func New(agg *aggregator.Aggregator, sessionMgr *scs.SessionManager, templates *template.Template, static fs.FS, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		agg:        agg,
		sessionMgr: sessionMgr,
		templates:  templates,
		static:     static,
		logger:     logger,
	}
}

// Routes registers all endpoints on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/projects", h.APIProjects)
	mux.HandleFunc("GET /api/stats", h.APIStats)
	mux.HandleFunc("GET /api/preferences", h.APIPreferences)
	if h.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(h.static)))
	}
	return mux
}

// Index renders the dashboard shell
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		http.NotFound(w, r)
		return
	}

	// Only the dashboard opens a session; API clients without a cookie get none
	if h.sessionMgr != nil && h.sessionMgr.Token(r.Context()) == "" {
		h.sessionMgr.Put(r.Context(), prefSince, time.Now().Unix())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.templates.ExecuteTemplate(w, "index.html", map[string]interface{}{
		"DataDir":  h.agg.Root(),
		"Pricing":  pricing.Table(),
		"Fallback": pricing.Fallback(),
	})
	if err != nil {
		h.logger.Error("render index", "error", err)
	}
}

// APIProjects returns project folders keyed by folder name
func (h *Handler) APIProjects(w http.ResponseWriter, r *http.Request) {
	projects := make(map[string]model.ProjectEntry)
	for _, p := range h.agg.Projects() {
		projects[p.Folder] = p
	}
	h.jsonOK(w, projects)
}

// APIStats returns aggregate stats for the requested projects and date range
func (h *Handler) APIStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := aggregator.ParseStatsOptions(q.Get("projects"), q.Get("start"), q.Get("end"))
	if err != nil {
		if errors.Is(err, aggregator.ErrInvalidDate) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.jsonError(w, "Invalid query", http.StatusBadRequest)
		return
	}

	if h.sessionMgr != nil && h.sessionMgr.Token(r.Context()) != "" {
		if len(opts.Projects) > 0 {
			h.sessionMgr.Put(r.Context(), prefProjects, opts.Projects)
		} else {
			h.sessionMgr.Remove(r.Context(), prefProjects)
		}
		h.sessionMgr.Put(r.Context(), prefStart, opts.Start)
		h.sessionMgr.Put(r.Context(), prefEnd, opts.End)
	}

	stats := h.agg.Stats(opts)
	h.logger.Debug("stats computed",
		"projects", len(opts.Projects),
		"start", opts.Start,
		"end", opts.End,
		"files_scanned", stats.FilesScanned,
		"sessions", stats.Sessions)

	h.jsonOK(w, stats)
}

// PreferencesResponse is the filter last used by this browser session
type PreferencesResponse struct {
	Projects []string `json:"projects"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

// APIPreferences returns the dashboard filter stored in the session
func (h *Handler) APIPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := PreferencesResponse{Projects: []string{}}
	if h.sessionMgr != nil {
		if projects, ok := h.sessionMgr.Get(r.Context(), prefProjects).([]string); ok && projects != nil {
			prefs.Projects = projects
		}
		prefs.Start = h.sessionMgr.GetString(r.Context(), prefStart)
		prefs.End = h.sessionMgr.GetString(r.Context(), prefEnd)
	}
	h.jsonOK(w, prefs)
}

// HealthResponse reports server liveness and data directory presence
type HealthResponse struct {
	Status        string `json:"status"`
	DataDirExists bool   `json:"data_dir_exists"`
}

// Health handles the health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.agg.Root())
	h.jsonOK(w, HealthResponse{
		Status:        "healthy",
		DataDirExists: err == nil && info.IsDir(),
	})
}

func (h *Handler) jsonOK(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
