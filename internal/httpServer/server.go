package httpServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sperrystudios/screenrecorder/internal/library"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/session"
	"github.com/sperrystudios/screenrecorder/internal/status"
	"github.com/sperrystudios/screenrecorder/internal/websocket"
)

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// Controller is the part of the session controller the API drives.
type Controller interface {
	Toggle()
	SetQuality(options.Quality)
	SetAudioEnabled(bool)
	Options() options.Options
	State() session.State
	Label() string
	Status() status.Message
}

// StatusResponse is returned by GET /api/status and POST /api/toggle.
type StatusResponse struct {
	State   string         `json:"state"`
	Label   string         `json:"label"`
	Quality string         `json:"quality"`
	Audio   bool           `json:"audio"`
	Status  status.Message `json:"status"`
}

// OptionsRequest is the body of PUT /api/options. Missing fields are left as is.
type OptionsRequest struct {
	Quality *string `json:"quality,omitempty"`
	Audio   *bool   `json:"audio,omitempty"`
}

type OptionsResponse struct {
	Quality string `json:"quality"`
	Audio   bool   `json:"audio"`
}

type TemplateData struct {
	Recordings []library.Recording
	Status     status.Message
	Label      string
	Quality    string
	Audio      bool
	TotalCount int
}

type Server struct {
	ctrl  Controller
	index *library.Index
	hub   *websocket.Hub
	srv   *http.Server
}

func New(port int, ctrl Controller, index *library.Index, hub *websocket.Hub) *Server {
	s := &Server{ctrl: ctrl, index: index, hub: hub}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	return s
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	// Serve static files from embedded filesystem
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(getFileSystem())))

	logging.InfoLogger.Printf("Serving recordings from %s", s.index.Dir())
	router.PathPrefix("/recordings/").Handler(http.StripPrefix("/recordings/", http.FileServer(http.Dir(s.index.Dir()))))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/options", s.handleOptions).Methods(http.MethodPut)
	api.HandleFunc("/recordings", s.handleRecordings).Methods(http.MethodGet)

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.hub.ServeHTTP(w, r, s.ctrl.Status())
	})
	router.HandleFunc("/", s.handleLibrary).Methods(http.MethodGet)
	return router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.InfoLogger.Printf("Starting HTTP server on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
	logging.InfoLogger.Println("Server stopped")
	return nil
}

func (s *Server) statusResponse() StatusResponse {
	opts := s.ctrl.Options()
	return StatusResponse{
		State:   s.ctrl.State().String(),
		Label:   s.ctrl.Label(),
		Quality: opts.Quality.String(),
		Audio:   opts.AudioEnabled,
		Status:  s.ctrl.Status(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusResponse())
}

// handleToggle only queues the toggle; the answer shows the state before it ran.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	logging.InfoLogger.Printf("Toggle requested from %s", r.RemoteAddr)
	s.ctrl.Toggle()
	writeJSON(w, http.StatusAccepted, s.statusResponse())
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	var req OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid options: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Quality != nil {
		q, err := options.ParseQuality(*req.Quality)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.ctrl.SetQuality(q)
	}
	if req.Audio != nil {
		s.ctrl.SetAudioEnabled(*req.Audio)
	}

	opts := s.ctrl.Options()
	writeJSON(w, http.StatusOK, OptionsResponse{Quality: opts.Quality.String(), Audio: opts.AudioEnabled})
}

func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.List())
}

// handleLibrary lists the recordings as clickable hyperlinks
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	recordings := s.index.List()
	opts := s.ctrl.Options()
	data := TemplateData{
		Recordings: recordings,
		Status:     s.ctrl.Status(),
		Label:      s.ctrl.Label(),
		Quality:    opts.Quality.String(),
		Audio:      opts.AudioEnabled,
		TotalCount: len(recordings),
	}
	if err := templates.ExecuteTemplate(w, "library.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLogger.Printf("Failed to write response: %v", err)
	}
}
