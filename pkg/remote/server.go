// Package remote exposes the viewer to other processes over HTTP: load or
// clear the model, query it, and stream viewer events over a websocket.
package remote

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/taigrr/vitrine/pkg/models"
	"github.com/taigrr/vitrine/pkg/viewer"
)

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 10 * time.Second
	maxBodySize  = 64 << 10
)

// Viewer is the part of *viewer.Viewer the server drives.
type Viewer interface {
	LoadModel(path string)
	ClearModel()
	Current() (viewer.Summary, bool)
	Subscribe() (<-chan viewer.Event, func())
}

// Server serves the control API.
type Server struct {
	viewer   Viewer
	registry *models.Registry
	log      *log.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New builds a server for v. registry is used to reject unsupported
// extensions before touching the viewer and may be nil. access receives
// the access log and may be nil.
func New(v Viewer, registry *models.Registry, logger *log.Logger, access io.Writer) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		viewer:   v,
		registry: registry,
		log:      logger.WithPrefix("remote"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameHostOrigin,
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/model", s.handleLoad).Methods(http.MethodPost)
	api.HandleFunc("/model", s.handleClear).Methods(http.MethodDelete)
	api.HandleFunc("/model", s.handleCurrent).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	var h http.Handler = r
	if access != nil {
		h = handlers.LoggingHandler(access, h)
	}
	s.handler = handlers.RecoveryHandler(handlers.RecoveryLogger(s), handlers.PrintRecoveryStack(true))(h)
	return s
}

// Println lets the server act as the recovery handler's logger.
func (s *Server) Println(v ...interface{}) {
	s.log.Error("panic in handler", "recovered", v)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("control server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

type loadRequest struct {
	Path string `json:"path"`
}

type statusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	path, err := resolvePath(req.Path)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.registry != nil {
		if _, err := s.registry.LoaderFor(path); err != nil {
			s.writeError(w, http.StatusUnsupportedMediaType, err)
			return
		}
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		s.writeError(w, http.StatusNotFound, errors.Errorf("model not found: %s", path))
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, errors.Wrap(err, "stat model"))
		return
	case info.IsDir():
		s.writeError(w, http.StatusBadRequest, errors.Errorf("%s is a directory", path))
		return
	}

	s.log.Info("load requested", "path", path)
	s.viewer.LoadModel(path)
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: "loading", Path: path})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.viewer.ClearModel()
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "cleared"})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	cur, ok := s.viewer.Current()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, statusResponse{Status: "empty"})
		return
	}
	s.writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	events, unsubscribe := s.viewer.Subscribe()
	defer unsubscribe()
	defer conn.Close()

	// Reader loop: handles control frames and notices the client leaving.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("websocket ping failed", "err", err)
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Warn("request rejected", "status", status, "err", err)
	s.writeJSON(w, status, statusResponse{Status: "error", Error: err.Error()})
}

// resolvePath accepts a filesystem path or a file:// URL and returns a
// cleaned absolute path.
func resolvePath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(raw, "file:") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", errors.Wrap(err, "parse file url")
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", errors.Errorf("remote file host %q not supported", u.Host)
		}
		raw = u.Path
		if raw == "" {
			return "", errors.New("file url has no path")
		}
	} else if u, err := url.Parse(raw); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return "", errors.Errorf("unsupported url scheme %q", u.Scheme)
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", errors.Wrap(err, "resolve path")
	}
	return abs, nil
}

// sameHostOrigin allows clients without an Origin header (non-browser
// tools) and browsers on the same host.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
