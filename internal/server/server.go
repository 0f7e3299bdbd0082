// Package server exposes the snapshot store and codec over HTTP.
//
// The API is JSON-first: documents come in and go out in the authoring
// format, while the store holds the encoded archive bytes. Endpoints:
//
//	GET    /healthz                     liveness probe
//	GET    /api/snapshots               list snapshot metadata
//	POST   /api/snapshots               encode and store a document
//	GET    /api/snapshots/{id}          snapshot record (payload base64)
//	GET    /api/snapshots/{id}/document decode back to authoring JSON
//	GET    /api/snapshots/{id}/render   SVG diagram of the stored document
//	DELETE /api/snapshots/{id}          remove a snapshot
//	POST   /api/verify                  round-trip identity check
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/graph"
	"github.com/mvoltz/tether/pkg/observability"
	"github.com/mvoltz/tether/pkg/render"
	"github.com/mvoltz/tether/pkg/snapstore"
)

// Server handles the snapshot HTTP API.
type Server struct {
	store  snapstore.Store
	logger *log.Logger
}

// New creates a Server over the given store.
func New(store snapstore.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, logger: logger}
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshots", s.handleList)
		r.Post("/snapshots", s.handleCreate)
		r.Get("/snapshots/{id}", s.handleGet)
		r.Get("/snapshots/{id}/document", s.handleDocument)
		r.Get("/snapshots/{id}/render", s.handleRender)
		r.Delete("/snapshots/{id}", s.handleDelete)
		r.Post("/verify", s.handleVerify)
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []snapstore.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// createRequest is the POST /api/snapshots body.
type createRequest struct {
	Name     string          `json:"name"`
	Format   string          `json:"format"`
	Document json.RawMessage `json:"document"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	format := graph.FormatBinary
	if req.Format != "" {
		var err error
		if format, err = graph.ParseFormat(req.Format); err != nil {
			s.writeError(w, err)
			return
		}
	}
	doc, err := graph.ReadJSON(bytes.NewReader(req.Document))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := graph.Marshal(doc, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := snapstore.New(req.Name, string(format), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), snap); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.Info())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// load fetches and decodes the snapshot named in the URL.
func (s *Server) load(r *http.Request) (*graph.Doc, error) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	f, err := graph.ParseFormat(snap.Format)
	if err != nil {
		return nil, err
	}
	return graph.Unmarshal(snap.Data, f)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := graph.WriteJSON(doc, w); err != nil {
		s.logger.Error("write document", "error", err)
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := render.SVG(render.ToDOT(doc, render.Options{Detailed: r.URL.Query().Get("detailed") == "true"}))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	format := graph.FormatBinary
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if format, err = graph.ParseFormat(q); err != nil {
			s.writeError(w, err)
			return
		}
	}
	doc, err := graph.ReadJSON(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := graph.Verify(doc, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeSnapshotNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDocument,
		errors.ErrCodeInvalidName, errors.ErrCodeInvalidFormat,
		errors.ErrCodeFormat, errors.ErrCodePolicy, errors.ErrCodeLookup:
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
