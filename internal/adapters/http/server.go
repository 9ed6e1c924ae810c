package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/aretw0/blockloom/pkg/schema"
	"github.com/go-chi/chi/v5"
)

// Server exposes a BlockStore over the remote wire contract, so the executor
// and its HTTP client can run against a local sandbox.
type Server struct {
	Store   ports.BlockStore
	Token   string
	Version string
	Logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every API call.
func WithToken(token string) Option {
	return func(s *Server) {
		s.Token = token
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the store.
// Extra routes (e.g. /metrics) can be mounted on the returned router.
func NewHandler(store ports.BlockStore, opts ...Option) chi.Router {
	server := &Server{
		Store:   store,
		Version: "dev",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Get("/health", server.Health)
	r.Get("/info", server.Info)
	r.Route("/v1/blocks/{id}/children", func(r chi.Router) {
		r.Use(server.authenticate)
		r.Patch("/", server.AppendChildren)
		r.Get("/", server.ListChildren)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Api-Version")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			s.writeError(w, &domain.RemoteError{Code: domain.CodeUnauthorized, Message: "API token is invalid."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "blockloom-sandbox",
		"version": s.Version,
	})
}

// AppendChildren handles PATCH /v1/blocks/{id}/children.
func (s *Server) AppendChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body schema.AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, &domain.RemoteError{Code: domain.CodeInvalidInput, Message: "body failed validation: " + err.Error()})
		return
	}
	children, err := schema.DecodeBlocks(body.Children)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ids, err := s.Store.AppendChildren(r.Context(), id, children)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("appended children", "parent", id, "count", len(ids))

	results := make([]schema.Block, 0, len(ids))
	for i, cid := range ids {
		results = append(results, schema.Block{
			ID:          cid,
			Type:        string(children[i].Kind()),
			HasChildren: children[i].HasChildren(),
		})
	}
	writeJSON(w, http.StatusOK, schema.NewList(results, ""))
}

// ListChildren handles GET /v1/blocks/{id}/children.
func (s *Server) ListChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	pageSize := 0
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, &domain.RemoteError{Code: domain.CodeInvalidInput, Message: "page_size should be a positive number"})
			return
		}
		pageSize = n
	}

	page, err := s.Store.ListChildren(r.Context(), id, q.Get("start_cursor"), pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results := make([]schema.Block, 0, len(page.Children))
	for _, ref := range page.Children {
		results = append(results, schema.Block{ID: ref.ID, Type: string(ref.Kind), HasChildren: ref.HasChildren})
	}
	writeJSON(w, http.StatusOK, schema.NewList(results, page.NextCursor))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	env := schema.NewError(err)
	if env.Status >= http.StatusInternalServerError && !isRemote(err) {
		s.Logger.Error("request failed", "err", err)
	}
	writeJSON(w, env.Status, env)
}

func isRemote(err error) bool {
	var re *domain.RemoteError
	return errors.As(err, &re)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
