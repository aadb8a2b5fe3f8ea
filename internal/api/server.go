// Package api exposes the engine's query operations over HTTP. Every
// request is answered from the current immutable snapshot; handlers are
// pure reads and run concurrently with no coordination.
package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/signalsfoundry/topology-engine/graph"
	"github.com/signalsfoundry/topology-engine/internal/logging"
	"github.com/signalsfoundry/topology-engine/internal/observability"
	"github.com/signalsfoundry/topology-engine/routing"
	"github.com/signalsfoundry/topology-engine/topology"
)

const requestIDHeader = "X-Request-Id"

// SnapshotSource yields the snapshot queries should run against. It is
// satisfied by reloader.Reloader and by StaticSource.
type SnapshotSource interface {
	Snapshot() *topology.Snapshot
}

// StaticSource serves one fixed snapshot, for deployments that load
// facts once at startup.
type StaticSource struct {
	Snap *topology.Snapshot
}

func (s StaticSource) Snapshot() *topology.Snapshot { return s.Snap }

// Server answers topology queries over a SnapshotSource.
type Server struct {
	source  SnapshotSource
	log     logging.Logger
	metrics *observability.Collector

	// The derived graph is cached per snapshot; reloads produce a new
	// snapshot pointer, which invalidates the cache naturally.
	mu          sync.Mutex
	cachedSnap  *topology.Snapshot
	cachedGraph *graph.Graph
}

// NewServer constructs a query server. metrics may be nil.
func NewServer(source SnapshotSource, metrics *observability.Collector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{source: source, log: log, metrics: metrics}
}

// Handler returns the routed HTTP handler for the query surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", s.route("healthz", s.handleHealth))
	mux.Handle("GET /v1/issues", s.route("issues", s.handleIssues))
	mux.Handle("GET /v1/nodes", s.route("nodes", s.handleNodes))
	mux.Handle("GET /v1/nodes/{id}/neighbors", s.route("neighbors", s.handleNeighbors))
	mux.Handle("GET /v1/nodes/{id}/routes", s.route("routes", s.handleRoutes))
	mux.Handle("GET /v1/nodes/{id}/best-source", s.route("best_source", s.handleBestSource))
	mux.Handle("GET /v1/path", s.route("path", s.handlePath))
	return mux
}

// route wraps a handler with request-id logging, a per-request server
// span, and per-route metrics. The span is started after the request id
// is established so it carries the same id the logs do.
func (s *Server) route(name string, h http.HandlerFunc) http.Handler {
	traced := traceRoute(name, h)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get(requestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(logging.String("route", name)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
		traced.ServeHTTP(w, r.WithContext(ctx))
	})
	if s.metrics != nil {
		handler = s.metrics.Middleware(name, handler)
	}
	return handler
}

func (s *Server) snapshot() *topology.Snapshot {
	return s.source.Snapshot()
}

// graphFor returns the adjacency graph for a snapshot, building it at
// most once per snapshot.
func (s *Server) graphFor(snap *topology.Snapshot) *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedSnap != snap {
		s.cachedSnap = snap
		s.cachedGraph = graph.Build(snap)
	}
	return s.cachedGraph
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type issueBody struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	warnings := s.snapshot().Warnings()
	out := make([]issueBody, 0, len(warnings))
	for _, issue := range warnings {
		out = append(out, issueBody{
			Severity: issue.Severity.String(),
			Code:     issue.Code,
			Message:  issue.Message,
		})
	}
	writeJSON(w, map[string]any{"warnings": out})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"nodes": s.snapshot().Store().Nodes()})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	node := r.PathValue("id")

	neighbors, err := s.graphFor(snap).Neighbors(node)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"node": node, "neighbors": neighbors})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	node := r.PathValue("id")

	distances, err := routing.EffectiveDistances(snap, node)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"node": node, "distances": distances})
}

func (s *Server) handleBestSource(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	node := r.PathValue("id")

	best, err := routing.BestSource(snap, node)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"node": node, "best_source": best})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	src := r.URL.Query().Get("src")
	dst := r.URL.Query().Get("dst")
	if src == "" || dst == "" {
		writeError(w, fmt.Errorf("%w: src and dst query parameters are required", ErrBadRequest))
		return
	}

	path, err := s.graphFor(snap).ShortestPath(src, dst)
	if err != nil {
		writeError(w, err)
		return
	}

	logging.LoggerFromContext(r.Context()).Debug(r.Context(), "path resolved",
		logging.String("src", src),
		logging.String("dst", dst),
		logging.Int("hops", len(path)-1),
	)
	writeJSON(w, map[string]any{"src": src, "dst": dst, "path": path})
}
