// Package server serves one built family graph over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"famgraph"
	"famgraph/network"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server answers read-only queries against an immutable graph. Handlers share
// the graph without locking.
type Server struct {
	graph   *famgraph.FamilyGraph
	data    network.Data
	origins []string
	logger  *zap.Logger
}

// PersonDetails is the response of the person endpoint.
type PersonDetails struct {
	ID       string          `json:"id"`
	Person   famgraph.Person `json:"person"`
	Parent   string          `json:"parent,omitempty"`
	Children []string        `json:"children"`
	Partners []Partner       `json:"partners"`
}

// Partner is a non-descent relationship of a person.
type Partner struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Relationship famgraph.Relationship `json:"relationship"`
}

// Lineage is the response of the ancestor and descendant endpoints.
type Lineage struct {
	ID     string         `json:"id"`
	People []network.Node `json:"people"`
}

// New prepares a server for g. The network view is projected once.
func New(g *famgraph.FamilyGraph, style network.Style, origins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		graph:   g,
		data:    network.Project(g, style),
		origins: origins,
		logger:  logger,
	}
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(accessLog(s.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/network", s.network)
		r.Route("/people/{id}", func(r chi.Router) {
			r.Get("/", s.person)
			r.Get("/ancestors", s.ancestors)
			r.Get("/descendants", s.descendants)
		})
	})
	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"people": s.graph.Len(),
	})
}

func (s *Server) network(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.data)
}

func (s *Server) person(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	n, _ := s.graph.Node(id)

	details := PersonDetails{
		ID:       network.NodeID(id),
		Person:   n.Person,
		Children: []string{},
		Partners: []Partner{},
	}
	if parent, ok := s.graph.Parent(id); ok {
		details.Parent = network.NodeID(parent)
	}
	for _, child := range s.graph.Children(id) {
		details.Children = append(details.Children, network.NodeID(child))
	}
	for _, e := range s.graph.Outgoing(id) {
		if e.Relationship.IsDescent() {
			continue
		}
		partner, _ := s.graph.Node(e.To)
		details.Partners = append(details.Partners, Partner{
			ID:           network.NodeID(e.To),
			Name:         partner.Person.Name,
			Relationship: e.Relationship,
		})
	}
	respondJSON(w, http.StatusOK, details)
}

func (s *Server) ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.lineage(id, s.graph.Ancestors(id)))
}

func (s *Server) descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.lineage(id, s.graph.Descendants(id)))
}

func (s *Server) lineage(id famgraph.NodeID, ids []famgraph.NodeID) Lineage {
	out := Lineage{ID: network.NodeID(id), People: make([]network.Node, 0, len(ids))}
	for _, n := range ids {
		out.People = append(out.People, s.data.Nodes[n])
	}
	return out
}

func (s *Server) nodeParam(w http.ResponseWriter, r *http.Request) (famgraph.NodeID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := network.ParseNodeID(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if _, ok := s.graph.Node(id); !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return 0, false
	}
	return id, true
}

func accessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
