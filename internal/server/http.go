// Package server exposes the HTTP surface: report generation triggers,
// the report read path, the hot-topics feed, and introspection.
package server

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/factlens/research_radar/internal/config"
	"github.com/factlens/research_radar/internal/feed"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
	"github.com/factlens/research_radar/internal/store"
)

// ReportStore is satisfied by *store.Service.
type ReportStore interface {
	Enqueue(query string, force bool) string
	GetReport(slug string) (*model.Report, store.Status)
	Stats() store.Stats
	ScanConsistency()
}

// FeedSource is satisfied by *feed.Manager.
type FeedSource interface {
	Topics(ctx context.Context) ([]feed.Topic, error)
	ForceRefresh(ctx context.Context) ([]feed.Topic, error)
}

// Service holds the handlers' collaborators.
type Service struct {
	store ReportStore
	feed  FeedSource
}

// NewService builds the HTTP service.
func NewService(reports ReportStore, topics FeedSource) *Service {
	return &Service{store: reports, feed: topics}
}

// NewHTTPServer builds the kratos HTTP server with all routes bound.
func NewHTTPServer(c config.ServerConfig, s *Service) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	srv.HandleFunc("/health", s.handleHealth)
	srv.HandleFunc("/api/research", s.handleResearch)
	srv.HandleFunc("/api/article/{slug}", s.handleGetArticle)
	srv.HandleFunc("/api/article-generation-status", s.handleStatus)
	srv.HandleFunc("/api/feed", s.handleFeed)
	srv.HandleFunc("/api/force-generate-topics", s.handleForceTopics)
	srv.HandleFunc("/api/generate-article-for-topic", s.handleGenerateForTopic)

	return srv
}

type researchRequest struct {
	Query string `json:"query"`
	Force bool   `json:"force"`
}

func (s *Service) handleResearch(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		writeError(w, nethttp.StatusMethodNotAllowed, "POST required")
		return
	}
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, nethttp.StatusBadRequest, "query required")
		return
	}

	slug := s.store.Enqueue(req.Query, req.Force)
	writeJSON(w, nethttp.StatusAccepted, map[string]any{
		"query":  req.Query,
		"slug":   slug,
		"status": "queued",
	})
}

func (s *Service) handleGetArticle(w nethttp.ResponseWriter, r *nethttp.Request) {
	slug := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if slug == "" {
		writeError(w, nethttp.StatusBadRequest, "slug required")
		return
	}

	report, status := s.store.GetReport(slug)
	switch status {
	case store.StatusReady:
		writeJSON(w, nethttp.StatusOK, report)
	case store.StatusPending:
		writeJSON(w, nethttp.StatusAccepted, map[string]string{
			"status": "pending",
			"slug":   slug,
		})
	default:
		writeError(w, nethttp.StatusNotFound, "no report for slug "+slug)
	}
}

func (s *Service) handleStatus(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.store.ScanConsistency()
	writeJSON(w, nethttp.StatusOK, s.store.Stats())
}

func (s *Service) handleFeed(w nethttp.ResponseWriter, r *nethttp.Request) {
	topics, err := s.feed.Topics(r.Context())
	if err != nil {
		logger.Log.Errorf("feed generation failed: %v", err)
		writeJSON(w, nethttp.StatusOK, []feed.Topic{})
		return
	}
	writeJSON(w, nethttp.StatusOK, topics)
}

func (s *Service) handleForceTopics(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		writeError(w, nethttp.StatusMethodNotAllowed, "POST required")
		return
	}
	topics, err := s.feed.ForceRefresh(r.Context())
	if err != nil {
		writeError(w, nethttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"message":     "topics generated",
		"topicsCount": len(topics),
		"generatedAt": time.Now().Format(time.RFC3339),
	})
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func (s *Service) handleGenerateForTopic(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		writeError(w, nethttp.StatusMethodNotAllowed, "POST required")
		return
	}
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		writeError(w, nethttp.StatusBadRequest, "topic required")
		return
	}

	slug := s.store.Enqueue(req.Topic, true)
	writeJSON(w, nethttp.StatusAccepted, map[string]string{
		"topic":  req.Topic,
		"slug":   slug,
		"status": "queued",
	})
}

func (s *Service) handleHealth(w nethttp.ResponseWriter, r *nethttp.Request) {
	stats := s.store.Stats()
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"cached":    stats.Cached,
		"queued":    stats.Queued,
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("response encoding failed: %v", err)
	}
}

func writeError(w nethttp.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
