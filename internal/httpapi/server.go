// Package httpapi exposes computed views over HTTP.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"salesstats/internal/config"
	"salesstats/internal/metrics"
	"salesstats/internal/service"
)

type Server struct {
	stats   *service.Stats
	metrics *metrics.Registry
	log     logrus.FieldLogger
	limiter *rate.Limiter
}

func NewServer(stats *service.Stats, reg *metrics.Registry, log logrus.FieldLogger, rl config.RateLimitConfig) *Server {
	s := &Server{stats: stats, metrics: reg, log: log}
	if rl.Enabled {
		s.limiter = rate.NewLimiter(rate.Limit(rl.RPS), rl.Burst)
	}
	return s
}

// Router builds the chi router serving the API, health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/stats", s.handleStats)
		r.Get("/summary", s.handleSummary)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": string(s.stats.Status())})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, kind, err := parseOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.stats.Compute(opts, kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.stats.Summary()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, sum)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	entry := s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     apiErr.StatusCode,
		"request_id": middleware.GetReqID(r.Context()),
	}).WithError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	_ = render.Render(w, r, apiErr)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			}).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			_ = render.Render(w, r, newAPIError(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
