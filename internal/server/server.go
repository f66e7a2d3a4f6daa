// Package server exposes the balancer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/internal/diagram"
	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type handler struct {
	logger        *zap.Logger
	balancer      *balancer.Balancer
	table         *recipe.Table
	maxBodySize   int64
	version       string
	rateLimiter   *rate.Limiter
	cfg           *Config
}

// NewHandler constructs the HTTP handler that serves the balancing API.
func NewHandler(logger *zap.Logger, b *balancer.Balancer, table *recipe.Table, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		balancer:      b,
		table:         table,
		maxBodySize:   int64(cfg.MaxBodySize),
		version:       trimmedVersion,
		rateLimiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		cfg:           cfg,
	}

	mux := http.NewServeMux()

	// System endpoints (no rate limiting)
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/optimize", h.withMiddleware(h.handleOptimize))
	mux.HandleFunc("/api/diagram", h.withMiddleware(h.handleDiagram))
	mux.HandleFunc("/api/tree", h.withMiddleware(h.handleTree))
	mux.HandleFunc("/api/version", h.withMiddleware(h.handleVersion))

	return mux
}

// Serve listens on cfg.Address until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, logger *zap.Logger, handler http.Handler, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", cfg.Address),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server", zap.String("op", "server.Serve"))
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"recipes": h.table.Len(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}

	resp, err := Optimize(r.Context(), h.balancer, h.table, req)
	if err != nil {
		h.respondErrorWithOp(w, r, StatusCode(err), err.Error(), op)
		return
	}

	h.logger.Info("balanced request",
		zap.String("op", op),
		zap.String("requestID", requestID(r)),
		zap.String("target", req.Target),
		zap.Int("results", len(resp.Results)),
		zap.String("duration", resp.Duration),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDiagram"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}

	resp, err := Diagram(r.Context(), h.balancer, req)
	if err != nil {
		h.respondErrorWithOp(w, r, StatusCode(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleTree(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTree"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	item := strings.TrimSpace(query.Get("item"))
	if item == "" {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing item parameter", op)
		return
	}
	if _, ok := h.table.TransformByProduct(item); !ok {
		h.respondErrorWithOp(w, r, http.StatusNotFound, fmt.Sprintf("%v: %s", balancer.ErrNoProducer, item), op)
		return
	}

	src, err := diagram.Render(diagram.ResolveItemTree(h.table, item, splitList(query.Get("exclude"))))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, DiagramResponse{Mermaid: src})
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (balancer.Request, bool) {
	var req balancer.Request
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return req, false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return req, false
	}
	return req, true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("balancing request failed",
		zap.String("op", op),
		zap.String("requestID", requestID(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
