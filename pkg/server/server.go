// Package server exposes one calibrated cost model over HTTP. The model is
// shared read-only by every request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"

	"github.com/ja7ad/fodlam/pkg/costmodel"
	"github.com/ja7ad/fodlam/pkg/dataset"
	"github.com/ja7ad/fodlam/pkg/report"
)

const maxBody = 1 << 20

// Server serves estimates from one Model.
type Server struct {
	model    *costmodel.Model
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *report.Metrics
	router   *mux.Router
}

// New returns a server over model. A nil logger uses slog.Default().
func New(model *costmodel.Model, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		model:    model,
		log:      logger,
		registry: prometheus.NewRegistry(),
		router:   mux.NewRouter(),
	}
	s.metrics = report.NewMetrics(s.registry)
	s.metrics.ObserveRatios(model.Ratios())

	s.router.Use(s.requestLog)
	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/estimate", s.handleEstimate).Methods(http.MethodPost)
	api.HandleFunc("/diagnose", s.handleDiagnose).Methods(http.MethodGet)
	api.HandleFunc("/tables", s.handleTables).Methods(http.MethodGet)
	api.HandleFunc("/sources", s.handleSources).Methods(http.MethodGet)
	api.HandleFunc("/networks", s.handleNetworks).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := xid.New().String()
		w.Header().Set("X-Request-Id", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	cfg, err := dataset.ParseRunConfig(body)
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}
	if cfg.Stats != "" {
		s.fail(w, http.StatusBadRequest, errors.New("stats files are not read over HTTP; send records inline"))
		return
	}
	if cfg.Name == "" {
		cfg.Name = "request"
	}

	specs, err := cfg.Specs(s.model.Tables().Keys(""))
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}
	est, err := s.model.Estimate(specs)
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}

	res := report.NewResult(cfg.Name, est)
	s.metrics.ObserveResult(res)
	s.json(w, http.StatusOK, res)
}

type diagnosticRow struct {
	Network       string  `json:"network"`
	Layer         string  `json:"layer"`
	Category      string  `json:"category"`
	MACs          int64   `json:"macs"`
	LatencyPerMAC float64 `json:"latency_per_mac_s"`
	EnergyPerMAC  float64 `json:"energy_per_mac_j"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, _ *http.Request) {
	d := s.model.Diagnose()
	rows := make([]diagnosticRow, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, diagnosticRow{
			Network: r.Key.Network, Layer: r.Key.Layer, Category: string(r.Category),
			MACs: r.MACs, LatencyPerMAC: r.LatencyPerMAC, EnergyPerMAC: r.EnergyPerMAC,
		})
	}
	s.json(w, http.StatusOK, map[string]any{
		"layers":         rows,
		"latency_ratios": d.LatencyRatios,
		"energy_ratios":  d.EnergyRatios,
	})
}

type tableRow struct {
	Network  string  `json:"network"`
	Layer    string  `json:"layer"`
	LatencyS float64 `json:"latency_s"`
	PowerW   float64 `json:"power_w"`
	EnergyJ  float64 `json:"energy_j"`
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	t := s.model.Tables()
	keys := t.Keys("")
	rows := make([]tableRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, tableRow{
			Network: k.Network, Layer: k.Layer,
			LatencyS: t.Latency[k], PowerW: t.Power[k], EnergyJ: t.Energy[k],
		})
	}
	s.json(w, http.StatusOK, rows)
}

type sourceRow struct {
	Network  string   `json:"network"`
	Layer    string   `json:"layer"`
	LatencyS float64  `json:"latency_s"`
	PowerW   *float64 `json:"power_w,omitempty"`
}

type sourceTable struct {
	Name         string      `json:"name"`
	ProcessNM    float64     `json:"process_nm"`
	DesignPowerW float64     `json:"design_power_w,omitempty"`
	Layers       []sourceRow `json:"layers"`
}

func newSourceTable(m costmodel.Measurements) sourceTable {
	t := sourceTable{
		Name:         m.Source.Name,
		ProcessNM:    m.Source.ProcessNM,
		DesignPowerW: m.DesignPower,
	}
	keys := m.Keys()
	t.Layers = make([]sourceRow, 0, len(keys))
	for _, k := range keys {
		row := sourceRow{Network: k.Network, Layer: k.Layer, LatencyS: m.Latency[k]}
		if p, ok := m.Power[k]; ok {
			row.PowerW = &p
		}
		t.Layers = append(t.Layers, row)
	}
	return t
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	low, high := s.model.Sources()
	s.json(w, http.StatusOK, map[string]sourceTable{
		"low":  newSourceTable(low),
		"high": newSourceTable(high),
	})
}

func (s *Server) handleNetworks(w http.ResponseWriter, _ *http.Request) {
	s.json(w, http.StatusOK, s.model.Networks())
}

func (s *Server) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.metrics.ObserveFailure()
	s.log.Info("request rejected", "status", status, "err", err)
	s.json(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, costmodel.ErrUnknownLayer):
		return http.StatusNotFound
	case errors.Is(err, costmodel.ErrIncompleteCostData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, costmodel.ErrConfiguration),
		errors.Is(err, costmodel.ErrUnknownCategory),
		errors.Is(err, dataset.ErrMalformedRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
