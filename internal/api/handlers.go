package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cvrpcluster/internal/buildinfo"
	"cvrpcluster/internal/cluster"
	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/metrics"
	"cvrpcluster/internal/model"
	"cvrpcluster/internal/serialize"
)

// RunHandler handles POST /v1/cluster: runs the construction heuristic
// against the submitted jobs, vehicles, and cost matrix, persists the
// outcome, and returns the result envelope.
func (s *Server) RunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, tenant := s.withTenant(r)

	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenant
	}
	s.applyRunDefaults(ctx, &req)

	if err := validateRunRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid run request", err.Error(), r.URL.Path)
		return
	}

	h, _ := cluster.ParseHeuristic(req.Heuristic)
	init, _ := cluster.ParseInit(req.Init)

	runID := uuid.New().String()
	start := time.Now()

	if req.Trace {
		s.publishTrace(runID, "started", map[string]any{"runId": runID, "heuristic": req.Heuristic, "init": req.Init})
	}

	var res cluster.Result
	m, runErr := matrix.New(req.Matrix)
	if runErr != nil {
		runErr = fmt.Errorf("%w: %v", cluster.ErrInvalidInput, runErr)
	} else {
		oracle := compat.Build(req.Vehicles, req.Jobs)
		res, runErr = cluster.Run(req.Jobs, req.Vehicles, m, oracle, h, init, req.RegretCoeff)
	}
	duration := time.Since(start)

	outcome := "ok"
	if runErr != nil {
		outcome = classifyOutcome(runErr)
	}
	metrics.ClusterRuns.WithLabelValues(req.Heuristic, req.Init, outcome).Inc()
	metrics.ClusterRunDuration.WithLabelValues(req.Heuristic).Observe(duration.Seconds())
	if runErr == nil {
		metrics.ClusterEdgesCost.WithLabelValues(req.Heuristic).Observe(float64(res.EdgesCost))
		metrics.ClusterUnassignedJobs.WithLabelValues(req.Heuristic).Observe(float64(len(res.Unassigned)))
	}

	var doc serialize.Document
	if runErr != nil {
		doc = serialize.ErrorDocument(runErr)
	} else {
		doc = serialize.BuildDocument(req.Jobs, req.Vehicles, res, 0, duration)
	}

	envelope, _ := json.Marshal(doc)
	rec := model.RunRecord{
		ID:          runID,
		TenantID:    req.TenantID,
		Heuristic:   req.Heuristic,
		Init:        req.Init,
		RegretCoeff: req.RegretCoeff,
		Status:      outcome,
		EdgesCost:   doc.Summary.Cost,
		Unassigned:  len(doc.Unassigned),
		DurationMs:  duration.Milliseconds(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Envelope:    envelope,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.Store.SaveRun(r.Context(), rec); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save run failed", err.Error(), r.URL.Path)
		return
	}

	if req.Trace {
		for _, tr := range res.Trace {
			s.publishTrace(runID, "step", map[string]any{"vehicle": tr.VehicleID, "parent": tr.ParentIndex, "job": tr.JobIndex})
		}
		s.publishTrace(runID, "done", map[string]any{"runId": runID, "status": outcome, "edgesCost": doc.Summary.Cost})
	}

	s.Pub.Emit(r.Context(), req.TenantID, "cluster.run.completed", map[string]any{
		"runId": runID, "status": outcome, "edgesCost": doc.Summary.Cost, "unassigned": len(doc.Unassigned),
	})

	status := http.StatusOK
	if runErr != nil {
		status = http.StatusBadRequest
	}
	w.Header().Set("X-Run-Id", runID)
	writeJSON(w, status, doc)
}

func (s *Server) applyRunDefaults(ctx context.Context, req *model.RunRequest) {
	cfg, _ := s.Store.GetRunConfig(ctx, req.TenantID)
	if req.Heuristic == "" {
		req.Heuristic = stringOr(cfg["heuristic"], s.Config.DefaultHeuristic)
	}
	if req.Init == "" {
		req.Init = stringOr(cfg["init"], s.Config.DefaultInit)
	}
	if req.RegretCoeff == 0 {
		if f, ok := cfg["regretCoeff"].(float64); ok && f > 0 {
			req.RegretCoeff = f
		} else {
			req.RegretCoeff = s.Config.DefaultRegretCoeff
		}
	}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func classifyOutcome(err error) string {
	if errors.Is(err, cluster.ErrInvalidInput) {
		return "invalid_input"
	}
	return "internal_error"
}

func (s *Server) publishTrace(runID, typ string, data map[string]any) {
	s.Broker.Publish(runID, TraceEvent{Type: typ, Data: data})
}

// RunByIDHandler handles GET /v1/cluster/{id}: returns the persisted
// result envelope for a completed run.
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/cluster/")
	if strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	_, tenant := s.withTenant(r)
	rec, err := s.Store.GetRun(r.Context(), tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Run not found", err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(rec.Envelope) > 0 {
		_, _ = w.Write(rec.Envelope)
		return
	}
	_ = json.NewEncoder(w).Encode(rec)
}

// RunsIndexHandler handles GET /v1/cluster: lists runs for the tenant.
func (s *Server) RunsIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tenant := s.withTenant(r)
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListRuns(r.Context(), tenant, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

var traceUpgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// TraceStreamHandler handles GET /v1/cluster/{id}/trace/stream: upgrades
// to a WebSocket connection and forwards trace events for the run.
func (s *Server) TraceStreamHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/cluster/"), "/trace/stream")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	conn, err := traceUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for evt := range ch {
		if err := conn.WriteJSON(evt); err != nil {
			return
		}
		if evt.Type == "done" {
			return
		}
	}
}

// RunConfigHandler handles GET/PUT /v1/cluster/config: per-tenant
// default heuristic, init policy, and regret coefficient.
func (s *Server) RunConfigHandler(w http.ResponseWriter, r *http.Request) {
	_, tenant := s.withTenant(r)
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.Store.GetRunConfig(r.Context(), tenant)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get config failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		p := s.getPrincipal(r)
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		var cfg map[string]any
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if h, ok := cfg["heuristic"].(string); ok && h != "" {
			if _, err := cluster.ParseHeuristic(h); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid heuristic", h, r.URL.Path)
				return
			}
		}
		if in, ok := cfg["init"].(string); ok && in != "" {
			if _, err := cluster.ParseInit(in); err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid init", in, r.URL.Path)
				return
			}
		}
		if err := s.Store.SaveRunConfig(r.Context(), tenant, cfg); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Save config failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions: webhook
// subscription registration for cluster.run.completed and related events.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p := s.getPrincipal(r)
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = p.Tenant
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		p := s.getPrincipal(r)
		if !p.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}.
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebhookDeliveriesHandler handles GET /v1/admin/webhook-deliveries.
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/webhook-deliveries" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := r.URL.Query().Get("status")
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// WebhookDeliveryRetryHandler handles POST /v1/admin/webhook-deliveries/{id}/retry.
func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p := s.getPrincipal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
	if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Retry delivery failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	body := buildinfo.Info()
	body["status"] = "ok"
	writeJSON(w, http.StatusOK, body)
}

type pinger interface{ Ping(ctx context.Context) error }

// ReadyHandler handles GET /readyz, pinging the store when it's Postgres-backed.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
