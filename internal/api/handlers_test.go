package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cvrpcluster/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.Default())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func sampleRunBody() []byte {
	req := map[string]any{
		"tenantId":  "t_test",
		"heuristic": "parallel",
		"init":      "nearest",
		"jobs": []map[string]any{
			{"id": "j1", "location": map[string]any{"index": 1}, "amount": []int64{1}},
			{"id": "j2", "location": map[string]any{"index": 2}, "amount": []int64{1}},
		},
		"vehicles": []map[string]any{
			{"id": "v1", "capacity": []int64{5}, "start": map[string]any{"index": 0}, "end": map[string]any{"index": 0}},
		},
		"matrix": [][]int64{
			{0, 4, 9},
			{4, 0, 3},
			{9, 3, 0},
		},
	}
	b, _ := json.Marshal(req)
	return b
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestRunHandlerProducesRoutesAndPersists(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cluster", bytes.NewReader(sampleRunBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.RunHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("run: got %d body=%s", rr.Code, rr.Body.String())
	}
	runID := rr.Header().Get("X-Run-Id")
	if runID == "" {
		t.Fatal("expected X-Run-Id header")
	}

	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["code"].(float64) != 0 {
		t.Fatalf("expected success code, got %v", doc["code"])
	}

	rr2 := httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, "/v1/cluster/"+runID, nil)
	getReq.Header.Set("X-Tenant-Id", "t_test")
	s.RunByIDHandler(rr2, getReq)
	if rr2.Code != http.StatusOK {
		t.Fatalf("get run: got %d", rr2.Code)
	}
}

func TestRunHandlerRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"tenantId":"t_test","heuristic":"bogus","jobs":[],"vehicles":[],"matrix":[]}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cluster", bytes.NewReader(body))
	req.Header.Set("X-Tenant-Id", "t_test")
	s.RunHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRunsIndexListsCreatedRun(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cluster", bytes.NewReader(sampleRunBody()))
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.RunHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("run: got %d", rr.Code)
	}

	rr2 := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/v1/cluster", nil)
	listReq.Header.Set("X-Tenant-Id", "t_test")
	s.RunsIndexHandler(rr2, listReq)
	if rr2.Code != http.StatusOK {
		t.Fatalf("list runs: got %d", rr2.Code)
	}
	var out struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(rr2.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) == 0 {
		t.Fatal("expected at least one run")
	}
}

func TestRunConfigGetPut(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	putReq := httptest.NewRequest(http.MethodPut, "/v1/cluster/config", bytes.NewReader([]byte(`{"heuristic":"sequential"}`)))
	putReq.Header.Set("X-Tenant-Id", "t_test")
	putReq.Header.Set("X-Role", "admin")
	s.RunConfigHandler(rr, putReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("put config: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr2 := httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, "/v1/cluster/config", nil)
	getReq.Header.Set("X-Tenant-Id", "t_test")
	s.RunConfigHandler(rr2, getReq)
	if rr2.Code != http.StatusOK {
		t.Fatalf("get config: got %d", rr2.Code)
	}
	var cfg map[string]any
	if err := json.Unmarshal(rr2.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg["heuristic"] != "sequential" {
		t.Fatalf("expected persisted heuristic override, got %v", cfg["heuristic"])
	}
}

func TestSubscriptionsCreateListDelete(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"tenantId":"t_test","url":"https://example.invalid/webhook","events":["cluster.run.completed"],"secret":"shh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: got %d body=%s", rr.Code, rr.Body.String())
	}
	var sub struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr2 := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
	listReq.Header.Set("X-Tenant-Id", "t_test")
	listReq.Header.Set("X-Role", "admin")
	s.SubscriptionsHandler(rr2, listReq)
	if rr2.Code != http.StatusOK {
		t.Fatalf("list subs: got %d", rr2.Code)
	}

	rr3 := httptest.NewRecorder()
	delReq := httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
	delReq.Header.Set("X-Tenant-Id", "t_test")
	delReq.Header.Set("X-Role", "admin")
	s.SubscriptionByIDHandler(rr3, delReq)
	if rr3.Code != http.StatusNoContent {
		t.Fatalf("delete sub: got %d", rr3.Code)
	}
}

func TestRunCompletionEnqueuesWebhook(t *testing.T) {
	s := newTestServer(t)
	subBody := []byte(`{"tenantId":"t_test","url":"https://example.invalid/webhook","events":["cluster.run.completed"],"secret":"shh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(subBody))
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "admin")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	runReq := httptest.NewRequest(http.MethodPost, "/v1/cluster", bytes.NewReader(sampleRunBody()))
	runReq.Header.Set("X-Tenant-Id", "t_test")
	runReq.Header.Set("X-Role", "admin")
	s.RunHandler(rr, runReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("run: %d", rr.Code)
	}

	rr2 := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries?limit=5", nil)
	listReq.Header.Set("X-Tenant-Id", "t_test")
	listReq.Header.Set("X-Role", "admin")
	s.WebhookDeliveriesHandler(rr2, listReq)
	if rr2.Code != http.StatusOK {
		t.Fatalf("deliveries: %d", rr2.Code)
	}
	var dres struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(rr2.Body.Bytes(), &dres); err != nil {
		t.Fatalf("decode deliveries: %v", err)
	}
	if len(dres.Items) == 0 {
		t.Fatal("expected at least one delivery")
	}
}
