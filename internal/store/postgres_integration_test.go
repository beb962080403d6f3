//go:build postgres_integration

package store

import (
	"context"
	"os"
	"testing"

	"cvrpcluster/internal/model"
)

func TestPostgresConnectivityAndSchema(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	ctx := context.Background()
	if _, _, err := p.ListRuns(ctx, "t_demo", "", 1); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if err := p.SaveRun(ctx, model.RunRecord{ID: "r_test", TenantID: "t_demo", Heuristic: "parallel", Init: "none", Status: "ok"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
}
