package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"cvrpcluster/internal/api"
	"cvrpcluster/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Clustering runs
	mux.HandleFunc("/v1/cluster", clusterRootRouter(srvDeps))
	mux.HandleFunc("/v1/cluster/config", srvDeps.RunConfigHandler)
	mux.HandleFunc("/v1/cluster/", clusterByIDRouter(srvDeps))

	// Subscriptions
	mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
	mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

	// Admin
	mux.HandleFunc("/v1/admin/webhook-deliveries", srvDeps.WebhookDeliveriesHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries/", srvDeps.WebhookDeliveryRetryHandler)

	mux.Handle("/metrics", api.MetricsHandler())

	addr := ":" + cfg.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if srvDeps.Pub != nil {
		worker := srvDeps.NewWebhookWorker()
		worker.Start()
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// clusterRootRouter dispatches /v1/cluster: POST starts a run, GET lists them.
func clusterRootRouter(s *api.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.RunsIndexHandler(w, r)
			return
		}
		s.RunHandler(w, r)
	}
}

// clusterByIDRouter dispatches the /v1/cluster/{id} and
// /v1/cluster/{id}/trace/stream paths, since both hang off the same
// ServeMux prefix.
func clusterByIDRouter(s *api.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > len("/v1/cluster/") && hasTraceSuffix(r.URL.Path) {
			s.TraceStreamHandler(w, r)
			return
		}
		s.RunByIDHandler(w, r)
	}
}

func hasTraceSuffix(path string) bool {
	const suffix = "/trace/stream"
	return len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
