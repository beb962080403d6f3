// Package store persists cluster runs, webhook subscriptions, and the
// webhook delivery queue behind a small interface, so the API server can
// run against Postgres in production and an in-memory stand-in in tests.
package store

import (
	"context"
	"errors"
	"time"

	"cvrpcluster/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, r model.RunRecord) error
	GetRun(ctx context.Context, tenantID, id string) (model.RunRecord, error)
	ListRuns(ctx context.Context, tenantID, cursor string, limit int) ([]model.RunRecord, string, error)

	// Run configuration overrides (per tenant defaults for heuristic/init/regretCoeff)
	GetRunConfig(ctx context.Context, tenantID string) (map[string]any, error)
	SaveRunConfig(ctx context.Context, tenantID string, cfg map[string]any) error

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
	RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
