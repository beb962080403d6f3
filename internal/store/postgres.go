package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"cvrpcluster/internal/model"
)

// Postgres is the production Store, backed by the stdlib database/sql
// interface over pgx.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// ensureSchema applies the store's tables idempotently. It stands in for
// a full migration runner: five small tables don't warrant one.
func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id text PRIMARY KEY,
			tenant_id text NOT NULL,
			heuristic text NOT NULL,
			init text NOT NULL,
			regret_coeff double precision NOT NULL,
			status text NOT NULL,
			error text,
			edges_cost bigint NOT NULL DEFAULT 0,
			unassigned integer NOT NULL DEFAULT 0,
			duration_ms bigint NOT NULL DEFAULT 0,
			envelope jsonb,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS runs_tenant_idx ON runs (tenant_id, id)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id text PRIMARY KEY,
			tenant_id text NOT NULL,
			url text NOT NULL,
			secret text,
			events jsonb NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS subscriptions_tenant_idx ON subscriptions (tenant_id, id)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id text PRIMARY KEY,
			tenant_id text NOT NULL,
			subscription_id text,
			event_type text NOT NULL,
			url text NOT NULL,
			secret text,
			payload jsonb NOT NULL,
			status text NOT NULL DEFAULT 'pending',
			attempts integer NOT NULL DEFAULT 0,
			next_attempt_at timestamptz NOT NULL DEFAULT now(),
			last_error text,
			response_code integer,
			latency_ms integer,
			dedup_key text,
			delivered_at timestamptz,
			updated_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (tenant_id, event_type, url, dedup_key)
		)`,
		`CREATE INDEX IF NOT EXISTS webhook_deliveries_tenant_idx ON webhook_deliveries (tenant_id, id)`,
		`CREATE TABLE IF NOT EXISTS webhook_dlq (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id text NOT NULL,
			delivery_id text NOT NULL,
			event_type text NOT NULL,
			url text NOT NULL,
			secret text,
			payload jsonb NOT NULL,
			attempts integer NOT NULL,
			last_error text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS run_configs (
			tenant_id text PRIMARY KEY,
			config jsonb NOT NULL DEFAULT '{}',
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Ping verifies the database connection is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) SaveRun(ctx context.Context, r model.RunRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO runs (id, tenant_id, heuristic, init, regret_coeff, status, error, edges_cost, unassigned, duration_ms, envelope)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			status=EXCLUDED.status, error=EXCLUDED.error, edges_cost=EXCLUDED.edges_cost,
			unassigned=EXCLUDED.unassigned, duration_ms=EXCLUDED.duration_ms, envelope=EXCLUDED.envelope`,
		r.ID, r.TenantID, r.Heuristic, r.Init, r.RegretCoeff, r.Status, nullIfEmpty(r.Error),
		r.EdgesCost, r.Unassigned, r.DurationMs, nullBytes(r.Envelope))
	return err
}

func (p *Postgres) GetRun(ctx context.Context, tenantID, id string) (model.RunRecord, error) {
	var r model.RunRecord
	var errStr sql.NullString
	var envelope []byte
	var createdAt time.Time
	err := p.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, heuristic, init, regret_coeff, status, error, edges_cost, unassigned, duration_ms, envelope, created_at
		FROM runs WHERE tenant_id=$1 AND id=$2`, tenantID, id).
		Scan(&r.ID, &r.TenantID, &r.Heuristic, &r.Init, &r.RegretCoeff, &r.Status, &errStr,
			&r.EdgesCost, &r.Unassigned, &r.DurationMs, &envelope, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunRecord{}, ErrNotFound
	}
	if err != nil {
		return model.RunRecord{}, err
	}
	r.Error = errStr.String
	r.Envelope = envelope
	r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return r, nil
}

func (p *Postgres) ListRuns(ctx context.Context, tenantID, cursor string, limit int) ([]model.RunRecord, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, tenant_id, heuristic, init, regret_coeff, status, error, edges_cost, unassigned, duration_ms, created_at
			FROM runs WHERE tenant_id=$1 AND id > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, tenant_id, heuristic, init, regret_coeff, status, error, edges_cost, unassigned, duration_ms, created_at
			FROM runs WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.RunRecord{}
	var last string
	for rows.Next() {
		var r model.RunRecord
		var errStr sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Heuristic, &r.Init, &r.RegretCoeff, &r.Status, &errStr,
			&r.EdgesCost, &r.Unassigned, &r.DurationMs, &createdAt); err != nil {
			return nil, "", err
		}
		r.Error = errStr.String
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, r)
		last = r.ID
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

func (p *Postgres) GetRunConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT config FROM run_configs WHERE tenant_id=$1`, tenantID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := map[string]any{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *Postgres) SaveRunConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO run_configs (tenant_id, config, updated_at) VALUES ($1,$2,now())
		ON CONFLICT (tenant_id) DO UPDATE SET config=EXCLUDED.config, updated_at=now()`,
		tenantID, raw)
	return err
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, tenant_id, url, secret, events) VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.TenantID, sub.URL, nullIfEmpty(sub.Secret), toJSON(sub.Events))
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND events @> $2::jsonb`,
		tenantID, mustJSON([]string{eventType}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var secret sql.NullString
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &secret, &events); err != nil {
			return nil, err
		}
		s.TenantID = tenantID
		s.Secret = secret.String
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND id > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id, url, secret, events FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []model.Subscription
	var last string
	for rows.Next() {
		var s model.Subscription
		var secret sql.NullString
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &secret, &events); err != nil {
			return nil, "", err
		}
		s.TenantID = tenantID
		s.Secret = secret.String
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
		last = s.ID
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return err
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	dk := computeDedupKey(payload)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now(),$8)
		ON CONFLICT (tenant_id, event_type, url, dedup_key) DO NOTHING`,
		id, tenantID, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, dk)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, tenant_id, COALESCE(subscription_id,''), event_type, url, COALESCE(secret,''), payload, status, attempts
		FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		var payload []byte
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		d.Payload = payload
		out = append(out, d)
	}
	return out, nil
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if !success {
		if nextAttemptAt == nil {
			t := time.Now().Add(time.Minute)
			nextAttemptAt = &t
		}
		_, err := p.db.ExecContext(ctx, `
			UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id=$1`,
			id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		UPDATE webhook_deliveries SET status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`,
		id, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`,
		id, nullIfEmpty(lastError), responseCode, latencyMs)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO webhook_dlq (tenant_id, delivery_id, event_type, url, secret, payload, attempts, last_error)
		SELECT tenant_id, id, event_type, url, secret, payload, attempts+1, $2 FROM webhook_deliveries WHERE id=$1`,
		id, nullIfEmpty(lastError))
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id, event_type, status, attempts, url, COALESCE(last_error,'') FROM webhook_deliveries WHERE tenant_id=$1`
	var rows *sql.Rows
	var err error
	if status != "" {
		q += ` AND status=$2 ORDER BY id LIMIT $3`
		rows, err = p.db.QueryContext(ctx, q, tenantID, status, limit)
	} else {
		q += ` ORDER BY id LIMIT $2`
		rows, err = p.db.QueryContext(ctx, q, tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []map[string]any{}
	var last string
	for rows.Next() {
		var id, typ, st, url, lastErr string
		var attempts int
		if err := rows.Scan(&id, &typ, &st, &attempts, &url, &lastErr); err != nil {
			return nil, "", err
		}
		m := map[string]any{"id": id, "eventType": typ, "status": st, "attempts": attempts, "url": url}
		if lastErr != "" {
			m["lastError"] = lastErr
		}
		out = append(out, m)
		last = id
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	return err
}

func computeDedupKey(payload []byte) string {
	var m map[string]any
	if json.Unmarshal(payload, &m) == nil {
		if v, ok := m["id"].(string); ok && v != "" {
			return v
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func toJSON(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return b
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
