package api

import (
	"context"
	"encoding/json"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// EventBroker fans trace events out to subscribers of a run, whether
// that means in-process channels or a shared Redis Pub/Sub channel
// across replicas.
type EventBroker interface {
	Subscribe(runID string) chan TraceEvent
	Unsubscribe(runID string, ch chan TraceEvent)
	Publish(runID string, evt TraceEvent)
}

// RedisBroker implements EventBroker over Redis Pub/Sub, so a trace
// stream request can land on a different replica than the one running
// the clustering job.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker() (*RedisBroker, error) {
	url := os.Getenv("REDIS_URL")
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	return &RedisBroker{rdb: rdb}, nil
}

func (b *RedisBroker) Subscribe(runID string) chan TraceEvent {
	ch := make(chan TraceEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(runID))
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt TraceEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(runID string, ch chan TraceEvent) {
	close(ch)
}

func (b *RedisBroker) Publish(runID string, evt TraceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(runID), data).Err()
}

func (b *RedisBroker) chanName(runID string) string { return "cluster-trace:" + runID }
