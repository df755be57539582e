package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamConfig configures the Redis stream publisher.
type StreamConfig struct {
	Addr     string
	Password string
	Stream   string
	// StatusTTL bounds how long the per-dispatch status hash is kept.
	StatusTTL time.Duration
	MaxLen    int64
}

// StreamPublisher appends dispatch events to a Redis stream and keeps the
// latest stage of every dispatch in a hash keyed by dispatch id.
type StreamPublisher struct {
	client    *redis.Client
	stream    string
	statusTTL time.Duration
	maxLen    int64
}

// NewStreamPublisher builds a StreamPublisher; it does not dial eagerly.
func NewStreamPublisher(cfg StreamConfig) (*StreamPublisher, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("dispatch stream required")
	}
	statusTTL := cfg.StatusTTL
	if statusTTL <= 0 {
		statusTTL = 24 * time.Hour
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &StreamPublisher{
		client:    redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:    stream,
		statusTTL: statusTTL,
		maxLen:    maxLen,
	}, nil
}

// Publish records the stage and appends the event to the stream atomically.
func (p *StreamPublisher) Publish(ctx context.Context, event Event) error {
	at := event.At.UTC().Format(time.RFC3339Nano)
	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, p.statusKey(event.DispatchID), map[string]any{
		"stage":      string(event.Stage),
		"kind":       event.Kind,
		"to":         event.To,
		"subject":    event.Subject,
		"personName": event.PersonName,
		"updatedAt":  at,
	})
	pipe.Expire(ctx, p.statusKey(event.DispatchID), p.statusTTL)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"dispatch_id": event.DispatchID,
			"stage":       string(event.Stage),
			"at":          at,
		},
	})
	_, err := pipe.Exec(ctx)
	return err
}

// Stage returns the last published stage of a dispatch.
func (p *StreamPublisher) Stage(ctx context.Context, dispatchID string) (Stage, bool, error) {
	v, err := p.client.HGet(ctx, p.statusKey(dispatchID), "stage").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Stage(v), true, nil
}

func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

func (p *StreamPublisher) statusKey(dispatchID string) string {
	return fmt.Sprintf("dispatch:%s:%s", p.stream, dispatchID)
}
