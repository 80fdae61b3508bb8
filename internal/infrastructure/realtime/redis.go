// Package realtime delivers published complaints to a Redis stream consumed
// by the city portal.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

const (
	payloadField = "payload"
	messageField = "message"
)

// Publisher appends publish payloads to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

func NewPublisher(client *redis.Client, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, stream: stream, logger: logger}
}

// Ping verifies connectivity, used by the health endpoint.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish appends one payload entry to the stream.
func (p *Publisher) Publish(ctx context.Context, payload domain.PublishPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			payloadField: body,
			messageField: FormatMessage(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd to %s: %w", p.stream, err)
	}

	p.logger.Debug("published", "stream", p.stream, "entry", id, "category", payload.Category)
	return nil
}

// Recent reads the newest entries from the stream, newest first. On startup
// the pipeline replays them into the published ring so a restart does not
// re-announce recent complaints.
func (p *Publisher) Recent(ctx context.Context, n int64) ([]domain.PublishPayload, error) {
	entries, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", p.stream, err)
	}

	out := make([]domain.PublishPayload, 0, len(entries))
	for _, e := range entries {
		raw, ok := e.Values[payloadField].(string)
		if !ok {
			continue
		}
		var payload domain.PublishPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			p.logger.Warn("skip malformed stream entry", "entry", e.ID, "error", err)
			continue
		}
		out = append(out, payload)
	}
	return out, nil
}

// FormatMessage renders one payload as the human-readable announcement text
// stored alongside the structured entry.
func FormatMessage(p domain.PublishPayload) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(p.Category)
	b.WriteString("] ")
	b.WriteString(p.Summary)
	if p.Address != "" {
		b.WriteString("\nAddress: ")
		b.WriteString(p.Address)
	}
	if p.PostLink != "" {
		b.WriteString("\nSource: ")
		b.WriteString(p.PostLink)
	}
	return b.String()
}
