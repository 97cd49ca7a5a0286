package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

const defaultStreamMaxLen = 100_000

// RedisSink appends events to a Redis stream, trimmed approximately to
// maxLen entries.
type RedisSink struct {
	client redis.StreamCmdable
	stream string
	maxLen int64
}

func NewRedisSink(client redis.StreamCmdable, stream string) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

func (s *RedisSink) Emit(ctx context.Context, e *models.AuditEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"action":  e.Action,
			"outcome": string(e.Outcome),
			"event":   string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	return nil
}
