package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) Ping(ctx context.Context) error {
	ctx, span := c.ins.Tracer("site.outbound.cache").Start(ctx, "Ping")
	defer span.End()

	if err := c.client.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
