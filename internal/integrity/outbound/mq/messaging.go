package mq

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/messaging"
	"github.com/shandysiswandi/goseal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const maxPublishRetries = 3

type Messaging struct {
	client  messaging.Publisher
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(200 * time.Millisecond)
			b = retry.WithCappedDuration(2*time.Second, b)
			return retry.WithMaxRetries(maxPublishRetries, b)
		},
	}
}

func (m *Messaging) PublishDocumentStored(ctx context.Context, msg usecase.DocumentStoredEvent) error {
	ctx, span := m.ins.Tracer("integrity.outbound.mq").Start(ctx, "PublishDocumentStored")
	defer span.End()

	err := m.publish(ctx, event.DocumentStoredDestination, msg.Fingerprint, event.DocumentStoredMessage{
		EventID:      msg.EventID,
		Fingerprint:  msg.Fingerprint,
		Size:         msg.Size,
		ContentType:  msg.ContentType,
		Deduplicated: msg.Deduplicated,
		ClientID:     msg.ClientID,
		OccurredAt:   msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishDocumentCorrupted(ctx context.Context, msg usecase.DocumentCorruptedEvent) error {
	ctx, span := m.ins.Tracer("integrity.outbound.mq").Start(ctx, "PublishDocumentCorrupted")
	defer span.End()

	err := m.publish(ctx, event.DocumentCorruptedDestination, msg.Fingerprint, event.DocumentCorruptedMessage{
		EventID:     msg.EventID,
		Fingerprint: msg.Fingerprint,
		Actual:      msg.Actual,
		ClientID:    msg.ClientID,
		OccurredAt:  msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) publish(ctx context.Context, topic, key string, data any) error {
	cID := instrument.GetCorrelationID(ctx)

	body, err := json.Marshal(event.Envelope[any]{CorrelationID: cID, Data: data})
	if err != nil {
		return err
	}

	out := messaging.Message{
		Key:     []byte(key),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: cID},
	}

	return retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		if _, err := m.client.Publish(ctx, topic, out); err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}
