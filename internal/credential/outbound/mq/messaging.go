package mq

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goseal/internal/credential/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/messaging"
	"github.com/shandysiswandi/goseal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

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
			return retry.WithMaxRetries(3, retry.WithCappedDuration(2*time.Second, retry.NewExponential(100*time.Millisecond)))
		},
	}
}

func (m *Messaging) PublishCredentialCorrupted(ctx context.Context, msg usecase.CredentialCorruptedEvent) error {
	ctx, span := m.ins.Tracer("credential.outbound.mq").Start(ctx, "PublishCredentialCorrupted")
	defer span.End()

	cID := instrument.GetCorrelationID(ctx)
	body, err := json.Marshal(event.Envelope[event.CredentialCorruptedMessage]{
		CorrelationID: cID,
		Data: event.CredentialCorruptedMessage{
			EventID:    msg.EventID,
			Reference:  msg.Reference,
			Reason:     msg.Reason,
			ClientID:   msg.ClientID,
			OccurredAt: msg.OccurredAt,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	out := messaging.Message{
		Key:     []byte(msg.Reference),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: cID},
	}

	err = retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		if _, err := m.client.Publish(ctx, event.CredentialCorruptedDestination, out); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
