package mq

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/otpgate/otpgate/internal/device/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, clk clock.Clocker, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, clock: clk, ins: ins}
}

func (m *Messaging) PublishDeviceRegistered(ctx context.Context, msg usecase.DeviceRegisteredEvent) error {
	ctx, span := m.startSpan(ctx, "PublishDeviceRegistered")
	defer span.End()

	return m.publish(ctx, span, event.DeviceRegisteredDestination, event.DeviceRegisteredMessage{
		DeviceID:   msg.DeviceID,
		OwnerID:    msg.OwnerID,
		Source:     msg.Source,
		OccurredAt: m.clock.Now().Unix(),
	})
}

func (m *Messaging) PublishDeviceDeactivated(ctx context.Context, msg usecase.DeviceDeactivatedEvent) error {
	ctx, span := m.startSpan(ctx, "PublishDeviceDeactivated")
	defer span.End()

	return m.publish(ctx, span, event.DeviceDeactivatedDestination, event.DeviceDeactivatedMessage{
		DeviceID:   msg.DeviceID,
		OwnerID:    msg.OwnerID,
		Source:     msg.Source,
		OccurredAt: m.clock.Now().Unix(),
	})
}

func (m *Messaging) PublishRateLimitBreach(ctx context.Context, msg usecase.RateLimitBreachEvent) error {
	ctx, span := m.startSpan(ctx, "PublishRateLimitBreach")
	defer span.End()

	return m.publish(ctx, span, event.DeviceRateLimitedDestination, event.DeviceRateLimitedMessage{
		DeviceID:   msg.DeviceID,
		Source:     msg.Source,
		Attempts:   msg.Attempts,
		OccurredAt: m.clock.Now().Unix(),
	})
}

func (m *Messaging) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("device.outbound.mq").Start(ctx, name)
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, destination string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
