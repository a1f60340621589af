package consumer

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/izygear/service-reservation/internal/application"
	"github.com/izygear/service-reservation/internal/domain"
	"github.com/izygear/service-reservation/internal/events"
	"github.com/izygear/service-reservation/internal/kafka"
)

// SettlementEventConsumer listens to settlement (payment) events and applies
// the resulting reservation status transitions.
type SettlementEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.ReservationService
	logger   *zap.Logger
}

// NewSettlementEventConsumer creates a new SettlementEventConsumer.
func NewSettlementEventConsumer(
	brokers []string,
	groupID string,
	service *application.ReservationService,
	logger *zap.Logger,
) *SettlementEventConsumer {
	c := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &SettlementEventConsumer{
		consumer: c,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming settlement events. This blocks until the context is
// cancelled.
func (c *SettlementEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *SettlementEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *SettlementEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	case events.PaymentFailed:
		return c.handlePaymentFailed(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *SettlementEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment captured event",
		zap.String("reservation_id", evt.ReservationID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
	)

	if _, err := c.service.ConfirmReservation(ctx, evt.ReservationID); err != nil {
		if isTerminalHandlerError(err) {
			c.logger.Warn("dropping payment captured event",
				zap.String("reservation_id", evt.ReservationID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to confirm reservation after payment capture",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *SettlementEventConsumer) handlePaymentFailed(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentFailedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentFailedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment failed event",
		zap.String("reservation_id", evt.ReservationID.String()),
		zap.String("reason", evt.Reason),
	)

	if _, err := c.service.CancelReservation(ctx, evt.ReservationID, evt.Reason); err != nil {
		if isTerminalHandlerError(err) {
			c.logger.Warn("dropping payment failed event",
				zap.String("reservation_id", evt.ReservationID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to cancel reservation after payment failure",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// isTerminalHandlerError reports whether retrying the event can never
// succeed: the reservation does not exist or is already in a terminal state.
func isTerminalHandlerError(err error) bool {
	var notFoundErr *domain.NotFoundError
	var invalidStateErr *domain.InvalidStateError
	return errors.As(err, &notFoundErr) || errors.As(err, &invalidStateErr)
}
