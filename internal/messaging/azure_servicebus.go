package messaging

import (
	"context"

	"example.com/loomtrack/services/supplychain/config"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MessageHandler processes one received message inside a traced transaction
type MessageHandler func(ctx context.Context, message *azservicebus.ReceivedMessage, txn *newrelic.Transaction) error

// AzureServiceBus receives inspection events published by the workbench
// edge devices
type AzureServiceBus struct {
	client    *azservicebus.Client
	receiver  *azservicebus.Receiver
	queueName string
	tracer    tracing.Tracer
}

// NewAzureServiceBus creates a new Service Bus consumer for the inspection
// event queue
func NewAzureServiceBus(cfg config.AzureConfig, tracer tracing.Tracer) (*AzureServiceBus, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus receiver")
	}

	return &AzureServiceBus{
		client:    client,
		receiver:  receiver,
		queueName: cfg.QueueName,
		tracer:    tracer,
	}, nil
}

// ProcessMessages runs the receive loop until the context is cancelled.
// Handler failures abandon the message so the queue redelivers it; the
// fallback reconciliation job covers anything that dead-letters.
func (b *AzureServiceBus) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	for {
		messages, err := b.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			txn := b.tracer.StartTransaction("process-inspection-message")

			if err := handler(ctx, message, txn); err != nil {
				log.Error().
					Err(err).
					Str("message_id", message.MessageID).
					Msg("Failed to process message, abandoning for redelivery")
				b.tracer.RecordError(txn, err)

				if abandonErr := b.receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Str("message_id", message.MessageID).Msg("Failed to abandon message")
				}
				b.tracer.EndTransaction(txn)
				continue
			}

			if err := b.receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
				b.tracer.RecordError(txn, err)
			}
			b.tracer.EndTransaction(txn)
		}
	}
}

// Close closes the receiver and the client
func (b *AzureServiceBus) Close() error {
	ctx := context.Background()

	if b.receiver != nil {
		if err := b.receiver.Close(ctx); err != nil {
			return err
		}
	}

	if b.client != nil {
		return b.client.Close(ctx)
	}

	return nil
}
