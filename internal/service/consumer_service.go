package service

import (
	"context"
	"encoding/json"

	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "TurnConsumer"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventRelay forwards events to an external bus such as NATS JetStream.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      EventRelay
	logger     logger.ILogger
}

// NewConsumerService drains turn events. relay may be nil, in which case events
// are only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay EventRelay,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Relay is best effort: the turn is already committed, so every message is acked.
	defer msg.Ack()

	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal turn event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info(consumerModule, "Turn event received", map[string]interface{}{
		"session_id":    payload.SessionId,
		"revision":      payload.Revision,
		"message_count": payload.MessageCount,
		"symptom_count": payload.SymptomCount,
	})

	if cs.relay == nil {
		return
	}

	event := events.NewTurnCompleted(events.TurnCompletedData{
		SessionId:    payload.SessionId,
		UserId:       payload.UserId,
		Revision:     payload.Revision,
		MessageCount: payload.MessageCount,
		SymptomCount: payload.SymptomCount,
	}, payload.OccurredAt)

	if err := cs.relay.Publish(ctx, event); err != nil {
		cs.logger.Warn(consumerModule, "Failed to relay turn event", map[string]interface{}{
			"session_id": payload.SessionId,
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}
