package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	// Publish emits an audit event. It never returns an error to callers;
	// audit delivery must not fail the request that produced it.
	Publish(ctx context.Context, event events.Event)
}

type auditEnvelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	mirror    *pktNats.Publisher
	logger    logger.ILogger
}

func NewPublisherService(
	pubSub *gochannel.GoChannel,
	topicName string,
	mirror *pktNats.Publisher,
	logger logger.ILogger,
) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
		mirror:    mirror,
		logger:    logger,
	}
}

func (s *publisherService) Publish(ctx context.Context, event events.Event) {
	envelope := auditEnvelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Payload:    event.Payload(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Error("publisher", "Failed to marshal audit event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		s.logger.Error("publisher", "Failed to publish audit event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}

	// Mirror to JetStream when configured. Same rule: log, never fail.
	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, event); err != nil {
			s.logger.Warn("publisher", "Failed to mirror audit event to NATS", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
}
