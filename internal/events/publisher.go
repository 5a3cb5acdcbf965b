package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"pint-quiz-service/internal/domain"
)

// DefaultTopic is where graded submissions are announced.
const DefaultTopic = "submission.graded"

const (
	eventSource  = "pint-quiz-service"
	eventVersion = "1"
)

// GradedEvent is the payload consumers (notifications, analytics) receive.
type GradedEvent struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Timestamp    time.Time    `json:"timestamp"`
	SubmissionID string       `json:"submission_id"`
	QuizID       string       `json:"quiz_id"`
	UserID       string       `json:"user_id"`
	Attempt      int          `json:"attempt"`
	Grade        domain.Grade `json:"grade"`
}

// Publisher announces graded submissions on a watermill publisher.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

func NewPublisher(publisher message.Publisher, topic string, logger *zap.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{publisher: publisher, topic: topic, logger: logger, now: time.Now}
}

// NewKafkaPublisher publishes to Kafka brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, newZapAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewPublisher(pub, topic, logger), nil
}

// NewInProcessPublisher publishes on an in-memory channel. The returned
// GoChannel can be subscribed to by in-process consumers; a publish returns
// once every subscriber has acked.
func NewInProcessPublisher(logger *zap.Logger) (*Publisher, *gochannel.GoChannel) {
	if logger == nil {
		logger = zap.NewNop()
	}
	channel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, newZapAdapter(logger))
	return NewPublisher(channel, DefaultTopic, logger), channel
}

func (p *Publisher) PublishGraded(ctx context.Context, sub domain.Submission) error {
	event := GradedEvent{
		ID:           watermill.NewUUID(),
		Type:         DefaultTopic,
		Timestamp:    p.now().UTC(),
		SubmissionID: sub.ID,
		QuizID:       sub.QuizID,
		UserID:       sub.UserID,
		Attempt:      sub.Attempt,
		Grade:        sub.Grade,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal graded event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", eventSource)
	msg.Metadata.Set("version", eventVersion)
	msg.Metadata.Set("quiz_id", sub.QuizID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish graded event: %w", err)
	}
	p.logger.Debug("published graded event",
		zap.String("event_id", event.ID),
		zap.String("submission_id", sub.ID),
		zap.String("topic", p.topic))
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}
