package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// LogGraded acknowledges graded events and writes each one to the logger.
// It returns when messages is closed.
func LogGraded(messages <-chan *message.Message, logger *zap.Logger) int {
	seen := 0
	for msg := range messages {
		var event GradedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Warn("undecodable graded event", zap.String("message_uuid", msg.UUID), zap.Error(err))
			msg.Ack()
			continue
		}
		seen++
		logger.Info("graded event",
			zap.String("event_id", event.ID),
			zap.String("submission_id", event.SubmissionID),
			zap.String("quiz_id", event.QuizID),
			zap.String("user_id", event.UserID),
			zap.Int("attempt", event.Attempt),
			zap.Float64("scaled_score", event.Grade.Rounded()))
		msg.Ack()
	}
	return seen
}
