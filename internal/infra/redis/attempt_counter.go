package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter numbers attempts with INCR on quiz:{quizID}:attempts:{userID},
// so every service instance agrees on the sequence.
type AttemptCounter struct {
	client *redis.Client
}

func NewAttemptCounter(client *redis.Client) *AttemptCounter {
	return &AttemptCounter{client: client}
}

func (c *AttemptCounter) Next(ctx context.Context, quizID, userID string) (int, error) {
	n, err := c.client.Incr(ctx, c.key(quizID, userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr attempt: %w", err)
	}
	return int(n), nil
}

func (c *AttemptCounter) key(quizID, userID string) string {
	return "quiz:" + quizID + ":attempts:" + userID
}
