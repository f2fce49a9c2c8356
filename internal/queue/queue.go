package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job is one unit of triage work: a ticket to run under a trace.
type Job struct {
	TicketID string `json:"ticket_id"`
	TraceID  string `json:"trace_id"`
}

// ErrEmpty is returned by Dequeue when no job arrived within the blocking
// window.
var ErrEmpty = errors.New("queue empty")

// Queue is a durable FIFO work queue for triage jobs.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
	Len(ctx context.Context) (int64, error)
}

// RedisQueue backs the queue with a Redis list (LPUSH producer, BRPOP
// consumer), surviving process restarts.
type RedisQueue struct {
	client *redis.Client
	key    string

	// blockTimeout bounds each BRPOP so consumers can observe context
	// cancellation.
	blockTimeout time.Duration
}

// NewRedisQueue constructs the queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, blockTimeout: 2 * time.Second}
}

// Enqueue pushes a job onto the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks briefly for the next job; ErrEmpty when none arrived.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	result, err := q.client.BRPop(ctx, q.blockTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrEmpty
		}
		return Job{}, err
	}
	// BRPop returns [key, value]
	if len(result) != 2 {
		return Job{}, ErrEmpty
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Len reports the current queue depth.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
