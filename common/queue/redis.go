package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/redis"
)

// envelope carries the message key across Redis pub/sub, which only has a payload
type envelope struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// RedisQueue publishes over Redis pub/sub so every replica sees every event
type RedisQueue struct {
	client *redis.Client
	prefix string
	log    *logger.Logger

	mu     sync.Mutex
	cancel []context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisQueue creates a queue whose channels are named prefix:topic
func NewRedisQueue(client *redis.Client, prefix string, log *logger.Logger) *RedisQueue {
	return &RedisQueue{client: client, prefix: prefix, log: log}
}

func (q *RedisQueue) channel(topic string) string {
	return q.prefix + ":" + topic
}

// Publish publishes a message on the topic channel
func (q *RedisQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	payload, err := json.Marshal(envelope{Key: key, Value: message})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return q.client.PublishEvent(ctx, q.channel(topic), payload)
}

// Subscribe listens on the topic channel until ctx is cancelled or Close is called
func (q *RedisQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	ps, err := q.client.Subscribe(ctx, q.channel(topic))
	if err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancel = append(q.cancel, cancel)
	q.mu.Unlock()

	q.log.Info("subscribing to topic", "topic", topic, "channel", q.channel(topic))

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer ps.Close()

		ch := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				q.log.Info("subscription cancelled", "topic", topic)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					q.log.Warn("dropping malformed message", "topic", topic, "error", err)
					continue
				}
				if err := handler(subCtx, env.Key, env.Value); err != nil {
					q.log.Error("message handler error", "topic", topic, "key", env.Key, "error", err)
				}
			}
		}
	}()

	return nil
}

// Close cancels every subscription. The Redis client is closed by bootstrap.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	for _, cancel := range q.cancel {
		cancel()
	}
	q.cancel = nil
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
