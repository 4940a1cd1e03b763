package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/vanshavali/familytree/common/logger"
)

// ErrClosed is returned when publishing or subscribing on a closed queue
var ErrClosed = errors.New("queue closed")

// Queue interface for message passing. Every subscriber of a topic
// receives every message published to it.
type Queue interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

// MessageHandler processes messages
type MessageHandler func(ctx context.Context, key string, value []byte) error

// Message represents a queue message
type Message struct {
	Topic string
	Key   string
	Value []byte
}

const subscriberBuffer = 256

type subscriber struct {
	ch chan *Message
}

// MemoryQueue is an in-process fan-out queue
type MemoryQueue struct {
	topics map[string][]*subscriber
	closed bool
	mu     sync.RWMutex
	wg     sync.WaitGroup
	log    *logger.Logger
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(log *logger.Logger) *MemoryQueue {
	return &MemoryQueue{
		topics: make(map[string][]*subscriber),
		log:    log,
	}
}

// Publish delivers a message to every current subscriber of topic.
// A subscriber whose buffer is full misses the message.
func (q *MemoryQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	msg := &Message{
		Topic: topic,
		Key:   key,
		Value: message,
	}

	for _, sub := range q.topics[topic] {
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			q.log.Warn("subscriber buffer full, dropping message", "topic", topic, "key", key)
		}
	}
	return nil
}

// Subscribe registers handler on topic until ctx is cancelled or the queue closes
func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	sub := &subscriber{ch: make(chan *Message, subscriberBuffer)}
	q.topics[topic] = append(q.topics[topic], sub)
	q.wg.Add(1)
	q.mu.Unlock()

	q.log.Info("subscribing to topic", "topic", topic)

	go func() {
		defer q.wg.Done()
		defer q.unsubscribe(topic, sub)

		for {
			select {
			case <-ctx.Done():
				q.log.Info("subscription cancelled", "topic", topic)
				return
			case msg, ok := <-sub.ch:
				if !ok {
					return
				}
				if err := handler(ctx, msg.Key, msg.Value); err != nil {
					q.log.Error("message handler error", "topic", topic, "key", msg.Key, "error", err)
				}
			}
		}
	}()

	return nil
}

func (q *MemoryQueue) unsubscribe(topic string, sub *subscriber) {
	q.mu.Lock()
	defer q.mu.Unlock()

	subs := q.topics[topic]
	for i, s := range subs {
		if s == sub {
			q.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Close stops every subscription and waits for handlers to return
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for topic, subs := range q.topics {
		for _, sub := range subs {
			close(sub.ch)
		}
		q.log.Info("closed topic", "topic", topic)
	}
	q.topics = make(map[string][]*subscriber)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
