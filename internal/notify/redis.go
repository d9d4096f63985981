package notify

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisNotifier carries both channels: every Publish fans out on the
// local Bus immediately and on the Redis wire for other processes.
// Wire messages are tagged with the publisher's origin id; a process
// skips its own messages since the local bus already delivered them.
type RedisNotifier struct {
	bus    *Bus
	client *redis.Client
	origin string
	cancel context.CancelFunc
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		bus:    NewBus(),
		client: client,
		origin: uuid.New().String(),
	}
}

// Start begins relaying foreign-origin wire messages onto the local bus.
func (n *RedisNotifier) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	go n.relay(ctx)
}

func (n *RedisNotifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, topic string) {
	n.bus.publishLocal(topic)

	if err := n.client.Publish(ctx, topic, n.origin).Err(); err != nil {
		// Cross-process delivery is best-effort; local listeners
		// already saw the change.
		log.Printf("notify: publish %s failed: %v", topic, err)
	}
}

func (n *RedisNotifier) Subscribe(topic string, fn func()) func() {
	return n.bus.Subscribe(topic, fn)
}

func (n *RedisNotifier) relay(ctx context.Context) {
	pubsub := n.client.Subscribe(ctx, TopicSessions, TopicAnalytics)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.deliver(msg.Channel, msg.Payload)
		}
	}
}

// deliver relays one wire message onto the local bus, unless this
// process published it; the local bus already delivered those.
func (n *RedisNotifier) deliver(channel, payload string) {
	if payload == n.origin {
		return
	}
	n.bus.publishLocal(channel)
}
