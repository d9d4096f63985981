// Package notify announces store mutations to listeners. Two channels
// exist behind one interface: a synchronous in-process bus (same
// process, same call chain) and Redis pub/sub (every other process
// sharing the store). Notifications carry no payload; listeners reload
// the current snapshot, so a stale signal can never overwrite a newer
// write.
package notify

import "context"

// Fixed topics. Listeners filter for their session of interest after
// reloading, so topics are per-collection, not per-session.
const (
	TopicSessions  = "session-update"
	TopicAnalytics = "analytics-update"
)

type Notifier interface {
	// Publish announces a completed mutation on the given topic.
	Publish(ctx context.Context, topic string)

	// Subscribe registers fn for the topic on every channel the
	// implementation carries. The returned func detaches it; calling
	// it more than once is a no-op.
	Subscribe(topic string, fn func()) (unsubscribe func())
}
