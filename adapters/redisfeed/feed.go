// Package redisfeed implements the session change feed on top of Redis
// pub/sub. The backend publishes to one channel per account whenever the
// account record changes; subscribers treat messages as re-check signals
// only, payloads are never inspected.
package redisfeed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "account:status"

// Feed subscribes to per-account change notifications.
type Feed struct {
	client *redis.Client
	prefix string
}

// Option customizes the feed.
type Option func(*Feed)

// WithChannelPrefix overrides the channel namespace.
func WithChannelPrefix(prefix string) Option {
	return func(f *Feed) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

// New returns a Feed over the given client.
func New(client *redis.Client, opts ...Option) *Feed {
	f := &Feed{
		client: client,
		prefix: defaultChannelPrefix,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// Subscribe opens the per-user channel. The returned channel carries one
// empty signal per notification, coalescing bursts; the returned func closes
// the subscription.
func (f *Feed) Subscribe(ctx context.Context, userID string) (<-chan struct{}, func(), error) {
	sub := f.client.Subscribe(ctx, f.channel(userID))

	// Confirm the subscription before handing it out so a broken connection
	// surfaces as an error instead of a silent dead channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to change feed: %w", err)
	}

	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		for range sub.Channel() {
			select {
			case out <- struct{}{}:
			default:
				// A signal is already pending; the re-check it triggers
				// will observe this change too.
			}
		}
	}()

	unsubscribe := func() {
		_ = sub.Close()
	}

	return out, unsubscribe, nil
}

// Publish emits a change notification for an account. The payload is a bare
// marker; consumers re-fetch authoritative state.
func (f *Feed) Publish(ctx context.Context, userID string) error {
	return f.client.Publish(ctx, f.channel(userID), "changed").Err()
}

func (f *Feed) channel(userID string) string {
	return fmt.Sprintf("%s:%s", f.prefix, userID)
}
