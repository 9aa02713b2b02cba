package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "feed:"

// Redis fans change signals out over Redis pub/sub so every API instance
// sees every write.
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an already connected client.
func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

// Notify publishes one message per collection on feed:<collection>.
func (r *Redis) Notify(ctx context.Context, collections ...string) error {
	for _, c := range collections {
		if err := r.rdb.Publish(ctx, channelPrefix+c, c).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", c, err)
		}
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so no write
// made after it returns can be missed.
func (r *Redis) Subscribe(ctx context.Context, collections ...string) (<-chan string, error) {
	channels := make([]string, len(collections))
	for i, c := range collections {
		channels[i] = channelPrefix + c
	}
	ps := r.rdb.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				default:
				}
			}
		}
	}()
	return out, nil
}
