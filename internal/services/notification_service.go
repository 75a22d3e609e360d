package services

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LocationsChannel is the pub/sub channel the registry emits on after
// every write, so other open views can re-hydrate.
const LocationsChannel = "skycast:locations"

// Notifier is the cross-component change signal fired after registry
// mutations.
type Notifier interface {
	LocationsChanged(ctx context.Context)
}

// RedisNotifier publishes change signals over Redis pub/sub. Delivery is
// best effort: a publish failure is logged, never surfaced.
type RedisNotifier struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) LocationsChanged(ctx context.Context) {
	if err := n.client.Publish(ctx, LocationsChannel, "updated").Err(); err != nil {
		n.logger.Debug().Err(err).Msg("Failed to publish locations change")
	}
}

// NopNotifier discards change signals. Used when no subscriber exists,
// e.g. single-process runs on the memory store.
type NopNotifier struct{}

func (NopNotifier) LocationsChanged(context.Context) {}
