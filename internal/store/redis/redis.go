package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"park-ops/internal/logger"
	"park-ops/internal/store"

	"github.com/go-redis/redis/v8"
)

const (
	defaultPrefix     = "parkops:snapshot:"
	defaultMaxRetries = 10
)

// Redis keeps each collection under one key and publishes the full new value
// on a channel of the same name after every write.
type Redis struct {
	Client     *redis.Client
	Logger     *logger.Logger
	Prefix     string
	MaxRetries int
}

func NewRedis(client *redis.Client, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.NewNop()
	}
	return &Redis{
		Client:     client,
		Logger:     log,
		Prefix:     defaultPrefix,
		MaxRetries: defaultMaxRetries,
	}
}

func (r *Redis) key(path string) string {
	return r.Prefix + path
}

func (r *Redis) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if !store.KnownPath(path) {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	val, err := r.Client.Get(ctx, r.key(path)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

func (r *Redis) Set(ctx context.Context, path string, value json.RawMessage) error {
	if !store.KnownPath(path) {
		return fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		r.write(ctx, p, path, value)
		return nil
	})
	if err != nil {
		r.Logger.Error("REDIS", fmt.Sprintf("Failed to write %s: %v", path, err))
		return err
	}
	return nil
}

// Update runs fn under WATCH and retries when another writer got in first.
func (r *Redis) Update(ctx context.Context, path string, fn store.UpdateFunc) error {
	if !store.KnownPath(path) {
		return fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}
	key := r.key(path)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == redis.Nil {
			current = nil
		}

		next, err := fn(json.RawMessage(current))
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			r.write(ctx, p, path, next)
			return nil
		})
		return err
	}

	for i := 0; i < r.MaxRetries; i++ {
		err := r.Client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.Logger.Debug("REDIS", fmt.Sprintf("Optimistic update of %s lost a race (attempt %d/%d)", path, i+1, r.MaxRetries))
			continue
		}
		return err
	}
	return store.ErrConflict
}

func (r *Redis) write(ctx context.Context, p redis.Pipeliner, path string, value json.RawMessage) {
	key := r.key(path)
	if store.IsUnset(value) {
		p.Del(ctx, key)
		p.Publish(ctx, key, "null")
		return
	}
	p.Set(ctx, key, []byte(value), 0)
	p.Publish(ctx, key, []byte(value))
}

// Subscribe listens on the path's channel. The subscription is confirmed
// before the current value is read so no write can fall between the two.
func (r *Redis) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, error) {
	if !store.KnownPath(path) {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownPath, path)
	}

	pubsub := r.Client.Subscribe(ctx, r.key(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	current, err := r.Get(ctx, path)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan store.Snapshot, 16)
	r.Logger.Debug("REDIS", fmt.Sprintf("Subscribed to %s", path))

	go func() {
		defer close(out)
		defer pubsub.Close()

		select {
		case out <- store.Snapshot{Path: path, Value: current}:
		case <-ctx.Done():
			return
		}

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				snap := store.Snapshot{Path: path}
				if msg.Payload != "null" {
					snap.Value = json.RawMessage(msg.Payload)
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
