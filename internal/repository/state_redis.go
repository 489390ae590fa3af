package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/templui/tutordesk/internal/model"
)

type redisStateRepository struct {
	client    *redis.Client
	namespace string
}

// NewRedisStateRepository stores each entry under <namespace>:<key>.
func NewRedisStateRepository(client *redis.Client, namespace string) StateRepository {
	return &redisStateRepository{client: client, namespace: namespace}
}

func (r *redisStateRepository) redisKey(key string) string {
	return r.namespace + ":" + key
}

func (r *redisStateRepository) Load(ctx context.Context) (*model.GoalState, error) {
	keys := make([]string, len(stateKeys))
	for i, key := range stateKeys {
		keys[i] = r.redisKey(key)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load goal state: %w", err)
	}

	entries := make(map[string][]byte, len(stateKeys))
	for i, v := range values {
		// MGET returns nil for missing keys
		s, ok := v.(string)
		if !ok {
			continue
		}
		entries[stateKeys[i]] = []byte(s)
	}

	return decodeState(entries)
}

func (r *redisStateRepository) Save(ctx context.Context, state *model.GoalState) error {
	entries, err := encodeState(state)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range stateKeys {
			pipe.Set(ctx, r.redisKey(key), entries[key], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save goal state: %w", err)
	}

	return nil
}

func (r *redisStateRepository) Clear(ctx context.Context) error {
	keys := make([]string, len(stateKeys))
	for i, key := range stateKeys {
		keys[i] = r.redisKey(key)
	}

	err := r.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed to clear goal state: %w", err)
	}
	return nil
}
