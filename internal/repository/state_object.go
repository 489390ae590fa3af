package repository

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/storage"
)

type objectStateRepository struct {
	store     storage.Storage
	namespace string
}

// NewObjectStateRepository stores each entry as <namespace>/<key>.json
// in an object store (S3 or a local directory).
func NewObjectStateRepository(store storage.Storage, namespace string) StateRepository {
	return &objectStateRepository{store: store, namespace: namespace}
}

func (r *objectStateRepository) objectKey(key string) string {
	return path.Join(r.namespace, key+".json")
}

func (r *objectStateRepository) Load(ctx context.Context) (*model.GoalState, error) {
	entries := make(map[string][]byte, len(stateKeys))
	for _, key := range stateKeys {
		data, err := r.store.Get(ctx, r.objectKey(key))
		if errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		entries[key] = data
	}

	return decodeState(entries)
}

func (r *objectStateRepository) Save(ctx context.Context, state *model.GoalState) error {
	entries, err := encodeState(state)
	if err != nil {
		return err
	}

	for _, key := range stateKeys {
		err := r.store.Put(ctx, r.objectKey(key), entries[key])
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	return nil
}

func (r *objectStateRepository) Clear(ctx context.Context) error {
	for _, key := range stateKeys {
		err := r.store.Delete(ctx, r.objectKey(key))
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}
