package cache

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, obj Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = obj
	return nil
}

func (s *MemoryStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return obj.UpdatedAt, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
