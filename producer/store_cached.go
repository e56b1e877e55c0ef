/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	lru "github.com/hashicorp/golang-lru"
)

// CachedStore puts an LRU read cache in front of another store.
// Absent keys are not cached.
type CachedStore struct {
	backend Store
	cache   *lru.Cache
}

func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{backend: backend, cache: cache}, nil
}

func (s *CachedStore) Get(key Key) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.([]byte), nil
	}
	content, err := s.backend.Get(key)
	if err != nil || content == nil {
		return content, err
	}
	s.cache.Add(key, content)
	return content, nil
}

func (s *CachedStore) Put(key Key, content []byte) error {
	s.cache.Remove(key)
	return s.backend.Put(key, content)
}

func (s *CachedStore) Remove(key Key) error {
	s.cache.Remove(key)
	return s.backend.Remove(key)
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}
