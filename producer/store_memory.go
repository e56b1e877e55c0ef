/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	"github.com/cornelk/hashmap"
)

// MemoryStore is a lock-free in-memory store.
type MemoryStore struct {
	m *hashmap.Map[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: hashmap.New[string, []byte]()}
}

func (s *MemoryStore) Get(key Key) ([]byte, error) {
	content, _ := s.m.Get(key.String())
	return content, nil
}

func (s *MemoryStore) Put(key Key, content []byte) error {
	s.m.Set(key.String(), append([]byte(nil), content...))
	return nil
}

func (s *MemoryStore) Remove(key Key) error {
	s.m.Del(key.String())
	return nil
}

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	return s.m.Len()
}

func (s *MemoryStore) Close() error {
	return nil
}
