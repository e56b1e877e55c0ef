/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package optimizer

import (
	"maps"
	"sync"
)

// Configuration maps client ids to recommended resolutions.
type Configuration map[string]string

// ConfigStore is an append-only store of configurations keyed by version.
// Version 0 means nothing was published yet.
type ConfigStore struct {
	mutex    sync.RWMutex
	latest   uint64
	versions map[uint64]Configuration
	changed  chan struct{}
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		versions: make(map[uint64]Configuration),
		changed:  make(chan struct{}),
	}
}

// Latest returns the highest published version.
func (s *ConfigStore) Latest() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.latest
}

// Get returns a copy of the configuration published as version.
func (s *ConfigStore) Get(version uint64) (Configuration, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	c, ok := s.versions[version]
	if !ok {
		return nil, false
	}
	return maps.Clone(c), true
}

// Publish stores config under the next version and returns that version.
func (s *ConfigStore) Publish(config Configuration) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.latest++
	s.versions[s.latest] = maps.Clone(config)
	close(s.changed)
	s.changed = make(chan struct{})
	return s.latest
}

// Changed returns a channel closed on the next Publish.
func (s *ConfigStore) Changed() <-chan struct{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.changed
}

// Len returns the number of stored versions.
func (s *ConfigStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.versions)
}
