/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownStore is returned for an unsupported store kind.
var ErrUnknownStore = errors.New("unknown content store")

// Key addresses one chunk of a title at one resolution.
type Key struct {
	Title      string
	Resolution string
	Chunk      uint64
}

func (k Key) String() string {
	return k.Title + "/" + k.Resolution + "/" + strconv.FormatUint(k.Chunk, 10)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("invalid content key %q", s)
	}
	chunk, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid content key %q: %w", s, err)
	}
	return Key{Title: parts[0], Resolution: parts[1], Chunk: chunk}, nil
}

// Store holds chunk content. Get returns nil content without error when
// the key is absent.
type Store interface {
	Get(key Key) ([]byte, error)
	Put(key Key, content []byte) error
	Remove(key Key) error
	Close() error
}

// OpenStore opens a store of the given kind. path is ignored by the memory store.
func OpenStore(kind string, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return NewBoltStore(path)
	case "sqlite":
		return NewSqliteStore(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, kind)
	}
}
