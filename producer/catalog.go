/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package producer

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// Catalog lists content by title, resolution and chunk index.
//
//	titles:
//	  TitleA:
//	    2K:
//	      1: VideoData_2K_chunk_1
type Catalog struct {
	Titles map[string]map[string]map[uint64]string `yaml:"titles"`
}

// DefaultCatalog returns the demo catalog: TitleA at 2K, 4K and 8K, chunks 1 and 2.
func DefaultCatalog() Catalog {
	c := Catalog{Titles: map[string]map[string]map[uint64]string{}}
	for _, res := range []string{"2K", "4K", "8K"} {
		for chunk := uint64(1); chunk <= 2; chunk++ {
			c.Add(Key{Title: "TitleA", Resolution: res, Chunk: chunk},
				fmt.Sprintf("VideoData_%s_chunk_%d", res, chunk))
		}
	}
	return c
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(b []byte) (Catalog, error) {
	c := Catalog{}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return ParseCatalog(b)
}

// Add inserts or replaces one entry.
func (c *Catalog) Add(key Key, content string) {
	if c.Titles == nil {
		c.Titles = map[string]map[string]map[uint64]string{}
	}
	res, ok := c.Titles[key.Title]
	if !ok {
		res = map[string]map[uint64]string{}
		c.Titles[key.Title] = res
	}
	chunks, ok := res[key.Resolution]
	if !ok {
		chunks = map[uint64]string{}
		res[key.Resolution] = chunks
	}
	chunks[key.Chunk] = content
}

// Keys returns all entries' keys in a stable order.
func (c Catalog) Keys() []Key {
	var keys []Key
	for title, res := range c.Titles {
		for r, chunks := range res {
			for chunk := range chunks {
				keys = append(keys, Key{Title: title, Resolution: r, Chunk: chunk})
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Import writes every entry into store and returns how many were written.
func (c Catalog) Import(store Store) (int, error) {
	n := 0
	for _, key := range c.Keys() {
		if err := store.Put(key, []byte(c.Titles[key.Title][key.Resolution][key.Chunk])); err != nil {
			return n, fmt.Errorf("failed to import %s: %w", key, err)
		}
		n++
	}
	return n, nil
}
