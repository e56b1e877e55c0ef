/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package producer serves chunk content by title, resolution and chunk index.
package producer

import (
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
)

type Config struct {
	// Namespace of the deployment. The producer serves Names.Content.
	Names protocol.Namespace
	// Freshness of content responses.
	Freshness time.Duration
}

func DefaultConfig() Config {
	return Config{
		Names:     protocol.DefaultNamespace(),
		Freshness: 10 * time.Second,
	}
}

func (c *Config) Parse() error {
	if c.Freshness < 0 {
		return errors.New("Freshness must not be negative")
	}
	return c.Names.Parse()
}

// Producer answers standard requests from a content store.
type Producer struct {
	config    Config
	transport transport.Transport
	store     Store
}

func NewProducer(config Config, t transport.Transport, store Store) (*Producer, error) {
	if err := config.Parse(); err != nil {
		return nil, err
	}
	return &Producer{
		config:    config,
		transport: t,
		store:     store,
	}, nil
}

func (p *Producer) String() string {
	return "Producer"
}

// Start attaches the content prefix.
func (p *Producer) Start() error {
	if err := p.transport.Attach(p.config.Names.Content, p.onRequest); err != nil {
		return err
	}
	core.LogInfo(p, "Serving ", p.config.Names.Content)
	return nil
}

// Stop detaches the content prefix.
func (p *Producer) Stop() error {
	return p.transport.Detach(p.config.Names.Content)
}

// Fetch looks up one chunk. A store failure is logged and reported as absent.
func (p *Producer) Fetch(title string, resolution string, chunk uint64) ([]byte, bool) {
	key := Key{Title: title, Resolution: resolution, Chunk: chunk}
	content, err := p.store.Get(key)
	if err != nil {
		core.LogWarn(p, "Store lookup for ", key, " failed: ", err)
		return nil, false
	}
	return content, content != nil
}

func (p *Producer) onRequest(req transport.Request) {
	title, res, chunk, err := p.config.Names.ParseStandardName(req.Name)
	if err != nil {
		// not ours
		core.LogDebug(p, "Ignoring ", req.Name, ": ", err)
		return
	}

	content, found := p.Fetch(title, res, chunk)
	if !found {
		core.LogDebug(p, "No content for ", req.Name)
		content = protocol.NotFoundMarker
	}

	if err := p.transport.Respond(req.Name, content, p.config.Freshness); err != nil {
		core.LogWarn(p, "Unable to answer ", req.Name, ": ", err)
		return
	}
	core.LogTrace(p, "Served ", req.Name, " (", len(content), " bytes)")
}
