/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package client fetches chunks at the resolution the network recommends.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
	"github.com/google/uuid"
)

var (
	// ErrNoResponse is returned when the range request got no answer.
	ErrNoResponse = errors.New("no response to range request")
	// ErrMalformedRedirect is returned when the answer is not a usable redirect.
	ErrMalformedRedirect = errors.New("malformed redirect")
	// ErrNoContent is returned when the standard request got no answer.
	ErrNoContent = errors.New("no content")
	// ErrContentNotFound is returned when the producer has no such chunk.
	ErrContentNotFound = errors.New("content not found")
)

type Config struct {
	// Client id, unique among the clients of one forwarder.
	ClientID string
	Names    protocol.Namespace
	// Lifetime of the range request. It covers the optimizer's recomputation.
	RangeLifetime time.Duration
	// Lifetime of the standard request.
	ContentLifetime time.Duration
}

func DefaultConfig() Config {
	return Config{
		ClientID:        uuid.NewString(),
		Names:           protocol.DefaultNamespace(),
		RangeLifetime:   40 * time.Second,
		ContentLifetime: 4 * time.Second,
	}
}

func (c *Config) Parse() error {
	if c.ClientID == "" {
		return errors.New("ClientID must be set")
	}
	if c.RangeLifetime <= 0 || c.ContentLifetime <= 0 {
		return errors.New("RangeLifetime and ContentLifetime must be positive")
	}
	return c.Names.Parse()
}

// Result is a fetched chunk.
type Result struct {
	// Resolution the network recommended.
	Resolution string
	// Name the content was requested under.
	Name    string
	Content []byte
}

type Client struct {
	config    Config
	transport transport.Transport
}

func NewClient(config Config, t transport.Transport) (*Client, error) {
	if err := config.Parse(); err != nil {
		return nil, err
	}
	return &Client{config: config, transport: t}, nil
}

func (c *Client) String() string {
	return "Client(" + c.config.ClientID + ")"
}

// RequestChunk asks the forwarder for a recommendation among acceptable,
// then fetches the chunk at the recommended resolution. No retries are made.
func (c *Client) RequestChunk(ctx context.Context, title string, chunk uint64, acceptable []string, priority int) (*Result, error) {
	params, err := protocol.Encode(&protocol.RangeParams{
		ClientID:              c.config.ClientID,
		AcceptableResolutions: acceptable,
		Priority:              priority,
		Timestamp:             protocol.Timestamp(time.Now()),
	})
	if err != nil {
		return nil, err
	}

	rangeName := c.config.Names.RangeName(title, chunk)
	core.LogDebug(c, "Range request ", rangeName, " accepting ", acceptable)
	answer, err := c.transport.Express(ctx, rangeName, params, c.config.RangeLifetime)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoResponse, rangeName, err)
	}

	redirect, err := protocol.DecodeRedirect(answer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRedirect, err)
	}
	_, resolution, _, err := c.config.Names.ParseRecommendedName(redirect.RecommendedName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRedirect, err)
	}
	core.LogInfo(c, "Recommended ", resolution, " for ", title, " chunk ", chunk)

	name := c.config.Names.StandardName(title, resolution, chunk)
	content, err := c.transport.Express(ctx, name, nil, c.config.ContentLifetime)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoContent, name, err)
	}
	if protocol.IsNotFound(content) {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, name)
	}

	return &Result{Resolution: resolution, Name: name, Content: content}, nil
}
