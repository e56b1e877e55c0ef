/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package optimizer

import (
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/protocol"
)

type Config struct {
	// Namespace of the deployment. The optimizer serves Names.Optimizer.
	Names protocol.Namespace
	// Period of the recomputation cycle.
	RecomputeInterval time.Duration
	// Longest wait for a configuration that is not published yet.
	ConfigWait time.Duration
	// Freshness of every reply.
	ReplyFreshness time.Duration
	// Resolution policy name.
	Policy string
}

func DefaultConfig() Config {
	return Config{
		Names:             protocol.DefaultNamespace(),
		RecomputeInterval: 4 * time.Second,
		ConfigWait:        1 * time.Second,
		ReplyFreshness:    500 * time.Millisecond,
		Policy:            MedianPolicy{}.Name(),
	}
}

func (c *Config) Parse() error {
	if c.RecomputeInterval <= 0 {
		return errors.New("RecomputeInterval must be positive")
	}
	if c.ConfigWait < 0 || c.ReplyFreshness < 0 {
		return errors.New("ConfigWait and ReplyFreshness must not be negative")
	}
	if c.ConfigWait > c.RecomputeInterval {
		c.ConfigWait = c.RecomputeInterval
	}
	if _, err := PolicyByName(c.Policy); err != nil {
		return err
	}
	return c.Names.Parse()
}
