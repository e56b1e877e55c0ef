/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder

import (
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/protocol"
)

type Config struct {
	// Unique forwarder id, used as the report key at the optimizer.
	ForwarderID string
	// Namespace of the deployment. The forwarder serves Names.Video.
	Names protocol.Namespace
	// Period of the report cycle.
	ReportInterval time.Duration
	// Period of the poll cycle.
	PollInterval time.Duration
	// Lifetime of reports, version queries and on-behalf fetches.
	ExchangeLifetime time.Duration
	// Freshness of redirects sent to clients.
	RedirectFreshness time.Duration
	// Freshness of content forwarded to clients.
	ContentFreshness time.Duration
	// Link-capacity hint attached to reports.
	UpstreamLink     string
	UpstreamCapacity float64
}

func DefaultConfig() Config {
	return Config{
		ForwarderID:       "Edge_Forwarder_A",
		Names:             protocol.DefaultNamespace(),
		ReportInterval:    300 * time.Millisecond,
		PollInterval:      300 * time.Millisecond,
		ExchangeLifetime:  4 * time.Second,
		RedirectFreshness: 500 * time.Millisecond,
		ContentFreshness:  1 * time.Second,
		UpstreamLink:      "Core_Forwarder_1->Edge_Forwarder_A",
		UpstreamCapacity:  120,
	}
}

func (c *Config) Parse() error {
	if c.ForwarderID == "" {
		return errors.New("ForwarderID must be set")
	}
	if c.ReportInterval <= 0 || c.PollInterval <= 0 || c.ExchangeLifetime <= 0 {
		return errors.New("ReportInterval, PollInterval and ExchangeLifetime must be positive")
	}
	if c.RedirectFreshness < 0 || c.ContentFreshness < 0 {
		return errors.New("freshness must not be negative")
	}
	return c.Names.Parse()
}
