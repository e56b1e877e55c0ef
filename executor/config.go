/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"github.com/boss-server-ops/Minindn/client"
	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/forwarder"
	"github.com/boss-server-ops/Minindn/optimizer"
	"github.com/boss-server-ops/Minindn/producer"
	"github.com/boss-server-ops/Minindn/protocol"
)

// DefaultUnixSocket is the local forwarder's socket.
const DefaultUnixSocket = "/var/run/nfd/nfd.sock"

// StoreConfig selects the producer's content store.
type StoreConfig struct {
	Kind string
	Path string
	// Catalog is a YAML catalog imported at startup.
	Catalog string
	// CacheSize enables an LRU read cache of that many chunks.
	CacheSize int
}

// Namespace reads the names.* section.
func Namespace() protocol.Namespace {
	ns := protocol.DefaultNamespace()
	ns.Video = core.GetConfigStringDefault("names.video", ns.Video)
	ns.Content = core.GetConfigStringDefault("names.content", ns.Content)
	ns.Optimizer = core.GetConfigStringDefault("names.optimizer", ns.Optimizer)
	return ns
}

// UnixSocket reads transport.unix.
func UnixSocket() string {
	return core.GetConfigStringDefault("transport.unix", DefaultUnixSocket)
}

// ForwarderConfig reads the forwarder.* section over the defaults.
func ForwarderConfig() forwarder.Config {
	c := forwarder.DefaultConfig()
	c.Names = Namespace()
	c.ForwarderID = core.GetConfigStringDefault("forwarder.id", c.ForwarderID)
	c.ReportInterval = core.GetConfigDurationMsDefault("forwarder.report_interval_ms", c.ReportInterval)
	c.PollInterval = core.GetConfigDurationMsDefault("forwarder.poll_interval_ms", c.PollInterval)
	c.ExchangeLifetime = core.GetConfigDurationMsDefault("forwarder.exchange_lifetime_ms", c.ExchangeLifetime)
	c.RedirectFreshness = core.GetConfigDurationMsDefault("forwarder.redirect_freshness_ms", c.RedirectFreshness)
	c.ContentFreshness = core.GetConfigDurationMsDefault("forwarder.content_freshness_ms", c.ContentFreshness)
	c.UpstreamLink = core.GetConfigStringDefault("forwarder.upstream_link", c.UpstreamLink)
	c.UpstreamCapacity = float64(core.GetConfigIntDefault("forwarder.upstream_capacity", int(c.UpstreamCapacity)))
	return c
}

// OptimizerConfig reads the optimizer.* section over the defaults.
func OptimizerConfig() optimizer.Config {
	c := optimizer.DefaultConfig()
	c.Names = Namespace()
	c.RecomputeInterval = core.GetConfigDurationMsDefault("optimizer.recompute_interval_ms", c.RecomputeInterval)
	c.ConfigWait = core.GetConfigDurationMsDefault("optimizer.config_wait_ms", c.ConfigWait)
	c.ReplyFreshness = core.GetConfigDurationMsDefault("optimizer.reply_freshness_ms", c.ReplyFreshness)
	c.Policy = core.GetConfigStringDefault("optimizer.policy", c.Policy)
	return c
}

// ProducerConfig reads the producer.* section over the defaults.
func ProducerConfig() (producer.Config, StoreConfig) {
	c := producer.DefaultConfig()
	c.Names = Namespace()
	c.Freshness = core.GetConfigDurationMsDefault("producer.freshness_ms", c.Freshness)
	sc := StoreConfig{
		Kind:      core.GetConfigStringDefault("producer.store", "memory"),
		Path:      core.GetConfigStringDefault("producer.store_path", "content.db"),
		Catalog:   core.GetConfigStringDefault("producer.catalog", ""),
		CacheSize: core.GetConfigIntDefault("producer.cache_size", 0),
	}
	return c, sc
}

// ClientConfig reads the client.* section over the defaults.
func ClientConfig() client.Config {
	c := client.DefaultConfig()
	c.Names = Namespace()
	c.ClientID = core.GetConfigStringDefault("client.id", c.ClientID)
	c.RangeLifetime = core.GetConfigDurationMsDefault("client.range_lifetime_ms", c.RangeLifetime)
	c.ContentLifetime = core.GetConfigDurationMsDefault("client.content_lifetime_ms", c.ContentLifetime)
	return c
}
