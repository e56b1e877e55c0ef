/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package optimizer

import (
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
)

// replyMargin leaves room for the answer to reach the querier before its deadline.
const replyMargin = 50 * time.Millisecond

// Query answers a version query. The result is a *protocol.ConfigPayload or
// a *protocol.Nack. When the requested version is the latest but has no
// configuration yet, Query waits up to ConfigWait, bounded by deadline, for
// a publication before giving up with ConfigNotReady.
func (o *Optimizer) Query(requested uint64, deadline time.Time) any {
	changed := o.store.Changed()
	latest := o.store.Latest()

	switch {
	case requested < latest:
		return protocol.NewVersionNack(protocol.ReasonVersionOutdated, latest, time.Now())
	case requested > latest:
		return protocol.NewVersionNack(protocol.ReasonVersionTooHigh, latest, time.Now())
	}

	if cfg, ok := o.store.Get(requested); ok {
		return configPayload(requested, cfg)
	}

	wait := o.config.ConfigWait
	if !deadline.IsZero() {
		if left := time.Until(deadline) - replyMargin; left < wait {
			wait = left
		}
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-changed:
		case <-timer.C:
		}
		timer.Stop()
	}

	if cfg, ok := o.store.Get(requested); ok {
		return configPayload(requested, cfg)
	}
	return protocol.NewVersionNack(protocol.ReasonConfigNotReady, o.store.Latest(), time.Now())
}

func configPayload(version uint64, cfg Configuration) *protocol.ConfigPayload {
	return &protocol.ConfigPayload{
		Version: protocol.Version(version),
		Config:  cfg,
	}
}

func (o *Optimizer) onVersionQuery(req transport.Request) {
	requested, err := o.config.Names.ParseVersionName(req.Name)
	if err != nil {
		core.LogWarn(o, "Dropping version query: ", err)
		return
	}

	answer := o.Query(requested, req.Deadline)
	content, err := protocol.Encode(answer)
	if err != nil {
		core.LogError(o, "Unable to encode answer to ", req.Name, ": ", err)
		return
	}

	if nack, ok := answer.(*protocol.Nack); ok {
		core.LogDebug(o, "Version ", requested, ": ", string(nack.Reason), " (latest ", uint64(*nack.LatestVersion), ")")
	} else {
		core.LogDebug(o, "Version ", requested, ": configuration")
	}

	if err := o.transport.Respond(req.Name, content, o.config.ReplyFreshness); err != nil {
		core.LogWarn(o, "Unable to answer ", req.Name, ": ", err)
	}
}
