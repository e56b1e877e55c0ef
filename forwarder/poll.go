/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder

import (
	"context"
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
)

// Poll queries the optimizer for the last known version and acts on the
// answer. It returns the number of clients redirected. Nothing is queried
// while no request is pending.
func (f *Forwarder) Poll(ctx context.Context) (int, error) {
	if f.pending.Len() == 0 {
		return 0, nil
	}

	version := f.Version()
	content, err := f.transport.Express(ctx, f.config.Names.VersionName(version), nil, f.config.ExchangeLifetime)
	if err != nil {
		core.LogWarn(f, "Version query ", version, " failed: ", err)
		return 0, err
	}

	cfg, nack, err := protocol.DecodeVersionResponse(content)
	if err != nil {
		core.LogWarn(f, "Version query ", version, ": ", err)
		return 0, err
	}

	if nack != nil {
		latest := uint64(*nack.LatestVersion)
		switch nack.Reason {
		case protocol.ReasonVersionOutdated, protocol.ReasonConfigNotReady:
			core.LogDebug(f, "Version ", version, ": ", string(nack.Reason), ", latest is ", latest)
			f.setVersion(latest)
		default:
			core.LogDebug(f, "Version ", version, ": ", string(nack.Reason), ", retrying unchanged")
		}
		return 0, nil
	}

	f.setVersion(uint64(cfg.Version))
	return f.apply(cfg), nil
}

// apply redirects every pending client the configuration has a
// recommendation for.
func (f *Forwarder) apply(cfg *protocol.ConfigPayload) int {
	redirected := 0
	for _, id := range f.pending.ClientIDs() {
		resolution, ok := cfg.Config[id]
		if !ok {
			continue
		}
		pr, ok := f.pending.Take(id)
		if !ok {
			continue
		}
		f.redirect(pr, resolution)
		redirected++
	}
	return redirected
}

// redirect answers the client's range request with a redirect to the
// recommended name and starts fetching that name on the client's behalf.
//
// The redirect is sent before the producer confirmed it holds the content,
// and whatever the producer answers, including the not-found marker, is
// forwarded as the answer to the range request. As the redirect already
// consumed that request, the forwarded answer normally finds nobody waiting
// and is discarded.
func (f *Forwarder) redirect(pr *PendingRequest, resolution string) {
	name := f.config.Names.StandardName(pr.Title, resolution, pr.Chunk)
	payload, err := protocol.Encode(protocol.NewRedirect(name, time.Now()))
	if err != nil {
		core.LogError(f, "Unable to encode redirect for ", pr.ClientID, ": ", err)
		return
	}

	if err := f.transport.Respond(pr.RequestName, payload, f.config.RedirectFreshness); err != nil {
		core.LogWarn(f, "Unable to redirect ", pr.ClientID, ": ", err)
	} else {
		core.LogInfo(f, "Redirected ", pr.ClientID, " to ", name)
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.fetchOnBehalf(pr, name)
	}()
}

func (f *Forwarder) fetchOnBehalf(pr *PendingRequest, name string) {
	content, err := f.transport.Express(f.ctx, name, nil, f.config.ExchangeLifetime)
	if err != nil {
		core.LogWarn(f, "Fetch of ", name, " for ", pr.ClientID, " failed: ", err)
		return
	}

	err = f.transport.Respond(pr.RequestName, content, f.config.ContentFreshness)
	switch {
	case errors.Is(err, transport.ErrNotPending):
		core.LogDebug(f, "Discarding ", name, " for ", pr.ClientID, ": range request already answered")
	case err != nil:
		core.LogWarn(f, "Unable to forward ", name, " to ", pr.ClientID, ": ", err)
	default:
		core.LogDebug(f, "Forwarded ", name, " to ", pr.ClientID)
	}
}
