/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder

import (
	"context"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
)

// Report sends the current demand to the optimizer unless it equals the last
// acknowledged report. Any answer acknowledges the report and clears the
// demand it covered; on failure the demand is kept for the next cycle.
func (f *Forwarder) Report(ctx context.Context) (sent bool, err error) {
	requests, digest, ok := f.demand.Pending()
	if !ok {
		return false, nil
	}

	report := &protocol.Report{
		ForwarderID:    f.config.ForwarderID,
		ClientRequests: requests,
		LocalNetworkState: protocol.NetworkState{
			UpstreamLink: protocol.UpstreamLink{
				LinkName:          f.config.UpstreamLink,
				RemainingCapacity: f.config.UpstreamCapacity,
			},
		},
	}
	params, err := protocol.Encode(report)
	if err != nil {
		return false, err
	}

	ack, err := f.transport.Express(ctx, f.config.Names.ReportName(), params, f.config.ExchangeLifetime)
	if err != nil {
		core.LogWarn(f, "Report failed: ", err)
		return false, err
	}
	if string(ack) != string(protocol.ReportAck) {
		core.LogDebug(f, "Report acknowledged with ", string(ack))
	}

	f.demand.Acknowledge(requests, digest)
	core.LogInfo(f, "Reported ", len(requests), " client requests")
	return true, nil
}
