/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package optimizer collects forwarder demand and publishes versioned
// resolution configurations.
package optimizer

import (
	"sort"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
)

type Optimizer struct {
	config    Config
	transport transport.Transport
	policy    Policy
	// published configurations
	store *ConfigStore

	// reports received since the last cycle, by forwarder id
	mutex   sync.Mutex
	reports map[string]*protocol.Report

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewOptimizer(config Config, t transport.Transport) (*Optimizer, error) {
	if err := config.Parse(); err != nil {
		return nil, err
	}
	policy, _ := PolicyByName(config.Policy)
	return &Optimizer{
		config:    config,
		transport: t,
		policy:    policy,
		store:     NewConfigStore(),
		reports:   make(map[string]*protocol.Report),
	}, nil
}

func (o *Optimizer) String() string {
	return "Optimizer"
}

// Store exposes the published configurations.
func (o *Optimizer) Store() *ConfigStore {
	return o.store
}

// Start registers the report and version handlers and starts the
// recomputation cycle.
func (o *Optimizer) Start() error {
	ns := o.config.Names
	if err := o.transport.Attach(ns.ReportName(), o.onReport); err != nil {
		return err
	}
	if err := o.transport.Attach(ns.VersionPrefix(), o.onVersionQuery); err != nil {
		o.transport.Detach(ns.ReportName())
		return err
	}
	core.LogInfo(o, "Serving ", ns.ReportName(), " and ", ns.VersionPrefix(), " with policy ", o.policy.Name())

	o.stop = make(chan struct{})
	o.wg.Add(1)
	go o.run()
	return nil
}

// Stop ends the recomputation cycle and detaches the handlers. It is safe to
// call when Start failed or never ran.
func (o *Optimizer) Stop() {
	if o.stop != nil {
		close(o.stop)
		o.wg.Wait()
		o.stop = nil
	}
	o.transport.Detach(o.config.Names.ReportName())
	o.transport.Detach(o.config.Names.VersionPrefix())
}

func (o *Optimizer) run() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.config.RecomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Recompute()
		case <-o.stop:
			return
		}
	}
}

// Recompute consumes the outstanding reports and publishes one configuration
// covering every reported client. It returns the new version, or false when
// no report was outstanding.
func (o *Optimizer) Recompute() (uint64, bool) {
	o.mutex.Lock()
	reports := o.reports
	o.reports = make(map[string]*protocol.Report)
	o.mutex.Unlock()

	if len(reports) == 0 {
		core.LogDebug(o, "No reports, skipping recomputation")
		return 0, false
	}

	// stable order so a client reported by two forwarders resolves the same way every time
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	config := make(Configuration)
	for _, id := range ids {
		for _, cr := range reports[id].ClientRequests {
			res, ok := o.policy.Select(cr.AcceptableResolutions)
			if !ok {
				core.LogWarn(o, "Client ", cr.ClientID, " from ", id, " has no acceptable resolutions")
				continue
			}
			config[cr.ClientID] = res
		}
	}

	version := o.store.Publish(config)
	core.LogInfo(o, "Published configuration version ", version, " for ", len(config), " clients")
	return version, true
}

// Ingest stores a report, replacing any earlier one from the same forwarder.
func (o *Optimizer) Ingest(report *protocol.Report) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.reports[report.ForwarderID] = report
}

func (o *Optimizer) onReport(req transport.Request) {
	report, err := protocol.DecodeReport(req.Params)
	if err != nil {
		core.LogWarn(o, "Dropping malformed report ", req.Name, ": ", err)
		return
	}

	o.Ingest(report)
	core.LogDebug(o, "Report from ", report.ForwarderID, " with ", len(report.ClientRequests), " requests")

	if err := o.transport.Respond(req.Name, protocol.ReportAck, o.config.ReplyFreshness); err != nil {
		core.LogWarn(o, "Unable to acknowledge report from ", report.ForwarderID, ": ", err)
	}
}
