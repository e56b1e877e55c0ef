/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package forwarder implements the edge role: it holds client range requests,
// reports demand to the optimizer and redirects clients once a configuration
// recommends a resolution for them.
package forwarder

import (
	"context"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
)

type Forwarder struct {
	config    Config
	transport transport.Transport

	pending *PendingTable
	demand  *DemandTable

	// last known configuration version
	versionMutex sync.Mutex
	version      uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewForwarder(config Config, t transport.Transport) (*Forwarder, error) {
	if err := config.Parse(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Forwarder{
		config:    config,
		transport: t,
		pending:   NewPendingTable(),
		demand:    NewDemandTable(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (f *Forwarder) String() string {
	return "Forwarder(" + f.config.ForwarderID + ")"
}

// Pending exposes the pending request table.
func (f *Forwarder) Pending() *PendingTable {
	return f.pending
}

// Version returns the last known configuration version.
func (f *Forwarder) Version() uint64 {
	f.versionMutex.Lock()
	defer f.versionMutex.Unlock()
	return f.version
}

func (f *Forwarder) setVersion(v uint64) {
	f.versionMutex.Lock()
	defer f.versionMutex.Unlock()
	if v != f.version {
		core.LogInfo(f, "Tracking configuration version ", v)
	}
	f.version = v
}

// Start registers the range request handler and starts the report and poll cycles.
func (f *Forwarder) Start() error {
	if err := f.transport.Attach(f.config.Names.Video, f.onRangeRequest); err != nil {
		return err
	}
	core.LogInfo(f, "Serving range requests under ", f.config.Names.Video)

	f.wg.Add(2)
	go f.cycle(f.config.ReportInterval, func(ctx context.Context) {
		f.ExpirePending(time.Now())
		f.Report(ctx)
	})
	go f.cycle(f.config.PollInterval, func(ctx context.Context) {
		f.Poll(ctx)
	})
	return nil
}

// Stop ends both cycles, abandons on-behalf fetches and detaches the handler.
func (f *Forwarder) Stop() {
	f.cancel()
	f.wg.Wait()
	f.transport.Detach(f.config.Names.Video)
}

// cycle runs step every interval. A slow step delays only its own next run.
func (f *Forwarder) cycle(interval time.Duration, step func(ctx context.Context)) {
	defer f.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			step(f.ctx)
		case <-f.ctx.Done():
			return
		}
	}
}

func (f *Forwarder) onRangeRequest(req transport.Request) {
	title, chunk, err := f.config.Names.ParseRangeName(req.Name)
	if err != nil {
		core.LogDebug(f, "Ignoring ", req.Name, ": ", err)
		return
	}
	params, err := protocol.DecodeRangeParams(req.Params)
	if err != nil {
		core.LogWarn(f, "Dropping range request ", req.Name, ": ", err)
		return
	}

	pr := &PendingRequest{
		ClientID:              params.ClientID,
		RequestName:           req.Name,
		Title:                 title,
		Chunk:                 chunk,
		AcceptableResolutions: params.AcceptableResolutions,
		Timestamp:             params.Timestamp,
		SubmittedAt:           time.Now(),
		Deadline:              req.Deadline,
	}
	if f.pending.Put(pr) {
		core.LogDebug(f, "Client ", pr.ClientID, " replaced its pending request")
	}
	f.demand.Add(protocol.ClientRequest{
		ClientID:              pr.ClientID,
		AcceptableResolutions: pr.AcceptableResolutions,
		TitleID:               pr.Title,
		Chunk:                 pr.Chunk,
		Timestamp:             pr.Timestamp,
	})
	core.LogDebug(f, "Range request from ", pr.ClientID, " for ", title, " chunk ", chunk)
}

// ExpirePending drops requests whose requester stopped waiting.
func (f *Forwarder) ExpirePending(now time.Time) int {
	expired := f.pending.Expire(now)
	for _, pr := range expired {
		f.demand.Remove(pr.ClientID)
		core.LogDebug(f, "Range request from ", pr.ClientID, " expired")
	}
	return len(expired)
}
