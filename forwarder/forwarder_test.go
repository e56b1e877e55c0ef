/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package forwarder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/boss-server-ops/Minindn/forwarder"
	"github.com/boss-server-ops/Minindn/protocol"
	"github.com/boss-server-ops/Minindn/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ns = protocol.DefaultNamespace()

// fakeOptimizer acknowledges reports and answers version queries from a script.
type fakeOptimizer struct {
	mutex    sync.Mutex
	reports  []*protocol.Report
	queries  []uint64
	answer   any
	endpoint transport.Transport
}

func newFakeOptimizer(t *testing.T, bus *transport.Bus) *fakeOptimizer {
	o := &fakeOptimizer{endpoint: bus.Endpoint("optimizer")}
	require.NoError(t, o.endpoint.Attach(ns.ReportName(), func(req transport.Request) {
		r, err := protocol.DecodeReport(req.Params)
		if err != nil {
			return
		}
		o.mutex.Lock()
		o.reports = append(o.reports, r)
		o.mutex.Unlock()
		_ = o.endpoint.Respond(req.Name, protocol.ReportAck, 0)
	}))
	require.NoError(t, o.endpoint.Attach(ns.VersionPrefix(), func(req transport.Request) {
		v, err := ns.ParseVersionName(req.Name)
		if err != nil {
			return
		}
		o.mutex.Lock()
		o.queries = append(o.queries, v)
		answer := o.answer
		o.mutex.Unlock()
		b, _ := protocol.Encode(answer)
		_ = o.endpoint.Respond(req.Name, b, 0)
	}))
	return o
}

func (o *fakeOptimizer) setAnswer(a any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.answer = a
}

func (o *fakeOptimizer) reportCount() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return len(o.reports)
}

func (o *fakeOptimizer) queryLog() []uint64 {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return append([]uint64(nil), o.queries...)
}

type rangeResult struct {
	content []byte
	err     error
}

// sendRange expresses a range request in the background.
func sendRange(client transport.Transport, id string, chunk uint64, lifetime time.Duration) <-chan rangeResult {
	ch := make(chan rangeResult, 1)
	params, _ := protocol.Encode(&protocol.RangeParams{
		ClientID:              id,
		AcceptableResolutions: []string{"2K", "4K", "8K"},
		Priority:              1,
		Timestamp:             protocol.Timestamp(time.Now()),
	})
	go func() {
		b, err := client.Express(context.Background(), ns.RangeName("TitleA", chunk), params, lifetime)
		ch <- rangeResult{b, err}
	}()
	return ch
}

// newForwarder builds a forwarder whose cycles are driven by hand.
func newForwarder(t *testing.T, bus *transport.Bus) *forwarder.Forwarder {
	cfg := forwarder.DefaultConfig()
	cfg.ForwarderID = "edge-a"
	cfg.ReportInterval = time.Hour
	cfg.PollInterval = time.Hour
	cfg.ExchangeLifetime = 500 * time.Millisecond
	f, err := forwarder.NewForwarder(cfg, bus.Endpoint("forwarder"))
	require.NoError(t, err)
	return f
}

func start(t *testing.T, f *forwarder.Forwarder) {
	require.NoError(t, f.Start())
	t.Cleanup(f.Stop)
}

func waitPending(t *testing.T, f *forwarder.Forwarder, n int) {
	require.Eventually(t, func() bool { return f.Pending().Len() == n }, time.Second, 5*time.Millisecond)
}

func TestRangeRequestsOnePendingPerClient(t *testing.T) {
	bus := transport.NewBus()
	f := newForwarder(t, bus)
	start(t, f)
	client := bus.Endpoint("client")

	sendRange(client, "A", 1, time.Second)
	waitPending(t, f, 1)
	sendRange(client, "A", 2, time.Second)
	require.Eventually(t, func() bool {
		pr, ok := f.Pending().Get("A")
		return ok && pr.Chunk == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.Pending().Len())

	sendRange(client, "B", 1, time.Second)
	waitPending(t, f, 2)
}

func TestMalformedRangeRequestDropped(t *testing.T) {
	bus := transport.NewBus()
	f := newForwarder(t, bus)
	start(t, f)
	client := bus.Endpoint("client")

	_, err := client.Express(context.Background(), ns.RangeName("TitleA", 1), []byte(`{"client_id":""}`), 50*time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout)
	assert.Equal(t, 0, f.Pending().Len())
}

func TestReportOncePerDemand(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	f := newForwarder(t, bus)
	start(t, f)

	sent, err := f.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)

	sendRange(bus.Endpoint("client"), "A", 1, time.Second)
	waitPending(t, f, 1)

	sent, err = f.Report(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = f.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 1, opt.reportCount())

	opt.mutex.Lock()
	r := opt.reports[0]
	opt.mutex.Unlock()
	assert.Equal(t, "edge-a", r.ForwarderID)
	require.Len(t, r.ClientRequests, 1)
	assert.Equal(t, "A", r.ClientRequests[0].ClientID)
	assert.Equal(t, "TitleA", r.ClientRequests[0].TitleID)
	assert.Equal(t, 120.0, r.LocalNetworkState.UpstreamLink.RemainingCapacity)
}

func TestReportFailureKeepsDemand(t *testing.T) {
	bus := transport.NewBus()
	f := newForwarder(t, bus)
	start(t, f)

	sendRange(bus.Endpoint("client"), "A", 1, time.Second)
	waitPending(t, f, 1)

	_, err := f.Report(context.Background())
	assert.ErrorIs(t, err, transport.ErrNoRoute)

	opt := newFakeOptimizer(t, bus)
	sent, err := f.Report(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, opt.reportCount())
}

func TestReportAcceptsAnyAcknowledgement(t *testing.T) {
	bus := transport.NewBus()
	optimizer := bus.Endpoint("optimizer")
	require.NoError(t, optimizer.Attach(ns.ReportName(), func(req transport.Request) {
		_ = optimizer.Respond(req.Name, []byte("ok"), 0)
	}))
	f := newForwarder(t, bus)
	start(t, f)

	sendRange(bus.Endpoint("client"), "A", 1, time.Second)
	waitPending(t, f, 1)

	sent, err := f.Report(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = f.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestPollSkippedWithoutPending(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	f := newForwarder(t, bus)

	n, err := f.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, opt.queryLog())
}

func TestPollFollowsVersionNacks(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	f := newForwarder(t, bus)
	start(t, f)

	sendRange(bus.Endpoint("client"), "A", 1, 5*time.Second)
	waitPending(t, f, 1)

	opt.setAnswer(protocol.NewVersionNack(protocol.ReasonVersionOutdated, 3, time.Now()))
	_, err := f.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.Version())

	opt.setAnswer(protocol.NewVersionNack(protocol.ReasonVersionTooHigh, 1, time.Now()))
	_, err = f.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.Version())

	opt.setAnswer(protocol.NewVersionNack(protocol.ReasonConfigNotReady, 4, time.Now()))
	_, err = f.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), f.Version())

	assert.Equal(t, []uint64{0, 3, 3}, opt.queryLog())
	assert.Equal(t, 1, f.Pending().Len())
}

func TestPollRedirectsAndFetches(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	f := newForwarder(t, bus)
	start(t, f)

	fetched := make(chan string, 1)
	producer := bus.Endpoint("producer")
	require.NoError(t, producer.Attach(ns.Content, func(req transport.Request) {
		fetched <- req.Name
		_ = producer.Respond(req.Name, protocol.NotFoundMarker, 0)
	}))

	result := sendRange(bus.Endpoint("client"), "A", 1, 5*time.Second)
	sendRange(bus.Endpoint("client"), "B", 1, 5*time.Second)
	waitPending(t, f, 2)

	opt.setAnswer(&protocol.ConfigPayload{Version: 1, Config: map[string]string{"A": "4K"}})
	n, err := f.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint64(1), f.Version())
	assert.Equal(t, []string{"B"}, f.Pending().ClientIDs())

	r := <-result
	require.NoError(t, r.err)
	nack, err := protocol.DecodeRedirect(r.content)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReasonResolutionSelection, nack.Reason)
	assert.Equal(t, "/ndn/video/content/TitleA/4K/chunk/1", nack.RecommendedName)

	select {
	case name := <-fetched:
		assert.Equal(t, "/ndn/video/content/TitleA/4K/chunk/1", name)
	case <-time.After(time.Second):
		t.Fatal("forwarder did not fetch on behalf of the client")
	}
}

func TestExpirePendingDropsDemand(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	f := newForwarder(t, bus)
	start(t, f)

	sendRange(bus.Endpoint("client"), "A", 1, 20*time.Millisecond)
	waitPending(t, f, 1)

	assert.Equal(t, 1, f.ExpirePending(time.Now().Add(time.Second)))
	assert.Equal(t, 0, f.Pending().Len())

	sent, err := f.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, opt.reportCount())
}

func TestCyclesRunInBackground(t *testing.T) {
	bus := transport.NewBus()
	opt := newFakeOptimizer(t, bus)
	opt.setAnswer(&protocol.ConfigPayload{Version: 1, Config: map[string]string{"A": "2K"}})

	cfg := forwarder.DefaultConfig()
	cfg.ReportInterval = 10 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	f, err := forwarder.NewForwarder(cfg, bus.Endpoint("forwarder"))
	require.NoError(t, err)
	require.NoError(t, f.Start())
	defer f.Stop()

	r := <-sendRange(bus.Endpoint("client"), "A", 1, 2*time.Second)
	require.NoError(t, r.err)
	nack, err := protocol.DecodeRedirect(r.content)
	require.NoError(t, err)
	assert.Equal(t, "/ndn/video/content/TitleA/2K/chunk/1", nack.RecommendedName)
	require.Eventually(t, func() bool { return opt.reportCount() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestConfigParse(t *testing.T) {
	cfg := forwarder.DefaultConfig()
	require.NoError(t, cfg.Parse())

	cfg.ForwarderID = ""
	assert.Error(t, cfg.Parse())

	cfg = forwarder.DefaultConfig()
	cfg.PollInterval = 0
	assert.Error(t, cfg.Parse())
}
