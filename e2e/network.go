/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package e2e assembles every role on one in-memory bus for end-to-end runs.
package e2e

import (
	"context"
	"errors"
	"time"

	"github.com/boss-server-ops/Minindn/client"
	"github.com/boss-server-ops/Minindn/forwarder"
	"github.com/boss-server-ops/Minindn/optimizer"
	"github.com/boss-server-ops/Minindn/producer"
	"github.com/boss-server-ops/Minindn/transport"
	"go.uber.org/multierr"
)

// never keeps a background cycle from firing during a manual run.
const never = time.Hour

// Options shape a Network.
type Options struct {
	// Catalog served by the producer.
	Catalog producer.Catalog
	// Policy used by the optimizer, median when empty.
	Policy string
	// Manual disables the background cycles so Step drives the exchange.
	Manual bool
	// Interval of the background cycles when not manual.
	Interval time.Duration
}

// Network is a producer, an optimizer and one edge forwarder on a bus.
type Network struct {
	Bus       *transport.Bus
	Producer  *producer.Producer
	Optimizer *optimizer.Optimizer
	Forwarder *forwarder.Forwarder

	store   producer.Store
	clients []transport.Transport
}

func NewNetwork(opts Options) (*Network, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	if opts.Manual {
		interval = never
	}

	n := &Network{Bus: transport.NewBus(), store: producer.NewMemoryStore()}
	if _, err := opts.Catalog.Import(n.store); err != nil {
		return nil, err
	}

	var err error
	n.Producer, err = producer.NewProducer(producer.DefaultConfig(), n.Bus.Endpoint("producer"), n.store)
	if err != nil {
		return nil, err
	}

	oc := optimizer.DefaultConfig()
	oc.RecomputeInterval = interval
	oc.ConfigWait = 100 * time.Millisecond
	if opts.Policy != "" {
		oc.Policy = opts.Policy
	}
	n.Optimizer, err = optimizer.NewOptimizer(oc, n.Bus.Endpoint("optimizer"))
	if err != nil {
		return nil, err
	}

	fc := forwarder.DefaultConfig()
	fc.ReportInterval = interval
	fc.PollInterval = interval
	fc.ExchangeLifetime = time.Second
	n.Forwarder, err = forwarder.NewForwarder(fc, n.Bus.Endpoint("forwarder"))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) Start() error {
	if err := n.Producer.Start(); err != nil {
		return err
	}
	if err := n.Optimizer.Start(); err != nil {
		return multierr.Append(err, n.Producer.Stop())
	}
	if err := n.Forwarder.Start(); err != nil {
		n.Optimizer.Stop()
		return multierr.Append(err, n.Producer.Stop())
	}
	return nil
}

func (n *Network) Stop() error {
	var err error
	for _, c := range n.clients {
		err = multierr.Append(err, c.Close())
	}
	n.Forwarder.Stop()
	n.Optimizer.Stop()
	return multierr.Combine(err, n.Producer.Stop(), n.store.Close())
}

// Client returns a client with its own endpoint on the bus.
func (n *Network) Client(id string, rangeLifetime time.Duration) (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.ClientID = id
	if rangeLifetime > 0 {
		cfg.RangeLifetime = rangeLifetime
	}
	ep := n.Bus.Endpoint(id)
	n.clients = append(n.clients, ep)
	return client.NewClient(cfg, ep)
}

// Step runs one report, recompute and poll round by hand. It returns the
// published version and the number of clients redirected.
func (n *Network) Step(ctx context.Context) (uint64, int, error) {
	if _, err := n.Forwarder.Report(ctx); err != nil {
		return 0, 0, err
	}
	version, _ := n.Optimizer.Recompute()

	// the first poll may only learn the latest version
	redirected := 0
	for i := 0; i < 2 && redirected == 0; i++ {
		r, err := n.Forwarder.Poll(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return version, redirected, err
		}
		redirected += r
	}
	return version, redirected, nil
}

// WaitPending blocks until the forwarder holds count pending requests.
func (n *Network) WaitPending(ctx context.Context, count int) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for n.Forwarder.Pending().Len() < count {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
