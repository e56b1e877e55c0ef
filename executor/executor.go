/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"fmt"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/forwarder"
	"github.com/boss-server-ops/Minindn/optimizer"
	"github.com/boss-server-ops/Minindn/producer"
	"github.com/boss-server-ops/Minindn/transport"
	"go.uber.org/multierr"
)

// OpenContentStore opens the configured store, wraps it in a read cache when
// requested and imports the configured catalog. A memory store without a
// catalog is seeded with the demo catalog.
func OpenContentStore(sc StoreConfig) (producer.Store, error) {
	store, err := producer.OpenStore(sc.Kind, sc.Path)
	if err != nil {
		return nil, err
	}

	var catalog *producer.Catalog
	if sc.Catalog != "" {
		c, err := producer.LoadCatalog(sc.Catalog)
		if err != nil {
			return nil, multierr.Append(err, store.Close())
		}
		catalog = &c
	} else if _, ok := store.(*producer.MemoryStore); ok {
		c := producer.DefaultCatalog()
		catalog = &c
	}
	if catalog != nil {
		n, err := catalog.Import(store)
		if err != nil {
			return nil, multierr.Append(err, store.Close())
		}
		core.LogInfo("Store", "Imported ", n, " chunks into ", sc.Kind, " store")
	}

	if sc.CacheSize > 0 {
		cached, err := producer.NewCachedStore(store, sc.CacheSize)
		if err != nil {
			return nil, multierr.Append(err, store.Close())
		}
		return cached, nil
	}
	return store, nil
}

type ProducerExecutor struct {
	transport transport.Transport
	store     producer.Store
	producer  *producer.Producer
}

func NewProducerExecutor(pc producer.Config, sc StoreConfig, t transport.Transport) (*ProducerExecutor, error) {
	store, err := OpenContentStore(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}
	p, err := producer.NewProducer(pc, t, store)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to create producer: %w", err), store.Close())
	}
	return &ProducerExecutor{transport: t, store: store, producer: p}, nil
}

func (pe *ProducerExecutor) Start() error {
	return pe.producer.Start()
}

func (pe *ProducerExecutor) Stop() error {
	return multierr.Combine(pe.producer.Stop(), pe.store.Close(), pe.transport.Close())
}

type OptimizerExecutor struct {
	transport transport.Transport
	optimizer *optimizer.Optimizer
}

func NewOptimizerExecutor(oc optimizer.Config, t transport.Transport) (*OptimizerExecutor, error) {
	o, err := optimizer.NewOptimizer(oc, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer: %w", err)
	}
	return &OptimizerExecutor{transport: t, optimizer: o}, nil
}

func (oe *OptimizerExecutor) Start() error {
	return oe.optimizer.Start()
}

func (oe *OptimizerExecutor) Stop() error {
	oe.optimizer.Stop()
	return oe.transport.Close()
}

func (oe *OptimizerExecutor) Optimizer() *optimizer.Optimizer {
	return oe.optimizer
}

type ForwarderExecutor struct {
	transport transport.Transport
	forwarder *forwarder.Forwarder
}

func NewForwarderExecutor(fc forwarder.Config, t transport.Transport) (*ForwarderExecutor, error) {
	f, err := forwarder.NewForwarder(fc, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}
	return &ForwarderExecutor{transport: t, forwarder: f}, nil
}

func (fe *ForwarderExecutor) Start() error {
	return fe.forwarder.Start()
}

func (fe *ForwarderExecutor) Stop() error {
	fe.forwarder.Stop()
	return fe.transport.Close()
}

func (fe *ForwarderExecutor) Forwarder() *forwarder.Forwarder {
	return fe.forwarder
}
