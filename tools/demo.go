/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tools

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/client"
	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/executor"
	"github.com/boss-server-ops/Minindn/transport"
	"go.uber.org/multierr"
)

// Demo runs every role in one process over the in-memory bus.
type Demo struct {
	args []string

	configFile string
	clients    int
	title      string
	chunks     int
}

func RunDemo(args []string) {
	os.Exit((&Demo{args: args}).run())
}

func (d *Demo) parse() {
	flagset := flag.NewFlagSet(d.args[0], flag.ExitOnError)
	flagset.StringVar(&d.configFile, "config", "", "TOML configuration file")
	flagset.IntVar(&d.clients, "n", 3, "number of clients")
	flagset.StringVar(&d.title, "t", "TitleA", "title to play")
	flagset.IntVar(&d.chunks, "c", 2, "chunks each client plays")
	flagset.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", d.args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Run producer, optimizer, forwarder and clients in one process.\n")
		fmt.Fprintf(os.Stderr, "\n")
		flagset.PrintDefaults()
	}
	flagset.Parse(d.args[1:])
}

// Start brings the daemons up on bus and returns a function stopping them.
func (d *Demo) Start(bus *transport.Bus) (func() error, error) {
	pc, sc := executor.ProducerConfig()
	pe, err := executor.NewProducerExecutor(pc, sc, bus.Endpoint("producer"))
	if err != nil {
		return nil, err
	}
	oe, err := executor.NewOptimizerExecutor(executor.OptimizerConfig(), bus.Endpoint("optimizer"))
	if err != nil {
		return nil, multierr.Append(err, pe.Stop())
	}
	fe, err := executor.NewForwarderExecutor(executor.ForwarderConfig(), bus.Endpoint("forwarder"))
	if err != nil {
		return nil, multierr.Combine(err, oe.Stop(), pe.Stop())
	}

	daemons := []executor.Daemon{pe, oe, fe}
	for i, dm := range daemons {
		if err := dm.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				err = multierr.Append(err, daemons[j].Stop())
			}
			return nil, err
		}
	}

	return func() error {
		var err error
		for j := len(daemons) - 1; j >= 0; j-- {
			err = multierr.Append(err, daemons[j].Stop())
		}
		return err
	}, nil
}

func (d *Demo) play(bus *transport.Bus, id string, acceptable []string) []string {
	cfg := executor.ClientConfig()
	cfg.ClientID = id
	c, err := client.NewClient(cfg, bus.Endpoint(id))
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", id, err)}
	}

	lines := make([]string, 0, d.chunks)
	for chunk := 1; chunk <= d.chunks; chunk++ {
		res, err := c.RequestChunk(context.Background(), d.title, uint64(chunk), acceptable, 0)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s chunk %d: %v", id, chunk, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s chunk %d: %s -> %s", id, chunk, res.Resolution, res.Content))
	}
	return lines
}

func (d *Demo) run() int {
	d.parse()
	if err := core.LoadConfig(d.configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	core.InitializeLogger()
	defer core.ShutdownLogger()

	bus := transport.NewBus()
	stop, err := d.Start(bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to start: %+v\n", err)
		return 1
	}

	// each client accepts a different set so the policy has something to choose from
	sets := [][]string{{"2K", "4K", "8K"}, {"2K", "4K"}, {"4K", "8K"}, {"8K"}}

	t1 := time.Now()
	results := make([][]string, d.clients)
	var wg sync.WaitGroup
	for i := 0; i < d.clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.play(bus, fmt.Sprintf("client-%d", i+1), sets[i%len(sets)])
		}(i)
	}
	wg.Wait()

	for _, lines := range results {
		fmt.Println(strings.Join(lines, "\n"))
	}
	fmt.Printf("\n%d clients played %d chunks of %s in %s\n", d.clients, d.chunks, d.title, time.Since(t1).Round(time.Millisecond))

	if err := stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown: %+v\n", err)
		return 1
	}
	return 0
}
