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
	"strconv"
	"strings"
	"time"

	"github.com/boss-server-ops/Minindn/client"
	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/executor"
	"github.com/boss-server-ops/Minindn/transport"
)

var defaultResolutions = []string{"2K", "4K", "8K"}

type Fetch struct {
	args []string

	// command line configuration
	configFile  string
	unix        string
	clientID    string
	resolutions string
	priority    int
	count       int

	title string
	chunk uint64
}

func RunFetch(args []string) {
	os.Exit((&Fetch{args: args}).run())
}

func (f *Fetch) usage(flagset *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <title> <chunk>\n", f.args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Ask the edge forwarder for a resolution recommendation and\n")
		fmt.Fprintf(os.Stderr, "fetch the chunk at the recommended resolution.\n")
		fmt.Fprintf(os.Stderr, "\n")
		flagset.PrintDefaults()
	}
}

func (f *Fetch) parse() bool {
	flagset := flag.NewFlagSet(f.args[0], flag.ExitOnError)
	flagset.StringVar(&f.configFile, "config", "", "TOML configuration file")
	flagset.StringVar(&f.unix, "unix", "", "Unix socket of the local forwarder")
	flagset.StringVar(&f.clientID, "id", "", "client id (overrides client.id)")
	flagset.StringVar(&f.resolutions, "r", "", "acceptable resolutions, comma separated (default client.resolutions or 2K,4K,8K)")
	flagset.IntVar(&f.priority, "p", 0, "request priority")
	flagset.IntVar(&f.count, "c", 1, "number of consecutive chunks to fetch")
	flagset.Usage = f.usage(flagset)
	flagset.Parse(f.args[1:])

	if flagset.NArg() != 2 {
		flagset.Usage()
		return false
	}
	f.title = flagset.Arg(0)
	chunk, err := strconv.ParseUint(flagset.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid chunk number: %s\n", flagset.Arg(1))
		return false
	}
	f.chunk = chunk
	return true
}

func (f *Fetch) acceptable() []string {
	if f.resolutions == "" {
		if res := core.GetConfigArrayString("client.resolutions"); len(res) > 0 {
			return res
		}
		return defaultResolutions
	}
	var res []string
	for _, r := range strings.Split(f.resolutions, ",") {
		if r = strings.TrimSpace(r); r != "" {
			res = append(res, r)
		}
	}
	return res
}

func (f *Fetch) run() int {
	if !f.parse() {
		return 2
	}
	if err := core.LoadConfig(f.configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	core.InitializeLogger()
	defer core.ShutdownLogger()

	socket := f.unix
	if socket == "" {
		socket = executor.UnixSocket()
	}
	t, err := transport.DialNDN(socket, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to %s: %+v\n", socket, err)
		return 1
	}
	defer t.Close()

	cfg := executor.ClientConfig()
	if f.clientID != "" {
		cfg.ClientID = f.clientID
	}
	c, err := client.NewClient(cfg, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid client configuration: %+v\n", err)
		return 2
	}

	failed := 0
	for i := 0; i < f.count; i++ {
		chunk := f.chunk + uint64(i)
		t1 := time.Now()
		res, err := c.RequestChunk(context.Background(), f.title, chunk, f.acceptable(), f.priority)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chunk %d: %v\n", chunk, err)
			failed++
			continue
		}
		fmt.Printf("chunk %d: %s (%s) in %s\n", chunk, res.Resolution, res.Name, time.Since(t1).Round(time.Millisecond))
		fmt.Printf("%s\n", res.Content)
	}

	if failed > 0 {
		return 1
	}
	return 0
}
