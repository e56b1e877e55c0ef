/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/producer"
	"github.com/boss-server-ops/Minindn/transport"
)

// Daemon is a role started by Main and stopped on SIGINT or SIGTERM.
type Daemon interface {
	Start() error
	Stop() error
}

type daemonFlags struct {
	configFile string
	unix       string
	profile    ProfileConfig
}

func parseDaemonFlags(args []string) daemonFlags {
	var df daemonFlags
	flagset := flag.NewFlagSet(args[0], flag.ExitOnError)
	flagset.StringVar(&df.configFile, "config", "", "TOML configuration file")
	flagset.StringVar(&df.unix, "unix", "", "Unix socket of the local forwarder (overrides transport.unix)")
	flagset.StringVar(&df.profile.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	flagset.StringVar(&df.profile.MemProfile, "mem-profile", "", "Write memory profile to file on exit")
	flagset.StringVar(&df.profile.BlockProfile, "block-profile", "", "Write block profile to file on exit")
	flagset.Parse(args[1:])
	return df
}

// loadConfig loads the configuration file and starts the logger.
func loadConfig(file string) {
	if err := core.LoadConfig(file); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	core.InitializeLogger()
}

func run(name string, args []string, build func(t transport.Transport) (Daemon, error)) {
	df := parseDaemonFlags(args)
	loadConfig(df.configFile)
	defer core.ShutdownLogger()

	core.StartTimestamp = time.Now()
	core.LogInfo(name, "Starting avs ", core.Version, " (built ", core.BuildTime, ")")

	socket := df.unix
	if socket == "" {
		socket = UnixSocket()
	}
	t, err := transport.DialNDN(socket, core.GetConfigBoolDefault("transport.announce", true))
	if err != nil {
		core.LogFatal(name, err)
	}

	d, err := build(t)
	if err != nil {
		t.Close()
		core.LogFatal(name, err)
	}

	profiler := NewProfiler(df.profile)
	if err := profiler.Start(); err != nil {
		core.LogError(name, "Unable to start profiler: ", err)
	}
	defer profiler.Stop()

	if err := d.Start(); err != nil {
		d.Stop()
		core.LogFatal(name, "Unable to start: ", err)
	}
	core.LogInfo(name, "Started")

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigchan
	core.LogInfo(name, "Received signal ", sig.String(), " - exiting")

	if err := d.Stop(); err != nil {
		core.LogWarn(name, "Shutdown: ", err)
	}
	core.LogInfo(name, "Stopped after ", time.Since(core.StartTimestamp).Round(time.Second))
}

// ProducerMain runs the producer daemon.
func ProducerMain(args []string) {
	run("Producer", args, func(t transport.Transport) (Daemon, error) {
		pc, sc := ProducerConfig()
		return NewProducerExecutor(pc, sc, t)
	})
}

// OptimizerMain runs the optimizer daemon.
func OptimizerMain(args []string) {
	run("Optimizer", args, func(t transport.Transport) (Daemon, error) {
		return NewOptimizerExecutor(OptimizerConfig(), t)
	})
}

// ForwarderMain runs the edge forwarder daemon.
func ForwarderMain(args []string) {
	run("Forwarder", args, func(t transport.Transport) (Daemon, error) {
		return NewForwarderExecutor(ForwarderConfig(), t)
	})
}

// ImportMain loads a YAML catalog into the configured producer store.
func ImportMain(args []string) {
	var configFile string
	flagset := flag.NewFlagSet(args[0], flag.ExitOnError)
	flagset.StringVar(&configFile, "config", "", "TOML configuration file")
	flagset.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] <catalog.yml>\n\n", args[0])
		fmt.Fprintf(os.Stderr, "Imports a content catalog into the producer's store.\n")
		flagset.PrintDefaults()
	}
	flagset.Parse(args[1:])
	if flagset.NArg() != 1 {
		flagset.Usage()
		os.Exit(2)
	}

	loadConfig(configFile)
	defer core.ShutdownLogger()

	_, sc := ProducerConfig()
	if sc.Kind == "" || sc.Kind == "memory" {
		core.LogFatal("Import", "producer.store must name a persistent store (bolt or sqlite)")
	}
	store, err := producer.OpenStore(sc.Kind, sc.Path)
	if err != nil {
		core.LogFatal("Import", "Unable to open ", sc.Kind, " store: ", err)
	}
	defer store.Close()

	catalog, err := producer.LoadCatalog(flagset.Arg(0))
	if err != nil {
		core.LogFatal("Import", err)
	}
	n, err := catalog.Import(store)
	if err != nil {
		core.LogFatal("Import", err)
	}
	core.LogInfo("Import", "Imported ", n, " chunks into ", sc.Kind, " store ", sc.Path)
}
