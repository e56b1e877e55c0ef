/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"os"

	"github.com/boss-server-ops/Minindn/cmd"
	"github.com/boss-server-ops/Minindn/executor"
	"github.com/boss-server-ops/Minindn/tools"
)

func main() {
	tree := cmd.CmdTree{
		Name: "avs",
		Help: "Adaptive video selection over NDN",
		Sub: []*cmd.CmdTree{{
			Name: "producer",
			Help: "Video content producer",
			Sub: []*cmd.CmdTree{{
				Name: "run",
				Help: "Start the producer",
				Fun:  executor.ProducerMain,
			}, {
				Name: "import",
				Help: "Import a YAML catalog into the producer store",
				Fun:  executor.ImportMain,
			}},
		}, {
			Name: "optimizer",
			Help: "Central resolution optimizer",
			Sub: []*cmd.CmdTree{{
				Name: "run",
				Help: "Start the optimizer",
				Fun:  executor.OptimizerMain,
			}},
		}, {
			Name: "forwarder",
			Help: "Edge forwarder handling range requests",
			Sub: []*cmd.CmdTree{{
				Name: "run",
				Help: "Start the edge forwarder",
				Fun:  executor.ForwarderMain,
			}},
		}, {
			// tools separator
		}, {
			Name: "fetch",
			Help: "Request chunks of a title as a client",
			Fun:  tools.RunFetch,
		}, {
			Name: "demo",
			Help: "Run every role in one process",
			Fun:  tools.RunDemo,
		}},
	}

	args := os.Args
	args[0] = tree.Name
	tree.Execute(args)
}
