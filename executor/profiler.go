/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/boss-server-ops/Minindn/core"
)

// ProfileConfig names the profile outputs. Empty names disable a profile.
type ProfileConfig struct {
	CpuProfile   string
	MemProfile   string
	BlockProfile string
}

type Profiler struct {
	config  ProfileConfig
	cpuFile *os.File
	block   *pprof.Profile
}

func NewProfiler(config ProfileConfig) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string {
	return "Profiler"
}

func (p *Profiler) Start() (err error) {
	if p.config.CpuProfile != "" {
		p.cpuFile, err = os.Create(p.config.CpuProfile)
		if err != nil {
			return err
		}
		core.LogInfo(p, "Profiling CPU - outputting to ", p.config.CpuProfile)
		if err = pprof.StartCPUProfile(p.cpuFile); err != nil {
			p.cpuFile.Close()
			p.cpuFile = nil
			return err
		}
	}

	if p.config.BlockProfile != "" {
		core.LogInfo(p, "Profiling blocking operations - outputting to ", p.config.BlockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}

	return nil
}

// Stop flushes all profiles. The heap profile is taken at shutdown.
func (p *Profiler) Stop() {
	if p.config.MemProfile != "" {
		memFile, err := os.Create(p.config.MemProfile)
		if err != nil {
			core.LogError(p, "Unable to open output file for memory profile: ", err)
		} else {
			core.LogInfo(p, "Writing memory profile to ", p.config.MemProfile)
			runtime.GC()
			if err := pprof.WriteHeapProfile(memFile); err != nil {
				core.LogError(p, "Unable to write memory profile: ", err)
			}
			memFile.Close()
		}
	}

	if p.block != nil {
		blockFile, err := os.Create(p.config.BlockProfile)
		if err != nil {
			core.LogError(p, "Unable to open output file for block profile: ", err)
		} else {
			if err := p.block.WriteTo(blockFile, 0); err != nil {
				core.LogError(p, "Unable to write block profile: ", err)
			}
			blockFile.Close()
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}
