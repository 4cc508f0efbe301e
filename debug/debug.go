/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package debug

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/florianjacob/gpuocelot/internal/kernel"
)

// A Stats records statistics about the kernels built so far.
type Stats struct {
	Kernels   int
	Failures  int
	Graph     GraphStats
	Registers int
}

// A GraphStats records the total size of the control-flow graphs built so far,
// sentinel blocks excluded.
type GraphStats struct {
	Blocks int
	Edges  int
}

// GetStats returns statistics of the kernel builder.
func GetStats() Stats {
	return Stats{
		Kernels:  int(kernel.KernelCount.Load()),
		Failures: int(kernel.FailureCount.Load()),
		Graph: GraphStats{
			Blocks: int(kernel.BlockCount.Load()),
			Edges:  int(kernel.EdgeCount.Load()),
		},
		Registers: int(kernel.RegisterCount.Load()),
	}
}

var dumper = spew.ConfigState{
	Indent:                  "    ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump formats v with every nested value expanded, such as a kernel with its
// graph, for inspection in tests and bug reports. Map keys are sorted and
// pointer addresses are omitted, so the output is stable.
func Dump(v interface{}) string {
	return dumper.Sdump(v)
}
