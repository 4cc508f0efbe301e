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

package kernel

import (
    `github.com/florianjacob/gpuocelot/internal/cfg`
    `github.com/florianjacob/gpuocelot/internal/utils`
)

// DataflowGraph is the dataflow view of a kernel, built by an external
// analysis from the control-flow graph.
type DataflowGraph interface {
    SSA() bool
}

// DataflowBuilder constructs a dataflow graph from a control-flow graph.
type DataflowBuilder interface {
    BuildFrom(g *cfg.ControlFlowGraph) (DataflowGraph, error)
}

// DivergenceAnalysis tells which blocks end with a branch that threads of a
// warp may take in different directions.
type DivergenceAnalysis interface {
    IsDivergent(bb *cfg.BasicBlock) bool
}

// DivergenceRunner runs the divergence analysis over a kernel whose dataflow
// graph is in SSA form.
type DivergenceRunner interface {
    RunOnKernel(k *Kernel) (DivergenceAnalysis, error)
}

// DataflowGraph returns the cached dataflow graph, building it with `b` on
// first use.
func (self *Kernel) DataflowGraph(b DataflowBuilder) (DataflowGraph, error) {
    if self.cfg == nil {
        return nil, utils.EPrecondition(self.Name, "build dataflow graph", "control-flow graph has not been built")
    }

    /* check for cached graph */
    if self.dfg != nil {
        return self.dfg, nil
    }

    /* build a new one */
    dfg, err := b.BuildFrom(self.cfg)
    if err != nil {
        return nil, err
    }

    /* cache the result */
    self.dfg = dfg
    return dfg, nil
}

// DivergenceAnalysis returns the cached divergence analysis, running it with
// `r` on first use. The dataflow graph must have been built and be in SSA form.
func (self *Kernel) DivergenceAnalysis(r DivergenceRunner) (DivergenceAnalysis, error) {
    if self.dfg == nil {
        return nil, utils.EPrecondition(self.Name, "run divergence analysis", "dataflow graph has not been built")
    } else if !self.dfg.SSA() {
        return nil, utils.EPrecondition(self.Name, "run divergence analysis", "dataflow graph is not in SSA form")
    }

    /* check for cached analysis */
    if self.dva != nil {
        return self.dva, nil
    }

    /* run the analysis */
    dva, err := r.RunOnKernel(self)
    if err != nil {
        return nil, err
    }

    /* cache the result */
    self.dva = dva
    return dva, nil
}

// InvalidateAnalyses drops the cached dataflow graph and divergence analysis.
func (self *Kernel) InvalidateAnalyses() {
    self.dfg = nil
    self.dva = nil
}
