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
    `errors`
    `testing`

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`

    `github.com/florianjacob/gpuocelot/internal/cfg`
    `github.com/florianjacob/gpuocelot/internal/utils`
    `github.com/florianjacob/gpuocelot/ptx`
)

type fakeDataflow struct {
    ssa bool
}

func (self fakeDataflow) SSA() bool {
    return self.ssa
}

type fakeBuilder struct {
    ssa   bool
    calls int
}

func (self *fakeBuilder) BuildFrom(_ *cfg.ControlFlowGraph) (DataflowGraph, error) {
    self.calls++
    return fakeDataflow { ssa: self.ssa }, nil
}

type fakeDivergence struct{}

func (fakeDivergence) IsDivergent(_ *cfg.BasicBlock) bool {
    return false
}

type fakeRunner struct {
    calls int
}

func (self *fakeRunner) RunOnKernel(_ *Kernel) (DivergenceAnalysis, error) {
    self.calls++
    return fakeDivergence{}, nil
}

func requirePrecondition(t *testing.T, err error) {
    var pe utils.PreconditionError
    require.Error(t, err)
    require.True(t, errors.As(err, &pe), "unexpected error: %v", err)
}

func TestKernel_NewEmpty(t *testing.T) {
    k := NewEmpty("empty", true)
    require.Equal(t, "empty", k.Name)
    require.Equal(t, C_func, k.Prototype.CallType)
    require.Equal(t, 2, k.CFG().NumBlocks())
    require.Equal(t, 0, k.CFG().NumEdges())
    require.Equal(t, 0, k.Registers().Len())
}

func TestKernel_Stats(t *testing.T) {
    kc, bc, ec := KernelCount.Load(), BlockCount.Load(), EdgeCount.Load()
    rc := RegisterCount.Load()
    _, err := New(conditional(), false)
    require.NoError(t, err)
    assert.Equal(t, kc + 1, KernelCount.Load())
    assert.Equal(t, bc + 3, BlockCount.Load())
    assert.Equal(t, ec + 5, EdgeCount.Load())
    assert.Equal(t, rc + 4, RegisterCount.Load())
}

func TestKernel_Clone(t *testing.T) {
    k := functionKernel(t)
    c := k.Clone()
    require.Equal(t, k.String(), c.String())

    /* the copy is independent */
    c.Arguments[0].Name = "x"
    c.Parameters["other"] = ptx.Parameter { Name: "other" }
    c.CFG().Block(2).Instructions[0].Modifiers[0] = "global"
    c.Registers().Ids["%new"] = 9
    require.Equal(t, "r", k.Arguments[0].Name)
    require.NotContains(t, k.Parameters, "other")
    require.Equal(t, "param", k.CFG().Block(2).Instructions[0].Modifiers[0])
    _, ok := k.Registers().Lookup("%new")
    require.False(t, ok)
}

func TestKernel_Rebuild(t *testing.T) {
    k := entryKernel(t)
    g := k.CFG()
    b := &fakeBuilder { ssa: true }
    _, err := k.DataflowGraph(b)
    require.NoError(t, err)

    /* a failed rebuild leaves the kernel alone */
    err = k.Rebuild([]ptx.Statement { uni("missing") })
    require.Error(t, err)
    require.Same(t, g, k.CFG())
    require.Equal(t, "k", k.Name)

    /* a successful one replaces everything */
    require.NoError(t, k.Rebuild([]ptx.Statement { ptx.NewEntry("k2"), add("%a", "%b", "%c") }))
    require.Equal(t, "k2", k.Name)
    require.Equal(t, "test", k.Version)
    require.Equal(t, 3, k.CFG().NumBlocks())
    require.Equal(t, 0, g.NumBlocks())
    require.Equal(t, []string { "%b", "%c", "%a" }, k.Registers().Names)

    /* the cached graph is gone */
    _, err = k.DataflowGraph(b)
    require.NoError(t, err)
    require.Equal(t, 2, b.calls)
}

func TestKernel_Release(t *testing.T) {
    k := entryKernel(t)
    g := k.CFG()
    k.Release()
    require.Nil(t, k.CFG())
    require.Equal(t, 0, g.NumBlocks())
    _, err := k.DataflowGraph(&fakeBuilder{})
    requirePrecondition(t, err)
    k.Release()
}

func TestKernel_Analyses(t *testing.T) {
    k := entryKernel(t)
    r := &fakeRunner{}

    /* divergence analysis needs a dataflow graph */
    _, err := k.DivergenceAnalysis(r)
    requirePrecondition(t, err)

    /* which must be in SSA form */
    _, err = k.DataflowGraph(&fakeBuilder { ssa: false })
    require.NoError(t, err)
    _, err = k.DivergenceAnalysis(r)
    requirePrecondition(t, err)
    require.Equal(t, 0, r.calls)

    /* rebuild in SSA form, results are cached */
    b := &fakeBuilder { ssa: true }
    k.InvalidateAnalyses()
    dfg, err := k.DataflowGraph(b)
    require.NoError(t, err)
    require.True(t, dfg.SSA())
    _, err = k.DataflowGraph(b)
    require.NoError(t, err)
    require.Equal(t, 1, b.calls)
    dva, err := k.DivergenceAnalysis(r)
    require.NoError(t, err)
    require.False(t, dva.IsDivergent(k.CFG().Block(2)))
    _, err = k.DivergenceAnalysis(r)
    require.NoError(t, err)
    require.Equal(t, 1, r.calls)
}

func TestKernel_CanonicalBlockLabels(t *testing.T) {
    k := entryKernel(t)
    g := k.CFG()
    require.NoError(t, k.CanonicalBlockLabels(7))
    require.Equal(t, "", g.Entry().Label)
    require.Equal(t, "$BB_7_0002", g.Block(2).Label)
    require.Equal(t, "", g.Block(2).Comment)
    require.Equal(t, "$BB_7_0004", g.Block(4).Label)
    require.Equal(t, "L2", g.Block(4).Comment)
    require.Equal(t, "$BB_7_0004", g.Block(2).Instructions[1].Target())

    /* applying it again changes nothing */
    require.NoError(t, k.CanonicalBlockLabels(7))
    require.Equal(t, "$BB_7_0004", g.Block(4).Label)
    require.Equal(t, "L2", g.Block(4).Comment)
    require.Equal(t, "$BB_7_0004", g.Block(2).Instructions[1].Target())

    /* a different id moves the labels and the targets together */
    require.NoError(t, k.CanonicalBlockLabels(12))
    require.Equal(t, "$BB_12_0004", g.Block(4).Label)
    require.Equal(t, "L2", g.Block(4).Comment)
    require.Equal(t, "$BB_12_0004", g.Block(2).Instructions[1].Target())
    require.Equal(t, g.Block(4), g.FindLabel("$BB_12_0004"))
}

func TestKernel_Dominators(t *testing.T) {
    k := entryKernel(t)
    g := k.CFG()
    dt, err := k.Dominators()
    require.NoError(t, err)
    require.Equal(t, g.Block(2), dt.Idom(g.Block(3)))
    require.Equal(t, g.Block(2), dt.Idom(g.Block(4)))
    pdt, err := k.PostDominators()
    require.NoError(t, err)
    require.Equal(t, g.Exit(), pdt.Root())
    require.Equal(t, g.Block(4), pdt.Idom(g.Block(2)))
}

func TestKernel_ReconvergencePoints(t *testing.T) {
    k := entryKernel(t)
    g := k.CFG()
    rp, err := k.ReconvergencePoints()
    require.NoError(t, err)
    require.Equal(t, map[*cfg.BasicBlock]*cfg.BasicBlock { g.Block(2): g.Block(4) }, rp)

    /* unconditional and never-taken branches do not diverge */
    k, err = New([]ptx.Statement {
        bra("L1", ptx.Never()),
        label("L1"),
        uni("L2"),
        label("L2"),
        op(ptx.OP_ret),
    }, false)
    require.NoError(t, err)
    rp, err = k.ReconvergencePoints()
    require.NoError(t, err)
    require.Empty(t, rp)
}

func TestKernel_Dominators_Released(t *testing.T) {
    k := entryKernel(t)
    k.Release()
    _, err := k.Dominators()
    require.True(t, errors.As(err, new(utils.PreconditionError)))
    _, err = k.PostDominators()
    require.True(t, errors.As(err, new(utils.PreconditionError)))
    _, err = k.ReconvergencePoints()
    require.True(t, errors.As(err, new(utils.PreconditionError)))
}
