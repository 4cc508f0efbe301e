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
    `sort`
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/florianjacob/gpuocelot/internal/cfg`
    `github.com/florianjacob/gpuocelot/internal/utils`
    `github.com/florianjacob/gpuocelot/ptx`
)

func label(name string) ptx.Statement {
    return ptx.NewLabel(name)
}

func add(d string, a string, b string) ptx.Statement {
    return ptx.NewInstr(ptx.NewInstruction(ptx.OP_add, ptx.T_s32).
        Set(ptx.R_dest, ptx.Reg(d, ptx.T_s32)).
        Set(ptx.R_srcA, ptx.Reg(a, ptx.T_s32)).
        Set(ptx.R_srcB, ptx.Reg(b, ptx.T_s32)))
}

func setp(d string, a string, b string) ptx.Statement {
    return ptx.NewInstr(ptx.NewInstruction(ptx.OP_setp, ptx.T_s32).
        Modifier("lt").
        Set(ptx.R_dest, ptx.Reg(d, ptx.T_pred)).
        Set(ptx.R_srcA, ptx.Reg(a, ptx.T_s32)).
        Set(ptx.R_srcB, ptx.Reg(b, ptx.T_s32)))
}

func bra(target string, guard ptx.Operand) ptx.Statement {
    return ptx.NewInstr(ptx.NewInstruction(ptx.OP_bra, ptx.T_none).
        Set(ptx.R_guard, guard).
        Set(ptx.R_dest, ptx.Label(target)))
}

func uni(target string) ptx.Statement {
    st := bra(target, ptx.Operand{})
    st.Instruction.Uni = true
    return st
}

func op(code ptx.Opcode) ptx.Statement {
    return ptx.NewInstr(ptx.NewInstruction(code, ptx.T_none))
}

// conditional is the statement list of a conditional branch over one block.
func conditional() []ptx.Statement {
    return []ptx.Statement {
        setp("%p1", "%r1", "%r2"),
        bra("L2", ptx.Guard("%p1", false)),
        add("%r3", "%r1", "%r2"),
        label("L2"),
        op(ptx.OP_ret),
    }
}

type edge struct {
    head int
    tail int
    kind cfg.EdgeType
}

func edgesOf(g *cfg.ControlFlowGraph) []edge {
    var ret []edge
    for _, e := range g.Edges() {
        ret = append(ret, edge { e.Head, e.Tail, e.Type })
    }
    return ret
}

func edgeKinds(g *cfg.ControlFlowGraph) []cfg.EdgeType {
    var ret []cfg.EdgeType
    for _, e := range g.Edges() {
        ret = append(ret, e.Type)
    }
    sort.Slice(ret, func(i int, j int) bool { return ret[i] < ret[j] })
    return ret
}

func requireStructural(t *testing.T, err error, kind utils.ErrorKind) utils.StructuralError {
    var se utils.StructuralError
    require.Error(t, err)
    require.True(t, errors.As(err, &se), "unexpected error: %v", err)
    require.Equal(t, kind, se.Kind)
    return se
}

func TestBuilder_SelfLoop(t *testing.T) {
    k, err := New([]ptx.Statement {
        label("L1"),
        add("%r1", "%r1", "%r2"),
        uni("L1"),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    require.Equal(t, 3, g.NumBlocks())
    bb := g.FindLabel("L1")
    require.NotNil(t, bb)
    require.Equal(t, 2, bb.Len())
    require.Equal(t, []edge {
        { g.Entry().Id, bb.Id, cfg.E_fallthrough },
        { bb.Id, bb.Id, cfg.E_branch },
    }, edgesOf(g))
    require.Nil(t, g.FallThrough(bb))
}

func TestBuilder_ConditionalBranch(t *testing.T) {
    k, err := New(conditional(), false)
    require.NoError(t, err)
    g := k.CFG()
    require.Equal(t, 5, g.NumBlocks())

    /* B0, B1 and L2 */
    b0, b1, b2 := g.Block(2), g.Block(3), g.Block(4)
    require.Equal(t, 2, b0.Len())
    require.Equal(t, 1, b1.Len())
    require.Equal(t, "L2", b2.Label)
    require.Equal(t, ptx.OP_ret, b2.Instructions[0].Opcode)

    /* every edge */
    require.ElementsMatch(t, []edge {
        { g.Entry().Id, b0.Id, cfg.E_fallthrough },
        { b0.Id, b1.Id, cfg.E_fallthrough },
        { b0.Id, b2.Id, cfg.E_branch },
        { b1.Id, b2.Id, cfg.E_fallthrough },
        { b2.Id, g.Exit().Id, cfg.E_branch },
    }, edgesOf(g))

    /* every block reaches the exit */
    for _, bb := range g.Blocks() {
        require.True(t, g.ReachesExit(bb), "block %s", bb)
    }
}

func TestBuilder_StraightLine(t *testing.T) {
    k, err := New([]ptx.Statement {
        add("%r1", "%r2", "%r3"),
        add("%r4", "%r1", "%r1"),
        op(ptx.OP_call),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    require.Equal(t, 3, g.NumBlocks())
    bb := g.Block(2)
    require.Equal(t, 3, bb.Len())
    require.Equal(t, []edge {
        { g.Entry().Id, bb.Id, cfg.E_fallthrough },
        { bb.Id, g.Exit().Id, cfg.E_fallthrough },
    }, edgesOf(g))
}

func TestBuilder_Empty(t *testing.T) {
    k, err := New(nil, false)
    require.NoError(t, err)
    g := k.CFG()
    require.Equal(t, 2, g.NumBlocks())
    require.Equal(t, []edge {
        { g.Entry().Id, g.Exit().Id, cfg.E_fallthrough },
    }, edgesOf(g))
}

func TestBuilder_TrailingLabel(t *testing.T) {
    k, err := New([]ptx.Statement {
        bra("END", ptx.Guard("%p1", true)),
        add("%r1", "%r1", "%r1"),
        label("END"),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    end := g.FindLabel("END")
    require.NotNil(t, end)
    require.True(t, end.Empty())
    require.Equal(t, g.Exit(), g.FallThrough(end))
    require.Equal(t, 5, g.NumBlocks())
}

func TestBuilder_NeverTaken(t *testing.T) {
    k, err := New([]ptx.Statement {
        bra("L", ptx.Never()),
        add("%r1", "%r1", "%r1"),
        label("L"),
        add("%r2", "%r2", "%r2"),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    b0, target := g.Block(2), g.FindLabel("L")
    require.NotNil(t, target)
    for _, e := range g.OutEdges(b0) {
        require.NotEqual(t, target.Id, e.Tail)
        require.Equal(t, cfg.E_fallthrough, e.Type)
    }
    require.Len(t, g.OutEdges(b0), 1)
}

func TestBuilder_NeverTakenToUndefinedLabel(t *testing.T) {
    _, err := New([]ptx.Statement { bra("nowhere", ptx.Never()) }, false)
    require.NoError(t, err)
}

func TestBuilder_Exit(t *testing.T) {
    k, err := New([]ptx.Statement {
        add("%r1", "%r1", "%r1"),
        op(ptx.OP_exit),
        label("L"),
        op(ptx.OP_ret),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    b0, l := g.Block(2), g.FindLabel("L")
    require.Equal(t, []edge {
        { g.Entry().Id, b0.Id, cfg.E_fallthrough },
        { b0.Id, g.Exit().Id, cfg.E_fallthrough },
        { l.Id, g.Exit().Id, cfg.E_branch },
    }, edgesOf(g))
    require.Empty(t, g.InEdges(l))
}

func TestBuilder_ConsecutiveLabels(t *testing.T) {
    k, err := New([]ptx.Statement {
        uni("A"),
        label("A"),
        label("B"),
        add("%r1", "%r1", "%r1"),
    }, false)
    require.NoError(t, err)
    g := k.CFG()
    b1 := g.Block(3)
    require.Equal(t, "B", b1.Label)
    require.Equal(t, "B", g.Block(2).Instructions[0].Target())
    require.Equal(t, []int { b1.Id }, func() []int {
        var ret []int
        for _, bb := range g.Successors(g.Block(2)) { ret = append(ret, bb.Id) }
        return ret
    }())
}

func TestBuilder_DuplicateLabel(t *testing.T) {
    _, err := New([]ptx.Statement {
        label("A"),
        add("%r1", "%r1", "%r1"),
        label("A"),
    }, false)
    se := requireStructural(t, err, utils.K_duplicateLabel)
    require.Equal(t, "A", se.Label)
}

func TestBuilder_UndefinedLabel(t *testing.T) {
    before := FailureCount.Load()
    _, err := New([]ptx.Statement {
        ptx.NewEntry("k"),
        uni("missing"),
    }, false)
    se := requireStructural(t, err, utils.K_undefinedLabel)
    require.Equal(t, "missing", se.Label)
    require.Equal(t, "k", se.Kernel)
    require.Equal(t, before + 1, FailureCount.Load())
}

func TestBuilder_Malformed(t *testing.T) {
    tests := []struct {
        name     string
        function bool
        stmts    []ptx.Statement
    }{
        { name: "unopened list", stmts: []ptx.Statement { ptx.NewEndParam() } },
        { name: "nested list", stmts: []ptx.Statement { ptx.NewStartParam(false), ptx.NewStartParam(false) } },
        { name: "unclosed list", stmts: []ptx.Statement { ptx.NewStartParam(false), ptx.NewParam("a", ptx.T_u32) } },
        { name: "named twice", stmts: []ptx.Statement { ptx.NewEntry("a"), ptx.NewEntry("b") } },
        { name: "entry in function", function: true, stmts: []ptx.Statement { ptx.NewEntry("a") } },
        { name: "function in entry", stmts: []ptx.Statement { ptx.NewFunction("f", ptx.L_visible) } },
        { name: "anonymous label", stmts: []ptx.Statement { label("") } },
        { name: "missing instruction", stmts: []ptx.Statement { { Directive: ptx.D_instr } } },
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            _, err := New(tt.stmts, tt.function)
            requireStructural(t, err, utils.K_malformedDirective)
        })
    }
}

func TestBuilder_Declarations(t *testing.T) {
    k, err := New([]ptx.Statement {
        ptx.NewFunction("f", ptx.L_extern),
        ptx.NewStartParam(true),
        ptx.NewParam("ret", ptx.T_u32),
        ptx.NewEndParam(),
        ptx.NewStartParam(false),
        ptx.NewParam("a", ptx.T_u64),
        ptx.NewParam("b", ptx.T_f32),
        ptx.NewEndParam(),
        ptx.NewParam("tmp", ptx.T_u32),
        ptx.NewLocal("stack", ptx.T_b8, 16),
        ptx.NewShared("tile", ptx.T_f32, 256),
        op(ptx.OP_ret),
    }, true)
    require.NoError(t, err)
    require.Equal(t, "f", k.Name)
    require.Len(t, k.Arguments, 3)
    require.True(t, k.Arguments[0].IsReturnArgument)
    require.False(t, k.Arguments[1].IsReturnArgument)
    require.Contains(t, k.Parameters, "tmp")
    require.Equal(t, ptx.S_local, k.Locals["stack"].Space)
    require.Equal(t, ptx.S_shared, k.Locals["tile"].Space)
    require.Equal(t, ".extern .func (.param .u32 ret) f (.param .u64 a, .param .f32 b)", k.Prototype.String())
    require.Equal(t, "f(.param .u64 a,.param .f32 b)", k.Prototype.MangledName())
}

func TestBuilder_InputIsNotRetained(t *testing.T) {
    stmts := conditional()
    k, err := New(stmts, false)
    require.NoError(t, err)
    require.Equal(t, "%r3", stmts[2].Instruction.Operand(ptx.R_dest).Identifier)
    require.Equal(t, "", k.CFG().Block(3).Instructions[0].Operand(ptx.R_dest).Identifier)
}
