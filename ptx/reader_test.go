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

package ptx

import (
    `strings`
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

func directives(stmts []Statement) []Directive {
    ret := make([]Directive, 0, len(stmts))
    for _, v := range stmts {
        ret = append(ret, v.Directive)
    }
    return ret
}

func TestReader_Instructions(t *testing.T) {
    lines := []string {
        "add.s32 %r1, %r2, %r3",
        "@!%p1 bra L2",
        "bra.uni L1",
        "setp.lt.s32 %p1|%p2, %r1, 4",
        "ld.global.u32 %r1, [%r2+8]",
        "st.shared.f32 [buf-4], %f1",
        "mov.f32 %f1, 0f3F800000",
        "mov.u32 %r1, %tid.x",
        "ld.param.v2.u32 {%r1, %r2}, [p]",
        "call (%r1), foo, (%r2, 4)",
        "call foo, (%r2)",
        "call (%r1), %r5, (%r2), proto",
        "@!pt exit",
        "@%p1 ret",
        "atom.global.add.u32 _, [%r1], 1",
        "selp.u32 %r1, %r2, %r3, %p1",
        "mov.s32 %r1, -5",
        "mov.u64 %rd1, 18446744073709551615",
        "mov.b64 %rd1, -1",
        "ld.local.u64 %rd1, [%rd2]",
        "bar.sync 0",
        "ret",
    }
    for _, line := range lines {
        t.Run(line, func(t *testing.T) {
            stmts, err := ParseString(line + ";")
            require.NoError(t, err)
            require.Len(t, stmts, 1, spew.Sdump(stmts))
            require.Equal(t, D_instr, stmts[0].Directive)
            require.Equal(t, line, stmts[0].Instruction.String())
        })
    }
}

func TestReader_WideImmediate(t *testing.T) {
    stmts, err := ParseString("mov.u64 %rd1, 0xFFFFFFFFFFFFFFFF; mov.b64 %rd2, 9223372036854775808;")
    require.NoError(t, err)
    require.Len(t, stmts, 2)
    for _, st := range stmts {
        src := st.Instruction.Operands[R_srcA]
        require.Equal(t, AM_immediate, src.AddressMode)
        require.Equal(t, st.Instruction.Type, src.Type)
    }
    require.Equal(t, int64(-1), stmts[0].Instruction.Operands[R_srcA].Imm)
    require.Equal(t, "mov.u64 %rd1, 18446744073709551615", stmts[0].Instruction.String())
    require.Equal(t, uint64(1) << 63, uint64(stmts[1].Instruction.Operands[R_srcA].Imm))
}

func TestReader_OperandRoles(t *testing.T) {
    stmts, err := ParseString("setp.ge.u32 %p1, %r1, 16; call foo, (%r2); selp.u32 %r1, %r2, %r3, %p1;")
    require.NoError(t, err)
    require.Len(t, stmts, 3)
    setp := stmts[0].Instruction
    assert.Equal(t, T_pred, setp.Operands[R_dest].Type)
    assert.Equal(t, T_u32, setp.Operands[R_srcA].Type)
    assert.Equal(t, AM_immediate, setp.Operands[R_srcB].AddressMode)
    call := stmts[1].Instruction
    assert.Equal(t, AM_invalid, call.Operands[R_dest].AddressMode)
    assert.Equal(t, AM_funcname, call.Operands[R_srcA].AddressMode)
    assert.Equal(t, AM_arglist, call.Operands[R_srcB].AddressMode)
    assert.False(t, call.IsIndirectCall())
    selp := stmts[2].Instruction
    assert.Equal(t, T_pred, selp.Operands[R_srcC].Type)
}

func TestReader_Kernel(t *testing.T) {
    src := strings.Join([]string {
        ".version 2.3",
        ".target sm_20",
        "/*",
        "* Ocelot Version : test",
        "*/",
        ".entry vecAdd(.param .u64 a,",
        "\t\t.param .u64 b)",
        "{",
        "\t.shared .align 4 .f32 cache[256];",
        "",
        "\t.param .u32 n;",
        "\t.reg .pred %p1;",
        "\t.reg .u32 %r1;",
        "\t\tmov.u32 %r1, %tid.x;",
        "\t\tsetp.ge.u32 %p1, %r1, 16;    // bounds",
        "\t\t@%p1 bra $L_done;",
        "\t\tadd.u32 %r1, %r1, 1;",
        "\t$L_done:\t\t\t\t/* done */ ",
        "\t\texit;",
        "}",
    }, "\n")
    stmts, err := ParseString(src)
    require.NoError(t, err)
    require.Equal(t, []Directive {
        D_entry,
        D_startparam,
        D_param,
        D_param,
        D_endparam,
        D_shared,
        D_param,
        D_instr,
        D_instr,
        D_instr,
        D_instr,
        D_label,
        D_instr,
    }, directives(stmts), spew.Sdump(stmts))
    require.Equal(t, "vecAdd", stmts[0].Name)
    require.False(t, stmts[1].IsReturnArgument)
    require.Equal(t, "b", stmts[3].Name)
    require.Equal(t, T_u64, stmts[3].Type)
    require.Equal(t, 4, stmts[5].Alignment)
    require.Equal(t, 256, stmts[5].ArrayCount)
    require.Equal(t, "n", stmts[6].Name)
    require.Equal(t, "$L_done", stmts[11].Name)
    require.Equal(t, "$L_done", stmts[9].Instruction.Target())
    require.True(t, stmts[9].Instruction.IsConditional())
}

func TestReader_Function(t *testing.T) {
    src := ".visible .func (.param .u32 res) callee(.param .u32 x)\n{\n\tret;\n}\n.extern .func ext\n{\n}\n"
    stmts, err := ParseString(src)
    require.NoError(t, err)
    require.Equal(t, []Directive {
        D_funcname,
        D_startparam,
        D_param,
        D_endparam,
        D_startparam,
        D_param,
        D_endparam,
        D_instr,
        D_funcname,
    }, directives(stmts), spew.Sdump(stmts))
    require.Equal(t, "callee", stmts[0].Name)
    require.Equal(t, L_visible, stmts[0].Linkage)
    require.True(t, stmts[1].IsReturnArgument)
    require.True(t, stmts[2].IsReturnArgument)
    require.False(t, stmts[5].IsReturnArgument)
    require.Equal(t, "ext", stmts[8].Name)
    require.Equal(t, L_extern, stmts[8].Linkage)
}

func TestReader_SkipsPrototypesAndRecoversTypes(t *testing.T) {
    src := "{\n\t.reg .u64 %r1;\n\t\n\tproto: .callprototype (.param .u64 _) _ (.param .u32 _);\n\t\n\tcall (%r1), %r3, (%r2), proto;\n\tL9:\n}"
    stmts, err := ParseString(src)
    require.NoError(t, err)
    require.Equal(t, []Directive { D_instr, D_label }, directives(stmts), spew.Sdump(stmts))
    call := stmts[0].Instruction
    require.True(t, call.IsIndirectCall())
    require.Equal(t, T_u64, call.Operands[R_dest].Array[0].Type)
    require.Equal(t, T_none, call.Operands[R_srcB].Array[0].Type)
    require.Equal(t, "proto", call.Operands[R_srcC].Identifier)
    require.Equal(t, "L9", stmts[1].Name)
}

func TestReader_BareBody(t *testing.T) {
    stmts, err := ParseString("L1:\n\tadd.s32 %r1, %r1, 1;\n\tbra.uni L1;\n")
    require.NoError(t, err)
    require.Equal(t, []Directive { D_label, D_instr, D_instr }, directives(stmts))
    require.True(t, stmts[2].Instruction.Uni)
}

func TestReader_Errors(t *testing.T) {
    tests := []struct {
        name string
        src  string
        line int
    }{
        { name: "unknown opcode"    , src: ".entry k\n{\n\tfoo.u32 %r1;\n}"                , line: 3 },
        { name: "missing semicolon" , src: ".entry k\n{\n\tmov.u32 %r1, 1;\n\tret\n}"      , line: 4 },
        { name: "unterminated body" , src: ".entry k\n{\n\tret;\n"                          , line: 4 },
        { name: "bad declaration"   , src: ".entry k\n{\n\t.local .q32 x;\n}"              , line: 3 },
        { name: "bad header"        , src: ".entry (.param .u32 a)\n{\n}"                   , line: 1 },
        { name: "too many operands" , src: "add.s32 %r1, %r2, %r3, %r4, %r5;"               , line: 1 },
        { name: "stray brace"       , src: "ret;\n}"                                        , line: 2 },
        { name: "integer overflow"  , src: "ret;\nmov.u64 %rd1, 99999999999999999999;"        , line: 2 },
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            _, err := ParseString(tt.src)
            var se SyntaxError
            require.Error(t, err)
            require.ErrorAs(t, err, &se)
            require.Equal(t, tt.line, se.Line, err.Error())
        })
    }
}
