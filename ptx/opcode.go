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
    `fmt`
)

type Opcode uint8

const (
    OP_nop Opcode = iota
    OP_abs
    OP_add
    OP_addc
    OP_and
    OP_atom
    OP_bar
    OP_bfe
    OP_bfi
    OP_bra
    OP_brev
    OP_call
    OP_clz
    OP_cnot
    OP_cos
    OP_cvt
    OP_cvta
    OP_div
    OP_ex2
    OP_exit
    OP_fma
    OP_ld
    OP_ldu
    OP_lg2
    OP_mad
    OP_max
    OP_membar
    OP_min
    OP_mov
    OP_mul
    OP_neg
    OP_not
    OP_or
    OP_popc
    OP_rcp
    OP_red
    OP_rem
    OP_ret
    OP_rsqrt
    OP_sad
    OP_selp
    OP_set
    OP_setp
    OP_shl
    OP_shr
    OP_sin
    OP_slct
    OP_sqrt
    OP_st
    OP_sub
    OP_subc
    OP_tex
    OP_trap
    OP_vote
    OP_xor
)

var _OpcodeNames = [...]string {
    OP_nop    : "nop",
    OP_abs    : "abs",
    OP_add    : "add",
    OP_addc   : "addc",
    OP_and    : "and",
    OP_atom   : "atom",
    OP_bar    : "bar",
    OP_bfe    : "bfe",
    OP_bfi    : "bfi",
    OP_bra    : "bra",
    OP_brev   : "brev",
    OP_call   : "call",
    OP_clz    : "clz",
    OP_cnot   : "cnot",
    OP_cos    : "cos",
    OP_cvt    : "cvt",
    OP_cvta   : "cvta",
    OP_div    : "div",
    OP_ex2    : "ex2",
    OP_exit   : "exit",
    OP_fma    : "fma",
    OP_ld     : "ld",
    OP_ldu    : "ldu",
    OP_lg2    : "lg2",
    OP_mad    : "mad",
    OP_max    : "max",
    OP_membar : "membar",
    OP_min    : "min",
    OP_mov    : "mov",
    OP_mul    : "mul",
    OP_neg    : "neg",
    OP_not    : "not",
    OP_or     : "or",
    OP_popc   : "popc",
    OP_rcp    : "rcp",
    OP_red    : "red",
    OP_rem    : "rem",
    OP_ret    : "ret",
    OP_rsqrt  : "rsqrt",
    OP_sad    : "sad",
    OP_selp   : "selp",
    OP_set    : "set",
    OP_setp   : "setp",
    OP_shl    : "shl",
    OP_shr    : "shr",
    OP_sin    : "sin",
    OP_slct   : "slct",
    OP_sqrt   : "sqrt",
    OP_st     : "st",
    OP_sub    : "sub",
    OP_subc   : "subc",
    OP_tex    : "tex",
    OP_trap   : "trap",
    OP_vote   : "vote",
    OP_xor    : "xor",
}

var _OpcodeTab = func() map[string]Opcode {
    ret := make(map[string]Opcode, len(_OpcodeNames))
    for i, v := range _OpcodeNames {
        ret[v] = Opcode(i)
    }
    return ret
}()

// ParseOpcode looks up an opcode by its mnemonic.
func ParseOpcode(name string) (Opcode, bool) {
    op, ok := _OpcodeTab[name]
    return op, ok
}

func (self Opcode) String() string {
    if int(self) < len(_OpcodeNames) {
        return _OpcodeNames[self]
    } else {
        panic(fmt.Sprintf("invalid Opcode: 0x%02x", uint8(self)))
    }
}
