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
    `go.uber.org/zap`

    `github.com/florianjacob/gpuocelot/internal/cfg`
    `github.com/florianjacob/gpuocelot/internal/logging`
    `github.com/florianjacob/gpuocelot/ptx`
)

// RegisterMap records the id given to every register name, in first-use order.
type RegisterMap struct {
    Names []string
    Ids   map[string]ptx.RegisterId
}

func newRegisterMap() RegisterMap {
    return RegisterMap {
        Ids: make(map[string]ptx.RegisterId),
    }
}

func (self RegisterMap) Len() int {
    return len(self.Names)
}

// Lookup returns the id of the register `name`.
func (self RegisterMap) Lookup(name string) (ptx.RegisterId, bool) {
    id, ok := self.Ids[name]
    return id, ok
}

func (self *RegisterMap) add(name string) {
    if _, ok := self.Ids[name]; !ok {
        self.Ids[name] = ptx.RegisterId(len(self.Names))
        self.Names = append(self.Names, name)
    }
}

func (self RegisterMap) clone() RegisterMap {
    ret := newRegisterMap()
    for _, v := range self.Names { ret.add(v) }
    return ret
}

// forEachRegister calls `fn` with every operand that names a register, in
// block creation order, instruction order, then operand role order. Vector
// and argument list elements are visited individually, bit buckets are not.
func forEachRegister(g *cfg.ControlFlowGraph, fn func(v *ptx.Operand)) {
    for _, bb := range g.Blocks() {
        for _, ins := range bb.Instructions {
            for _, role := range ptx.Roles {
                v := ins.Operand(role)

                /* the always-true and always-false guards carry no register */
                if role == ptx.R_guard && (v.Condition == ptx.PC_pt || v.Condition == ptx.PC_npt) {
                    continue
                }

                /* visit the operand */
                visitRegister(v, fn)
            }
        }
    }
}

func visitRegister(v *ptx.Operand, fn func(v *ptx.Operand)) {
    switch v.AddressMode {
        case ptx.AM_arglist  : visitElements(v, fn)
        case ptx.AM_register : visitScalar(v, fn)
        case ptx.AM_indirect : visitScalar(v, fn)
    }
}

func visitScalar(v *ptx.Operand, fn func(v *ptx.Operand)) {
    if len(v.Array) != 0 {
        visitElements(v, fn)
    } else if !v.IsBitBucket() {
        fn(v)
    }
}

func visitElements(v *ptx.Operand, fn func(v *ptx.Operand)) {
    for i := range v.Array {
        visitRegister(&v.Array[i], fn)
    }
}

// assignRegisters replaces every register name in `g` with a dense id. Ids
// are handed out in first-use order, so the result only depends on the graph.
func assignRegisters(g *cfg.ControlFlowGraph) RegisterMap {
    ret := newRegisterMap()

    /* phase 1: collect the names */
    forEachRegister(g, func(v *ptx.Operand) {
        ret.add(v.RegisterName())
    })

    /* phase 2: rewrite the operands */
    forEachRegister(g, func(v *ptx.Operand) {
        v.Reg = ret.Ids[v.RegisterName()]
        v.Identifier = ""
    })

    /* all done */
    logging.L().Debug("registers assigned", zap.Int("count", ret.Len()))
    return ret
}
