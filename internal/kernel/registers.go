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
    `github.com/florianjacob/gpuocelot/ptx`
)

// Register is a register that needs a declaration.
type Register struct {
    Id   ptx.RegisterId
    Type ptx.DataType
}

type _Collector struct {
    regs        []Register
    added       map[ptx.RegisterId]struct{}
    encountered map[ptx.RegisterId]struct{}
    predicates  map[ptx.RegisterId]struct{}
}

func (self *_Collector) add(v *ptx.Operand) {
    if _, ok := self.added[v.Reg]; !ok {
        self.added[v.Reg] = struct{}{}
        self.regs = append(self.regs, Register { Id: v.Reg, Type: v.Type })
    }
}

func (self *_Collector) scalar(v *ptx.Operand, seen map[ptx.RegisterId]struct{}) {
    if _, ok := seen[v.Reg]; !ok {
        seen[v.Reg] = struct{}{}
        self.add(v)
    }
}

func (self *_Collector) elements(v *ptx.Operand) {
    for i := range v.Array {
        if p := &v.Array[i]; p.AddressMode == ptx.AM_register && !p.IsBitBucket() {
            self.add(p)
        }
    }
}

func (self *_Collector) operand(v *ptx.Operand) {
    switch {
        case v.AddressMode == ptx.AM_arglist  : self.elements(v)
        case v.AddressMode != ptx.AM_register : break
        case v.IsBitBucket()                  : break
        case len(v.Array) != 0                : self.elements(v)
        case v.Type == ptx.T_pred             : self.scalar(v, self.predicates)
        default                               : self.scalar(v, self.encountered)
    }
}

// ReferencedRegisters returns every register written or read as the first
// source, in the order they are first met. Each id is listed once, stores are
// not considered.
func (self *Kernel) ReferencedRegisters() ([]Register, error) {
    if self.cfg == nil {
        return nil, utils.EPrecondition(self.Name, "collect registers", "the kernel has been released")
    } else {
        return referencedRegisters(self.cfg), nil
    }
}

func referencedRegisters(g *cfg.ControlFlowGraph) []Register {
    c := &_Collector {
        added       : make(map[ptx.RegisterId]struct{}),
        encountered : make(map[ptx.RegisterId]struct{}),
        predicates  : make(map[ptx.RegisterId]struct{}),
    }

    /* scan every instruction */
    for _, bb := range g.Blocks() {
        for _, ins := range bb.Instructions {
            roles := [...]ptx.Role { ptx.R_pq, ptx.R_dest, ptx.R_srcA }

            /* stores only read registers */
            if ins.Opcode == ptx.OP_st {
                continue
            }

            /* bfi is scanned on the destination twice */
            if ins.Opcode == ptx.OP_bfi {
                roles[0] = ptx.R_dest
            }

            /* check every operand */
            for _, role := range roles {
                c.operand(ins.Operand(role))
            }
        }
    }

    /* all done */
    return c.regs
}
