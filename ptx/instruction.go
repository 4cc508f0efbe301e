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
)

// Role names an operand slot of an instruction.
type Role uint8

const (
    R_srcA Role = iota
    R_srcB
    R_srcC
    R_dest
    R_guard
    R_pq
    NumRoles
)

// Roles lists every operand slot in table order.
var Roles = [NumRoles]Role {
    R_srcA,
    R_srcB,
    R_srcC,
    R_dest,
    R_guard,
    R_pq,
}

var _RoleNames = [...]string {
    R_srcA  : "a",
    R_srcB  : "b",
    R_srcC  : "c",
    R_dest  : "d",
    R_guard : "pg",
    R_pq    : "pq",
}

func (self Role) String() string {
    if self < NumRoles {
        return _RoleNames[self]
    } else {
        return "invalid"
    }
}

type Instruction struct {
    Opcode    Opcode
    Type      DataType
    Modifiers []string
    Uni       bool
    Operands  [NumRoles]Operand
}

// NewInstruction creates an unguarded instruction with no operands.
func NewInstruction(op Opcode, vt DataType) *Instruction {
    return &Instruction {
        Type   : vt,
        Opcode : op,
    }
}

// Operand returns the operand in slot `role`.
func (self *Instruction) Operand(role Role) *Operand {
    return &self.Operands[role]
}

// Set stores `v` into slot `role` and returns the instruction for chaining.
func (self *Instruction) Set(role Role, v Operand) *Instruction {
    self.Operands[role] = v
    return self
}

// Modifier appends modifiers, which are printed in order between the opcode
// and the type.
func (self *Instruction) Modifier(mods ...string) *Instruction {
    self.Modifiers = append(self.Modifiers, mods...)
    return self
}

func (self *Instruction) Guard() *Operand {
    return &self.Operands[R_guard]
}

// IsConditional reports whether the guard is anything other than always-true.
func (self *Instruction) IsConditional() bool {
    return self.Operands[R_guard].Condition != PC_pt
}

// IsNever reports whether the instruction is guarded by the always-false
// predicate, and thus never executes.
func (self *Instruction) IsNever() bool {
    return self.Operands[R_guard].Condition == PC_npt
}

func (self *Instruction) IsBranch() bool {
    return self.Opcode == OP_bra
}

func (self *Instruction) IsExit() bool {
    return self.Opcode == OP_exit
}

func (self *Instruction) IsReturn() bool {
    return self.Opcode == OP_ret
}

func (self *Instruction) IsCall() bool {
    return self.Opcode == OP_call
}

// IsIndirectCall reports whether the call target is held in a register. The
// prototype label of such calls lives in SourceC.
func (self *Instruction) IsIndirectCall() bool {
    return self.Opcode == OP_call && self.Operands[R_srcA].AddressMode == AM_register
}

// Target returns the branch target label.
func (self *Instruction) Target() string {
    return self.Operands[R_dest].Identifier
}

// SetTarget rewrites the branch target label.
func (self *Instruction) SetTarget(label string) {
    self.Operands[R_dest].Identifier = label
}

func (self *Instruction) Clone() *Instruction {
    ret := *self
    ret.Modifiers = append([]string(nil), self.Modifiers...)

    /* deep copy every operand */
    for i := range ret.Operands {
        ret.Operands[i] = self.Operands[i].Clone()
    }

    /* all done */
    return &ret
}

func (self *Instruction) formatGuard() string {
    pg := &self.Operands[R_guard]

    /* select by condition */
    switch pg.Condition {
        case PC_npt     : return "@!pt "
        case PC_pred    : return "@" + pg.RegisterName() + " "
        case PC_invpred : return "@!" + pg.RegisterName() + " "
        default         : return ""
    }
}

func (self *Instruction) formatOperands() string {
    var ops []string
    var dst string

    /* destination, optionally paired with the predicate result */
    if dst = self.Operands[R_dest].String(); dst != "" {
        if pq := self.Operands[R_pq].String(); pq != "" {
            dst += "|" + pq
        }
        ops = append(ops, dst)
    }

    /* source operands */
    for _, r := range []Role { R_srcA, R_srcB, R_srcC } {
        if v := &self.Operands[r]; v.IsValid() {
            ops = append(ops, v.String())
        }
    }

    /* all done */
    return strings.Join(ops, ", ")
}

// String formats the instruction in PTX syntax, without the trailing semicolon.
func (self *Instruction) String() string {
    var sb strings.Builder
    sb.WriteString(self.formatGuard())
    sb.WriteString(self.Opcode.String())

    /* modifiers */
    for _, m := range self.Modifiers {
        sb.WriteByte('.')
        sb.WriteString(m)
    }

    /* uniform branches */
    if self.Uni {
        sb.WriteString(".uni")
    }

    /* instruction type */
    if self.Type != T_none {
        sb.WriteByte('.')
        sb.WriteString(self.Type.String())
    }

    /* operands, if any */
    if ops := self.formatOperands(); ops != "" {
        sb.WriteByte(' ')
        sb.WriteString(ops)
    }

    /* all done */
    return sb.String()
}
