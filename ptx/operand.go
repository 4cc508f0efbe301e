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
    `math`
    `strconv`
    `strings`
)

// BitBucket is the identifier of the discard operand.
const BitBucket = "_"

type RegisterId uint32

type Operand struct {
    Identifier  string
    AddressMode AddressMode
    Type        DataType
    Condition   PredicateCondition
    Vec         Vec
    Array       []Operand
    Reg         RegisterId
    Imm         int64
    Fimm        float64
    Offset      int64
}

// Reg creates a scalar register operand referenced by name.
func Reg(name string, vt DataType) Operand {
    return Operand {
        Identifier  : name,
        AddressMode : AM_register,
        Type        : vt,
    }
}

// Imm creates an integer immediate operand.
func Imm(v int64, vt DataType) Operand {
    return Operand {
        Imm         : v,
        Type        : vt,
        AddressMode : AM_immediate,
    }
}

// Label creates a label operand, used as branch targets.
func Label(name string) Operand {
    return Operand {
        Identifier  : name,
        AddressMode : AM_label,
    }
}

// Guard creates a predicate guard on the named register, negated if `neg` is set.
func Guard(name string, neg bool) Operand {
    ret := Reg(name, T_pred)
    ret.Condition = PC_pred

    /* negated predicates */
    if neg {
        ret.Condition = PC_invpred
    }

    /* all done */
    return ret
}

// Never creates the always-false guard.
func Never() Operand {
    return Operand {
        Type      : T_pred,
        Condition : PC_npt,
    }
}

// Vector creates a vector register operand from the named elements.
func Vector(vt DataType, names ...string) Operand {
    ret := Operand {
        Type        : vt,
        Vec         : VecOf(len(names)),
        AddressMode : AM_register,
    }

    /* add every element */
    for _, v := range names {
        ret.Array = append(ret.Array, Reg(v, vt))
    }

    /* all done */
    return ret
}

// Arguments creates an argument list, as used by the call instruction.
func Arguments(args ...Operand) Operand {
    return Operand {
        Array       : args,
        AddressMode : AM_arglist,
    }
}

func (self *Operand) IsValid() bool {
    return self.AddressMode != AM_invalid
}

// IsBitBucket reports whether the operand is the discard operand, which never
// receives a register.
func (self *Operand) IsBitBucket() bool {
    return self.AddressMode == AM_bitbucket || self.Identifier == BitBucket
}

// IsVector reports whether the operand is a register vector whose elements
// are addressed individually.
func (self *Operand) IsVector() bool {
    return self.Vec != V_1 || (self.AddressMode == AM_register && len(self.Array) != 0)
}

// RegisterName returns the symbolic name of a register operand, or a name
// derived from the register id once the identifier has been cleared.
func (self *Operand) RegisterName() string {
    if self.Identifier != "" {
        return self.Identifier
    } else if self.Type == T_pred {
        return "%p" + strconv.FormatUint(uint64(self.Reg), 10)
    } else {
        return "%r" + strconv.FormatUint(uint64(self.Reg), 10)
    }
}

func (self Operand) Clone() Operand {
    if self.Array != nil {
        arr := make([]Operand, len(self.Array))
        for i, v := range self.Array { arr[i] = v.Clone() }
        self.Array = arr
    }
    return self
}

func (self *Operand) formatOffset() string {
    if self.Offset > 0 {
        return "+" + strconv.FormatInt(self.Offset, 10)
    } else if self.Offset < 0 {
        return strconv.FormatInt(self.Offset, 10)
    } else {
        return ""
    }
}

func (self *Operand) formatImm() string {
    switch self.Type {
        case T_f32 : return fmt.Sprintf("0f%08X", math.Float32bits(float32(self.Fimm)))
        case T_f64 : return fmt.Sprintf("0d%016X", math.Float64bits(self.Fimm))
        case T_u64 : return strconv.FormatUint(uint64(self.Imm), 10)
        default    : return strconv.FormatInt(self.Imm, 10)
    }
}

func (self *Operand) formatArray(open string, close string) string {
    buf := make([]string, 0, len(self.Array))
    for i := range self.Array { buf = append(buf, self.Array[i].String()) }
    return open + strings.Join(buf, ", ") + close
}

func (self Operand) String() string {
    switch self.AddressMode {
        case AM_invalid   : return ""
        case AM_indirect  : return "[" + self.RegisterName() + self.formatOffset() + "]"
        case AM_immediate : return self.formatImm()
        case AM_address   : return "[" + self.Identifier + self.formatOffset() + "]"
        case AM_label     : return self.Identifier
        case AM_special   : return self.Identifier
        case AM_bitbucket : return BitBucket
        case AM_funcname  : return self.Identifier
        case AM_arglist   : return self.formatArray("(", ")")
    }

    /* register, possibly a vector */
    if self.IsVector() {
        return self.formatArray("{", "}")
    } else {
        return self.RegisterName()
    }
}
