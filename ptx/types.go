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

type DataType uint8

const (
    T_none DataType = iota
    T_s8
    T_s16
    T_s32
    T_s64
    T_u8
    T_u16
    T_u32
    T_u64
    T_b8
    T_b16
    T_b32
    T_b64
    T_f16
    T_f32
    T_f64
    T_pred
)

var _TypeNames = [...]string {
    T_none : "",
    T_s8   : "s8",
    T_s16  : "s16",
    T_s32  : "s32",
    T_s64  : "s64",
    T_u8   : "u8",
    T_u16  : "u16",
    T_u32  : "u32",
    T_u64  : "u64",
    T_b8   : "b8",
    T_b16  : "b16",
    T_b32  : "b32",
    T_b64  : "b64",
    T_f16  : "f16",
    T_f32  : "f32",
    T_f64  : "f64",
    T_pred : "pred",
}

var _TypeTab = func() map[string]DataType {
    ret := make(map[string]DataType, len(_TypeNames))
    for i, v := range _TypeNames {
        if v != "" {
            ret[v] = DataType(i)
        }
    }
    return ret
}()

// ParseType looks up a type by its PTX spelling, without the leading dot.
func ParseType(name string) (DataType, bool) {
    t, ok := _TypeTab[name]
    return t, ok
}

func (self DataType) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("DataType(%d)", self)
    }
}

func (self DataType) IsFloat() bool {
    return self == T_f16 || self == T_f32 || self == T_f64
}

type AddressMode uint8

const (
    AM_invalid AddressMode = iota
    AM_register
    AM_indirect
    AM_immediate
    AM_address
    AM_label
    AM_special
    AM_bitbucket
    AM_funcname
    AM_arglist
)

var _AddressModeNames = [...]string {
    AM_invalid   : "invalid",
    AM_register  : "register",
    AM_indirect  : "indirect",
    AM_immediate : "immediate",
    AM_address   : "address",
    AM_label     : "label",
    AM_special   : "special",
    AM_bitbucket : "bitbucket",
    AM_funcname  : "funcname",
    AM_arglist   : "arglist",
}

func (self AddressMode) String() string {
    if int(self) < len(_AddressModeNames) {
        return _AddressModeNames[self]
    } else {
        return fmt.Sprintf("AddressMode(%d)", self)
    }
}

// PredicateCondition describes how a predicate operand guards an instruction.
// The zero value is the always-true sentinel, so a zero guard is unconditional.
type PredicateCondition uint8

const (
    PC_pt PredicateCondition = iota     // always true
    PC_npt                              // always false
    PC_pred                             // guarded by the register
    PC_invpred                          // guarded by the negated register
)

type Vec uint8

const (
    V_1 Vec = iota
    V_2
    V_4
)

func (self Vec) Width() int {
    switch self {
        case V_2 : return 2
        case V_4 : return 4
        default  : return 1
    }
}

// VecOf returns the vector kind for n elements.
func VecOf(n int) Vec {
    switch {
        case n <= 1 : return V_1
        case n == 2 : return V_2
        default     : return V_4
    }
}

type Directive uint8

const (
    D_instr Directive = iota
    D_label
    D_param
    D_local
    D_shared
    D_entry
    D_funcname
    D_startparam
    D_endparam
)

var _DirectiveNames = [...]string {
    D_instr      : "Instr",
    D_label      : "Label",
    D_param      : "Param",
    D_local      : "Local",
    D_shared     : "Shared",
    D_entry      : "Entry",
    D_funcname   : "FunctionName",
    D_startparam : "StartParam",
    D_endparam   : "EndParam",
}

func (self Directive) String() string {
    if int(self) < len(_DirectiveNames) {
        return _DirectiveNames[self]
    } else {
        return fmt.Sprintf("Directive(%d)", self)
    }
}

type Linkage uint8

const (
    L_visible Linkage = iota
    L_extern
)

func (self Linkage) String() string {
    switch self {
        case L_visible : return ".visible"
        case L_extern  : return ".extern"
        default        : return "invalid"
    }
}
