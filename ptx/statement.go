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
    `strconv`
    `strings`
)

// Statement is one element of the linear kernel stream.
type Statement struct {
    Directive        Directive
    Name             string
    Type             DataType
    Alignment        int
    ArrayCount       int
    IsReturnArgument bool
    Linkage          Linkage
    Instruction      *Instruction
}

func NewLabel(name string) Statement {
    return Statement { Directive: D_label, Name: name }
}

func NewInstr(ins *Instruction) Statement {
    return Statement { Directive: D_instr, Instruction: ins }
}

func NewParam(name string, vt DataType) Statement {
    return Statement { Directive: D_param, Name: name, Type: vt }
}

func NewLocal(name string, vt DataType, count int) Statement {
    return Statement { Directive: D_local, Name: name, Type: vt, ArrayCount: count }
}

func NewShared(name string, vt DataType, count int) Statement {
    return Statement { Directive: D_shared, Name: name, Type: vt, ArrayCount: count }
}

func NewEntry(name string) Statement {
    return Statement { Directive: D_entry, Name: name }
}

func NewFunction(name string, linkage Linkage) Statement {
    return Statement { Directive: D_funcname, Name: name, Linkage: linkage }
}

// NewStartParam opens a parameter bracket. Parameters inside a bracket opened
// with `ret` set are return arguments.
func NewStartParam(ret bool) Statement {
    return Statement { Directive: D_startparam, IsReturnArgument: ret }
}

func NewEndParam() Statement {
    return Statement { Directive: D_endparam }
}

// Parameter is a named, typed kernel or function parameter.
type Parameter struct {
    Name             string
    Type             DataType
    Alignment        int
    ArrayCount       int
    IsReturnArgument bool
}

// ParameterOf creates a parameter from a Param statement.
func ParameterOf(s *Statement) Parameter {
    return Parameter {
        Name             : s.Name,
        Type             : s.Type,
        Alignment        : s.Alignment,
        ArrayCount       : s.ArrayCount,
        IsReturnArgument : s.IsReturnArgument,
    }
}

func (self Parameter) String() string {
    return ".param " + declare(self.Type, self.Alignment, self.Name, self.ArrayCount)
}

type Space uint8

const (
    S_local Space = iota
    S_shared
)

// Local is a `.local` or `.shared` variable declared inside a kernel body.
type Local struct {
    Name       string
    Space      Space
    Type       DataType
    Alignment  int
    ArrayCount int
}

// LocalOf creates a local from a Local or Shared statement.
func LocalOf(s *Statement) Local {
    ret := Local {
        Name       : s.Name,
        Type       : s.Type,
        Alignment  : s.Alignment,
        ArrayCount : s.ArrayCount,
    }

    /* shared memory variables */
    if s.Directive == D_shared {
        ret.Space = S_shared
    }

    /* all done */
    return ret
}

// String formats the declaration, including the trailing semicolon.
func (self Local) String() string {
    if self.Space == S_shared {
        return ".shared " + declare(self.Type, self.Alignment, self.Name, self.ArrayCount) + ";"
    } else {
        return ".local " + declare(self.Type, self.Alignment, self.Name, self.ArrayCount) + ";"
    }
}

func declare(vt DataType, align int, name string, count int) string {
    var sb strings.Builder

    /* alignment, if any */
    if align != 0 {
        sb.WriteString(".align ")
        sb.WriteString(strconv.Itoa(align))
        sb.WriteByte(' ')
    }

    /* type and name */
    sb.WriteByte('.')
    sb.WriteString(vt.String())
    sb.WriteByte(' ')
    sb.WriteString(name)

    /* array declarations */
    if count != 0 {
        sb.WriteByte('[')
        sb.WriteString(strconv.Itoa(count))
        sb.WriteByte(']')
    }

    /* all done */
    return sb.String()
}
