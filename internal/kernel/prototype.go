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
    `strings`

    `github.com/florianjacob/gpuocelot/ptx`
)

type CallType uint8

const (
    C_entry CallType = iota
    C_func
)

func (self CallType) String() string {
    switch self {
        case C_entry : return ".entry"
        case C_func  : return ".func"
        default      : return "invalid"
    }
}

// Prototype is the calling signature of a kernel or a function.
type Prototype struct {
    CallType        CallType
    Linkage         ptx.Linkage
    Identifier      string
    ReturnArguments []ptx.Parameter
    Arguments       []ptx.Parameter
}

func joinParams(params []ptx.Parameter, sep string) string {
    buf := make([]string, 0, len(params))
    for _, p := range params {
        buf = append(buf, p.String())
    }
    return strings.Join(buf, sep)
}

func (self *Prototype) String() string {
    var sb strings.Builder

    /* only functions carry a linkage */
    if self.CallType == C_func {
        sb.WriteString(self.Linkage.String())
        sb.WriteByte(' ')
    }

    /* call type */
    sb.WriteString(self.CallType.String())
    sb.WriteByte(' ')

    /* return arguments, if any */
    if len(self.ReturnArguments) != 0 {
        sb.WriteByte('(')
        sb.WriteString(joinParams(self.ReturnArguments, ", "))
        sb.WriteString(") ")
    }

    /* name and arguments */
    sb.WriteString(self.Identifier)
    sb.WriteString(" (")
    sb.WriteString(joinParams(self.Arguments, ", "))
    sb.WriteByte(')')
    return sb.String()
}

// MangledName identifies a function by its name and argument list.
func (self *Prototype) MangledName() string {
    return self.Identifier + "(" + joinParams(self.Arguments, ",") + ")"
}

func (self *Prototype) clone() Prototype {
    ret := *self
    ret.Arguments = append([]ptx.Parameter(nil), self.Arguments...)
    ret.ReturnArguments = append([]ptx.Parameter(nil), self.ReturnArguments...)
    return ret
}
