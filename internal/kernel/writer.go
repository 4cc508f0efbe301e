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
    `io`
    `strconv`
    `strings`

    `golang.org/x/exp/maps`
    `golang.org/x/exp/slices`

    `github.com/florianjacob/gpuocelot/internal/cfg`
    `github.com/florianjacob/gpuocelot/internal/utils`
    `github.com/florianjacob/gpuocelot/ptx`
)

func declType(vt ptx.DataType) string {
    if vt == ptx.T_none {
        return ptx.T_b32.String()
    } else {
        return vt.String()
    }
}

func (self *Kernel) writeHeader(sb *strings.Builder) {
    var args []string
    var rets []string

    /* split the arguments by kind */
    for _, p := range self.Arguments {
        if p.IsReturnArgument {
            rets = append(rets, p.String())
        } else {
            args = append(args, p.String())
        }
    }

    /* version banner */
    sb.WriteString("/*\n* Ocelot Version : ")
    sb.WriteString(self.Version)
    sb.WriteString("\n*/\n")

    /* call type and name */
    if !self.Function {
        sb.WriteString(".entry ")
        sb.WriteString(self.Name)
    } else {
        sb.WriteString(self.Prototype.Linkage.String())
        sb.WriteString(" .func ")

        /* return arguments */
        if len(rets) != 0 {
            sb.WriteByte('(')
            sb.WriteString(strings.Join(rets, ",\n\t\t"))
            sb.WriteString(") ")
        }

        /* function name */
        sb.WriteString(self.Name)
    }

    /* arguments */
    if len(args) != 0 {
        sb.WriteByte('(')
        sb.WriteString(strings.Join(args, ",\n\t\t"))
        sb.WriteString(")\n")
    }

    /* body starts here */
    sb.WriteString("{\n")
}

func (self *Kernel) writeDecls(sb *strings.Builder) {
    locals := maps.Keys(self.Locals)
    params := maps.Keys(self.Parameters)

    /* locals and shared memory */
    slices.Sort(locals)
    for _, name := range locals {
        sb.WriteByte('\t')
        sb.WriteString(self.Locals[name].String())
        sb.WriteByte('\n')
    }

    /* separator */
    sb.WriteByte('\n')
    slices.Sort(params)

    /* parameters */
    for _, name := range params {
        sb.WriteByte('\t')
        sb.WriteString(self.Parameters[name].String())
        sb.WriteString(";\n")
    }

    /* registers */
    for _, r := range referencedRegisters(self.cfg) {
        id := strconv.FormatUint(uint64(r.Id), 10)
        if r.Type == ptx.T_pred {
            sb.WriteString("\t.reg .pred %p" + id + ";\n")
        } else {
            sb.WriteString("\t.reg ." + declType(r.Type) + " %r" + id + ";\n")
        }
    }
}

func paramTypes(v *ptx.Operand) string {
    buf := make([]string, 0, len(v.Array))
    for _, p := range v.Array {
        buf = append(buf, ".param ." + declType(p.Type) + " _")
    }
    return strings.Join(buf, ", ")
}

func (self *Kernel) writePrototypes(sb *strings.Builder, blocks []*cfg.BasicBlock) {
    calls := make(map[string]*ptx.Instruction)

    /* first call site of every prototype */
    for _, bb := range blocks {
        for _, ins := range bb.Instructions {
            if ins.IsIndirectCall() {
                if name := ins.Operand(ptx.R_srcC).Identifier; calls[name] == nil {
                    calls[name] = ins
                }
            }
        }
    }

    /* nothing to declare */
    if len(calls) == 0 {
        return
    }

    /* sort by prototype name */
    names := maps.Keys(calls)
    slices.Sort(names)
    sb.WriteString("\t\n")

    /* declare every prototype */
    for _, name := range names {
        ins := calls[name]
        sb.WriteString("\t" + name + ": .callprototype (")
        sb.WriteString(paramTypes(ins.Operand(ptx.R_dest)))
        sb.WriteString(") _ (")
        sb.WriteString(paramTypes(ins.Operand(ptx.R_srcB)))
        sb.WriteString(");\n")
    }

    /* end of prototypes */
    sb.WriteString("\t\n")
}

func (self *Kernel) writeBlocks(sb *strings.Builder, blocks []*cfg.BasicBlock) {
    for i, bb := range blocks {
        label := bb.Label

        /* blocks with no code and no name are omitted */
        if !self.cfg.IsSentinel(bb) && (!bb.Empty() || label != "") {
            if label == "" {
                label = "$__Block_" + strconv.Itoa(i + 1)
            }

            /* label line, with the comment */
            sb.WriteString("\t" + label + ":")
            if bb.Comment != "" {
                sb.WriteString("\t\t\t\t/* " + bb.Comment + " */ ")
            }

            /* end of label line */
            sb.WriteByte('\n')
        }

        /* the instructions */
        for _, ins := range bb.Instructions {
            sb.WriteString("\t\t")
            sb.WriteString(ins.String())
            sb.WriteString(";\n")
        }
    }
}

// Write emits the kernel as PTX text, which can be read back with
// ptx.Parse and built again into an equivalent kernel.
func (self *Kernel) Write(w io.Writer) error {
    var sb strings.Builder

    /* must have a graph */
    if self.cfg == nil {
        return utils.EPrecondition(self.Name, "write", "the kernel has been released")
    }

    /* emit everything */
    blocks := self.cfg.ExecutableSequence()
    self.writeHeader(&sb)
    self.writeDecls(&sb)
    self.writePrototypes(&sb, blocks)
    self.writeBlocks(&sb, blocks)

    /* end of body */
    sb.WriteString("}\n")
    _, err := io.WriteString(w, sb.String())
    return err
}

// String renders the kernel the same way Write does, or the reason it cannot
// be written.
func (self *Kernel) String() string {
    var sb strings.Builder
    if err := self.Write(&sb); err != nil {
        return "<error: " + err.Error() + ">"
    } else {
        return sb.String()
    }
}
