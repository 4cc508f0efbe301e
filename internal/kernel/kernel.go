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
    `github.com/florianjacob/gpuocelot/internal/opts`
    `github.com/florianjacob/gpuocelot/ptx`
)

// Kernel is a PTX kernel or function in control-flow graph form. It owns its
// graph, and through it every block and instruction.
type Kernel struct {
    Name       string
    Function   bool
    Version    string
    Prototype  Prototype
    Arguments  []ptx.Parameter
    Parameters map[string]ptx.Parameter
    Locals     map[string]ptx.Local
    cfg        *cfg.ControlFlowGraph
    regs       RegisterMap
    dfg        DataflowGraph
    dva        DivergenceAnalysis
}

func newKernel(name string, function bool) *Kernel {
    ret := &Kernel {
        Name       : name,
        Function   : function,
        Version    : opts.Version,
        Parameters : make(map[string]ptx.Parameter),
        Locals     : make(map[string]ptx.Local),
    }

    /* initial prototype */
    ret.Prototype.Identifier = name
    ret.Prototype.CallType = C_entry

    /* function prototypes */
    if function {
        ret.Prototype.CallType = C_func
    }

    /* all done */
    return ret
}

// New builds a kernel from the statements of its body, then replaces every
// register name with a dense id. Statements are not retained, instructions
// are copied into the graph.
func New(stmts []ptx.Statement, function bool) (*Kernel, error) {
    var err error
    ret := newKernel("", function)

    /* build the control-flow graph */
    if ret.cfg, err = ret.buildCFG(stmts); err != nil {
        FailureCount.Inc()
        return nil, err
    }

    /* allocate the registers */
    ret.regs = assignRegisters(ret.cfg)
    ret.updateStats()
    return ret, nil
}

// NewEmpty creates a kernel whose graph holds only the sentinel blocks.
func NewEmpty(name string, function bool) *Kernel {
    ret := newKernel(name, function)
    ret.cfg = cfg.New()
    ret.regs = newRegisterMap()
    return ret
}

func (self *Kernel) updateStats() {
    KernelCount.Inc()
    BlockCount.Add(int64(self.cfg.NumBlocks() - 2))
    EdgeCount.Add(int64(self.cfg.NumEdges()))
    RegisterCount.Add(int64(self.regs.Len()))
}

// CFG returns the control-flow graph, or nil once the kernel is released.
func (self *Kernel) CFG() *cfg.ControlFlowGraph {
    return self.cfg
}

// Registers returns the name to id mapping built when the kernel was created.
func (self *Kernel) Registers() RegisterMap {
    return self.regs
}

// Rebuild replaces the graph with one built from `stmts`. The previous graph
// is released and the cached analyses are dropped. On error the kernel is
// left untouched.
func (self *Kernel) Rebuild(stmts []ptx.Statement) error {
    nk, err := New(stmts, self.Function)
    if err != nil {
        return err
    }

    /* keep the configured version */
    nk.Version = self.Version
    self.Release()

    /* replace everything */
    *self = *nk
    return nil
}

// Release drops the graph and every cached analysis.
func (self *Kernel) Release() {
    if self.cfg != nil {
        self.cfg.Release()
        self.cfg = nil
    }
    self.InvalidateAnalyses()
}

// Clone creates a deep copy of the kernel. Cached analyses are not copied.
func (self *Kernel) Clone() *Kernel {
    ret := newKernel(self.Name, self.Function)
    ret.Version = self.Version
    ret.Prototype = self.Prototype.clone()
    ret.Arguments = append([]ptx.Parameter(nil), self.Arguments...)
    ret.regs = self.regs.clone()

    /* copy the declarations */
    for k, v := range self.Parameters { ret.Parameters[k] = v }
    for k, v := range self.Locals     { ret.Locals[k] = v }

    /* copy the graph */
    if self.cfg != nil {
        ret.cfg = self.cfg.Clone()
    }

    /* all done */
    return ret
}
