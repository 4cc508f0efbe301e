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
    `github.com/florianjacob/gpuocelot/internal/utils`
    `github.com/florianjacob/gpuocelot/ptx`
)

// _Edge is the edge that will be inserted once the current block is known to
// be complete. Type E_invalid means there is no such edge.
type _Edge struct {
    head *cfg.BasicBlock
    tail *cfg.BasicBlock
    kind cfg.EdgeType
}

type _Builder struct {
    k      *Kernel
    g      *cfg.ControlFlowGraph
    bb     *cfg.BasicBlock
    edge   _Edge
    named  bool
    params bool
    retarg bool
    refs   map[string]*cfg.BasicBlock
    jumps  []*cfg.BasicBlock
    log    *zap.Logger
}

func (self *Kernel) buildCFG(stmts []ptx.Statement) (*cfg.ControlFlowGraph, error) {
    b := &_Builder {
        k    : self,
        g    : cfg.New(),
        refs : make(map[string]*cfg.BasicBlock),
        log  : logging.L(),
    }

    /* build the graph, releasing it on failure */
    if err := b.build(stmts); err != nil {
        b.g.Release()
        b.log.Warn("cannot build control-flow graph", zap.String("kernel", self.Name), zap.Error(err))
        return nil, err
    }

    /* all done */
    return b.g, nil
}

func (self *_Builder) build(stmts []ptx.Statement) error {
    self.bb = self.g.InsertBlock("")
    self.edge = _Edge { head: self.g.Entry(), tail: self.bb, kind: cfg.E_fallthrough }

    /* scan every statement */
    for i := range stmts {
        if err := self.statement(&stmts[i]); err != nil {
            return err
        }
    }

    /* parameter brackets must be closed */
    if self.params {
        return utils.EMalformed(self.k.Name, "parameter list is never closed")
    }

    /* close the last block, then resolve the branches */
    self.finish()
    return self.resolve()
}

func (self *_Builder) statement(st *ptx.Statement) error {
    switch st.Directive {
        case ptx.D_label      : return self.label(st.Name)
        case ptx.D_instr      : return self.instr(st.Instruction)
        case ptx.D_param      : self.param(st)
        case ptx.D_local      : self.k.Locals[st.Name] = ptx.LocalOf(st)
        case ptx.D_shared     : self.k.Locals[st.Name] = ptx.LocalOf(st)
        case ptx.D_entry      : return self.entry(st)
        case ptx.D_funcname   : return self.function(st)
        case ptx.D_startparam : return self.startParam(st)
        case ptx.D_endparam   : return self.endParam()
        default               : return utils.EMalformed(self.k.Name, "unknown directive %s", st.Directive)
    }
    return nil
}

// commit inserts the pending edge, if any.
func (self *_Builder) commit() {
    if self.edge.kind != cfg.E_invalid {
        self.g.InsertEdge(self.edge.head, self.edge.tail, self.edge.kind)
    }
}

// open starts a new block after the current one. The pending edge becomes a
// fall-through edge into the new block if `ft` is set, otherwise there is none.
func (self *_Builder) open(ft bool) {
    bb := self.g.InsertBlock("")
    self.edge = _Edge { head: self.bb, tail: bb, kind: cfg.E_invalid }

    /* fall-through into the new block */
    if ft {
        self.edge.kind = cfg.E_fallthrough
    }

    /* switch to the new block */
    self.bb = bb
    self.log.Debug("new block", zap.String("kernel", self.k.Name), zap.Int("id", bb.Id))
}

func (self *_Builder) label(name string) error {
    if name == "" {
        return utils.EMalformed(self.k.Name, "label without a name")
    }

    /* a label terminates a non-empty block */
    if !self.bb.Empty() {
        self.commit()
        self.open(true)
    }

    /* labels must be unique */
    if _, ok := self.refs[name]; ok {
        return utils.EDuplicateLabel(self.k.Name, name)
    }

    /* consecutive labels name the same block, the last one wins */
    self.bb.Label = name
    self.refs[name] = self.bb
    self.log.Debug("label", zap.String("kernel", self.k.Name), zap.String("label", name), zap.Int("id", self.bb.Id))
    return nil
}

func (self *_Builder) instr(ins *ptx.Instruction) error {
    if ins == nil {
        return utils.EMalformed(self.k.Name, "instruction statement without an instruction")
    }

    /* the kernel owns a private copy */
    p := ins.Clone()
    self.bb.Append(p)

    /* select by the terminator kind */
    switch {
        case p.IsBranch() : self.branch(p)
        case p.IsExit()   : self.exit(cfg.E_fallthrough)
        case p.IsReturn() : self.exit(cfg.E_branch)
    }

    /* all done */
    return nil
}

func (self *_Builder) branch(p *ptx.Instruction) {
    self.commit()
    self.jumps = append(self.jumps, self.bb)
    self.open(p.IsConditional())
}

func (self *_Builder) exit(kind cfg.EdgeType) {
    self.commit()
    self.g.InsertEdge(self.bb, self.g.Exit(), kind)
    self.open(false)
}

func (self *_Builder) param(st *ptx.Statement) {
    p := ptx.ParameterOf(st)

    /* parameters outside of the brackets belong to the body */
    if !self.params {
        self.k.Parameters[p.Name] = p
        return
    }

    /* the bracket decides the kind of argument */
    p.IsReturnArgument = self.retarg
    self.k.Arguments = append(self.k.Arguments, p)

    /* also record in the prototype */
    if p.IsReturnArgument {
        self.k.Prototype.ReturnArguments = append(self.k.Prototype.ReturnArguments, p)
    } else {
        self.k.Prototype.Arguments = append(self.k.Prototype.Arguments, p)
    }
}

func (self *_Builder) entry(st *ptx.Statement) error {
    if self.k.Function {
        return utils.EMalformed(st.Name, "entry directive in a function")
    } else {
        return self.name(st)
    }
}

func (self *_Builder) function(st *ptx.Statement) error {
    if !self.k.Function {
        return utils.EMalformed(st.Name, "function directive in an entry kernel")
    } else {
        self.k.Prototype.Linkage = st.Linkage
        return self.name(st)
    }
}

func (self *_Builder) name(st *ptx.Statement) error {
    if self.named {
        return utils.EMalformed(self.k.Name, "kernel is named more than once (%q)", st.Name)
    }

    /* set the kernel name */
    self.named = true
    self.k.Name = st.Name
    self.k.Prototype.Identifier = st.Name
    return nil
}

func (self *_Builder) startParam(st *ptx.Statement) error {
    if self.params {
        return utils.EMalformed(self.k.Name, "nested parameter list")
    }

    /* open the bracket */
    self.params = true
    self.retarg = st.IsReturnArgument
    return nil
}

func (self *_Builder) endParam() error {
    if !self.params {
        return utils.EMalformed(self.k.Name, "parameter list closed without being opened")
    }

    /* close the bracket */
    self.params = false
    self.retarg = false
    return nil
}

// finish closes the block under construction once the input is exhausted.
func (self *_Builder) finish() {
    bb := self.bb
    exit := self.g.Exit()

    /* non-empty or labeled blocks are kept and fall through to the exit block */
    if !bb.Empty() || bb.Label != "" {
        self.commit()
        self.g.InsertEdge(bb, exit, cfg.E_fallthrough)
        return
    }

    /* an empty, unlabeled block is dropped, its incoming edge goes to the exit block */
    self.g.RemoveBlock(bb)
    self.log.Debug("drop empty block", zap.String("kernel", self.k.Name), zap.Int("id", bb.Id))

    /* redirect the pending edge */
    if self.edge.kind != cfg.E_invalid {
        self.g.InsertEdge(self.edge.head, exit, self.edge.kind)
    }
}

// resolve inserts a branch edge for every branch, now that every label is known.
func (self *_Builder) resolve() error {
    for _, bb := range self.jumps {
        p := bb.Instructions[len(bb.Instructions) - 1]

        /* branches that are never taken have no edge */
        if p.IsNever() {
            continue
        }

        /* find the target */
        to, ok := self.refs[p.Target()]
        if !ok {
            return utils.EUndefinedLabel(self.k.Name, p.Target())
        }

        /* the target may have been renamed by a later label */
        p.SetTarget(to.Label)
        self.g.InsertEdge(bb, to, cfg.E_branch)
        self.log.Debug("branch", zap.String("kernel", self.k.Name), zap.String("from", bb.String()), zap.String("to", to.Label))
    }
    return nil
}
