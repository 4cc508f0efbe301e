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

package cfg

import (
    `fmt`

    `github.com/florianjacob/gpuocelot/ptx`
)

type EdgeType uint8

const (
    E_fallthrough EdgeType = iota
    E_branch
    E_invalid
)

func (self EdgeType) String() string {
    switch self {
        case E_fallthrough : return "FallThrough"
        case E_branch      : return "Branch"
        case E_invalid     : return "Invalid"
        default            : return fmt.Sprintf("EdgeType(%d)", self)
    }
}

// Edge connects the Head block to the Tail block.
type Edge struct {
    Id   int
    Head int
    Tail int
    Type EdgeType
}

func (self *Edge) String() string {
    return fmt.Sprintf("%s(%d -> %d)", self.Type, self.Head, self.Tail)
}

type BasicBlock struct {
    Id           int
    Label        string
    Comment      string
    Instructions []*ptx.Instruction
    In           []int
    Out          []int
}

func (self *BasicBlock) Len() int {
    return len(self.Instructions)
}

func (self *BasicBlock) Empty() bool {
    return len(self.Instructions) == 0
}

func (self *BasicBlock) Append(ins *ptx.Instruction) {
    self.Instructions = append(self.Instructions, ins)
}

func (self *BasicBlock) String() string {
    if self.Label != "" {
        return self.Label
    } else {
        return fmt.Sprintf("BB_%d", self.Id)
    }
}

// ControlFlowGraph is an arena of basic blocks and edges, both addressed by
// integer ids. Ids are handed out by the graph and never reused, and the
// entry and exit sentinels always exist.
type ControlFlowGraph struct {
    entry  int
    exit   int
    nb     int
    ne     int
    blocks []*BasicBlock
    edges  []*Edge
}

func New() *ControlFlowGraph {
    ret := new(ControlFlowGraph)
    ret.entry = ret.InsertBlock("").Id
    ret.exit = ret.InsertBlock("").Id
    return ret
}

func (self *ControlFlowGraph) Entry() *BasicBlock {
    return self.blocks[self.entry]
}

func (self *ControlFlowGraph) Exit() *BasicBlock {
    return self.blocks[self.exit]
}

// IsSentinel reports whether `bb` is the entry or the exit block.
func (self *ControlFlowGraph) IsSentinel(bb *BasicBlock) bool {
    return bb.Id == self.entry || bb.Id == self.exit
}

// NewId reserves a new block id.
func (self *ControlFlowGraph) NewId() int {
    self.blocks = append(self.blocks, nil)
    return len(self.blocks) - 1
}

func (self *ControlFlowGraph) InsertBlock(label string) *BasicBlock {
    id := self.NewId()
    bb := &BasicBlock { Id: id, Label: label }

    /* add to the arena */
    self.nb++
    self.blocks[id] = bb
    return bb
}

// RemoveBlock removes a block that has no edges. Removing a sentinel or a
// connected block is a programming error.
func (self *ControlFlowGraph) RemoveBlock(bb *BasicBlock) {
    if self.IsSentinel(bb) {
        panic("cfg: cannot remove sentinel block")
    } else if len(bb.In) != 0 || len(bb.Out) != 0 {
        panic(fmt.Sprintf("cfg: cannot remove connected block %s", bb))
    } else if self.Block(bb.Id) != bb {
        panic(fmt.Sprintf("cfg: block %s does not belong to this graph", bb))
    } else {
        self.nb--
        self.blocks[bb.Id] = nil
    }
}

func (self *ControlFlowGraph) InsertEdge(head *BasicBlock, tail *BasicBlock, et EdgeType) *Edge {
    if et == E_invalid {
        panic("cfg: cannot insert an invalid edge")
    }

    /* create a new edge */
    e := &Edge {
        Id   : len(self.edges),
        Head : head.Id,
        Tail : tail.Id,
        Type : et,
    }

    /* link to both blocks */
    self.ne++
    self.edges = append(self.edges, e)
    head.Out = append(head.Out, e.Id)
    tail.In = append(tail.In, e.Id)
    return e
}

func (self *ControlFlowGraph) RemoveEdge(e *Edge) {
    self.ne--
    self.edges[e.Id] = nil
    self.blocks[e.Head].Out = removeId(self.blocks[e.Head].Out, e.Id)
    self.blocks[e.Tail].In = removeId(self.blocks[e.Tail].In, e.Id)
}

func removeId(ids []int, id int) []int {
    for i, v := range ids {
        if v == id {
            return append(ids[:i:i], ids[i + 1:]...)
        }
    }
    return ids
}

// Block returns the block with the given id, or nil if it does not exist.
func (self *ControlFlowGraph) Block(id int) *BasicBlock {
    if id < 0 || id >= len(self.blocks) {
        return nil
    } else {
        return self.blocks[id]
    }
}

func (self *ControlFlowGraph) Edge(id int) *Edge {
    if id < 0 || id >= len(self.edges) {
        return nil
    } else {
        return self.edges[id]
    }
}

func (self *ControlFlowGraph) NumBlocks() int {
    return self.nb
}

func (self *ControlFlowGraph) NumEdges() int {
    return self.ne
}

// Blocks returns every block in creation order, sentinels included.
func (self *ControlFlowGraph) Blocks() []*BasicBlock {
    ret := make([]*BasicBlock, 0, self.nb)
    for _, bb := range self.blocks {
        if bb != nil {
            ret = append(ret, bb)
        }
    }
    return ret
}

// Edges returns every edge in insertion order.
func (self *ControlFlowGraph) Edges() []*Edge {
    ret := make([]*Edge, 0, self.ne)
    for _, e := range self.edges {
        if e != nil {
            ret = append(ret, e)
        }
    }
    return ret
}

func (self *ControlFlowGraph) OutEdges(bb *BasicBlock) []*Edge {
    ret := make([]*Edge, 0, len(bb.Out))
    for _, id := range bb.Out {
        ret = append(ret, self.edges[id])
    }
    return ret
}

func (self *ControlFlowGraph) InEdges(bb *BasicBlock) []*Edge {
    ret := make([]*Edge, 0, len(bb.In))
    for _, id := range bb.In {
        ret = append(ret, self.edges[id])
    }
    return ret
}

func (self *ControlFlowGraph) Successors(bb *BasicBlock) []*BasicBlock {
    ret := make([]*BasicBlock, 0, len(bb.Out))
    for _, id := range bb.Out {
        ret = append(ret, self.blocks[self.edges[id].Tail])
    }
    return ret
}

func (self *ControlFlowGraph) Predecessors(bb *BasicBlock) []*BasicBlock {
    ret := make([]*BasicBlock, 0, len(bb.In))
    for _, id := range bb.In {
        ret = append(ret, self.blocks[self.edges[id].Head])
    }
    return ret
}

// FallThroughEdge returns the outgoing fall-through edge of `bb`, if any.
func (self *ControlFlowGraph) FallThroughEdge(bb *BasicBlock) *Edge {
    for _, id := range bb.Out {
        if e := self.edges[id]; e.Type == E_fallthrough {
            return e
        }
    }
    return nil
}

// FallThrough returns the block `bb` falls through to, if any.
func (self *ControlFlowGraph) FallThrough(bb *BasicBlock) *BasicBlock {
    if e := self.FallThroughEdge(bb); e == nil {
        return nil
    } else {
        return self.blocks[e.Tail]
    }
}

// FindLabel returns the block carrying `label`, or nil.
func (self *ControlFlowGraph) FindLabel(label string) *BasicBlock {
    if label == "" {
        return nil
    }

    /* linear search, labels are not indexed */
    for _, bb := range self.blocks {
        if bb != nil && bb.Label == label {
            return bb
        }
    }

    /* not found */
    return nil
}

// Clone creates a deep copy of the graph, instructions included. Block and
// edge ids are preserved.
func (self *ControlFlowGraph) Clone() *ControlFlowGraph {
    ret := &ControlFlowGraph {
        nb     : self.nb,
        ne     : self.ne,
        entry  : self.entry,
        exit   : self.exit,
        blocks : make([]*BasicBlock, len(self.blocks)),
        edges  : make([]*Edge, len(self.edges)),
    }

    /* copy the blocks */
    for i, bb := range self.blocks {
        if bb != nil {
            ret.blocks[i] = cloneBlock(bb)
        }
    }

    /* copy the edges */
    for i, e := range self.edges {
        if e != nil {
            ev := *e
            ret.edges[i] = &ev
        }
    }

    /* all done */
    return ret
}

func cloneBlock(bb *BasicBlock) *BasicBlock {
    ret := &BasicBlock {
        Id           : bb.Id,
        Label        : bb.Label,
        Comment      : bb.Comment,
        In           : append([]int(nil), bb.In...),
        Out          : append([]int(nil), bb.Out...),
        Instructions : make([]*ptx.Instruction, len(bb.Instructions)),
    }

    /* deep copy the instructions */
    for i, ins := range bb.Instructions {
        ret.Instructions[i] = ins.Clone()
    }

    /* all done */
    return ret
}

// Release drops every block, edge and instruction owned by the graph. The
// graph must not be used afterwards.
func (self *ControlFlowGraph) Release() {
    for _, bb := range self.blocks {
        if bb != nil {
            bb.In = nil
            bb.Out = nil
            bb.Instructions = nil
        }
    }

    /* reset the arena */
    self.nb = 0
    self.ne = 0
    self.edges = nil
    self.blocks = nil
}
