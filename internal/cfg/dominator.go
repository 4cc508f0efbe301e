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
    `sort`

    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
)

// Directed exports the block graph as a gonum directed graph, with node ids
// equal to block ids. Self loops are dropped since simple graphs cannot hold
// them, and parallel edges collapse into one.
func (self *ControlFlowGraph) Directed() *simple.DirectedGraph {
    return self.directed(false)
}

func (self *ControlFlowGraph) directed(reverse bool) *simple.DirectedGraph {
    g := simple.NewDirectedGraph()

    /* add all the nodes */
    for _, bb := range self.Blocks() {
        g.AddNode(simple.Node(bb.Id))
    }

    /* add all the edges */
    for _, e := range self.Edges() {
        if e.Head != e.Tail {
            if !reverse {
                g.SetEdge(g.NewEdge(simple.Node(e.Head), simple.Node(e.Tail)))
            } else {
                g.SetEdge(g.NewEdge(simple.Node(e.Tail), simple.Node(e.Head)))
            }
        }
    }

    /* all done */
    return g
}

// DominatorTree maps dominance relations back onto the blocks of a graph.
type DominatorTree struct {
    cfg  *ControlFlowGraph
    root *BasicBlock
    tree flow.DominatorTree
}

// Dominators computes the dominator tree rooted at the entry block.
func (self *ControlFlowGraph) Dominators() DominatorTree {
    return self.dominators(self.Entry(), false)
}

// PostDominators computes the post-dominator tree rooted at the exit block.
func (self *ControlFlowGraph) PostDominators() DominatorTree {
    return self.dominators(self.Exit(), true)
}

func (self *ControlFlowGraph) dominators(root *BasicBlock, reverse bool) DominatorTree {
    g := self.directed(reverse)
    return DominatorTree {
        cfg  : self,
        root : root,
        tree : flow.Dominators(g.Node(int64(root.Id)), g),
    }
}

func (self DominatorTree) Root() *BasicBlock {
    return self.root
}

// Idom returns the immediate dominator of `bb`, or nil for the root and for
// blocks the root cannot reach.
func (self DominatorTree) Idom(bb *BasicBlock) *BasicBlock {
    if n := self.tree.DominatorOf(int64(bb.Id)); n == nil {
        return nil
    } else {
        return self.cfg.Block(int(n.ID()))
    }
}

// Children returns the blocks immediately dominated by `bb`, ordered by id.
func (self DominatorTree) Children(bb *BasicBlock) []*BasicBlock {
    return self.blocks(self.tree.DominatedBy(int64(bb.Id)))
}

// Dominates reports whether `a` dominates `b`. Every block dominates itself.
func (self DominatorTree) Dominates(a *BasicBlock, b *BasicBlock) bool {
    for p := b; p != nil; p = self.Idom(p) {
        if p.Id == a.Id {
            return true
        }
    }
    return false
}

func (self DominatorTree) blocks(nodes []graph.Node) []*BasicBlock {
    ret := make([]*BasicBlock, 0, len(nodes))
    for _, n := range nodes {
        ret = append(ret, self.cfg.Block(int(n.ID())))
    }

    /* sort by block id */
    sort.Slice(ret, func(i int, j int) bool {
        return ret[i].Id < ret[j].Id
    })

    /* all done */
    return ret
}
