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

type _Layout struct {
    g   *ControlFlowGraph
    buf []*BasicBlock
    vis map[int]struct{}
}

func (self *_Layout) visited(bb *BasicBlock) bool {
    _, ok := self.vis[bb.Id]
    return ok
}

func (self *_Layout) fallThroughFrom(bb *BasicBlock) *BasicBlock {
    for _, e := range self.g.InEdges(bb) {
        if p := self.g.blocks[e.Head]; e.Type == E_fallthrough && !self.g.IsSentinel(p) && !self.visited(p) {
            return p
        }
    }
    return nil
}

func (self *_Layout) chainHead(bb *BasicBlock) *BasicBlock {
    seen := map[int]struct{} { bb.Id: {} }

    /* walk backwards along the fall-through edges */
    for {
        p := self.fallThroughFrom(bb)
        if p == nil {
            return bb
        }

        /* stop on cycles */
        if _, ok := seen[p.Id]; ok {
            return bb
        }

        /* move to the predecessor */
        bb = p
        seen[p.Id] = struct{}{}
    }
}

func (self *_Layout) chain(bb *BasicBlock) {
    for bb != nil && !self.visited(bb) {
        self.vis[bb.Id] = struct{}{}
        self.buf = append(self.buf, bb)
        bb = self.g.FallThrough(bb)
    }
}

// ExecutableSequence linearizes the graph for emission. The entry block comes
// first and the exit block last, every fall-through successor immediately
// follows its predecessor, and the fall-through chains are placed in the
// creation order of their heads.
func (self *ControlFlowGraph) ExecutableSequence() []*BasicBlock {
    entry := self.Entry()
    exit := self.Exit()

    /* initialize the layout */
    ly := &_Layout {
        g   : self,
        buf : []*BasicBlock { entry },
        vis : map[int]struct{} { entry.Id: {}, exit.Id: {} },
    }

    /* the chain that the entry block falls through into */
    if ft := self.FallThrough(entry); ft != nil {
        ly.chain(ft)
    }

    /* then every remaining chain */
    for _, bb := range self.Blocks() {
        if !ly.visited(bb) {
            ly.chain(ly.chainHead(bb))
        }
    }

    /* exit block comes last */
    return append(ly.buf, exit)
}
