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
    `github.com/oleiade/lane`
)

// Reachable returns the blocks reachable from the entry block, in
// breadth-first order.
func (self *ControlFlowGraph) Reachable() []*BasicBlock {
    q := lane.NewQueue()
    r := make([]*BasicBlock, 0, self.nb)
    m := map[int]struct{} { self.entry: {} }

    /* breadth-first traversal */
    for q.Enqueue(self.Entry()); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        r = append(r, p)

        /* add the unvisited successors */
        for _, v := range self.Successors(p) {
            if _, ok := m[v.Id]; !ok {
                m[v.Id] = struct{}{}
                q.Enqueue(v)
            }
        }
    }

    /* all done */
    return r
}

// Unreachable returns the interior blocks the entry block cannot reach, in
// creation order.
func (self *ControlFlowGraph) Unreachable() []*BasicBlock {
    var r []*BasicBlock
    m := make(map[int]struct{}, self.nb)

    /* mark the reachable blocks */
    for _, bb := range self.Reachable() {
        m[bb.Id] = struct{}{}
    }

    /* collect everything else */
    for _, bb := range self.Blocks() {
        if _, ok := m[bb.Id]; !ok && !self.IsSentinel(bb) {
            r = append(r, bb)
        }
    }

    /* all done */
    return r
}

// ReachesExit reports whether the exit block is reachable from `bb`.
func (self *ControlFlowGraph) ReachesExit(bb *BasicBlock) bool {
    q := lane.NewQueue()
    m := map[int]struct{} { bb.Id: {} }

    /* breadth-first search for the exit block */
    for q.Enqueue(bb); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)

        /* found the exit block */
        if p.Id == self.exit {
            return true
        }

        /* add the unvisited successors */
        for _, v := range self.Successors(p) {
            if _, ok := m[v.Id]; !ok {
                m[v.Id] = struct{}{}
                q.Enqueue(v)
            }
        }
    }

    /* exit is not reachable */
    return false
}
