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
    `github.com/florianjacob/gpuocelot/internal/utils`
)

// Dominators computes the dominator tree of the kernel, rooted at the entry
// block.
func (self *Kernel) Dominators() (cfg.DominatorTree, error) {
    if self.cfg == nil {
        return cfg.DominatorTree{}, utils.EPrecondition(self.Name, "compute dominators", "the kernel has been released")
    } else {
        return self.cfg.Dominators(), nil
    }
}

// PostDominators computes the post-dominator tree of the kernel, rooted at
// the exit block.
func (self *Kernel) PostDominators() (cfg.DominatorTree, error) {
    if self.cfg == nil {
        return cfg.DominatorTree{}, utils.EPrecondition(self.Name, "compute post-dominators", "the kernel has been released")
    } else {
        return self.cfg.PostDominators(), nil
    }
}

// ReconvergencePoints maps every block ending with a conditional branch to
// its immediate post-dominator, the block where threads that diverged at the
// branch meet again. Branches that never reach the exit have no entry.
func (self *Kernel) ReconvergencePoints() (map[*cfg.BasicBlock]*cfg.BasicBlock, error) {
    pdt, err := self.PostDominators()
    if err != nil {
        return nil, err
    }

    /* find the conditional branches */
    ret := make(map[*cfg.BasicBlock]*cfg.BasicBlock)
    for _, bb := range self.cfg.Blocks() {
        if self.cfg.IsSentinel(bb) || len(bb.Instructions) == 0 {
            continue
        }

        /* only predicated branches diverge */
        if ins := bb.Instructions[len(bb.Instructions) - 1]; !ins.IsBranch() || !ins.IsConditional() || ins.IsNever() {
            continue
        }

        /* the exit post-dominates every block that reaches it */
        if ip := pdt.Idom(bb); ip != nil {
            ret[bb] = ip
        }
    }

    /* all done */
    return ret, nil
}
