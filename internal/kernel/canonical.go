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
    `fmt`
    `strings`

    `go.uber.org/zap`

    `github.com/florianjacob/gpuocelot/internal/logging`
    `github.com/florianjacob/gpuocelot/internal/utils`
)

const (
    _CanonicalPrefix = "$BB_"
)

// CanonicalLabel is the label given to block `id` of kernel `kernelID`.
func CanonicalLabel(kernelID int, id int) string {
    return fmt.Sprintf("%s%d_%04d", _CanonicalPrefix, kernelID, id)
}

// CanonicalBlockLabels renames every interior block after `kernelID` and its
// block id, so that kernels of one module never share a label. The previous
// label is kept as the block comment, and branch targets follow the renaming.
// Applying it again, with the same or another id, keeps the first comment.
func (self *Kernel) CanonicalBlockLabels(kernelID int) error {
    g := self.cfg
    labels := make(map[string]string)

    /* must have a graph */
    if g == nil {
        return utils.EPrecondition(self.Name, "canonicalize labels", "the kernel has been released")
    }

    /* rename the blocks */
    for _, bb := range g.Blocks() {
        if g.IsSentinel(bb) {
            continue
        }

        /* remember the old name */
        old := bb.Label
        bb.Label = CanonicalLabel(kernelID, bb.Id)

        /* anonymous blocks are never targeted */
        if old == "" {
            continue
        }

        /* keep the human readable name only */
        labels[old] = bb.Label
        if bb.Comment == "" && !strings.HasPrefix(old, _CanonicalPrefix) {
            bb.Comment = old
        }
    }

    /* rewrite the branch targets */
    for _, bb := range g.Blocks() {
        for _, ins := range bb.Instructions {
            if ins.IsBranch() {
                if to, ok := labels[ins.Target()]; ok {
                    ins.SetTarget(to)
                }
            }
        }
    }

    /* all done */
    logging.L().Debug("canonical labels", zap.String("kernel", self.Name), zap.Int("id", kernelID), zap.Int("renamed", len(labels)))
    return nil
}
