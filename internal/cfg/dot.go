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
    `io`
    `strings`
)

func (self *ControlFlowGraph) dotnode(bb *BasicBlock) string {
    switch bb.Id {
        case self.entry : return fmt.Sprintf(`    BB_%d [ label = "entry", shape = "circle" ]`, bb.Id)
        case self.exit  : return fmt.Sprintf(`    BB_%d [ label = "exit", shape = "doublecircle" ]`, bb.Id)
    }

    /* block label and every instruction */
    buf := []string { bb.String() + `:\l` }
    for _, ins := range bb.Instructions {
        buf = append(buf, `    ` + ins.String() + `\l`)
    }

    /* escape the quotes */
    ret := strings.Join(buf, "")
    ret = strings.ReplaceAll(ret, `"`, `\"`)
    return fmt.Sprintf(`    BB_%d [ label = "%s" ]`, bb.Id, ret)
}

func (self *ControlFlowGraph) dotedge(e *Edge) string {
    if e.Type == E_fallthrough {
        return fmt.Sprintf(`    BB_%d -> BB_%d [ style = "dashed" ]`, e.Head, e.Tail)
    } else {
        return fmt.Sprintf(`    BB_%d -> BB_%d`, e.Head, e.Tail)
    }
}

// Dot renders the graph in Graphviz format. Fall-through edges are dashed and
// branch edges are solid. Blocks are listed in breadth-first order from the
// entry block, followed by the unreachable ones.
func (self *ControlFlowGraph) Dot(w io.Writer, name string) error {
    buf := []string {
        fmt.Sprintf("digraph %q {", name),
        `    graph [ fontname = "monospace" ]`,
        `    node [ fontname = "monospace", shape = "box" ]`,
        `    edge [ fontname = "monospace" ]`,
    }

    /* nodes, in traversal order */
    nodes := append(self.Reachable(), self.Unreachable()...)
    for _, bb := range nodes {
        buf = append(buf, self.dotnode(bb))
    }

    /* then the edges */
    for _, bb := range nodes {
        for _, e := range self.OutEdges(bb) {
            buf = append(buf, self.dotedge(e))
        }
    }

    /* write the graph */
    buf = append(buf, "}\n")
    _, err := io.WriteString(w, strings.Join(buf, "\n"))
    return err
}
