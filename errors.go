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

package ocelot

import (
    `github.com/florianjacob/gpuocelot/internal/utils`
    `github.com/florianjacob/gpuocelot/ptx`
)

type (
    // StructuralError occures when the statements of a kernel cannot form a
    // valid control-flow graph.
    StructuralError = utils.StructuralError

    // PreconditionError occures when an analysis is requested before the one
    // it depends on.
    PreconditionError = utils.PreconditionError

    // SyntaxError occures when failed to read PTX text.
    SyntaxError = ptx.SyntaxError

    // ErrorKind classifies a StructuralError.
    ErrorKind = utils.ErrorKind
)

const (
    DuplicateLabel     = utils.K_duplicateLabel
    UndefinedLabel     = utils.K_undefinedLabel
    MalformedDirective = utils.K_malformedDirective
)
