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

package utils

import (
    `fmt`
)

type ErrorKind uint8

const (
    K_duplicateLabel ErrorKind = iota
    K_undefinedLabel
    K_malformedDirective
)

func (self ErrorKind) String() string {
    switch self {
        case K_duplicateLabel     : return "duplicate label"
        case K_undefinedLabel     : return "undefined label"
        case K_malformedDirective : return "malformed directive"
        default                   : return fmt.Sprintf("ErrorKind(%d)", self)
    }
}

// StructuralError occures when the statement stream of a kernel cannot form a
// valid control-flow graph. It aborts the affected kernel only.
type StructuralError struct {
    Kernel string
    Label  string
    Kind   ErrorKind
    Reason string
}

func (self StructuralError) Error() string {
    if self.Label != "" {
        return fmt.Sprintf("StructuralError(%s) at label %q: %s: %s", self.Kernel, self.Label, self.Kind, self.Reason)
    } else {
        return fmt.Sprintf("StructuralError(%s): %s: %s", self.Kernel, self.Kind, self.Reason)
    }
}

// PreconditionError occures when an operation is requested on a kernel that
// lacks the analysis it depends on.
type PreconditionError struct {
    Kernel    string
    Operation string
    Reason    string
}

func (self PreconditionError) Error() string {
    return fmt.Sprintf("PreconditionError(%s): cannot %s: %s", self.Kernel, self.Operation, self.Reason)
}

func EDuplicateLabel(kernel string, label string) StructuralError {
    return StructuralError {
        Kernel : kernel,
        Label  : label,
        Kind   : K_duplicateLabel,
        Reason : "label is defined more than once",
    }
}

func EUndefinedLabel(kernel string, label string) StructuralError {
    return StructuralError {
        Kernel : kernel,
        Label  : label,
        Kind   : K_undefinedLabel,
        Reason : "branch target is never defined",
    }
}

func EMalformed(kernel string, format string, args ...interface{}) StructuralError {
    return StructuralError {
        Kernel : kernel,
        Kind   : K_malformedDirective,
        Reason : fmt.Sprintf(format, args...),
    }
}

func EPrecondition(kernel string, op string, reason string) PreconditionError {
    return PreconditionError {
        Kernel    : kernel,
        Operation : op,
        Reason    : reason,
    }
}
