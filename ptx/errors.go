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

package ptx

import (
    `fmt`
)

// SyntaxError occures when the reader cannot make sense of a line of PTX text.
type SyntaxError struct {
    Line   int
    Text   string
    Reason string
}

func (self SyntaxError) Error() string {
    return fmt.Sprintf("Syntax error at line %d: %s", self.Line, self.Reason)
}

func esyntax(line int, text string, reason string) SyntaxError {
    return SyntaxError {
        Line   : line,
        Text   : text,
        Reason : reason,
    }
}

func esyntaxf(line int, text string, format string, args ...interface{}) SyntaxError {
    return esyntax(line, text, fmt.Sprintf(format, args...))
}
