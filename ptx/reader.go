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
    `errors`
    `io`
    `math`
    `strconv`
    `strings`
)

var _SpecialRegisters = map[string]bool {
    "%laneid"      : true,
    "%warpid"      : true,
    "%nwarpid"     : true,
    "%smid"        : true,
    "%nsmid"       : true,
    "%gridid"      : true,
    "%clock"       : true,
    "%clock64"     : true,
    "%lanemask_eq" : true,
    "%lanemask_le" : true,
    "%lanemask_lt" : true,
    "%lanemask_ge" : true,
    "%lanemask_gt" : true,
    "%pm0"         : true,
    "%pm1"         : true,
    "%pm2"         : true,
    "%pm3"         : true,
}

// Reader turns PTX text into a statement stream. It understands the dialect
// produced by the kernel writer: kernel headers with parameter lists,
// declarations, labels and instructions. Register declarations are only used
// to recover register types, and call prototypes are skipped.
type Reader struct {
    src  string
    pos  int
    line int
    base int
    out  []Statement
    regs map[string]DataType
}

func NewReader(src string) *Reader {
    return &Reader {
        src  : stripComments(src),
        line : 1,
    }
}

// Parse reads every statement from `rd`.
func Parse(rd io.Reader) ([]Statement, error) {
    if buf, err := io.ReadAll(rd); err != nil {
        return nil, err
    } else {
        return ParseString(string(buf))
    }
}

// ParseString reads every statement from `src`.
func ParseString(src string) ([]Statement, error) {
    return NewReader(src).Read()
}

func (self *Reader) Read() ([]Statement, error) {
    var err error
    self.skipSpace()

    /* parse every top-level element */
    for !self.eof() {
        switch {
            case self.ahead(".version", ".target", ".address_size") : self.skipLine()
            case self.ahead(".entry", ".func", ".visible", ".extern") : err = self.header()
            case self.peek() == '{'                                  : self.advance(1); err = self.body(true)
            default                                                  : err = self.body(false)
        }

        /* check for errors */
        if err != nil {
            return nil, err
        }

        /* move to the next element */
        self.skipSpace()
    }

    /* all done */
    return self.out, nil
}

func (self *Reader) eof() bool {
    return self.pos >= len(self.src)
}

func (self *Reader) peek() byte {
    return self.src[self.pos]
}

func (self *Reader) advance(n int) {
    self.line += strings.Count(self.src[self.pos:self.pos + n], "\n")
    self.pos += n
}

func (self *Reader) skipSpace() {
    for !self.eof() && isSpace(self.peek()) {
        self.advance(1)
    }
}

func (self *Reader) skipLine() {
    if p := strings.IndexByte(self.src[self.pos:], '\n'); p < 0 {
        self.advance(len(self.src) - self.pos)
    } else {
        self.advance(p + 1)
    }
}

func (self *Reader) ahead(dirs ...string) bool {
    for _, d := range dirs {
        if hasDirective(self.src[self.pos:], d) {
            return true
        }
    }
    return false
}

func (self *Reader) readUntil(ch byte) (string, bool) {
    rem := self.src[self.pos:]
    pos := strings.IndexByte(rem, ch)

    /* consume everything if not found */
    if pos < 0 {
        self.advance(len(rem))
        return rem, false
    }

    /* consume up to the delimiter */
    self.advance(pos)
    return rem[:pos], true
}

// readChunk reads up to the next top-level ';' or a closing '}' of the kernel
// body. The ';' is consumed, the '}' is not.
func (self *Reader) readChunk() (string, byte) {
    p := self.pos
    n := 0

    /* find the terminator, skipping vector operands */
    for i := p; i < len(self.src); i++ {
        switch self.src[i] {
            case '{': {
                n++
            }
            case '}': {
                if n == 0 {
                    self.advance(i - p)
                    return self.src[p:i], '}'
                }
                n--
            }
            case ';': {
                if n == 0 {
                    self.advance(i - p + 1)
                    return self.src[p:i], ';'
                }
            }
        }
    }

    /* reached the end of input */
    self.advance(len(self.src) - p)
    return self.src[p:], 0
}

func (self *Reader) header() error {
    line := self.line
    text, ok := self.readUntil('{')

    /* the body must follow */
    if !ok {
        return esyntax(line, text, "missing '{' after kernel header")
    }

    /* parse the header */
    self.advance(1)
    if err := self.parseHeader(line, text); err != nil {
        return err
    }

    /* then the body */
    return self.body(true)
}

func (self *Reader) parseHeader(line int, text string) error {
    var ok bool
    var fn bool
    var args string
    var rets string
    var kind bool

    /* linkage and kernel kind */
    s := strings.TrimSpace(text)
    ln := L_visible

    /* parse the prefix directives */
    for !kind {
        switch {
            case consume(&s, ".visible") : ln = L_visible
            case consume(&s, ".extern")  : ln = L_extern
            case consume(&s, ".entry")   : kind = true
            case consume(&s, ".func")    : kind, fn = true, true
            default                      : return esyntax(line, text, "invalid kernel header")
        }
        s = strings.TrimSpace(s)
    }

    /* return arguments of functions */
    if fn && strings.HasPrefix(s, "(") {
        if rets, s, ok = parenthesized(s); !ok {
            return esyntax(line, text, "unterminated return argument list")
        }
    }

    /* kernel name */
    s = strings.TrimSpace(s)
    name, s := cutIdent(s)

    /* must have a name */
    if name == "" {
        return esyntax(line, text, "missing kernel name")
    }

    /* argument list */
    if s = strings.TrimSpace(s); strings.HasPrefix(s, "(") {
        if args, s, ok = parenthesized(s); !ok {
            return esyntax(line, text, "unterminated argument list")
        }
    }

    /* performance directives are accepted and dropped */
    if s = strings.TrimSpace(s); s != "" && s[0] != '.' {
        return esyntaxf(line, text, "unexpected %q after kernel header", s)
    }

    /* kernel directive */
    if fn {
        self.out = append(self.out, NewFunction(name, ln))
    } else {
        self.out = append(self.out, Statement { Directive: D_entry, Name: name, Linkage: ln })
    }

    /* return arguments first, then the arguments */
    if err := self.paramList(line, rets, true); err != nil {
        return err
    } else {
        return self.paramList(line, args, false)
    }
}

func (self *Reader) paramList(line int, text string, ret bool) error {
    if strings.TrimSpace(text) == "" {
        return nil
    }

    /* open the bracket */
    self.out = append(self.out, NewStartParam(ret))

    /* parse every parameter */
    for _, v := range splitTop(text, ',') {
        if st, err := parseDecl(line, strings.TrimSpace(v)); err != nil {
            return err
        } else if st.Directive != D_param {
            return esyntaxf(line, v, "%s is not allowed in a parameter list", st.Directive)
        } else {
            st.IsReturnArgument = ret
            self.out = append(self.out, st)
        }
    }

    /* close the bracket */
    self.out = append(self.out, NewEndParam())
    return nil
}

func (self *Reader) body(braced bool) error {
    self.base = len(self.out)
    self.regs = make(map[string]DataType)
    self.skipSpace()

    /* read every statement */
    for !self.eof() {
        if self.peek() == '}' {
            if !braced {
                return esyntax(self.line, "}", "unexpected '}'")
            } else {
                self.advance(1)
                self.retype()
                return nil
            }
        }

        /* read the next chunk */
        line := self.line
        text, term := self.readChunk()

        /* parse the statement */
        if err := self.statement(line, text, term); err != nil {
            return err
        }

        /* skip trailing spaces */
        self.skipSpace()
    }

    /* braced bodies must be closed */
    if braced {
        return esyntax(self.line, "", "unterminated kernel body")
    }

    /* all done */
    self.retype()
    return nil
}

func (self *Reader) statement(line int, text string, term byte) error {
    s := strings.TrimSpace(text)

    /* leading labels */
    for {
        name, rest, ok := cutLabel(s)
        if !ok {
            break
        }

        /* prototype declarations are re-derived from the calls */
        if hasDirective(rest, ".callprototype") {
            return nil
        }

        /* add the label */
        s = rest
        self.out = append(self.out, NewLabel(name))
    }

    /* nothing follows the labels */
    if s == "" {
        return nil
    }

    /* statements must be terminated */
    if term != ';' {
        return esyntax(line, text, "missing ';'")
    }

    /* declarations */
    switch {
        case hasDirective(s, ".reg")    : return self.register(line, s)
        case hasDirective(s, ".param")  : break
        case hasDirective(s, ".local")  : break
        case hasDirective(s, ".shared") : break
        case s[0] == '.'                : return esyntaxf(line, s, "unsupported directive %q", strings.Fields(s)[0])
        default                         : return self.instr(line, s)
    }

    /* parse the declaration */
    if st, err := parseDecl(line, s); err != nil {
        return err
    } else {
        self.out = append(self.out, st)
        return nil
    }
}

func (self *Reader) register(line int, text string) error {
    fv := strings.Fields(text[4:])

    /* must have a type and at least one name */
    if len(fv) < 2 || !strings.HasPrefix(fv[0], ".") {
        return esyntax(line, text, "invalid register declaration")
    }

    /* parse the type */
    vt, ok := ParseType(fv[0][1:])
    if !ok {
        return esyntaxf(line, text, "unknown type %q", fv[0])
    }

    /* register ranges like %r<10> carry no names */
    for _, v := range strings.Split(strings.Join(fv[1:], ""), ",") {
        if v = strings.TrimSpace(v); !strings.ContainsRune(v, '<') {
            self.regs[v] = vt
        }
    }

    /* all done */
    return nil
}

func (self *Reader) instr(line int, text string) error {
    if ins, err := parseInstr(line, text); err != nil {
        return err
    } else {
        self.out = append(self.out, NewInstr(ins))
        return nil
    }
}

// retype applies the declared register types to the instructions of the body
// just read.
func (self *Reader) retype() {
    for i := self.base; i < len(self.out); i++ {
        if ins := self.out[i].Instruction; ins != nil {
            for r := range ins.Operands {
                self.retypeOperand(&ins.Operands[r])
            }
        }
    }
}

func (self *Reader) retypeOperand(v *Operand) {
    if v.AddressMode == AM_register && v.Identifier != "" {
        if vt, ok := self.regs[v.Identifier]; ok {
            v.Type = vt
        }
    }

    /* vector and argument elements */
    for i := range v.Array {
        self.retypeOperand(&v.Array[i])
    }
}

func parseInstr(line int, text string) (*Instruction, error) {
    s := text
    ins := new(Instruction)

    /* predicate guard */
    if s[0] == '@' {
        neg := false
        pos := strings.IndexFunc(s, isSpaceRune)

        /* must be followed by the instruction */
        if pos < 0 {
            return nil, esyntax(line, text, "guard without instruction")
        }

        /* negated guards */
        name := s[1:pos]
        s = strings.TrimSpace(s[pos:])

        /* check for negation */
        if strings.HasPrefix(name, "!") {
            neg, name = true, name[1:]
        }

        /* the always-true and always-false guards */
        switch {
            case name == ""         : return nil, esyntax(line, text, "empty guard")
            case name == "pt" && neg : ins.Operands[R_guard] = Never()
            case name == "pt"        : break
            default                  : ins.Operands[R_guard] = Guard(name, neg)
        }
    }

    /* split the mnemonic and the operands */
    mn, ops := s, ""
    if pos := strings.IndexFunc(s, isSpaceRune); pos >= 0 {
        mn, ops = s[:pos], strings.TrimSpace(s[pos:])
    }

    /* opcode */
    fv := strings.Split(mn, ".")
    op, ok := ParseOpcode(fv[0])

    /* check for unknown opcodes */
    if !ok {
        return nil, esyntaxf(line, text, "unknown opcode %q", fv[0])
    }

    /* the type comes last */
    ins.Opcode = op
    mods := fv[1:]

    /* parse the type */
    if n := len(mods); n != 0 {
        if vt, ok := ParseType(mods[n - 1]); ok {
            ins.Type = vt
            mods = mods[:n - 1]
        }
    }

    /* modifiers */
    for _, m := range mods {
        switch m {
            case ""    : return nil, esyntax(line, text, "empty instruction modifier")
            case "uni" : ins.Uni = true
            default    : ins.Modifiers = append(ins.Modifiers, m)
        }
    }

    /* operands */
    if ops != "" {
        if err := parseOperands(line, ins, ops); err != nil {
            return nil, err
        }
    }

    /* all done */
    return ins, nil
}

func parseOperands(line int, ins *Instruction, text string) error {
    items := splitTop(text, ',')
    roles := []Role { R_dest, R_srcA, R_srcB, R_srcC }

    /* calls without return arguments have no destination */
    if ins.IsCall() && !strings.HasPrefix(strings.TrimSpace(items[0]), "(") {
        roles = roles[1:]
    }

    /* check for operand count */
    if len(items) > len(roles) {
        return esyntax(line, text, "too many operands")
    }

    /* parse every operand */
    for i, v := range items {
        var err error
        var pq string
        var ok bool

        /* destinations may be paired with a predicate result */
        rr := roles[i]
        fn := ins.IsCall() && rr == R_srcA

        /* split the predicate result */
        if rr == R_dest {
            if v, pq, ok = cutTop(v, '|'); ok {
                if ins.Operands[R_pq], err = parseOperand(line, pq, operandType(ins, R_pq), false); err != nil {
                    return err
                }
            }
        }

        /* parse the operand */
        if ins.Operands[rr], err = parseOperand(line, v, operandType(ins, rr), fn); err != nil {
            return err
        }
    }

    /* all done */
    return nil
}

func operandType(ins *Instruction, role Role) DataType {
    switch {
        case role == R_pq                                 : return T_pred
        case role == R_dest && ins.Opcode == OP_setp      : return T_pred
        case role == R_srcC && ins.Opcode == OP_selp      : return T_pred
        default                                           : return ins.Type
    }
}

func parseOperand(line int, text string, vt DataType, fn bool) (Operand, error) {
    s := strings.TrimSpace(text)

    /* select by the leading character */
    switch {
        case s == ""                 : return Operand{}, esyntax(line, text, "empty operand")
        case s == BitBucket          : return Operand { AddressMode: AM_bitbucket, Type: vt }, nil
        case s[0] == '{'             : return parseList(line, s, '}', vt, AM_register)
        case s[0] == '('             : return parseList(line, s, ')', vt, AM_arglist)
        case s[0] == '['             : return parseMemory(line, s, vt)
        case s[0] == '%'             : return parseRegister(s, vt), nil
        case isNumber(s[0])          : return parseImmediate(line, s, vt)
        case !isIdent(s)             : return Operand{}, esyntaxf(line, text, "invalid operand %q", s)
        case fn                      : return Operand { Identifier: s, AddressMode: AM_funcname }, nil
        default                      : return Label(s), nil
    }
}

func parseList(line int, s string, close byte, vt DataType, am AddressMode) (Operand, error) {
    var err error
    var arr []Operand

    /* must be closed */
    if s[len(s) - 1] != close {
        return Operand{}, esyntaxf(line, s, "missing '%c'", close)
    }

    /* parse the elements */
    if body := strings.TrimSpace(s[1:len(s) - 1]); body != "" {
        items := splitTop(body, ',')
        arr = make([]Operand, len(items))

        /* parse every element */
        for i, v := range items {
            if arr[i], err = parseOperand(line, v, vt, false); err != nil {
                return Operand{}, err
            }
        }
    }

    /* argument lists */
    if am == AM_arglist {
        return Arguments(arr...), nil
    }

    /* register vectors */
    return Operand {
        Type        : vt,
        Vec         : VecOf(len(arr)),
        Array       : arr,
        AddressMode : AM_register,
    }, nil
}

func parseMemory(line int, s string, vt DataType) (Operand, error) {
    var off int64
    var ret Operand

    /* must be closed */
    if s[len(s) - 1] != ']' {
        return ret, esyntax(line, s, "missing ']'")
    }

    /* split the offset */
    ref := strings.TrimSpace(s[1:len(s) - 1])
    pos := strings.LastIndexAny(ref, "+-")

    /* parse the offset */
    if pos > 0 {
        v, err := strconv.ParseInt(strings.TrimSpace(ref[pos + 1:]), 0, 64)

        /* check the offset */
        if err != nil {
            return ret, esyntaxf(line, s, "invalid offset %q", ref[pos:])
        }

        /* negative offsets */
        if off = v; ref[pos] == '-' {
            off = -v
        }

        /* strip the offset */
        ref = strings.TrimSpace(ref[:pos])
    }

    /* check the base */
    if ref == "" {
        return ret, esyntax(line, s, "missing base address")
    }

    /* register or symbol base */
    ret.Type = vt
    ret.Offset = off
    ret.Identifier = ref

    /* select the address mode */
    if ref[0] == '%' {
        ret.AddressMode = AM_indirect
    } else {
        ret.AddressMode = AM_address
    }

    /* all done */
    return ret, nil
}

func parseRegister(s string, vt DataType) Operand {
    if strings.ContainsRune(s, '.') || _SpecialRegisters[s] {
        return Operand { Identifier: s, AddressMode: AM_special, Type: vt }
    } else {
        return Reg(s, vt)
    }
}

func parseImmediate(line int, s string, vt DataType) (Operand, error) {
    if len(s) == 10 && (s[:2] == "0f" || s[:2] == "0F") {
        if v, err := strconv.ParseUint(s[2:], 16, 32); err == nil {
            return Operand { Fimm: float64(math.Float32frombits(uint32(v))), Type: T_f32, AddressMode: AM_immediate }, nil
        }
    }

    /* double-precision hex floats */
    if len(s) == 18 && (s[:2] == "0d" || s[:2] == "0D") {
        if v, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
            return Operand { Fimm: math.Float64frombits(v), Type: T_f64, AddressMode: AM_immediate }, nil
        }
    }

    /* integers, converted for floating-point instructions */
    v, err := strconv.ParseInt(strings.TrimSuffix(s, "U"), 0, 64)
    if err == nil {
        if vt == T_f32 || vt == T_f64 {
            return Operand { Fimm: float64(v), Type: vt, AddressMode: AM_immediate }, nil
        } else {
            return Imm(v, vt), nil
        }
    }

    /* integers above the signed range keep their bits */
    if errors.Is(err, strconv.ErrRange) && vt != T_f32 && vt != T_f64 {
        if u, err := strconv.ParseUint(strings.TrimSuffix(s, "U"), 0, 64); err == nil {
            return Imm(int64(u), vt), nil
        } else {
            return Operand{}, esyntaxf(line, s, "integer immediate %q out of range", s)
        }
    }

    /* decimal floats */
    if v, err := strconv.ParseFloat(s, 64); err == nil {
        if vt != T_f32 {
            vt = T_f64
        }
        return Operand { Fimm: v, Type: vt, AddressMode: AM_immediate }, nil
    }

    /* not a number */
    return Operand{}, esyntaxf(line, s, "invalid immediate %q", s)
}

func stripComments(src string) string {
    buf := []byte(src)
    end := len(buf)

    /* blank out every comment, keeping the newlines */
    for i := 0; i < end - 1; i++ {
        switch {
            case buf[i] == '/' && buf[i + 1] == '/': {
                for ; i < end && buf[i] != '\n'; i++ {
                    buf[i] = ' '
                }
            }
            case buf[i] == '/' && buf[i + 1] == '*': {
                buf[i], buf[i + 1] = ' ', ' '
                i += 2

                /* find the closing mark */
                for ; i < end && !(buf[i] == '*' && i + 1 < end && buf[i + 1] == '/'); i++ {
                    if buf[i] != '\n' {
                        buf[i] = ' '
                    }
                }

                /* blank the closing mark */
                if i < end {
                    buf[i], buf[i + 1] = ' ', ' '
                    i++
                }
            }
        }
    }

    /* all done */
    return string(buf)
}

func parseDecl(line int, text string) (Statement, error) {
    var ret Statement
    fv := strings.Fields(text)

    /* state space */
    if len(fv) == 0 {
        return ret, esyntax(line, text, "empty declaration")
    }

    /* select the directive */
    switch fv[0] {
        case ".param"  : ret.Directive = D_param
        case ".local"  : ret.Directive = D_local
        case ".shared" : ret.Directive = D_shared
        default        : return ret, esyntaxf(line, text, "unknown state space %q", fv[0])
    }

    /* optional alignment */
    i := 1
    if i + 1 < len(fv) && fv[i] == ".align" {
        if n, err := strconv.Atoi(fv[i + 1]); err != nil || n <= 0 {
            return ret, esyntaxf(line, text, "invalid alignment %q", fv[i + 1])
        } else {
            i, ret.Alignment = i + 2, n
        }
    }

    /* variable type */
    if i >= len(fv) || !strings.HasPrefix(fv[i], ".") {
        return ret, esyntax(line, text, "missing variable type")
    }

    /* parse the type */
    vt, ok := ParseType(fv[i][1:])
    if !ok {
        return ret, esyntaxf(line, text, "unknown type %q", fv[i])
    }

    /* exactly one name must follow */
    if ret.Type, i = vt, i + 1; i != len(fv) - 1 {
        return ret, esyntax(line, text, "expected a single variable name")
    }

    /* array declarations */
    name := fv[i]
    if pos := strings.IndexByte(name, '['); pos >= 0 {
        if !strings.HasSuffix(name, "]") {
            return ret, esyntax(line, text, "missing ']'")
        } else if n, err := strconv.Atoi(name[pos + 1:len(name) - 1]); err != nil || n < 0 {
            return ret, esyntaxf(line, text, "invalid array size %q", name[pos:])
        } else {
            name, ret.ArrayCount = name[:pos], n
        }
    }

    /* check the name */
    if !isIdent(name) {
        return ret, esyntaxf(line, text, "invalid variable name %q", name)
    }

    /* all done */
    ret.Name = name
    return ret, nil
}

func splitTop(s string, sep byte) []string {
    n := 0
    p := 0
    var ret []string

    /* split at top-level separators */
    for i := 0; i < len(s); i++ {
        switch s[i] {
            case '(', '{', '[' : n++
            case ')', '}', ']' : n--
            case sep           : if n == 0 { ret, p = append(ret, s[p:i]), i + 1 }
        }
    }

    /* the last element */
    return append(ret, s[p:])
}

func cutTop(s string, sep byte) (string, string, bool) {
    if v := splitTop(s, sep); len(v) == 1 {
        return s, "", false
    } else {
        return v[0], s[len(v[0]) + 1:], true
    }
}

func parenthesized(s string) (string, string, bool) {
    n := 0

    /* find the matching parenthesis */
    for i := 0; i < len(s); i++ {
        switch s[i] {
            case '(': {
                n++
            }
            case ')': {
                if n--; n == 0 {
                    return s[1:i], s[i + 1:], true
                }
            }
        }
    }

    /* not closed */
    return "", s, false
}

func cutLabel(s string) (string, string, bool) {
    name, rest := cutIdent(s)
    rest = strings.TrimLeft(rest, " \t\r\n")

    /* must be followed by a colon */
    if name == "" || !strings.HasPrefix(rest, ":") {
        return "", s, false
    } else {
        return name, strings.TrimSpace(rest[1:]), true
    }
}

func cutIdent(s string) (string, string) {
    i := 0
    for i < len(s) && isIdentChar(s[i], i == 0) {
        i++
    }
    return s[:i], s[i:]
}

func consume(s *string, dir string) bool {
    if !hasDirective(*s, dir) {
        return false
    } else {
        *s = (*s)[len(dir):]
        return true
    }
}

func hasDirective(s string, dir string) bool {
    return strings.HasPrefix(s, dir) && (len(s) == len(dir) || !isIdentChar(s[len(dir)], false))
}

func isIdent(s string) bool {
    name, rest := cutIdent(s)
    return name != "" && rest == ""
}

func isIdentChar(ch byte, first bool) bool {
    switch {
        case ch == '_' || ch == '$'  : return true
        case ch >= 'a' && ch <= 'z'  : return true
        case ch >= 'A' && ch <= 'Z'  : return true
        case ch >= '0' && ch <= '9'  : return !first
        default                      : return false
    }
}

func isNumber(ch byte) bool {
    return ch == '-' || (ch >= '0' && ch <= '9')
}

func isSpace(ch byte) bool {
    return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isSpaceRune(ch rune) bool {
    return ch < 0x80 && isSpace(byte(ch))
}
