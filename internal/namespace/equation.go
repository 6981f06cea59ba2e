package namespace

import (
	"math"
	"strconv"
	"strings"
)

// OperandKind discriminates equation operands.
type OperandKind uint8

const (
	OperandNull OperandKind = iota
	OperandConstant
	OperandName     // Ref is an entry handle
	OperandEquation // Ref is an equation handle
)

// Operand is one side of an equation.
type Operand struct {
	Kind  OperandKind
	Value float64
	Ref   Handle
}

// Operators understood by the equation engine. OpIdentity is the operator of
// a single-operand equation such as ("x").
const (
	OpIdentity byte = 0
	operators       = "+-*/%&|><=!~^"
)

// maxDepth bounds bracket nesting at compile time, and evaluation through
// equation entries that refer back to themselves after being re-registered.
const maxDepth = 64

// Equation is a compiled two-operand expression.
type Equation struct {
	Text     string // canonical form
	Op       byte
	Operands [2]Operand
}

// Canonical strips whitespace outside quoted names.
func Canonical(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	quoted := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			quoted = !quoted
		}
		if !quoted && (c == ' ' || c == '\t' || c == '\n' || c == '\r') {
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Intern parses text as an equation and returns its handle in the equation
// table. Text that canonicalises to an equation already interned returns
// the existing handle without growing the table. Quoted names are resolved
// once, here. Nothing is added unless the whole text compiles.
func (r *Registry) Intern(text string) (Handle, error) {
	if err := r.ready(); err != nil {
		return Handle{}, err
	}
	canon := Canonical(text)
	if h, ok := r.interned(canon); ok {
		return h, nil
	}
	x, err := r.compile(canon)
	if err != nil {
		return Handle{}, err
	}
	return r.commit(x), nil
}

func (r *Registry) interned(canon string) (Handle, bool) {
	b := Hash(canon)
	for i := range r.equations[b] {
		if r.equations[b][i].Text == canon {
			return Handle{Bucket: b, Slot: i}, true
		}
	}
	return Handle{}, false
}

// expr is a compiled equation that is not in the table yet. sub holds the
// compiled form of each sub-equation operand.
type expr struct {
	eq  Equation
	sub [2]*expr
}

// commit interns x, sub-equations first, reusing any already present.
func (r *Registry) commit(x *expr) Handle {
	if h, ok := r.interned(x.eq.Text); ok {
		return h
	}
	eq := x.eq
	for i, sub := range x.sub {
		if sub != nil {
			eq.Operands[i] = Operand{Kind: OperandEquation, Ref: r.commit(sub)}
		}
	}
	b := Hash(eq.Text)
	r.equations[b] = append(r.equations[b], eq)
	r.eqCount++
	return Handle{Bucket: b, Slot: len(r.equations[b]) - 1}
}

// compile checks the bracket structure of canon in one pass, then parses it.
func (r *Registry) compile(canon string) (*expr, error) {
	if len(canon) < 2 || canon[0] != '(' || canon[len(canon)-1] != ')' {
		return nil, errorf(KindScan, "equation %q must be bracketed", canon)
	}
	match, err := brackets(canon)
	if err != nil {
		return nil, err
	}
	if match[0] != len(canon)-1 {
		return nil, errorf(KindScan, "equation %q has text after closing bracket", canon)
	}
	p := eqParser{r: r, s: canon, match: match}
	return p.equation(0)
}

// brackets returns, for every '(' of s outside quoted names, the index of
// its closing bracket. Nesting deeper than maxDepth is refused.
func brackets(s string) ([]int, error) {
	match := make([]int, len(s))
	var open []int
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			if len(open) == maxDepth {
				return nil, errorf(KindInvalid, "equation nests deeper than %d", maxDepth)
			}
			open = append(open, i)
		case c == ')':
			if len(open) == 0 {
				return nil, errorf(KindScan, "unbalanced brackets in %q", s)
			}
			match[open[len(open)-1]] = i
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return nil, errorf(KindEndOfStream, "unbalanced brackets in %q", s)
	}
	return match, nil
}

type eqParser struct {
	r     *Registry
	s     string
	match []int
}

// equation parses the bracketed equation opening at s[open]. Accepted
// forms: (a op b), (a), (!a), (~a), (a!) and (a~).
func (p *eqParser) equation(open int) (*expr, error) {
	end := p.match[open]
	text := p.s[open : end+1]
	x := &expr{eq: Equation{Text: text}}
	i := open + 1
	if i == end {
		return nil, errorf(KindScan, "empty equation")
	}

	if c := p.s[i]; c == '!' || c == '~' {
		x.eq.Op = c
		n, err := p.operand(x, 0, i+1, end)
		if err != nil {
			return nil, err
		}
		if i+1+n != end {
			return nil, errorf(KindScan, "equation %q: trailing text after unary operand", text)
		}
		return x, nil
	}

	n, err := p.operand(x, 0, i, end)
	if err != nil {
		return nil, err
	}
	i += n
	if i == end {
		x.eq.Op = OpIdentity
		return x, nil
	}
	if strings.IndexByte(operators, p.s[i]) < 0 {
		return nil, errorf(KindScan, "equation %q: unknown operator %q", text, p.s[i])
	}
	x.eq.Op = p.s[i]
	i++
	if i == end {
		if x.eq.Op == '!' || x.eq.Op == '~' {
			return x, nil
		}
		return nil, errorf(KindScan, "equation %q: missing second operand", text)
	}
	n, err = p.operand(x, 1, i, end)
	if err != nil {
		return nil, err
	}
	if i+n != end {
		return nil, errorf(KindScan, "equation %q: trailing text %q", text, p.s[i+n:end])
	}
	return x, nil
}

// operand reads operand slot of x from the front of s[at:end] and returns
// the number of bytes consumed.
func (p *eqParser) operand(x *expr, slot, at, end int) (int, error) {
	s := p.s[at:end]
	if s == "" {
		return 0, errorf(KindScan, "missing operand")
	}
	switch s[0] {
	case '(':
		sub, err := p.equation(at)
		if err != nil {
			return 0, err
		}
		x.sub[slot] = sub
		x.eq.Operands[slot] = Operand{Kind: OperandEquation}
		return p.match[at] - at + 1, nil
	case '"':
		q := strings.IndexByte(s[1:], '"')
		if q < 0 {
			return 0, errorf(KindScan, "unterminated name in %q", s)
		}
		h, err := p.r.Lookup(s[1 : q+1])
		if err != nil {
			return 0, err
		}
		x.eq.Operands[slot] = Operand{Kind: OperandName, Ref: h}
		return q + 2, nil
	}

	n := numberLen(s)
	if n == 0 {
		return 0, errorf(KindScan, "expected operand at %q", s)
	}
	f, err := strconv.ParseFloat(s[:n], 64)
	if err != nil {
		return 0, &Error{Kind: KindScan, Msg: "bad constant " + strconv.Quote(s[:n]), Err: err}
	}
	x.eq.Operands[slot] = Operand{Kind: OperandConstant, Value: f}
	return n, nil
}

// numberLen returns the length of the numeric literal at the front of s:
// optional sign, digits, optional fraction, optional exponent.
func numberLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
		digits++
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

// closing returns the index of the bracket matching the '(' at s[open],
// skipping quoted names.
func closing(s string, open int) (int, error) {
	depth := 0
	quoted := false
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errorf(KindEndOfStream, "unbalanced brackets in %q", s[open:])
}

// Equation returns a copy of the compiled equation at h.
func (r *Registry) Equation(h Handle) (Equation, error) {
	eq, err := r.equation(h)
	if err != nil {
		return Equation{}, err
	}
	return *eq, nil
}

func (r *Registry) equation(h Handle) (*Equation, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if h.Bucket < 0 || h.Bucket >= len(r.equations) || h.Slot < 0 || h.Slot >= len(r.equations[h.Bucket]) {
		return nil, errorf(KindOutOfRange, "equation handle %s out of range", h)
	}
	return &r.equations[h.Bucket][h.Slot], nil
}

// EquationCount returns the number of interned equations.
func (r *Registry) EquationCount() int {
	if r == nil {
		return 0
	}
	return r.eqCount
}

// Evaluate computes the equation at h from the current values of its
// operands. Nothing is cached between calls. IEEE-754 results such as
// division by zero propagate as Inf or NaN.
func (r *Registry) Evaluate(h Handle) (float64, error) {
	return r.evaluate(h, 0)
}

// EvaluateText interns text and evaluates it.
func (r *Registry) EvaluateText(text string) (float64, error) {
	h, err := r.Intern(text)
	if err != nil {
		return math.NaN(), err
	}
	return r.Evaluate(h)
}

// EvaluateOnce compiles text and evaluates it without adding it, or any of
// its sub-equations, to the equation table. Use it for text from outside
// the node, which would otherwise grow the table without bound.
func (r *Registry) EvaluateOnce(text string) (float64, error) {
	if err := r.ready(); err != nil {
		return math.NaN(), err
	}
	x, err := r.compile(Canonical(text))
	if err != nil {
		return math.NaN(), err
	}
	return r.evalExpr(x, 0)
}

func (r *Registry) evaluate(h Handle, depth int) (float64, error) {
	if depth > maxDepth {
		return math.NaN(), errorf(KindInvalid, "equation %s nests deeper than %d", h, maxDepth)
	}
	eq, err := r.equation(h)
	if err != nil {
		return math.NaN(), err
	}
	return r.compute(eq, nil, depth)
}

func (r *Registry) evalExpr(x *expr, depth int) (float64, error) {
	if depth > maxDepth {
		return math.NaN(), errorf(KindInvalid, "equation %q nests deeper than %d", x.eq.Text, maxDepth)
	}
	return r.compute(&x.eq, &x.sub, depth)
}

// compute applies the operator of eq. sub, when set, holds uncommitted
// sub-equations that take the place of equation operands.
func (r *Registry) compute(eq *Equation, sub *[2]*expr, depth int) (float64, error) {
	operand := func(i int) (float64, error) {
		if sub != nil && sub[i] != nil {
			return r.evalExpr(sub[i], depth+1)
		}
		return r.value(eq.Operands[i], depth)
	}

	a, err := operand(0)
	if err != nil {
		return math.NaN(), err
	}
	switch eq.Op {
	case OpIdentity:
		return a, nil
	case '!':
		return truth(a == 0), nil
	case '~':
		return float64(^floatToInt(a)), nil
	}
	b, err := operand(1)
	if err != nil {
		return math.NaN(), err
	}
	return apply(eq.Op, a, b), nil
}

func (r *Registry) value(op Operand, depth int) (float64, error) {
	switch op.Kind {
	case OperandConstant:
		return op.Value, nil
	case OperandEquation:
		return r.evaluate(op.Ref, depth+1)
	case OperandName:
		_, e, err := r.target(op.Ref)
		if err != nil {
			return math.NaN(), err
		}
		if e.target != nil && e.target.Kind == TargetEquation {
			return r.evaluate(e.target.Handle, depth+1)
		}
		return r.GetDouble(op.Ref)
	}
	return 0, nil
}

func apply(op byte, a, b float64) float64 {
	switch op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		return a / b
	case '%':
		return math.Mod(a, b)
	case '&':
		return truth(a != 0 && b != 0)
	case '|':
		return truth(a != 0 || b != 0)
	case '>':
		return truth(a > b)
	case '<':
		return truth(a < b)
	case '=':
		return truth(a == b)
	case '^':
		return math.Pow(a, b)
	}
	return math.NaN()
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
