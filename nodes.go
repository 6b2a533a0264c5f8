package calc

import (
	"strconv"
	"strings"
)

// Node is a node of an expression tree. The implementations are *Number,
// *BinaryOp, and *UnaryOp. Trees are never modified once built.
type Node interface {
	String() string
	fmt(b *strings.Builder)
}

// Op is a binary operator.
type Op byte

const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
	Pow Op = '^'
)

func (op Op) String() string {
	return string(rune(op))
}

// Func is a unary operation, either negation or a named function.
type Func string

const (
	Neg  Func = "-"
	Sin  Func = "sin"
	Cos  Func = "cos"
	Tg   Func = "tg"
	Ctg  Func = "ctg"
	Ln   Func = "ln"
	Exp  Func = "exp"
	Sqrt Func = "sqrt"
)

// Number is a numeric leaf.
type Number struct {
	Value float64
}

// BinaryOp applies Op to the values of Left and Right.
type BinaryOp struct {
	Left  Node
	Op    Op
	Right Node
}

// UnaryOp applies Func to the value of X.
type UnaryOp struct {
	Func Func
	X    Node
}

// Num returns a leaf holding v.
func Num(v float64) *Number {
	return &Number{Value: v}
}

// Binary returns a node applying op to left and right.
func Binary(left Node, op Op, right Node) *BinaryOp {
	return &BinaryOp{Left: left, Op: op, Right: right}
}

// Unary returns a node applying fn to x.
func Unary(fn Func, x Node) *UnaryOp {
	return &UnaryOp{Func: fn, X: x}
}

func (n *Number) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *BinaryOp) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *UnaryOp) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *Number) fmt(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
}

func (n *BinaryOp) fmt(b *strings.Builder) {
	b.WriteByte('(')
	fmtnode(b, n.Left)
	b.WriteByte(' ')
	b.WriteByte(byte(n.Op))
	b.WriteByte(' ')
	fmtnode(b, n.Right)
	b.WriteByte(')')
}

func (n *UnaryOp) fmt(b *strings.Builder) {
	b.WriteString(string(n.Func))
	b.WriteByte('(')
	fmtnode(b, n.X)
	b.WriteByte(')')
}

// fmtnode formats a child that may be nil in trees built by hand.
func fmtnode(b *strings.Builder, n Node) {
	if n == nil {
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		return
	}
	n.fmt(b)
}
