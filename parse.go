package calc

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// Expr = num | const | Call | Neg | Add | Sub | Mul | Div | Pow | '(' Expr ')'
// Call = funcname '(' Expr ')'
// Neg = '-' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr
// Div = Expr '/' Expr
// Pow = Expr '^' Expr

// Parse parses a single expression from src. The entire input up to EOF must
// form the expression. Errors due to the input implement InputError and wrap
// ErrSyntax; errors from reading src are returned as they are.
func Parse(src io.RuneScanner) (Node, error) {
	scan := lex(src)
	n, err := parseterm(scan, exprprec)
	if err != nil {
		return nil, err
	}
	switch tok := scan.must(); tok.kind {
	case tokenEOF:
	default:
		return nil, itShouldNotHaveEndedThisWay(tok, false)
	}
	return n, nil
}

// ParseString is a shortcut to parse an expression in a string.
func ParseString(src string) (Node, error) {
	return Parse(strings.NewReader(src))
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression ending in a close bracket, the result is nil with no error;
// callers must create an error, as empty subexpressions are always illegal.
func parseterm(scan *lexer, until operator) (Node, error) {
	n, err := parselhs(scan)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen:
			// There is no implicit multiplication, so an operand here means
			// the expression was already complete.
			return nil, &TrailingError{Col: tok.pos, Text: tok.text}
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == 0 {
				panic("calc: no binary operator for " + strconv.Quote(tok.text))
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = Binary(n, prec.op, rhs)
		case tokenClose, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("calc: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary,
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer) (Node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		// The lexer only produces well-formed literals, so the only error is
		// ErrRange. Underflow rounds to zero or a subnormal and is accepted.
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil && math.IsInf(v, 0) {
			return nil, &LexError{Text: tok.text, Kind: "number", Col: tok.pos, Range: true}
		}
		return Num(v), nil
	case tokenIdent:
		if v, ok := constants[tok.text]; ok {
			return Num(v), nil
		}
		fn, ok := funcs[tok.text]
		if !ok {
			// Look ahead so the error can say whether this was a call.
			nx, err := scan.next()
			if err != nil {
				return nil, err
			}
			return nil, &NameError{Col: tok.pos, Name: tok.text, Call: nx.kind == tokenOpen}
		}
		return parsecall(scan, fn)
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == 0 {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text}
		}
		// Negation binds tighter than any binary operator, so this parses
		// only the next unary expression: -x^y is (-x)^y, x^-y is x^(-y).
		rhs, err := parseterm(scan, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return Unary(Neg, rhs), nil
	case tokenOpen:
		return parsebracketed(scan, tok)
	case tokenClose:
		// Let the caller decide what error to report.
		scan.push(tok)
		return nil, nil
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("calc: unknown token: " + tok.String())
	}
}

// parsecall parses the bracketed argument to a function.
func parsecall(scan *lexer, fn Func) (Node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOpen {
		return nil, &CallError{Col: tok.pos, Func: string(fn)}
	}
	arg, err := parsebracketed(scan, tok)
	if err != nil {
		return nil, err
	}
	return Unary(fn, arg), nil
}

// parsebracketed parses a subexpression following the open bracket open,
// through its close bracket.
func parsebracketed(scan *lexer, open lexToken) (Node, error) {
	n, err := parseterm(scan, exprprec)
	if err != nil {
		// As a special case, reporting mismatched brackets is more helpful
		// than empty expression at the end of the input.
		if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
			err = &BracketError{Col: ee.Col, Left: open.text}
		}
		return nil, err
	}
	end := scan.must()
	if end.kind != tokenClose {
		return nil, itShouldNotHaveEndedThisWay(end, true)
	}
	if n == nil {
		return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
	}
	return n, nil
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. open is whether the subexpression
// followed an open bracket.
func itShouldNotHaveEndedThisWay(tok lexToken, open bool) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: "("}
	case tokenClose:
		if open {
			panic("calc: close bracket ends bracketed expression: " + tok.String())
		}
		return &BracketError{Col: tok.pos, Right: tok.text}
	default:
		panic("calc: it really should not have ended this way: " + tok.String())
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the operator to use when this one is selected. Unary minus uses
	// Sub.
	op Op
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of 0.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, Add}
	case "-":
		return operator{1, false, Sub}
	case "*":
		return operator{5, false, Mul}
	case "/":
		return operator{5, false, Div}
	case "^":
		return operator{15, true, Pow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of 0.
func unop(text string) operator {
	switch text {
	case "-":
		return operator{20, true, Sub}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, 0}
