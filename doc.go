// Package calc implements a floating-point calculator for arithmetic
// expressions.
//
// An expression is parsed once into a tree of Nodes and evaluated to a
// float64. The grammar, from loosest to tightest binding, is
//
//	expression = term { ("+" | "-") term }
//	term       = factor { ("*" | "/") factor }
//	factor     = unary [ "^" factor ]
//	unary      = "-" unary | atom
//	atom       = number | constant | function "(" expression ")" | "(" expression ")"
//
// so "2^3^2" is "2^(3^2)" and "-2^2" is "(-2)^2". The constants are pi and e.
// The functions are sin, cos, tg, ctg, ln, exp, and sqrt. With the Degrees
// option, the arguments to the trigonometric functions are taken in degrees.
//
// Parse and Eval never print, log, or retain state between calls, so they are
// safe to use concurrently.
package calc
