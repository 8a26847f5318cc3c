package booking

import (
	"fmt"
	"strings"

	"github.com/ledgerfold/beancore/ast"
	"github.com/shopspring/decimal"
)

// ParseAmount resolves an ast.Amount's Value to an exact decimal. Values are
// either a plain number or a parenthesized arithmetic expression using
// + - * / with standard precedence, as produced by the parser for
// expressions like "(40 / 3) + 5".
func ParseAmount(amount *ast.Amount) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, fmt.Errorf("amount is nil")
	}
	if strings.HasPrefix(amount.Value, "(") {
		return evaluateExpression(amount.Value)
	}
	d, err := decimal.NewFromString(amount.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount value %q: %w", amount.Value, err)
	}
	return d, nil
}

// evaluateExpression evaluates an arithmetic expression like "(5 + 3)" or
// "((40 / 3) + 5)" with exact decimal arithmetic and standard precedence.
func evaluateExpression(expr string) (decimal.Decimal, error) {
	if !strings.HasPrefix(expr, "(") || !strings.HasSuffix(expr, ")") {
		return decimal.Zero, fmt.Errorf("expression must be wrapped in parentheses: %q", expr)
	}

	inner := expr[1 : len(expr)-1]
	lex := &exprLexer{input: inner}

	result, err := lex.parseExpr(0)
	if err != nil {
		return decimal.Zero, err
	}
	if !lex.isAtEnd() {
		return decimal.Zero, fmt.Errorf("unexpected token at position %d in %q", lex.pos, expr)
	}
	return result, nil
}

type exprLexer struct {
	input string
	pos   int
}

func (l *exprLexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *exprLexer) isAtEnd() bool {
	l.skipWhitespace()
	return l.pos >= len(l.input)
}

func (l *exprLexer) peek() byte {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *exprLexer) advance() byte {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	return ch
}

func (l *exprLexer) parseNumber() (decimal.Decimal, error) {
	l.skipWhitespace()
	start := l.pos

	if l.pos < len(l.input) && l.input[l.pos] == '-' {
		l.pos++
	}

	foundDigit, foundDot := false, false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch >= '0' && ch <= '9' {
			foundDigit = true
			l.pos++
		} else if ch == '.' && !foundDot {
			foundDot = true
			l.pos++
		} else {
			break
		}
	}

	if !foundDigit {
		return decimal.Zero, fmt.Errorf("expected number at position %d", start)
	}

	numStr := l.input[start:l.pos]
	num, err := decimal.NewFromString(numStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", numStr, err)
	}
	return num, nil
}

func (l *exprLexer) parsePrimary() (decimal.Decimal, error) {
	ch := l.peek()

	if ch == '(' {
		l.advance()
		result, err := l.parseExpr(0)
		if err != nil {
			return decimal.Zero, err
		}
		if l.peek() != ')' {
			return decimal.Zero, fmt.Errorf("expected ')' at position %d", l.pos)
		}
		l.advance()
		return result, nil
	}

	if ch == '-' {
		l.advance()
		operand, err := l.parsePrimary()
		if err != nil {
			return decimal.Zero, err
		}
		return operand.Neg(), nil
	}

	return l.parseNumber()
}

func (l *exprLexer) parseExpr(minPrec int) (decimal.Decimal, error) {
	left, err := l.parsePrimary()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := l.peek()
		if !isOperator(op) {
			break
		}
		prec := precedence(op)
		if prec < minPrec {
			break
		}
		l.advance()

		right, err := l.parseExpr(prec + 1)
		if err != nil {
			return decimal.Zero, err
		}

		left, err = applyOp(left, op, right)
		if err != nil {
			return decimal.Zero, err
		}
	}

	return left, nil
}

func isOperator(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '*' || ch == '/'
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	default:
		return 0
	}
}

func applyOp(left decimal.Decimal, op byte, right decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	case '/':
		if right.IsZero() {
			return decimal.Zero, fmt.Errorf("division by zero")
		}
		return left.Div(right), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown operator: %c", op)
	}
}
