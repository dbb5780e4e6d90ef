// Package parser turns source text into a list of ast.Definition values
// by recursive descent over the balanced substrings the tokenizer
// package produces.
//
// There is no separate lexer stage with a token stream to advance
// through: every production re-tokenizes its input slice with whatever
// delimiter disambiguates that production (newline for statements and
// block bodies, a single space to find the right-most operator, a
// comma for argument lists), spread across the grammar's own forms
// instead of a flat token loop.
package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/skx/cish-compiler/ast"
	"github.com/skx/cish-compiler/instructions"
	"github.com/skx/cish-compiler/token"
	"github.com/skx/cish-compiler/tokenizer"
)

const space = " "

// The right-most-operator split keeps no operator table of its own: it
// looks the candidate token up whole with instructions.Lookup, so "=="
// can never be mistaken for "=" (which is not a binary operator).

// Parser holds only a logger; the grammar itself carries no state
// between calls. A zero-value Parser (nil logger) is fully usable.
type Parser struct {
	log *logrus.Entry
}

// New creates a Parser that emits Trace-level events (see
// internal/logging) to log as it discovers definitions. log may be nil.
func New(log *logrus.Entry) *Parser {
	return &Parser{log: log}
}

// Parse splits source into lines and parses every line beginning with
// the literal prefix "fn " as one function definition. Lines that don't
// begin with "fn " are silently skipped - this is how a function's
// bracket-enclosed body, which the tokenizer keeps on the same logical
// line as its header, coexists with blank lines, comments-as-text, or a
// shebang at the top of the input.
func (p *Parser) Parse(source string) ([]*ast.Definition, error) {
	lines, err := tokenizer.Tokenize(source, "\n")
	if err != nil {
		return nil, errors.Wrap(err, "parse: splitting program into lines")
	}

	var defs []*ast.Definition
	for _, line := range lines {
		if !strings.HasPrefix(line, "fn ") {
			continue
		}
		def, err := p.parseDefinition(strings.TrimPrefix(line, "fn "))
		if err != nil {
			return nil, errors.Wrap(err, "parse: function definition")
		}
		defs = append(defs, def)
		if p.log != nil {
			p.log.Tracef("parsed definition: %s", ast.FormatDefinition(def))
		}
	}
	return defs, nil
}

// parseDefinition parses "NAME(ARGS)BODY" - everything after the "fn "
// prefix of one top-level line.
func (p *Parser) parseDefinition(header string) (*ast.Definition, error) {
	head, body, ok := splitOnce(header, ")")
	if !ok {
		return nil, errors.New("malformed function header: missing ')'")
	}
	rawName, rawArgs, ok := splitOnce(head, "(")
	if !ok {
		return nil, errors.New("malformed function header: missing '('")
	}

	name, err := token.NewName(strings.TrimSpace(rawName))
	if err != nil {
		return nil, errors.Wrap(err, "function name")
	}

	argTokens, err := tokenizer.Tokenize(rawArgs, ",")
	if err != nil {
		return nil, errors.Wrap(err, "function parameters")
	}
	trimmed := lo.Map(argTokens, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})

	var params []token.Name
	seen := make(map[token.Name]bool, len(trimmed))
	for _, raw := range trimmed {
		n, err := token.NewName(raw)
		if err != nil {
			return nil, errors.Wrap(err, "function parameter")
		}
		// Duplicate parameter names are silently dropped here (the first
		// occurrence keeps its position); this may hide a genuine bug in
		// the source program.
		if seen[n] {
			continue
		}
		seen[n] = true
		params = append(params, n)
	}

	bodyExpr, err := p.parseExpr(body)
	if err != nil {
		return nil, errors.Wrap(err, "function body")
	}

	return &ast.Definition{Name: name, Params: params, Body: bodyExpr}, nil
}

// parseExpr implements the grammar's strict first-match-wins ordering.
func (p *Parser) parseExpr(source string) (ast.Expr, error) {
	src := strings.TrimSpace(source)

	if rest, ok := cut(src, "let "); ok {
		return p.parseLet(rest)
	}
	if rest, ok := cut(src, "if "); ok {
		return p.parseIf(rest)
	}
	if rest, ok := cut(src, "while "); ok {
		return p.parseWhile(rest)
	}
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		return p.parseBlock(src[1 : len(src)-1])
	}
	if rest, ok := cut(src, "break "); ok {
		v, err := p.parseExpr(rest)
		if err != nil {
			return nil, errors.Wrap(err, "break")
		}
		return &ast.Break{Value: v}, nil
	}
	if src == "break" {
		return &ast.Break{Value: &ast.Undefined{}}, nil
	}
	if rest, ok := cut(src, "return "); ok {
		v, err := p.parseExpr(rest)
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}
		return &ast.Return{Value: v}, nil
	}
	if src == "return" {
		return &ast.Return{Value: &ast.Undefined{}}, nil
	}

	if expr, ok, err := p.tryParseBinary(src); err != nil {
		return nil, err
	} else if ok {
		return expr, nil
	}

	if strings.HasPrefix(src, "*") {
		target, err := p.parseExpr(src[1:])
		if err != nil {
			return nil, errors.Wrap(err, "dereference")
		}
		return &ast.Derefer{Target: target, Size: token.Normal}, nil
	}

	if strings.HasPrefix(src, "&") {
		rest := src[1:]
		if name, err := token.NewName(rest); err == nil {
			return &ast.Pointer{Name: name}, nil
		}
		if inner, err := p.parseExpr(rest); err == nil {
			if d, ok := inner.(*ast.Derefer); ok {
				// &*E collapses to E.
				return d.Target, nil
			}
		}
		return nil, errors.Errorf("invalid reference: &%s", rest)
	}

	if len(src) >= 2 && strings.HasPrefix(src, `"`) && strings.HasSuffix(src, `"`) {
		return &ast.String{Raw: src}, nil
	}

	if strings.HasPrefix(src, "(") && strings.HasSuffix(src, ")") {
		return p.parseExpr(src[1 : len(src)-1])
	}

	if strings.Contains(src, "(") && strings.HasSuffix(src, ")") {
		return p.parseCall(src)
	}

	if strings.Contains(src, "[") && strings.HasSuffix(src, "]") {
		return p.parseIndex(src)
	}

	if v, err := strconv.ParseInt(src, 10, 64); err == nil {
		return &ast.Integer{Value: v}, nil
	}

	if src == "true" {
		return &ast.Integer{Value: 1}, nil
	}
	if src == "false" {
		return &ast.Integer{Value: 0}, nil
	}

	name, err := token.NewName(src)
	if err != nil {
		return nil, err
	}
	return &ast.Variable{Name: name}, nil
}

func (p *Parser) parseLet(rest string) (ast.Expr, error) {
	lvalStr, rvalStr, found, err := splitKeywordOnce(rest, "=")
	if err != nil {
		return nil, errors.Wrap(err, "let")
	}
	if !found {
		lval, err := p.parseExpr(rest)
		if err != nil {
			return nil, errors.Wrap(err, "let lvalue")
		}
		return &ast.Let{LValue: lval, RValue: &ast.Undefined{}}, nil
	}

	lval, err := p.parseExpr(lvalStr)
	if err != nil {
		return nil, errors.Wrap(err, "let lvalue")
	}
	rval, err := p.parseExpr(rvalStr)
	if err != nil {
		return nil, errors.Wrap(err, "let rvalue")
	}
	return &ast.Let{LValue: lval, RValue: rval}, nil
}

func (p *Parser) parseIf(rest string) (ast.Expr, error) {
	condStr, bodyStr, found, err := splitKeywordOnce(rest, "then")
	if err != nil {
		return nil, errors.Wrap(err, "if")
	}
	if !found {
		return nil, errors.New("invalid `if` statement, `then` section not found")
	}

	cond, err := p.parseExpr(condStr)
	if err != nil {
		return nil, errors.Wrap(err, "if condition")
	}

	thenStr, elseStr, hasElse, err := splitKeywordOnce(bodyStr, "else")
	if err != nil {
		return nil, errors.Wrap(err, "if")
	}
	if !hasElse {
		then, err := p.parseExpr(bodyStr)
		if err != nil {
			return nil, errors.Wrap(err, "if then-branch")
		}
		return &ast.If{Cond: cond, Then: then}, nil
	}

	then, err := p.parseExpr(thenStr)
	if err != nil {
		return nil, errors.Wrap(err, "if then-branch")
	}
	els, err := p.parseExpr(elseStr)
	if err != nil {
		return nil, errors.Wrap(err, "if else-branch")
	}
	return &ast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile(rest string) (ast.Expr, error) {
	condStr, bodyStr, found, err := splitKeywordOnce(rest, "do")
	if err != nil {
		return nil, errors.Wrap(err, "while")
	}
	if !found {
		return nil, errors.New("invalid `while` statement, `do` section not found")
	}

	cond, err := p.parseExpr(condStr)
	if err != nil {
		return nil, errors.Wrap(err, "while condition")
	}
	body, err := p.parseExpr(bodyStr)
	if err != nil {
		return nil, errors.Wrap(err, "while body")
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseBlock(inner string) (ast.Expr, error) {
	lines, err := tokenizer.Tokenize(inner, "\n")
	if err != nil {
		return nil, errors.Wrap(err, "block")
	}

	block := &ast.Block{}
	for _, line := range lines {
		stmt := line
		if head, _, found, err := splitKeywordOnce(line, ";"); err != nil {
			return nil, errors.Wrap(err, "block statement")
		} else if found {
			stmt = head
		}
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		expr, err := p.parseExpr(stmt)
		if err != nil {
			return nil, errors.Wrap(err, "block statement")
		}
		block.Lines = append(block.Lines, expr)
	}
	return block, nil
}

// tryParseBinary implements the grammar's one and only precedence rule:
// space-split the source and, if the second-to-last token names a known
// operator, split there. This has no notion of relative precedence -
// repeated application is what produces left-associativity with the
// right-most operator always winning.
func (p *Parser) tryParseBinary(source string) (ast.Expr, bool, error) {
	toks, err := tokenizer.Tokenize(source, space)
	if err != nil {
		return nil, false, errors.Wrap(err, "binary operator")
	}
	if len(toks) < 3 {
		return nil, false, nil
	}

	n := len(toks) - 2
	op, ok := instructions.Lookup(toks[n])
	if !ok {
		return nil, false, nil
	}

	lhs := strings.Join(toks[:n], space)
	rhs := strings.Join(toks[n+1:], space)

	left, err := p.parseExpr(lhs)
	if err != nil {
		return nil, false, err
	}
	right, err := p.parseExpr(rhs)
	if err != nil {
		return nil, false, err
	}
	return &ast.Binary{Op: op, Left: left, Right: right}, true, nil
}

func (p *Parser) parseCall(src string) (ast.Expr, error) {
	expr := strings.TrimSuffix(src, ")")
	calleeStr, argsStr, ok := splitOnce(expr, "(")
	if !ok {
		return nil, errors.New("malformed call expression")
	}

	callee, err := p.parseExpr(calleeStr)
	if err != nil {
		return nil, errors.Wrap(err, "call callee")
	}

	argTokens, err := tokenizer.Tokenize(argsStr, ",")
	if err != nil {
		return nil, errors.Wrap(err, "call arguments")
	}

	args := make([]ast.Expr, 0, len(argTokens))
	for _, a := range argTokens {
		arg, err := p.parseExpr(a)
		if err != nil {
			return nil, errors.Wrap(err, "call argument")
		}
		args = append(args, arg)
	}
	return &ast.Call{Callee: callee, Args: args}, nil
}

// parseIndex implements the fixed-stride array sugar: A[I] becomes
// *(A + I*8), i.e. an array of 8-byte machine words.
func (p *Parser) parseIndex(src string) (ast.Expr, error) {
	expr := strings.TrimSuffix(src, "]")
	arrStr, idxStr, ok := rsplitOnce(expr, "[")
	if !ok {
		return nil, errors.New("malformed index expression")
	}

	arr, err := p.parseExpr(arrStr)
	if err != nil {
		return nil, errors.Wrap(err, "index base")
	}
	idx, err := p.parseExpr(idxStr)
	if err != nil {
		return nil, errors.Wrap(err, "index offset")
	}

	return &ast.Derefer{
		Target: &ast.Binary{
			Op:   instructions.Add,
			Left: arr,
			Right: &ast.Binary{
				Op:    instructions.Mul,
				Left:  idx,
				Right: &ast.Integer{Value: 8},
			},
		},
		Size: token.Normal,
	}, nil
}

// cut reports whether src has prefix and, if so, returns the remainder.
func cut(src, prefix string) (string, bool) {
	if !strings.HasPrefix(src, prefix) {
		return "", false
	}
	return strings.TrimPrefix(src, prefix), true
}

// splitOnce finds the first literal occurrence of sep in s - a plain
// substring split, unlike the bracket-aware tokenizer package, used
// where the grammar itself guarantees sep can't legitimately occur
// inside an earlier nested region (a parameter list, a call's callee).
func splitOnce(s, sep string) (left, right string, ok bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

// rsplitOnce finds the last literal occurrence of sep in s.
func rsplitOnce(s, sep string) (left, right string, ok bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

// splitKeywordOnce tokenizes s on delimiter (bracket/quote aware) and,
// if that yields at least two tokens, returns the first token and the
// remaining tokens rejoined with delimiter. This mirrors the grammar's
// "once" keyword-split used by let/if/while/block-statement parsing:
// it is not a plain substring search, so a delimiter spelling that
// recurs immediately adjacent to itself (e.g. "=" inside "==") can
// still disturb the reconstructed remainder - a faithfully preserved
// quirk of the original grammar, not a bug introduced here.
func splitKeywordOnce(s, delimiter string) (first, rest string, found bool, err error) {
	toks, err := tokenizer.Tokenize(s, delimiter)
	if err != nil {
		return "", "", false, err
	}
	if len(toks) < 2 {
		return "", "", false, nil
	}
	return toks[0], strings.Join(toks[1:], delimiter), true, nil
}
