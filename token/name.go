// Package token defines the small validated value-types that sit at the
// root of the data model: identifiers (Name) and memory-access widths
// (Size). Both are constructed once and carried around as immutable
// values by the AST, parser, and code generator.
//
// This is the single place that owns validation of the atomic things
// the rest of the compiler refers to by value: "validate an identifier"
// and "validate a store width", rather than "categorise a lexer token",
// since this compiler's grammar has no flat token stream to categorise.
package token

import (
	"fmt"

	"github.com/pkg/errors"
)

// Name is a validated identifier: non-empty ASCII matching [A-Za-z0-9_]+
// and not one of the reserved words. Names are comparable and therefore
// safe to use as map keys.
type Name string

// reserved holds the words the grammar claims for itself; an identifier
// with one of these spellings can never be a Name.
var reserved = map[string]bool{
	"let":    true,
	"if":     true,
	"then":   true,
	"else":   true,
	"while":  true,
	"do":     true,
	"break":  true,
	"return": true,
}

// NewName validates raw and wraps it as a Name. Construction is the only
// validation point - once built, a Name is assumed ASCII/valid/not-reserved
// everywhere else.
func NewName(raw string) (Name, error) {
	if raw == "" {
		return "", errors.New("empty name")
	}
	for _, ch := range raw {
		if !isNameRune(ch) {
			return "", errors.Errorf("invalid name: %s", raw)
		}
	}
	if reserved[raw] {
		return "", errors.Errorf("reserved name: %s", raw)
	}
	return Name(raw), nil
}

func isNameRune(ch rune) bool {
	switch {
	case ch == '_':
		return true
	case ch >= 'a' && ch <= 'z':
		return true
	case ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return true
	default:
		return false
	}
}

// String renders the Name as its raw spelling, so a Name can be dropped
// directly into an assembly template via fmt.Sprintf("%s", name).
func (n Name) String() string {
	return string(n)
}

var _ fmt.Stringer = Name("")
