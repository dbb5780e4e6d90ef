// Package tokenizer implements the single splitting primitive the whole
// grammar is built from: a bracket- and quote-aware delimiter split.
//
// There is no precedence table anywhere else in this compiler. By
// running the same split with a different delimiter - newline for
// top-level statements and block bodies, a single space to find the
// right-most operator, a comma for argument lists, a semicolon for
// trailing statement terminators - the parser treats balanced
// substrings as opaque tokens and recurses into them.
//
// A small struct walks the input rune-by-rune tracking position, the
// way a scanner that "respects nested brackets and quoted strings
// while splitting on an arbitrary delimiter" has to, since the surface
// grammar this compiler accepts has no fixed token alphabet to
// enumerate up front.
package tokenizer

import (
	"strings"

	"github.com/pkg/errors"
)

// state holds the scanner's position and nesting bookkeeping as it
// walks the input. It is not exported: Tokenize is the only entry
// point, keeping the scanning type private and driven by a single
// public function.
type state struct {
	chars     []rune
	delimiter []rune
	pos       int

	depth   int
	inQuote bool
	escape  bool

	current strings.Builder
	tokens  []string
}

// Tokenize splits input into maximal non-empty substrings separated by
// delimiter (which must be non-empty), treating the following regions
// as atomic - delimiters inside them are preserved literally, not split
// on:
//
//   - any region between an opening and matching closing bracket among
//     "(" / ")", "{" / "}", "[" / "]". Nesting depth is a single counter
//     shared across all three bracket families; any closer decrements
//     it, and decrementing past zero is silently clamped rather than
//     rejected immediately - only a non-zero final depth is an error.
//   - any region between two unescaped '"' characters, where inside the
//     region a backslash marks the following character as literal.
func Tokenize(input, delimiter string) ([]string, error) {
	if delimiter == "" {
		return nil, errors.New("tokenizer: delimiter must not be empty")
	}

	s := &state{
		chars:     []rune(input),
		delimiter: []rune(delimiter),
	}
	return s.run()
}

func (s *state) run() ([]string, error) {
	for s.pos < len(s.chars) {
		ch := s.chars[s.pos]

		if s.escape {
			s.current.WriteRune(ch)
			s.escape = false
			s.pos++
			continue
		}

		switch {
		case isOpenBracket(ch) && !s.inQuote:
			s.current.WriteRune(ch)
			s.depth++
		case isCloseBracket(ch) && !s.inQuote:
			s.current.WriteRune(ch)
			if s.depth > 0 {
				s.depth--
			}
		case ch == '"':
			s.inQuote = !s.inQuote
			s.current.WriteRune(ch)
		case ch == '\\' && s.inQuote:
			s.current.WriteRune(ch)
			s.escape = true
		case s.matchesDelimiterAt(s.pos):
			if s.depth != 0 || s.inQuote {
				s.current.WriteString(string(s.delimiter))
			} else if s.current.Len() > 0 {
				s.tokens = append(s.tokens, s.current.String())
				s.current.Reset()
			}
			s.pos += len(s.delimiter)
			continue
		default:
			s.current.WriteRune(ch)
		}
		s.pos++
	}

	if s.escape || s.inQuote || s.depth != 0 {
		return nil, errors.New("tokenizer: unclosed nested region")
	}
	if s.current.Len() > 0 {
		s.tokens = append(s.tokens, s.current.String())
	}
	return s.tokens, nil
}

func (s *state) matchesDelimiterAt(i int) bool {
	if i+len(s.delimiter) > len(s.chars) {
		return false
	}
	for j, d := range s.delimiter {
		if s.chars[i+j] != d {
			return false
		}
	}
	return true
}

func isOpenBracket(ch rune) bool {
	return ch == '(' || ch == '{' || ch == '['
}

func isCloseBracket(ch rune) bool {
	return ch == ')' || ch == '}' || ch == ']'
}
