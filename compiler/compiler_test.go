package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skx/cish-compiler/internal/config"
)

// TestBogusInput checks that several malformed programs are rejected.
func TestBogusInput(t *testing.T) {
	tests := []string{
		// empty program
		"",

		// missing closing paren on the header
		"fn f(a {",

		// unknown operator in a binary expression
		"fn f() { 1 $ 2 }",

		// let without "="
		"fn f() { let x 3 }",

		// if without "then"
		"fn f() { if 1 2 }",

		// break outside any loop
		"fn f() { break }",
	}

	for _, test := range tests {
		c := New(test, config.Config{})
		_, err := c.Compile()
		assert.Error(t, err, "expected an error compiling %q", test)
	}
}

// TestValidPrograms checks that a handful of well-formed programs
// compile cleanly and produce output that looks like an assembly
// translation unit.
func TestValidPrograms(t *testing.T) {
	tests := []string{
		`fn main() { return 0 }`,
		`fn add(a, b) { return a + b }`,
		`fn fact(n) { if n <= 1 then return 1 else return n * fact(n - 1) }`,
		"fn loop() {\n" +
			"let i = 0\n" +
			"while i < 10 do { let i = i + 1 }\n" +
			"return i\n" +
			"}",
		`fn greet() { printf("hello\n") }`,
	}

	for _, test := range tests {
		c := New(test, config.Config{})
		out, err := c.Compile()
		require.NoError(t, err, "program: %s", test)
		assert.Contains(t, out, "global main")
		assert.True(t, strings.Contains(out, "section .text"))
	}
}

// TestParseIsCached checks that Compile reuses a prior Parse rather
// than re-parsing the source text.
func TestParseIsCached(t *testing.T) {
	c := New(`fn f() { return 1 }`, config.Config{})

	defs, err := c.Parse()
	require.NoError(t, err)
	require.Len(t, defs, 1)

	// Replace the source with text that cannot parse: Compile only
	// succeeds if it uses the definitions Parse already cached.
	c.source = "fn g( {"

	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, "f:")
}
