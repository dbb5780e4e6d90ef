package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skx/cish-compiler/internal/config"
)

// TestNasmStringBytes checks that a handful of raw quoted literals turn
// into the NASM db operand NASM expects, with escapes replaced by their
// numeric byte value spliced between quotes rather than decoded into a
// separate byte list.
func TestNasmStringBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`""`, `""`},
		{`"hello"`, `"hello"`},
		{`"a\nb"`, `"a", 10, "b"`},
		{`"he said \"hi\""`, `"he said ", 34, "hi", 34, ""`},
		{`"hi\n"`, `"hi", 10, ""`},
	}

	for _, test := range tests {
		got := nasmStringBytes(test.input)
		assert.Equal(t, test.expected, got, "input %q", test.input)
	}
}

// TestEmitStringLiteral checks the exact data-section and load-site
// shape for a trailing-escape string literal: no colon after the
// label, a mov of the bare label rather than a lea of its address, and
// the trailing empty-string artifact the replacement rule produces.
func TestEmitStringLiteral(t *testing.T) {
	c := New(`fn main() { print("hi\n") }`, config.Config{})

	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, `str.0 db "hi", 10, "", 0`)
	assert.Contains(t, out, "mov rax, str.0")
	assert.NotContains(t, out, "str.0:")
	assert.Contains(t, out, "extern print")
}

// TestRoundUp16 exercises the stack-frame alignment helper.
func TestRoundUp16(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 0},
		{1, 16},
		{16, 16},
		{17, 32},
		{32, 32},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, roundUp16(test.input))
	}
}

// TestSlot checks the rbp-relative offset for the n'th local.
func TestSlot(t *testing.T) {
	assert.Equal(t, 8, slot(0))
	assert.Equal(t, 16, slot(1))
	assert.Equal(t, 24, slot(2))
}

// TestEmitSimpleFunction compiles a single trivial function and checks
// the rough shape of the emitted assembly rather than byte-for-byte
// output.
func TestEmitSimpleFunction(t *testing.T) {
	c := New(`fn add(a, b) { return a + b }`, config.Config{})

	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, "global main")
	assert.Contains(t, out, "add:")
	assert.Contains(t, out, "add rax, r10")
	assert.Contains(t, out, "leave")
	assert.Contains(t, out, "ret")
}

// TestEmitZeroLocalFrame checks that a function with no parameters and
// no let-introduced locals still emits "sub rsp, 0" unconditionally,
// rather than skipping the instruction when the frame size is zero.
func TestEmitZeroLocalFrame(t *testing.T) {
	c := New(`fn main() { return 42 }`, config.Config{})

	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, "sub rsp, 0")
}

// TestEmitExternDiscovery checks that a call to an undefined name
// surfaces as an extern, but a call to a sibling definition doesn't.
func TestEmitExternDiscovery(t *testing.T) {
	c := New(`
fn helper(x) { return x }
fn main() { return helper(1) + printf(2) }
`, config.Config{})

	out, err := c.Compile()
	assert.NoError(t, err)
	assert.Contains(t, out, "extern printf")
	assert.NotContains(t, out, "extern helper")
	assert.NotContains(t, out, "extern main")
}

// TestEmitBreakOutsideLoop checks the semantic error case for break.
func TestEmitBreakOutsideLoop(t *testing.T) {
	c := New(`fn f() { break 1 }`, config.Config{})

	_, err := c.Compile()
	assert.Error(t, err)
}
