package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skx/cish-compiler/instructions"
	"github.com/skx/cish-compiler/token"
)

func TestFormat(t *testing.T) {
	x, _ := token.NewName("x")

	assert.Equal(t, "42", Format(&Integer{Value: 42}))
	assert.Equal(t, "x", Format(&Variable{Name: x}))
	assert.Equal(t, "&x", Format(&Pointer{Name: x}))
	assert.Equal(t, "*x", Format(&Derefer{Target: &Variable{Name: x}, Size: token.Normal}))
	assert.Equal(t, "(x + 1)", Format(&Binary{
		Op:    instructions.Add,
		Left:  &Variable{Name: x},
		Right: &Integer{Value: 1},
	}))
	assert.Equal(t, "if x then 1", Format(&If{Cond: &Variable{Name: x}, Then: &Integer{Value: 1}}))
	assert.Equal(t, "if x then 1 else 2", Format(&If{
		Cond: &Variable{Name: x},
		Then: &Integer{Value: 1},
		Else: &Integer{Value: 2},
	}))
}

func TestFormatDefinition(t *testing.T) {
	name, _ := token.NewName("f")
	a, _ := token.NewName("a")

	def := &Definition{
		Name:   name,
		Params: []token.Name{a},
		Body:   &Return{Value: &Variable{Name: a}}}

	assert.Equal(t, "fn f(a) return a", FormatDefinition(def))
}
