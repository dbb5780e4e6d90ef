// generator.go contains the code for emitting assembly, one function
// definition at a time, and the small pieces of context threaded
// through that walk.

package compiler

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/skx/cish-compiler/ast"
	"github.com/skx/cish-compiler/instructions"
	"github.com/skx/cish-compiler/internal/logging"
	"github.com/skx/cish-compiler/internal/orderedset"
	"github.com/skx/cish-compiler/stack"
	"github.com/skx/cish-compiler/token"
)

// abi is the System V AMD64 order of integer/pointer argument
// registers: the first six arguments of a call go here, in order;
// anything past that stays on the stack.
var abi = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// unitContext is shared by every function definition in the
// translation unit. It's what makes label ids and data-section entries
// unique across the whole program rather than just within one function.
type unitContext struct {
	labelID int
	data    strings.Builder

	// funcs holds the name of every definition in this unit, used to
	// tell a call to a sibling function apart from a genuine extern.
	funcs *orderedset.Set[token.Name]

	// externs holds every global name referenced by a Variable node,
	// in first-reference order, across the whole unit.
	externs *orderedset.Set[token.Name]
}

func newUnitContext() *unitContext {
	return &unitContext{
		funcs:   orderedset.New[token.Name](),
		externs: orderedset.New[token.Name](),
	}
}

// nextLabel hands out a unit-wide unique integer, used to build
// collision-free label names for string constants, if/while branches.
func (u *unitContext) nextLabel() int {
	id := u.labelID
	u.labelID++
	return id
}

// funcContext is reset before emitting each function's body.
type funcContext struct {
	// locals is the insertion-ordered set of slots this function
	// owns: parameters first, then each new name a "let" introduces.
	locals *orderedset.Set[token.Name]

	// breaks holds the end-of-loop label of every While currently
	// being emitted, innermost on top. Break resolves against the top
	// without popping it, since a loop can contain more than one break.
	breaks *stack.Stack
}

func newFuncContext(params []token.Name) *funcContext {
	locals := orderedset.New[token.Name]()
	for _, p := range params {
		locals.Add(p)
	}
	return &funcContext{locals: locals, breaks: stack.New()}
}

// slot returns the [rbp-N] offset for the i'th local.
func slot(i int) int {
	return (i + 1) * 8
}

// roundUp16 rounds n up to the next multiple of 16, the stack-frame
// alignment System V requires.
func roundUp16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

// emit walks every definition, producing one translation unit: a data
// section built up as a side effect of string-literal emission, a text
// section holding one label per function, and the extern declarations
// the body turned out to need.
func (c *Compiler) emit() (string, error) {
	log := logging.Component(c.log, "emit")

	ctx := newUnitContext()
	for _, def := range c.definitions {
		ctx.funcs.Add(def.Name)
	}

	var body strings.Builder
	for _, def := range c.definitions {
		asm, err := c.emitFunction(ctx, def)
		if err != nil {
			return "", errors.Wrapf(err, "function %s", def.Name)
		}
		body.WriteString(asm)
		log.Tracef("emitted function %s", def.Name)
	}

	externs := ctx.externs.Without(ctx.funcs)
	for _, name := range externs {
		log.Tracef("extern %s", name)
	}

	var out strings.Builder
	out.WriteString("section .data\n")
	out.WriteString(ctx.data.String())
	out.WriteString("\nsection .text\n")
	out.WriteString("\tglobal main\n")
	for _, name := range externs {
		out.WriteString(fmt.Sprintf("\textern %s\n", name))
	}
	out.WriteString("\n")
	out.WriteString(body.String())

	return out.String(), nil
}

// emitFunction lowers one definition to a labelled, self-contained
// chunk of assembly: prologue, body, epilogue.
//
// The frame size is computed only after the body has been emitted,
// since a "let" can introduce new locals partway through a function.
func (c *Compiler) emitFunction(ctx *unitContext, def *ast.Definition) (string, error) {
	fctx := newFuncContext(def.Params)

	body, err := c.emitExpr(ctx, fctx, def.Body)
	if err != nil {
		return "", err
	}

	frame := roundUp16(8 * fctx.locals.Len())

	var prologue strings.Builder
	for i := range def.Params {
		dst := slot(i)
		if i < len(abi) {
			prologue.WriteString(fmt.Sprintf("\tmov qword [rbp-%d], %s\n", dst, abi[i]))
		} else {
			stackOff := (i-len(abi))*8 + 16
			prologue.WriteString(fmt.Sprintf("\tmov rax, [rbp+%d]\n", stackOff))
			prologue.WriteString(fmt.Sprintf("\tmov qword [rbp-%d], rax\n", dst))
		}
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("%s:\n", def.Name))
	out.WriteString("\tpush rbp\n")
	out.WriteString("\tmov rbp, rsp\n")
	out.WriteString(fmt.Sprintf("\tsub rsp, %d\n", frame))
	out.WriteString(prologue.String())
	out.WriteString(body)
	out.WriteString("\tleave\n")
	out.WriteString("\tret\n\n")

	return out.String(), nil
}

// emitExpr lowers a single expression node to a sequence of
// instructions that leaves its value in rax.
func (c *Compiler) emitExpr(ctx *unitContext, fctx *funcContext, e ast.Expr) (string, error) {
	switch n := e.(type) {

	case *ast.Integer:
		return fmt.Sprintf("\tmov rax, %d\n", n.Value), nil

	case *ast.String:
		return c.emitString(ctx, n), nil

	case *ast.Undefined:
		return "", nil

	case *ast.Variable:
		if i, ok := fctx.locals.IndexOf(n.Name); ok {
			return fmt.Sprintf("\tmov rax, [rbp-%d]\n", slot(i)), nil
		}
		ctx.externs.Add(n.Name)
		return fmt.Sprintf("\tlea rax, [%s]\n", n.Name), nil

	case *ast.Pointer:
		i, ok := fctx.locals.IndexOf(n.Name)
		if !ok {
			return "", errors.Errorf("undefined variable: %s (address-of needs a local)", n.Name)
		}
		return fmt.Sprintf("\tlea rax, [rbp-%d]\n", slot(i)), nil

	case *ast.Derefer:
		return c.emitDerefer(ctx, fctx, n)

	case *ast.Call:
		return c.emitCall(ctx, fctx, n)

	case *ast.Block:
		var out strings.Builder
		for _, line := range n.Lines {
			asm, err := c.emitExpr(ctx, fctx, line)
			if err != nil {
				return "", err
			}
			out.WriteString(asm)
		}
		return out.String(), nil

	case *ast.Let:
		return c.emitLet(ctx, fctx, n)

	case *ast.If:
		return c.emitIf(ctx, fctx, n)

	case *ast.While:
		return c.emitWhile(ctx, fctx, n)

	case *ast.Break:
		return c.emitBreak(ctx, fctx, n)

	case *ast.Return:
		value, err := c.emitExpr(ctx, fctx, n.Value)
		if err != nil {
			return "", err
		}
		return value + "\tleave\n\tret\n", nil

	case *ast.Binary:
		return c.emitBinary(ctx, fctx, n)

	default:
		return "", errors.Errorf("codegen: unsupported expression %T", e)
	}
}

// emitString interns a string literal into the data section under a
// fresh label and returns the code that loads its address into rax.
func (c *Compiler) emitString(ctx *unitContext, n *ast.String) string {
	id := ctx.nextLabel()
	name := fmt.Sprintf("str.%d", id)

	ctx.data.WriteString(fmt.Sprintf("\t%s db %s, 0\n", name, nasmStringBytes(n.Raw)))

	return fmt.Sprintf("\tmov rax, %s\n", name)
}

// nasmStringBytes turns a raw quoted source literal into the operand
// NASM's db directive expects: a textual replacement of each backslash
// escape with a numeric byte value, spliced between the surrounding
// quotes rather than decoded into a separate byte list. "a\nb" becomes
// "a", 10, "b"; a trailing escape leaves a trailing empty string
// literal behind, e.g. "hi\n" becomes "hi", 10, "".
func nasmStringBytes(raw string) string {
	s := raw
	s = strings.ReplaceAll(s, `\n`, `", 10, "`)
	s = strings.ReplaceAll(s, `\"`, `", 34, "`)
	return s
}

// emitDerefer loads through a pointer expression at the given width. A
// Normal width is already a full machine word, so no extension is
// needed. Byte and Word are zero-extended into rax via movzx; a Long
// load is a plain mov into eax, since movzx has no 32-bit source form
// and writing eax already clears the upper half of rax.
func (c *Compiler) emitDerefer(ctx *unitContext, fctx *funcContext, n *ast.Derefer) (string, error) {
	target, err := c.emitExpr(ctx, fctx, n.Target)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(target)
	switch n.Size {
	case token.Normal:
		out.WriteString("\tmov rax, [rax]\n")
	case token.Long:
		out.WriteString(fmt.Sprintf("\tmov %s, %s [rax]\n", n.Size.NarrowAL(), n.Size.Keyword()))
	default:
		out.WriteString(fmt.Sprintf("\tmovzx rax, %s [rax]\n", n.Size.Keyword()))
	}
	return out.String(), nil
}

// emitLet lowers an assignment. The lvalue shape decides what "store"
// means: a bare Variable introduces the name as a new local (or
// overwrites an existing one), while a Derefer stores through a
// pointer at its declared width.
func (c *Compiler) emitLet(ctx *unitContext, fctx *funcContext, n *ast.Let) (string, error) {
	switch lval := n.LValue.(type) {

	case *ast.Variable:
		value, err := c.emitExpr(ctx, fctx, n.RValue)
		if err != nil {
			return "", err
		}
		idx, _ := fctx.locals.Add(lval.Name)
		return value + fmt.Sprintf("\tmov [rbp-%d], rax\n", slot(idx)), nil

	case *ast.Derefer:
		value, err := c.emitExpr(ctx, fctx, n.RValue)
		if err != nil {
			return "", err
		}
		ptr, err := c.emitExpr(ctx, fctx, lval.Target)
		if err != nil {
			return "", err
		}

		var out strings.Builder
		out.WriteString(value)
		out.WriteString("\tpush rax\n")
		out.WriteString(ptr)
		out.WriteString("\tpop r10\n")
		out.WriteString(fmt.Sprintf("\tmov %s [rax], %s\n", lval.Size.Keyword(), lval.Size.NarrowR10()))
		return out.String(), nil

	default:
		return "", errors.Errorf("codegen: invalid assignment target: %s", ast.Format(n.LValue))
	}
}

// emitIf lowers a conditional: an if.ID label, the condition test, a
// branch past Then when it is zero, Then followed by a jump to
// end_if.ID, and, when Else is present, an else.ID label before the
// Else code that the branch targets instead.
func (c *Compiler) emitIf(ctx *unitContext, fctx *funcContext, n *ast.If) (string, error) {
	id := ctx.nextLabel()

	cond, err := c.emitExpr(ctx, fctx, n.Cond)
	if err != nil {
		return "", err
	}
	then, err := c.emitExpr(ctx, fctx, n.Then)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("if.%d:\n", id))
	out.WriteString(cond)
	out.WriteString("\tcmp rax, 0\n")

	if n.Else == nil {
		out.WriteString(fmt.Sprintf("\tje end_if.%d\n", id))
		out.WriteString(then)
		out.WriteString(fmt.Sprintf("\tjmp end_if.%d\n", id))
		out.WriteString(fmt.Sprintf("end_if.%d:\n", id))
		return out.String(), nil
	}

	els, err := c.emitExpr(ctx, fctx, n.Else)
	if err != nil {
		return "", err
	}

	out.WriteString(fmt.Sprintf("\tje else.%d\n", id))
	out.WriteString(then)
	out.WriteString(fmt.Sprintf("\tjmp end_if.%d\n", id))
	out.WriteString(fmt.Sprintf("else.%d:\n", id))
	out.WriteString(els)
	out.WriteString(fmt.Sprintf("end_if.%d:\n", id))
	return out.String(), nil
}

// emitWhile lowers a loop. Its end label is pushed onto the
// break-label stack before the body is emitted and popped again
// afterwards, so a nested While only ever sees its own end label as
// the break target.
func (c *Compiler) emitWhile(ctx *unitContext, fctx *funcContext, n *ast.While) (string, error) {
	id := ctx.nextLabel()
	label := fmt.Sprintf("%d", id)

	fctx.breaks.Push(label)
	cond, condErr := c.emitExpr(ctx, fctx, n.Cond)
	body, bodyErr := c.emitExpr(ctx, fctx, n.Body)
	if _, err := fctx.breaks.Pop(); err != nil {
		return "", err
	}
	if condErr != nil {
		return "", condErr
	}
	if bodyErr != nil {
		return "", bodyErr
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("while.%s:\n", label))
	out.WriteString(cond)
	out.WriteString("\tcmp rax, 0\n")
	out.WriteString(fmt.Sprintf("\tje end_while.%s\n", label))
	out.WriteString(body)
	out.WriteString(fmt.Sprintf("\tjmp while.%s\n", label))
	out.WriteString(fmt.Sprintf("end_while.%s:\n", label))
	return out.String(), nil
}

// emitBreak evaluates its value (for any side effects) and then jumps
// to the nearest enclosing While's end label.
func (c *Compiler) emitBreak(ctx *unitContext, fctx *funcContext, n *ast.Break) (string, error) {
	value, err := c.emitExpr(ctx, fctx, n.Value)
	if err != nil {
		return "", err
	}
	label, err := fctx.breaks.Top()
	if err != nil {
		return "", errors.New("codegen: break outside of any while loop")
	}
	return value + fmt.Sprintf("\tjmp end_while.%s\n", label), nil
}

// emitCall lowers a function call. Arguments are evaluated right to
// left, each pushed as it's produced; the first six are then popped
// into the System V argument registers, leaving any beyond six on the
// stack in right-to-left order exactly where the callee expects them.
// rax is zeroed before the indirect call to satisfy the variadic-call
// convention (no caller here knows whether a given extern is variadic).
func (c *Compiler) emitCall(ctx *unitContext, fctx *funcContext, n *ast.Call) (string, error) {
	var push strings.Builder
	var pop strings.Builder

	for i := len(n.Args) - 1; i >= 0; i-- {
		fromEnd := len(n.Args) - 1 - i
		asm, err := c.emitExpr(ctx, fctx, n.Args[i])
		if err != nil {
			return "", err
		}
		push.WriteString(asm)
		push.WriteString("\tpush rax\n")
		if fromEnd < len(abi) {
			pop.WriteString(fmt.Sprintf("\tpop %s\n", abi[fromEnd]))
		}
	}

	callee, err := c.emitExpr(ctx, fctx, n.Callee)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(push.String())
	out.WriteString(pop.String())
	out.WriteString(callee)
	out.WriteString("\tmov r10, rax\n")
	out.WriteString("\txor rax, rax\n")
	out.WriteString("\tcall r10\n")
	return out.String(), nil
}

// emitBinary lowers one of the strictly-binary operators. Div and Mod
// need cqo/idiv and don't fit the common push/pop/op template;
// comparisons share the template but finish with cmp+setcc+movzx
// instead of leaving a raw arithmetic/bitwise result in rax.
func (c *Compiler) emitBinary(ctx *unitContext, fctx *funcContext, n *ast.Binary) (string, error) {
	left, err := c.emitExpr(ctx, fctx, n.Left)
	if err != nil {
		return "", err
	}
	right, err := c.emitExpr(ctx, fctx, n.Right)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString(left)
	out.WriteString("\tpush rax\n")

	switch {
	case n.Op.IsDivMod():
		out.WriteString(right)
		out.WriteString("\tmov rsi, rax\n")
		out.WriteString("\tpop rax\n")
		out.WriteString("\tcqo\n")
		out.WriteString("\tidiv rsi\n")
		if n.Op == instructions.Mod {
			out.WriteString("\tmov rax, rdx\n")
		}

	case n.Op.IsComparison():
		out.WriteString(right)
		out.WriteString("\tmov r10, rax\n")
		out.WriteString("\tpop rax\n")
		out.WriteString("\tcmp rax, r10\n")
		out.WriteString(fmt.Sprintf("\t%s al\n", n.Op.Mnemonic()))
		out.WriteString("\tmovzx rax, al\n")

	default:
		out.WriteString(right)
		out.WriteString("\tmov r10, rax\n")
		out.WriteString("\tpop rax\n")
		out.WriteString(fmt.Sprintf("\t%s rax, r10\n", n.Op.Mnemonic()))
	}

	return out.String(), nil
}
