package ast

import (
	"fmt"
	"strings"
)

// Format renders an expression back to a source-like string. It is a
// debugging aid for trace logging and for naming the offending node in
// code-generator error messages - nothing in the compilation pipeline
// parses its own output back, and it is never written to stdout.
func Format(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *Integer:
		return fmt.Sprintf("%d", n.Value)
	case *String:
		return n.Raw
	case *Undefined:
		return "undefined"
	case *Variable:
		return n.Name.String()
	case *Pointer:
		return "&" + n.Name.String()
	case *Derefer:
		return "*" + Format(n.Target)
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Format(a)
		}
		return fmt.Sprintf("%s(%s)", Format(n.Callee), strings.Join(args, ", "))
	case *Block:
		lines := make([]string, len(n.Lines))
		for i, l := range n.Lines {
			lines[i] = "\t" + Format(l)
		}
		return fmt.Sprintf("{\n%s\n}", strings.Join(lines, "\n"))
	case *Let:
		return fmt.Sprintf("let %s = %s", Format(n.LValue), Format(n.RValue))
	case *If:
		if n.Else != nil {
			return fmt.Sprintf("if %s then %s else %s", Format(n.Cond), Format(n.Then), Format(n.Else))
		}
		return fmt.Sprintf("if %s then %s", Format(n.Cond), Format(n.Then))
	case *While:
		return fmt.Sprintf("while %s do %s", Format(n.Cond), Format(n.Body))
	case *Break:
		return fmt.Sprintf("break %s", Format(n.Value))
	case *Return:
		return fmt.Sprintf("return %s", Format(n.Value))
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", Format(n.Left), n.Op, Format(n.Right))
	default:
		return fmt.Sprintf("<unknown %T>", e)
	}
}

// FormatDefinition renders a whole function definition for trace logging.
func FormatDefinition(d *Definition) string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("fn %s(%s) %s", d.Name, strings.Join(params, ", "), Format(d.Body))
}
