// The compiler-package contains the core of our compiler.
//
// In brief we go through a three-step process:
//
//  1.  Tokenize and parse the source text into a series of function
//      definitions, each with a body built from our recursive
//      expression tree.
//
//  2.  Walk each definition's body, threading a small amount of
//      per-function state (the local-variable set, the active
//      break-label stack) and a small amount of per-unit state (the
//      label counter, the data section, the set of referenced globals).
//
//  3.  Join the per-function assembly together with the data section
//      and the computed extern list into one translation unit.
//
// There is one minor complication: string literals have to live in the
// data section under generated labels, and duplicates aren't collapsed
// - every occurrence gets its own label, since two textually identical
// strings at different call sites have no reason to share storage here.
package compiler

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skx/cish-compiler/ast"
	"github.com/skx/cish-compiler/internal/config"
	"github.com/skx/cish-compiler/internal/logging"
	"github.com/skx/cish-compiler/parser"
)

// Compiler holds our object-state.
type Compiler struct {
	// source holds the program text we're compiling.
	source string

	// log is the structured logger shared by every pipeline stage.
	log *logrus.Logger

	// definitions holds the parsed program, once Parse has run.
	definitions []*ast.Definition
}

//
// Our public API consists of:
//   New
//   Parse
//   Compile
//
// The rest of the code is an implementation detail.
//

// New creates a new compiler for the given source text. cfg decides
// whether trace-level logging is enabled; it never changes the
// generated assembly.
func New(source string, cfg config.Config) *Compiler {
	return &Compiler{
		source: source,
		log:    logging.New(cfg),
	}
}

// Parse tokenizes and parses the source text into a series of function
// definitions, caching the result for a subsequent Compile call.
//
// It's exposed as its own step - rather than folded invisibly into
// Compile - because a caller (or a test) that only wants to inspect the
// parsed form shouldn't have to run code generation to get it.
func (c *Compiler) Parse() ([]*ast.Definition, error) {
	log := logging.Component(c.log, "parse")

	defs, err := parser.New(log).Parse(c.source)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	log.Tracef("parsed %d definition(s)", len(defs))

	c.definitions = defs
	return defs, nil
}

// Compile converts the input program into a NASM-syntax (Intel,
// System V AMD64) translation unit.
func (c *Compiler) Compile() (string, error) {
	if c.definitions == nil {
		if _, err := c.Parse(); err != nil {
			return "", err
		}
	}

	out, err := c.emit()
	if err != nil {
		return "", errors.Wrap(err, "emit")
	}
	return out, nil
}
