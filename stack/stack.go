// Package stack implements a small mutex-guarded string stack.
//
// The code generator uses it as the function-local break-label stack
// that "break" resolves its jump target from: push a label when
// entering a loop, pop it on exit, read the top without disturbing it
// to resolve a nested break.
package stack

import (
	"sync"

	"github.com/pkg/errors"
)

// Stack holds an ordered list of strings, safe for concurrent use. A
// single compilation never shares one Stack across goroutines, but
// guarding it costs nothing and keeps the type safe to reuse if a
// future caller parallelises compilation of independent functions.
type Stack struct {
	lock sync.Mutex
	s    []string
}

// New returns an empty Stack.
func New() *Stack {
	return &Stack{s: make([]string, 0)}
}

// Push adds v to the top of the stack.
func (s *Stack) Push(v string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.s = append(s.s, v)
}

// Pop removes and returns the top of the stack, or an error if empty.
func (s *Stack) Pop() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	l := len(s.s)
	if l == 0 {
		return "", errors.New("empty stack")
	}

	v := s.s[l-1]
	s.s = s.s[:l-1]
	return v, nil
}

// Top returns the top of the stack without removing it, or an error if
// empty. This is what Break uses to resolve its jump target without
// disturbing the enclosing While's own Pop-on-exit.
func (s *Stack) Top() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	l := len(s.s)
	if l == 0 {
		return "", errors.New("empty stack")
	}
	return s.s[l-1], nil
}

// Empty reports whether the stack holds no items.
func (s *Stack) Empty() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.s) == 0
}
