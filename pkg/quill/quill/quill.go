// Package quill provides a public API for embedding the Quill
// interpreter.
package quill

import (
	"github.com/quillsh/quill/pkg/quill/errors"
	"github.com/quillsh/quill/pkg/quill/evaluator"
	"github.com/quillsh/quill/pkg/quill/lexer"
	"github.com/quillsh/quill/pkg/quill/parser"
)

// Session holds evaluation state across source fragments. Definitions,
// variables, imports, and hide markers made by one Eval call stay
// visible to the next, which is what a REPL needs.
type Session struct {
	frame *evaluator.Frame
}

// NewSession creates a session with the builtin commands installed. The
// builtins live in a parent frame, so user definitions may reuse their
// names.
func NewSession() *Session {
	root := evaluator.NewRootFrame()
	return &Session{frame: evaluator.NewChildFrame(root)}
}

// SetLogger routes evaluation output for this session.
func (s *Session) SetLogger(logger Logger) {
	s.frame.Logger = logger
}

// Eval parses and evaluates one source fragment. The first parse error
// or evaluation error is returned; evaluation stops there.
func (s *Session) Eval(src string) (evaluator.Object, *errors.ShellError) {
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}

	result := evaluator.Eval(program, s.frame)
	if errObj, ok := result.(*evaluator.Error); ok {
		return nil, errObj.Err
	}
	return result, nil
}

// Render converts a result value to its canonical text. Streams are
// drained first.
func Render(obj evaluator.Object) string {
	if s, ok := obj.(*evaluator.Stream); ok {
		obj = s.Collect()
	}
	if obj == nil {
		return ""
	}
	return obj.Inspect()
}

// Run evaluates a complete program in a fresh session and returns the
// rendered value of its last statement.
func Run(src string) (string, *errors.ShellError) {
	result, err := NewSession().Eval(src)
	if err != nil {
		return "", err
	}
	return Render(result), nil
}
