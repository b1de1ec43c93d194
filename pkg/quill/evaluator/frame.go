package evaluator

import (
	"fmt"
	"os"

	"github.com/quillsh/quill/pkg/quill/ast"
)

// Logger receives log output from evaluation.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

type stdoutLogger struct{}

func (l *stdoutLogger) Log(values ...any)     { fmt.Fprint(os.Stdout, values...) }
func (l *stdoutLogger) LogLine(values ...any) { fmt.Fprintln(os.Stdout, values...) }

// DefaultLogger writes to stdout.
var DefaultLogger Logger = &stdoutLogger{}

// BuiltinFunction is the implementation of a built-in command. Built-ins
// occupy the same namespace as user-defined commands and are invoked
// through the identical resolution path.
type BuiltinFunction func(ctx *CallContext) Object

// CallContext carries the evaluated invocation state into a command.
type CallContext struct {
	Input Object          // piped-in value (NOTHING at pipeline head)
	Args  []Object        // evaluated positional arguments
	Flags map[string]bool // '-n' style flags
	Frame *Frame          // the caller's frame
}

// CommandDef is a command: either a user definition (Params/Body/Frame)
// or a built-in (Builtin set). Frame is the defining frame; a call runs
// in a fresh frame parented there, never at the caller.
type CommandDef struct {
	Name    string
	Params  []ast.Param
	Body    *ast.BlockStatement
	Frame   *Frame
	Builtin BuiltinFunction
	Export  bool
}

// AliasDef is a partial application: invoking the alias resolves Target
// in the caller's scope with BoundArgs prepended, unevaluated, to the
// caller's own arguments.
type AliasDef struct {
	Name      string
	Target    []string
	BoundArgs []ast.Expression
}

// Module is a named set of declarations with an export subset, resolved
// during predeclaration before any body executes. Frame is the module's
// own frame, where its body statements later run.
type Module struct {
	Name    string
	Exports []*CommandDef
	Frame   *Frame
}

// Export returns the exported command with the given name.
func (m *Module) Export(name string) (*CommandDef, bool) {
	for _, def := range m.Exports {
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}

// Frame is one lexical scope: variable, command, and alias bindings,
// hide markers, and a parent pointer fixed at creation. Frames form a
// chain; lookup walks innermost to outermost.
type Frame struct {
	vars     map[string]Object
	commands map[string]*CommandDef
	aliases  map[string]*AliasDef
	modules  map[string]*Module
	hidden   map[string]int // hide markers; each shadows one binding outward
	envs     map[string]string
	parent   *Frame

	Logger Logger
}

// NewFrame creates a root frame.
func NewFrame() *Frame {
	return &Frame{
		vars:     make(map[string]Object),
		commands: make(map[string]*CommandDef),
		aliases:  make(map[string]*AliasDef),
		modules:  make(map[string]*Module),
		hidden:   make(map[string]int),
		envs:     make(map[string]string),
		Logger:   DefaultLogger,
	}
}

// NewChildFrame creates a frame parented to outer. The parent pointer
// is never reassigned.
func NewChildFrame(outer *Frame) *Frame {
	f := NewFrame()
	f.parent = outer
	if outer != nil {
		f.Logger = outer.Logger
	}
	return f
}

// GetVar looks a variable up through the frame chain.
func (f *Frame) GetVar(name string) (Object, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetVar binds a variable in this frame only; last write wins.
func (f *Frame) SetVar(name string, val Object) {
	f.vars[name] = val
}

// GetEnv looks an environment string up through the frame chain.
func (f *Frame) GetEnv(name string) (string, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.envs[name]; ok {
			return v, true
		}
	}
	return "", false
}

// SetEnv binds an environment string in this frame only.
func (f *Frame) SetEnv(name, val string) {
	f.envs[name] = val
}

// DeclareCommand binds a command in this frame only.
func (f *Frame) DeclareCommand(def *CommandDef) {
	f.commands[def.Name] = def
}

// HasLocalCommand reports whether this frame itself binds the name,
// hidden or not. Used for duplicate-definition checks.
func (f *Frame) HasLocalCommand(name string) bool {
	_, ok := f.commands[name]
	return ok
}

// DeclareAlias binds an alias in this frame only.
func (f *Frame) DeclareAlias(def *AliasDef) {
	f.aliases[def.Name] = def
}

// DeclareModule binds a module in this frame only.
func (f *Frame) DeclareModule(m *Module) {
	f.modules[m.Name] = m
}

// HasLocalModule reports whether this frame itself binds the module.
func (f *Frame) HasLocalModule(name string) bool {
	_, ok := f.modules[name]
	return ok
}

// GetModule looks a module up through the frame chain.
func (f *Frame) GetModule(name string) (*Module, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if m, ok := fr.modules[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// ResolveCommand walks the chain honoring hide markers. Each marker
// shadows exactly one binding looking outward, so hiding a local
// definition re-exposes an outer one.
func (f *Frame) ResolveCommand(name string) (*CommandDef, *AliasDef, bool) {
	skip := 0
	for fr := f; fr != nil; fr = fr.parent {
		skip += fr.hidden[name]
		if def, ok := fr.commands[name]; ok {
			if skip > 0 {
				skip--
			} else {
				return def, nil, true
			}
		}
		if al, ok := fr.aliases[name]; ok {
			if skip > 0 {
				skip--
			} else {
				return nil, al, true
			}
		}
	}
	return nil, nil, false
}

// Hide installs a hide marker for name in this frame. The marker is
// discarded with the frame, so hiding is reversible on scope exit.
func (f *Frame) Hide(name string) {
	f.hidden[name]++
}

// Unhide clears this frame's hide markers for name; a re-import makes
// the name resolvable again.
func (f *Frame) Unhide(name string) {
	delete(f.hidden, name)
}
