// Package errors provides structured error types for the Quill language.
//
// It defines ShellError, a unified error type covering both parse and
// evaluation failures, with a class and code for programmatic handling
// and a message whose wording is part of the language's observable
// contract.
package errors

import (
	"fmt"
	"strings"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Incomplete/invalid source
	ClassUndefined ErrorClass = "undefined" // Variable or command not found
	ClassDuplicate ErrorClass = "duplicate" // Name defined more than once
	ClassImport    ErrorClass = "import"    // use/hide path resolution
	ClassArity     ErrorClass = "arity"     // Wrong argument count
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassOperator  ErrorClass = "operator"  // Invalid operand kinds
	ClassColumn    ErrorClass = "column"    // Missing record column
	ClassIndex     ErrorClass = "index"     // Out of bounds
)

// ShellError represents any error from parsing or evaluation.
type ShellError struct {
	Class   ErrorClass `json:"class"`
	Code    string     `json:"code"`            // e.g. "OPER-0002"
	Message string     `json:"message"`         // Human-readable message
	Hints   []string   `json:"hints,omitempty"` // Suggestions for fixing
	Line    int        `json:"line"`            // 1-based (0 if unknown)
	Column  int        `json:"column"`          // 1-based (0 if unknown)
}

// Error implements the error interface.
func (e *ShellError) Error() string {
	return e.String()
}

// String returns a formatted representation of the error.
func (e *ShellError) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}
	sb.WriteString(e.Message)
	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// WithPosition returns a copy of the error with line and column set.
func (e *ShellError) WithPosition(line, column int) *ShellError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a parse error.
func (e *ShellError) IsParseError() bool {
	return e.Class == ClassParse
}

// Constructors for the error taxonomy. The message substrings below are
// load-bearing contract text: callers match on them, so the wording
// must not drift.

// ParseIncomplete reports source that ended mid-construct.
func ParseIncomplete(what string) *ShellError {
	return &ShellError{
		Class:   ClassParse,
		Code:    "PARSE-0001",
		Message: fmt.Sprintf("incomplete %s", what),
	}
}

// VariableNotFound reports a $name lookup that failed through the root frame.
func VariableNotFound(name string) *ShellError {
	return &ShellError{
		Class:   ClassUndefined,
		Code:    "UNDEF-0001",
		Message: fmt.Sprintf("Variable not found: %s", name),
	}
}

// UnknownCommand reports a call (or hide) of a name no frame can resolve.
func UnknownCommand(name string) *ShellError {
	return &ShellError{
		Class:   ClassUndefined,
		Code:    "UNDEF-0002",
		Message: fmt.Sprintf("unknown command: %s", name),
	}
}

// CommandNotFound reports an invocation of a name no frame can resolve.
// Distinct from UnknownCommand, which covers hide targets.
func CommandNotFound(name string) *ShellError {
	return &ShellError{
		Class:   ClassUndefined,
		Code:    "UNDEF-0003",
		Message: fmt.Sprintf("command not found: %s", name),
	}
}

// DuplicateDefinition reports a def of a name still live in the same frame.
func DuplicateDefinition(name string) *ShellError {
	return &ShellError{
		Class:   ClassDuplicate,
		Code:    "DUP-0001",
		Message: fmt.Sprintf("%s defined more than once", name),
	}
}

// ImportNotFound reports a use/hide path segment absent from the export set.
func ImportNotFound(path string) *ShellError {
	return &ShellError{
		Class:   ClassImport,
		Code:    "IMPORT-0001",
		Message: fmt.Sprintf("could not find import: %s", path),
	}
}

// ArityMismatch reports too few positional arguments for a command.
func ArityMismatch(name string, want, got int) *ShellError {
	return &ShellError{
		Class:   ClassArity,
		Code:    "ARITY-0001",
		Message: fmt.Sprintf("%s requires %d positional arguments, got %d", name, want, got),
		Hints:   []string{fmt.Sprintf("check the signature of %s", name)},
	}
}

// TypeMismatch reports an operand or condition of the wrong kind.
func TypeMismatch(expected, got string) *ShellError {
	return &ShellError{
		Class:   ClassType,
		Code:    "TYPE-0001",
		Message: fmt.Sprintf("type mismatch: expected %s, got %s", expected, got),
	}
}

// MismatchedOperation reports cross-kind membership against a list,
// string, or range.
func MismatchedOperation(lhs, rhs string) *ShellError {
	return &ShellError{
		Class:   ClassOperator,
		Code:    "OPER-0002",
		Message: fmt.Sprintf("types %s and %s mismatched for operation", lhs, rhs),
	}
}

// MismatchRecordOperation reports a non-string probe into a record. Kept
// distinct from MismatchedOperation: the two messages are separately
// observable.
func MismatchRecordOperation(lhs string) *ShellError {
	return &ShellError{
		Class:   ClassOperator,
		Code:    "OPER-0003",
		Message: fmt.Sprintf("type %s caused a mismatch during operation on record", lhs),
	}
}

// ColumnNotFound reports a name path segment missing from a record.
func ColumnNotFound(name string) *ShellError {
	return &ShellError{
		Class:   ClassColumn,
		Code:    "COL-0001",
		Message: fmt.Sprintf("column not found: %s", name),
	}
}

// IndexOutOfRange reports an index path segment outside a list.
func IndexOutOfRange(index, length int) *ShellError {
	return &ShellError{
		Class:   ClassIndex,
		Code:    "INDEX-0001",
		Message: fmt.Sprintf("index out of range: %d (length %d)", index, length),
	}
}
