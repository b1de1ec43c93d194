package evaluator

import (
	"strconv"
	"strings"

	"github.com/quillsh/quill/pkg/quill/ast"
	qerrors "github.com/quillsh/quill/pkg/quill/errors"
)

// ObjectType represents the type of values in the language
type ObjectType string

const (
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	BOOLEAN_OBJ  = "BOOLEAN"
	STRING_OBJ   = "STRING"
	LIST_OBJ     = "LIST"
	RECORD_OBJ   = "RECORD"
	TABLE_OBJ    = "TABLE"
	RANGE_OBJ    = "RANGE"
	BLOCK_OBJ    = "BLOCK"
	STREAM_OBJ   = "STREAM"
	CELLPATH_OBJ = "CELLPATH"
	NOTHING_OBJ  = "NOTHING"
	ERROR_OBJ    = "ERROR"
)

// Object represents all values in the language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents integer values
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

// Float represents floating-point values
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// Inspect renders at 15 significant digits so accumulated binary error
// does not leak into canonical text: 10.1 + 0.8 renders as 10.9.
func (f *Float) Inspect() string {
	return strconv.FormatFloat(f.Value, 'g', 15, 64)
}

// Boolean represents true/false values
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// String represents string values
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Nothing is the absence of a value; it renders as empty text.
type Nothing struct{}

func (n *Nothing) Type() ObjectType { return NOTHING_OBJ }
func (n *Nothing) Inspect() string  { return "" }

// List represents ordered collections of values
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record is an ordered mapping from column names to values. Insertion
// order is significant and preserved.
type Record struct {
	Columns []string
	Values  []Object
}

func (r *Record) Type() ObjectType { return RECORD_OBJ }
func (r *Record) Inspect() string {
	parts := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		parts[i] = col + ": " + r.Values[i].Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value of the named column.
func (r *Record) Get(name string) (Object, bool) {
	for i, col := range r.Columns {
		if col == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether the record has the named column.
func (r *Record) HasColumn(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Table is a list of records sharing an identical column set and
// order. The invariant is enforced at construction by NewTable.
type Table struct {
	Columns []string
	Rows    []*Record
}

func (t *Table) Type() ObjectType { return TABLE_OBJ }
func (t *Table) Inspect() string {
	parts := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		parts[i] = row.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewTable builds a table from rows, checking that every row carries
// the same columns in the same order.
func NewTable(rows []*Record) (*Table, *qerrors.ShellError) {
	t := &Table{}
	if len(rows) == 0 {
		return t, nil
	}
	t.Columns = rows[0].Columns
	for _, row := range rows {
		if len(row.Columns) != len(t.Columns) {
			return nil, qerrors.TypeMismatch("uniform table rows", "row with different columns")
		}
		for i, col := range row.Columns {
			if col != t.Columns[i] {
				return nil, qerrors.TypeMismatch("uniform table rows", "row with different columns")
			}
		}
	}
	t.Rows = rows
	return t, nil
}

// Range represents 'start..end'. Direction is derived from the bounds,
// not stored; Inclusive is false for the '..<' form.
type Range struct {
	Start     Object // *Integer or *Float
	End       Object // *Integer or *Float
	Inclusive bool
}

func (r *Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string {
	op := ".."
	if !r.Inclusive {
		op = "..<"
	}
	return r.Start.Inspect() + op + r.End.Inspect()
}

// Block is a closure: an AST body plus the frame that was active at
// the block's definition site. The frame stays alive for as long as
// the block is reachable.
type Block struct {
	Param string // "" means the implicit $it parameter
	Body  *ast.BlockStatement
	Frame *Frame
}

func (b *Block) Type() ObjectType { return BLOCK_OBJ }
func (b *Block) Inspect() string  { return "<block>" }

// Stream is a lazy, single-pass, non-restartable sequence of values.
// Downstream consumers may pull partially and abandon the rest.
type Stream struct {
	next func() (Object, bool)
}

// NewStream wraps a pull function into a stream value.
func NewStream(next func() (Object, bool)) *Stream {
	return &Stream{next: next}
}

func (s *Stream) Type() ObjectType { return STREAM_OBJ }
func (s *Stream) Inspect() string  { return "<stream>" }

// Next pulls the next value; ok is false once the stream is exhausted.
func (s *Stream) Next() (Object, bool) {
	return s.next()
}

// Collect drains the stream into a list.
func (s *Stream) Collect() *List {
	list := &List{}
	for {
		v, ok := s.Next()
		if !ok {
			break
		}
		list.Elements = append(list.Elements, v)
	}
	return list
}

// PathSegment is one resolved segment of a cell path.
type PathSegment struct {
	Name  string
	Index int
	IsInt bool
}

func (ps PathSegment) String() string {
	if ps.IsInt {
		return strconv.Itoa(ps.Index)
	}
	return ps.Name
}

// CellPath is a value holding an ordered sequence of path segments, as
// produced by a bare path argument like 'grade.1'.
type CellPath struct {
	Segments []PathSegment
}

func (cp *CellPath) Type() ObjectType { return CELLPATH_OBJ }
func (cp *CellPath) Inspect() string {
	parts := make([]string, len(cp.Segments))
	for i, s := range cp.Segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Error wraps a structured error as a value so it can propagate through
// evaluation; the first error aborts the remaining work for the
// statement.
type Error struct {
	Err *qerrors.ShellError
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.Err.String() }

// Shared singletons.
var (
	NOTHING = &Nothing{}
	TRUE    = &Boolean{Value: true}
	FALSE   = &Boolean{Value: false}
)

func nativeBool(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

func newError(err *qerrors.ShellError) *Error {
	return &Error{Err: err}
}

func isError(obj Object) bool {
	if obj == nil {
		return false
	}
	return obj.Type() == ERROR_OBJ
}

// typeName renders an object's kind for error messages.
func typeName(obj Object) string {
	return strings.ToLower(string(obj.Type()))
}

// isNumeric reports whether the object is an Integer or Float.
func isNumeric(obj Object) bool {
	return obj.Type() == INTEGER_OBJ || obj.Type() == FLOAT_OBJ
}

// numericValue returns the float64 value of a numeric object.
func numericValue(obj Object) float64 {
	switch v := obj.(type) {
	case *Integer:
		return float64(v.Value)
	case *Float:
		return v.Value
	}
	return 0
}
