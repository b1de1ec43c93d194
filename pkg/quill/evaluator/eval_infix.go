package evaluator

import (
	"strings"

	"github.com/quillsh/quill/pkg/quill/ast"
	qerrors "github.com/quillsh/quill/pkg/quill/errors"
)

func evalPrefixExpression(pe *ast.PrefixExpression, frame *Frame) Object {
	right := evalExpression(pe.Right, frame)
	if isError(right) {
		return right
	}

	switch pe.Operator {
	case "-":
		switch v := right.(type) {
		case *Integer:
			return &Integer{Value: -v.Value}
		case *Float:
			return &Float{Value: -v.Value}
		}
		return newError(qerrors.TypeMismatch("number", typeName(right)))
	case "!":
		b, ok := right.(*Boolean)
		if !ok {
			return newError(qerrors.TypeMismatch("boolean", typeName(right)))
		}
		return nativeBool(!b.Value)
	}
	return newError(qerrors.TypeMismatch("prefix operator", pe.Operator))
}

func evalInfixExpression(ie *ast.InfixExpression, frame *Frame) Object {
	left := evalExpression(ie.Left, frame)
	if isError(left) {
		return left
	}
	right := evalExpression(ie.Right, frame)
	if isError(right) {
		return right
	}
	return evalInfix(ie.Operator, left, right)
}

func evalInfix(op string, left, right Object) Object {
	switch op {
	case "+", "-", "*", "/", "%":
		return evalArithmetic(op, left, right)
	case "<", ">", "<=", ">=":
		return evalComparison(op, left, right)
	case "==":
		eq, _ := looseEquals(left, right)
		return nativeBool(eq)
	case "!=":
		eq, _ := looseEquals(left, right)
		return nativeBool(!eq)
	case "in":
		return evalMembership(left, right)
	case "not-in":
		result := evalMembership(left, right)
		if isError(result) {
			return result
		}
		return nativeBool(result == FALSE)
	}
	return newError(qerrors.MismatchedOperation(typeName(left), typeName(right)))
}

func evalArithmetic(op string, left, right Object) Object {
	if op == "+" {
		if l, ok := left.(*String); ok {
			if r, ok := right.(*String); ok {
				return &String{Value: l.Value + r.Value}
			}
		}
	}

	if !isNumeric(left) || !isNumeric(right) {
		return newError(qerrors.MismatchedOperation(typeName(left), typeName(right)))
	}

	li, leftIsInt := left.(*Integer)
	ri, rightIsInt := right.(*Integer)
	if leftIsInt && rightIsInt {
		switch op {
		case "+":
			return &Integer{Value: li.Value + ri.Value}
		case "-":
			return &Integer{Value: li.Value - ri.Value}
		case "*":
			return &Integer{Value: li.Value * ri.Value}
		case "/":
			if ri.Value == 0 {
				return newError(&qerrors.ShellError{
					Class:   qerrors.ClassOperator,
					Code:    "OPER-0001",
					Message: "division by zero",
				})
			}
			if li.Value%ri.Value == 0 {
				return &Integer{Value: li.Value / ri.Value}
			}
			return &Float{Value: float64(li.Value) / float64(ri.Value)}
		case "%":
			if ri.Value == 0 {
				return newError(&qerrors.ShellError{
					Class:   qerrors.ClassOperator,
					Code:    "OPER-0001",
					Message: "division by zero",
				})
			}
			return &Integer{Value: li.Value % ri.Value}
		}
	}

	l, r := numericValue(left), numericValue(right)
	switch op {
	case "+":
		return &Float{Value: l + r}
	case "-":
		return &Float{Value: l - r}
	case "*":
		return &Float{Value: l * r}
	case "/":
		if r == 0 {
			return newError(&qerrors.ShellError{
				Class:   qerrors.ClassOperator,
				Code:    "OPER-0001",
				Message: "division by zero",
			})
		}
		return &Float{Value: l / r}
	}
	return newError(qerrors.MismatchedOperation(typeName(left), typeName(right)))
}

// evalComparison implements the ordering operators. Ordering is defined
// for numeric operands only.
func evalComparison(op string, left, right Object) Object {
	if !isNumeric(left) || !isNumeric(right) {
		return newError(qerrors.TypeMismatch("numeric operands", typeName(left)+" and "+typeName(right)))
	}
	l, r := numericValue(left), numericValue(right)
	switch op {
	case "<":
		return nativeBool(l < r)
	case ">":
		return nativeBool(l > r)
	case "<=":
		return nativeBool(l <= r)
	case ">=":
		return nativeBool(l >= r)
	}
	return newError(qerrors.TypeMismatch("numeric operands", typeName(left)+" and "+typeName(right)))
}

// looseEquals compares two values. The second result reports whether the
// kinds were comparable at all; integers and floats compare numerically
// across kinds.
func looseEquals(a, b Object) (bool, bool) {
	if isNumeric(a) && isNumeric(b) {
		return numericValue(a) == numericValue(b), true
	}
	if a.Type() != b.Type() {
		return false, false
	}

	switch av := a.(type) {
	case *String:
		return av.Value == b.(*String).Value, true
	case *Boolean:
		return av.Value == b.(*Boolean).Value, true
	case *Nothing:
		return true, true
	case *List:
		bv := b.(*List)
		if len(av.Elements) != len(bv.Elements) {
			return false, true
		}
		for i := range av.Elements {
			eq, ok := looseEquals(av.Elements[i], bv.Elements[i])
			if !ok || !eq {
				return false, ok
			}
		}
		return true, true
	case *Record:
		bv := b.(*Record)
		if len(av.Columns) != len(bv.Columns) {
			return false, true
		}
		for i := range av.Columns {
			if av.Columns[i] != bv.Columns[i] {
				return false, true
			}
			eq, ok := looseEquals(av.Values[i], bv.Values[i])
			if !ok || !eq {
				return false, ok
			}
		}
		return true, true
	}
	return false, false
}

// evalMembership implements 'in' for each container kind. A probe whose
// kind the container cannot hold is an operator error, not a false.
func evalMembership(probe, container Object) Object {
	switch c := container.(type) {
	case *List:
		for _, elem := range c.Elements {
			eq, comparable := looseEquals(probe, elem)
			if !comparable {
				return newError(qerrors.MismatchedOperation(typeName(probe), typeName(elem)))
			}
			if eq {
				return TRUE
			}
		}
		return FALSE
	case *String:
		p, ok := probe.(*String)
		if !ok {
			return newError(qerrors.MismatchedOperation(typeName(probe), "string"))
		}
		return nativeBool(strings.Contains(c.Value, p.Value))
	case *Range:
		if !isNumeric(probe) {
			return newError(qerrors.MismatchedOperation(typeName(probe), "range"))
		}
		return nativeBool(rangeContains(c, numericValue(probe)))
	case *Record:
		p, ok := probe.(*String)
		if !ok {
			return newError(qerrors.MismatchRecordOperation(typeName(probe)))
		}
		return nativeBool(c.HasColumn(p.Value))
	case *Table:
		p, ok := probe.(*String)
		if !ok {
			return newError(qerrors.MismatchRecordOperation(typeName(probe)))
		}
		for _, col := range c.Columns {
			if col == p.Value {
				return TRUE
			}
		}
		return FALSE
	case *Stream:
		// Short-circuits on a match; the rest of the stream stays unpulled.
		for {
			elem, ok := c.Next()
			if !ok {
				return FALSE
			}
			eq, comparable := looseEquals(probe, elem)
			if !comparable {
				return newError(qerrors.MismatchedOperation(typeName(probe), typeName(elem)))
			}
			if eq {
				return TRUE
			}
		}
	}
	return newError(qerrors.MismatchedOperation(typeName(probe), typeName(container)))
}

// rangeContains normalizes direction and honors the exclusive end, which
// always refers to the written end bound.
func rangeContains(r *Range, probe float64) bool {
	start, end := numericValue(r.Start), numericValue(r.End)
	if start <= end {
		if !r.Inclusive {
			return probe >= start && probe < end
		}
		return probe >= start && probe <= end
	}
	if !r.Inclusive {
		return probe <= start && probe > end
	}
	return probe <= start && probe >= end
}
