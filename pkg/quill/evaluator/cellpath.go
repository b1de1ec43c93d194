package evaluator

import (
	qerrors "github.com/quillsh/quill/pkg/quill/errors"
)

// followCellPath applies path segments to a value, one at a time. A name
// segment on a list or table broadcasts over the rows, producing a list
// of the column's values; an index segment selects one element or row.
// Streams are drained before addressing since paths need random access.
func followCellPath(obj Object, segments []PathSegment) Object {
	for _, seg := range segments {
		if s, ok := obj.(*Stream); ok {
			obj = s.Collect()
		}
		if seg.IsInt {
			obj = followIndex(obj, seg.Index)
		} else {
			obj = followName(obj, seg.Name)
		}
		if isError(obj) {
			return obj
		}
	}
	return obj
}

func followName(obj Object, name string) Object {
	switch v := obj.(type) {
	case *Record:
		val, ok := v.Get(name)
		if !ok {
			return newError(qerrors.ColumnNotFound(name))
		}
		return val
	case *Table:
		out := &List{Elements: make([]Object, 0, len(v.Rows))}
		for _, row := range v.Rows {
			val, ok := row.Get(name)
			if !ok {
				return newError(qerrors.ColumnNotFound(name))
			}
			out.Elements = append(out.Elements, val)
		}
		return out
	case *List:
		out := &List{Elements: make([]Object, 0, len(v.Elements))}
		for _, elem := range v.Elements {
			val := followName(elem, name)
			if isError(val) {
				return val
			}
			out.Elements = append(out.Elements, val)
		}
		return out
	default:
		return newError(qerrors.TypeMismatch("record or table", typeName(obj)))
	}
}

func followIndex(obj Object, index int) Object {
	switch v := obj.(type) {
	case *List:
		if index < 0 || index >= len(v.Elements) {
			return newError(qerrors.IndexOutOfRange(index, len(v.Elements)))
		}
		return v.Elements[index]
	case *Table:
		if index < 0 || index >= len(v.Rows) {
			return newError(qerrors.IndexOutOfRange(index, len(v.Rows)))
		}
		return v.Rows[index]
	case *Range:
		elems := rangeValues(v)
		if index < 0 || index >= len(elems) {
			return newError(qerrors.IndexOutOfRange(index, len(elems)))
		}
		return elems[index]
	default:
		return newError(qerrors.TypeMismatch("list or table", typeName(obj)))
	}
}
