package evaluator

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	qerrors "github.com/quillsh/quill/pkg/quill/errors"
)

// NewRootFrame creates a frame with every builtin command registered.
// Programs should run in a child of this frame so user definitions may
// shadow builtins without tripping the duplicate check.
func NewRootFrame() *Frame {
	f := NewFrame()
	register := func(name string, fn BuiltinFunction) {
		f.DeclareCommand(&CommandDef{Name: name, Builtin: fn, Frame: f})
	}

	register("echo", builtinEcho)
	register("print", builtinPrint)
	register("do", builtinDo)
	register("each", builtinEach)
	register("where", builtinWhere)
	register("get", builtinGet)
	register("select", builtinSelect)
	register("wrap", builtinWrap)
	register("length", builtinLength)
	register("lines", builtinLines)
	register("split row", builtinSplitRow)
	register("split column", builtinSplitColumn)
	register("from json", builtinFromJSON)
	register("from yaml", builtinFromYAML)
	register("to json", builtinToJSON)
	register("build-string", builtinBuildString)

	return f
}

func builtinEcho(ctx *CallContext) Object {
	switch len(ctx.Args) {
	case 0:
		return ctx.Input
	case 1:
		return ctx.Args[0]
	}
	return &List{Elements: ctx.Args}
}

// builtinPrint writes its arguments, or its input when called bare,
// through the frame logger and produces nothing.
func builtinPrint(ctx *CallContext) Object {
	logger := ctx.Frame.Logger
	if logger == nil {
		logger = DefaultLogger
	}
	if len(ctx.Args) == 0 {
		logger.LogLine(renderValue(ctx.Input))
		return NOTHING
	}
	parts := make([]any, len(ctx.Args))
	for i, arg := range ctx.Args {
		parts[i] = renderValue(arg)
	}
	logger.LogLine(parts...)
	return NOTHING
}

func builtinDo(ctx *CallContext) Object {
	block, errObj := blockArg(ctx, "do")
	if errObj != nil {
		return errObj
	}
	return evalBlock(block, ctx.Input)
}

// builtinEach maps a block over the input. Records iterate column-wise
// as {column, value} pairs and rebuild a record from the results; a
// scalar input runs the block once and returns the bare result.
func builtinEach(ctx *CallContext) Object {
	block, errObj := blockArg(ctx, "each")
	if errObj != nil {
		return errObj
	}
	numbered := ctx.Flags["n"]

	if rec, ok := ctx.Input.(*Record); ok {
		out := &Record{Columns: rec.Columns, Values: make([]Object, len(rec.Values))}
		for i, col := range rec.Columns {
			entry := &Record{
				Columns: []string{"column", "value"},
				Values:  []Object{&String{Value: col}, rec.Values[i]},
			}
			result := evalBlock(block, entry)
			if isError(result) {
				return result
			}
			out.Values[i] = result
		}
		return out
	}

	switch ctx.Input.(type) {
	case *List, *Table, *Range, *Stream:
	default:
		return evalBlock(block, ctx.Input)
	}

	items, errObj2 := iterationValues(ctx.Input)
	if errObj2 != nil {
		return errObj2
	}
	out := &List{Elements: make([]Object, 0, len(items))}
	for i, item := range items {
		arg := item
		if numbered {
			arg = &Record{
				Columns: []string{"index", "item"},
				Values:  []Object{&Integer{Value: int64(i)}, item},
			}
		}
		result := evalBlock(block, arg)
		if isError(result) {
			return result
		}
		out.Elements = append(out.Elements, result)
	}
	return out
}

func builtinWhere(ctx *CallContext) Object {
	block, errObj := blockArg(ctx, "where")
	if errObj != nil {
		return errObj
	}

	keep := func(item Object) (bool, Object) {
		result := evalBlock(block, item)
		if isError(result) {
			return false, result
		}
		b, ok := result.(*Boolean)
		if !ok {
			return false, newError(qerrors.TypeMismatch("boolean condition", typeName(result)))
		}
		return b.Value, nil
	}

	if table, ok := ctx.Input.(*Table); ok {
		out := &Table{Columns: table.Columns}
		for _, row := range table.Rows {
			ok, errObj := keep(row)
			if errObj != nil {
				return errObj
			}
			if ok {
				out.Rows = append(out.Rows, row)
			}
		}
		return out
	}

	items, errObj2 := iterationValues(ctx.Input)
	if errObj2 != nil {
		return errObj2
	}
	out := &List{}
	for _, item := range items {
		ok, errObj := keep(item)
		if errObj != nil {
			return errObj
		}
		if ok {
			out.Elements = append(out.Elements, item)
		}
	}
	return out
}

func builtinGet(ctx *CallContext) Object {
	if len(ctx.Args) == 0 {
		return newError(qerrors.ArityMismatch("get", 1, 0))
	}
	switch path := ctx.Args[0].(type) {
	case *CellPath:
		return followCellPath(ctx.Input, path.Segments)
	case *String:
		return followCellPath(ctx.Input, []PathSegment{{Name: path.Value}})
	case *Integer:
		return followCellPath(ctx.Input, []PathSegment{{Index: int(path.Value), IsInt: true}})
	}
	return newError(qerrors.TypeMismatch("cell path", typeName(ctx.Args[0])))
}

func builtinSelect(ctx *CallContext) Object {
	if len(ctx.Args) == 0 {
		return newError(qerrors.ArityMismatch("select", 1, 0))
	}
	columns := make([]string, len(ctx.Args))
	for i, arg := range ctx.Args {
		s, ok := arg.(*String)
		if !ok {
			return newError(qerrors.TypeMismatch("column name", typeName(arg)))
		}
		columns[i] = s.Value
	}

	project := func(rec *Record) (*Record, Object) {
		out := &Record{Columns: columns, Values: make([]Object, len(columns))}
		for i, col := range columns {
			val, ok := rec.Get(col)
			if !ok {
				return nil, newError(qerrors.ColumnNotFound(col))
			}
			out.Values[i] = val
		}
		return out, nil
	}

	switch v := ctx.Input.(type) {
	case *Record:
		out, errObj := project(v)
		if errObj != nil {
			return errObj
		}
		return out
	case *Table:
		out := &Table{Columns: columns}
		for _, row := range v.Rows {
			projected, errObj := project(row)
			if errObj != nil {
				return errObj
			}
			out.Rows = append(out.Rows, projected)
		}
		return out
	}
	return newError(qerrors.TypeMismatch("record or table", typeName(ctx.Input)))
}

// builtinWrap turns a list into a single-column table, or a scalar into
// a single-column record.
func builtinWrap(ctx *CallContext) Object {
	if len(ctx.Args) == 0 {
		return newError(qerrors.ArityMismatch("wrap", 1, 0))
	}
	name, ok := ctx.Args[0].(*String)
	if !ok {
		return newError(qerrors.TypeMismatch("column name", typeName(ctx.Args[0])))
	}

	input := ctx.Input
	if s, ok := input.(*Stream); ok {
		input = s.Collect()
	}
	if r, ok := input.(*Range); ok {
		input = &List{Elements: rangeValues(r)}
	}

	if list, ok := input.(*List); ok {
		table := &Table{Columns: []string{name.Value}}
		for _, elem := range list.Elements {
			table.Rows = append(table.Rows, &Record{
				Columns: []string{name.Value},
				Values:  []Object{elem},
			})
		}
		return table
	}
	return &Record{Columns: []string{name.Value}, Values: []Object{input}}
}

func builtinLength(ctx *CallContext) Object {
	switch v := ctx.Input.(type) {
	case *List:
		return &Integer{Value: int64(len(v.Elements))}
	case *Table:
		return &Integer{Value: int64(len(v.Rows))}
	case *Record:
		return &Integer{Value: int64(len(v.Columns))}
	case *Range:
		return &Integer{Value: int64(len(rangeValues(v)))}
	case *Stream:
		count := int64(0)
		for {
			if _, ok := v.Next(); !ok {
				break
			}
			count++
		}
		return &Integer{Value: count}
	case *String:
		return &Integer{Value: int64(len([]rune(v.Value)))}
	case *Nothing:
		return &Integer{Value: 0}
	}
	return newError(qerrors.TypeMismatch("collection", typeName(ctx.Input)))
}

// builtinLines splits text into a lazy stream of lines.
func builtinLines(ctx *CallContext) Object {
	s, ok := ctx.Input.(*String)
	if !ok {
		return newError(qerrors.TypeMismatch("string", typeName(ctx.Input)))
	}
	parts := strings.Split(s.Value, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	i := 0
	return NewStream(func() (Object, bool) {
		if i >= len(parts) {
			return nil, false
		}
		line := strings.TrimSuffix(parts[i], "\r")
		i++
		return &String{Value: line}, true
	})
}

func builtinSplitRow(ctx *CallContext) Object {
	s, sep, errObj := splitArgs(ctx, "split row")
	if errObj != nil {
		return errObj
	}
	parts := strings.Split(s, sep)
	out := &List{Elements: make([]Object, len(parts))}
	for i, part := range parts {
		out.Elements[i] = &String{Value: part}
	}
	return out
}

// builtinSplitColumn splits text into a one-row table with generated
// column names Column1..ColumnN.
func builtinSplitColumn(ctx *CallContext) Object {
	s, sep, errObj := splitArgs(ctx, "split column")
	if errObj != nil {
		return errObj
	}
	parts := strings.Split(s, sep)
	row := &Record{}
	for i, part := range parts {
		row.Columns = append(row.Columns, fmt.Sprintf("Column%d", i+1))
		row.Values = append(row.Values, &String{Value: part})
	}
	return &Table{Columns: row.Columns, Rows: []*Record{row}}
}

func splitArgs(ctx *CallContext, name string) (string, string, Object) {
	s, ok := ctx.Input.(*String)
	if !ok {
		return "", "", newError(qerrors.TypeMismatch("string", typeName(ctx.Input)))
	}
	if len(ctx.Args) == 0 {
		return "", "", newError(qerrors.ArityMismatch(name, 1, 0))
	}
	sep, ok := ctx.Args[0].(*String)
	if !ok {
		return "", "", newError(qerrors.TypeMismatch("separator string", typeName(ctx.Args[0])))
	}
	return s.Value, sep.Value, nil
}

// builtinFromJSON decodes JSON text. The -o flag reads a sequence of
// whitespace-separated documents, objects-mode, into one table.
func builtinFromJSON(ctx *CallContext) Object {
	s, ok := ctx.Input.(*String)
	if !ok {
		return newError(qerrors.TypeMismatch("string", typeName(ctx.Input)))
	}

	dec := json.NewDecoder(strings.NewReader(s.Value))
	dec.UseNumber()

	if ctx.Flags["o"] {
		list := &List{}
		for {
			v, err := decodeJSONValue(dec)
			if err == io.EOF {
				break
			}
			if err != nil {
				return newError(jsonError(err))
			}
			list.Elements = append(list.Elements, v)
		}
		return listOrTable(list)
	}

	v, err := decodeJSONValue(dec)
	if err != nil {
		return newError(jsonError(err))
	}
	return v
}

func jsonError(err error) *qerrors.ShellError {
	return &qerrors.ShellError{
		Class:   qerrors.ClassParse,
		Code:    "PARSE-0020",
		Message: fmt.Sprintf("invalid json: %v", err),
	}
}

// decodeJSONValue walks decoder tokens by hand so object key order is
// preserved; the stock map decoding would lose it.
func decodeJSONValue(dec *json.Decoder) (Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONFrom(dec, tok)
}

func decodeJSONFrom(dec *json.Decoder, tok json.Token) (Object, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := &Record{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				rec.Columns = append(rec.Columns, key)
				rec.Values = append(rec.Values, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return rec, nil
		case '[':
			list := &List{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list.Elements = append(list.Elements, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return listOrTable(list), nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &String{Value: t}, nil
	case json.Number:
		if !strings.ContainsAny(string(t), ".eE") {
			n, err := t.Int64()
			if err == nil {
				return &Integer{Value: n}, nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return &Float{Value: f}, nil
	case bool:
		return nativeBool(t), nil
	case nil:
		return NOTHING, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// listOrTable upgrades a list of uniform records to a table.
func listOrTable(list *List) Object {
	if len(list.Elements) == 0 {
		return list
	}
	rows := make([]*Record, 0, len(list.Elements))
	for _, elem := range list.Elements {
		rec, ok := elem.(*Record)
		if !ok {
			return list
		}
		rows = append(rows, rec)
	}
	table, err := NewTable(rows)
	if err != nil {
		return list
	}
	return table
}

// builtinFromYAML decodes YAML text through the node API, which keeps
// mapping key order.
func builtinFromYAML(ctx *CallContext) Object {
	s, ok := ctx.Input.(*String)
	if !ok {
		return newError(qerrors.TypeMismatch("string", typeName(ctx.Input)))
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s.Value), &node); err != nil {
		return newError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0021",
			Message: fmt.Sprintf("invalid yaml: %v", err),
		})
	}
	v, err := yamlValue(&node)
	if err != nil {
		return newError(&qerrors.ShellError{
			Class:   qerrors.ClassParse,
			Code:    "PARSE-0021",
			Message: fmt.Sprintf("invalid yaml: %v", err),
		})
	}
	return v
}

func yamlValue(node *yaml.Node) (Object, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return NOTHING, nil
		}
		return yamlValue(node.Content[0])
	case yaml.MappingNode:
		rec := &Record{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			rec.Columns = append(rec.Columns, node.Content[i].Value)
			rec.Values = append(rec.Values, val)
		}
		return rec, nil
	case yaml.SequenceNode:
		list := &List{}
		for _, child := range node.Content {
			val, err := yamlValue(child)
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, val)
		}
		return listOrTable(list), nil
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!int":
			n, err := strconv.ParseInt(node.Value, 10, 64)
			if err != nil {
				return nil, err
			}
			return &Integer{Value: n}, nil
		case "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return nil, err
			}
			return &Float{Value: f}, nil
		case "!!bool":
			b, err := strconv.ParseBool(node.Value)
			if err != nil {
				return nil, err
			}
			return nativeBool(b), nil
		case "!!null":
			return NOTHING, nil
		}
		return &String{Value: node.Value}, nil
	}
	return NOTHING, nil
}

func builtinToJSON(ctx *CallContext) Object {
	var sb strings.Builder
	if err := writeJSON(&sb, ctx.Input); err != nil {
		return newError(qerrors.TypeMismatch("json-encodable value", typeName(ctx.Input)))
	}
	return &String{Value: sb.String()}
}

// writeJSON renders a value as JSON, preserving record column order.
func writeJSON(sb *strings.Builder, obj Object) error {
	switch v := obj.(type) {
	case *Integer:
		sb.WriteString(strconv.FormatInt(v.Value, 10))
	case *Float:
		sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *Boolean:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *Nothing:
		sb.WriteString("null")
	case *String:
		return writeJSONString(sb, v.Value)
	case *List:
		sb.WriteByte('[')
		for i, elem := range v.Elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeJSON(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *Table:
		sb.WriteByte('[')
		for i, row := range v.Rows {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeJSON(sb, row); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *Record:
		sb.WriteByte('{')
		for i, col := range v.Columns {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeJSONString(sb, col); err != nil {
				return err
			}
			sb.WriteByte(':')
			if err := writeJSON(sb, v.Values[i]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case *Range:
		return writeJSON(sb, &List{Elements: rangeValues(v)})
	case *Stream:
		return writeJSON(sb, v.Collect())
	default:
		return fmt.Errorf("cannot encode %s", typeName(obj))
	}
	return nil
}

func writeJSONString(sb *strings.Builder, s string) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return err
	}
	sb.Write(encoded)
	return nil
}

func builtinBuildString(ctx *CallContext) Object {
	var sb strings.Builder
	for _, arg := range ctx.Args {
		sb.WriteString(renderValue(arg))
	}
	return &String{Value: sb.String()}
}

func blockArg(ctx *CallContext, name string) (*Block, Object) {
	if len(ctx.Args) == 0 {
		return nil, newError(qerrors.ArityMismatch(name, 1, 0))
	}
	block, ok := ctx.Args[0].(*Block)
	if !ok {
		return nil, newError(qerrors.TypeMismatch("block", typeName(ctx.Args[0])))
	}
	return block, nil
}
