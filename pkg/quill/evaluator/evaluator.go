// Package evaluator walks the AST and produces values.
//
// Evaluation is frame-based: every block entry creates a child frame, so
// bindings never leak outward. Command and module names are registered
// in a predeclaration pass before any statement in the block runs, which
// lets commands call other commands defined later in the same block.
package evaluator

import (
	"sort"
	"strings"

	"github.com/quillsh/quill/pkg/quill/ast"
	qerrors "github.com/quillsh/quill/pkg/quill/errors"
)

// Eval evaluates a node in the given frame. The result of a program is
// the value of its last statement.
func Eval(node ast.Node, frame *Frame) Object {
	switch n := node.(type) {
	case *ast.Program:
		return evalProgram(n, frame)
	case ast.Statement:
		if err := predeclare([]ast.Statement{n}, frame); err != nil {
			return err
		}
		return evalStatement(n, frame)
	case ast.Expression:
		return evalExpression(n, frame)
	}
	return NOTHING
}

func evalProgram(program *ast.Program, frame *Frame) Object {
	if err := predeclare(program.Statements, frame); err != nil {
		return err
	}
	var result Object = NOTHING
	for _, stmt := range program.Statements {
		result = evalStatement(stmt, frame)
		if isError(result) {
			return result
		}
	}
	return result
}

// predeclare registers command and module names for a block before its
// statements run. A name already bound in the same frame is a duplicate,
// even when a hide marker covers it.
func predeclare(stmts []ast.Statement, frame *Frame) Object {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.DefStatement:
			if frame.HasLocalCommand(s.Name) {
				return newError(qerrors.DuplicateDefinition(s.Name))
			}
			frame.DeclareCommand(&CommandDef{
				Name:   s.Name,
				Params: s.Params,
				Body:   s.Body,
				Frame:  frame,
				Export: s.Export,
			})
		case *ast.ModuleStatement:
			if frame.HasLocalModule(s.Name) {
				return newError(qerrors.DuplicateDefinition(s.Name))
			}
			if err := declareModule(s, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// declareModule predeclares a module body in its own frame and records
// the export set in declaration order, without evaluating any body
// statements. Non-exported definitions stay resolvable from the
// exported ones through the module frame.
func declareModule(ms *ast.ModuleStatement, frame *Frame) Object {
	moduleFrame := NewChildFrame(frame)
	if err := predeclare(ms.Body.Statements, moduleFrame); err != nil {
		return err
	}

	m := &Module{Name: ms.Name, Frame: moduleFrame}
	for _, stmt := range ms.Body.Statements {
		if ds, ok := stmt.(*ast.DefStatement); ok && ds.Export {
			def, _, _ := moduleFrame.ResolveCommand(ds.Name)
			m.Exports = append(m.Exports, def)
		}
	}
	frame.DeclareModule(m)
	return nil
}

// evalModuleBody runs the non-declaration statements of a module body in
// the module's frame. Declarations were registered during
// predeclaration; everything else waits for the module statement's turn
// in program order.
func evalModuleBody(ms *ast.ModuleStatement, frame *Frame) Object {
	m, ok := frame.GetModule(ms.Name)
	if !ok {
		return NOTHING
	}
	for _, stmt := range ms.Body.Statements {
		switch s := stmt.(type) {
		case *ast.DefStatement:
		case *ast.ModuleStatement:
			if result := evalModuleBody(s, m.Frame); isError(result) {
				return result
			}
		default:
			if result := evalStatement(stmt, m.Frame); isError(result) {
				return result
			}
		}
	}
	return NOTHING
}

func evalStatement(stmt ast.Statement, frame *Frame) Object {
	switch s := stmt.(type) {
	case *ast.Pipeline:
		return evalPipeline(s, frame)
	case *ast.LetStatement:
		return evalLet(s, frame)
	case *ast.DefStatement:
		// Registered during predeclaration.
		return NOTHING
	case *ast.ModuleStatement:
		return evalModuleBody(s, frame)
	case *ast.AliasStatement:
		frame.DeclareAlias(&AliasDef{Name: s.Name, Target: s.Target, BoundArgs: s.BoundArgs})
		return NOTHING
	case *ast.UseStatement:
		return evalUse(s, frame)
	case *ast.HideStatement:
		return evalHide(s, frame)
	case *ast.IfStatement:
		return evalIf(s, frame)
	case *ast.ForStatement:
		return evalFor(s, frame)
	case *ast.EnvStatement:
		return evalEnv(s, frame)
	case *ast.BlockStatement:
		return evalBlockIn(s, NewChildFrame(frame))
	}
	return NOTHING
}

// evalLet binds a variable. Streams are drained before binding so the
// variable holds a value that survives repeated use.
func evalLet(ls *ast.LetStatement, frame *Frame) Object {
	value := evalStatement(ls.Value, frame)
	if isError(value) {
		return value
	}
	if s, ok := value.(*Stream); ok {
		value = s.Collect()
	}
	frame.SetVar(ls.Name, value)
	return NOTHING
}

func evalPipeline(pl *ast.Pipeline, frame *Frame) Object {
	var input Object = NOTHING
	var result Object = NOTHING
	for _, stage := range pl.Stages {
		if call, ok := stage.(*ast.CommandCall); ok {
			result = evalCommandCall(call, frame, input)
		} else {
			result = evalExpression(stage, frame)
		}
		if isError(result) {
			return result
		}
		input = result
	}
	return result
}

// evalCommandCall resolves the longest known prefix of the call's name
// words; leftover words become string arguments.
func evalCommandCall(call *ast.CommandCall, frame *Frame, input Object) Object {
	var def *CommandDef
	var alias *AliasDef
	var leftover []string
	for n := len(call.NameParts); n >= 1; n-- {
		name := strings.Join(call.NameParts[:n], " ")
		if d, a, ok := frame.ResolveCommand(name); ok {
			def, alias = d, a
			leftover = call.NameParts[n:]
			break
		}
	}
	if def == nil && alias == nil {
		return newError(qerrors.CommandNotFound(strings.Join(call.NameParts, " ")))
	}

	if alias != nil {
		// Re-resolve the alias target in the caller's scope, with the
		// bound arguments ahead of the call's own.
		expanded := &ast.CommandCall{Token: call.Token, NameParts: alias.Target}
		expanded.Args = append(expanded.Args, alias.BoundArgs...)
		for _, word := range leftover {
			expanded.Args = append(expanded.Args, &ast.StringLiteral{Token: call.Token, Value: word})
		}
		expanded.Args = append(expanded.Args, call.Args...)
		return evalCommandCall(expanded, frame, input)
	}

	args, flags, errObj := evalCallArgs(call.Args, frame)
	if errObj != nil {
		return errObj
	}
	if len(leftover) > 0 {
		words := make([]Object, len(leftover))
		for i, word := range leftover {
			words[i] = &String{Value: word}
		}
		args = append(words, args...)
	}

	if def.Builtin != nil {
		return def.Builtin(&CallContext{Input: input, Args: args, Flags: flags, Frame: frame})
	}
	return invokeCommand(def, args, input)
}

func evalCallArgs(exprs []ast.Expression, frame *Frame) ([]Object, map[string]bool, Object) {
	var args []Object
	flags := make(map[string]bool)
	for _, expr := range exprs {
		switch a := expr.(type) {
		case *ast.Flag:
			flags[a.Name] = true
		case *ast.BlockLiteral:
			args = append(args, &Block{Param: a.Param, Body: a.Body, Frame: frame})
		case *ast.RowCondition:
			body := &ast.BlockStatement{Statements: []ast.Statement{
				&ast.Pipeline{Token: a.Token, Stages: []ast.Expression{a.Expr}},
			}}
			args = append(args, &Block{Body: body, Frame: frame})
		case *ast.CellPathLiteral:
			cp := evalCellPathLiteral(a, frame)
			if isError(cp) {
				return nil, nil, cp
			}
			args = append(args, cp)
		default:
			v := evalExpression(expr, frame)
			if isError(v) {
				return nil, nil, v
			}
			args = append(args, v)
		}
	}
	return args, flags, nil
}

// invokeCommand runs a user definition in a fresh frame parented to the
// defining frame, never to the caller's.
func invokeCommand(def *CommandDef, args []Object, input Object) Object {
	callFrame := NewChildFrame(def.Frame)

	required := 0
	for _, p := range def.Params {
		if !p.Rest {
			required++
		}
	}

	pos := 0
	for _, param := range def.Params {
		if param.Rest {
			rest := &List{Elements: append([]Object{}, args[pos:]...)}
			callFrame.SetVar(param.Name, rest)
			pos = len(args)
			continue
		}
		if pos >= len(args) {
			return newError(qerrors.ArityMismatch(def.Name, required, len(args)))
		}
		callFrame.SetVar(param.Name, args[pos])
		pos++
	}
	if pos < len(args) {
		return newError(qerrors.ArityMismatch(def.Name, required, len(args)))
	}
	callFrame.SetVar("in", input)

	return evalBlockIn(def.Body, callFrame)
}

// evalBlock runs a closure with one argument bound to its parameter, or
// to $it when no parameter was declared.
func evalBlock(block *Block, arg Object) Object {
	frame := NewChildFrame(block.Frame)
	name := block.Param
	if name == "" {
		name = "it"
	}
	frame.SetVar(name, arg)
	return evalBlockIn(block.Body, frame)
}

// evalBlockIn evaluates a block body in an already-prepared frame.
func evalBlockIn(body *ast.BlockStatement, frame *Frame) Object {
	if err := predeclare(body.Statements, frame); err != nil {
		return err
	}
	var result Object = NOTHING
	for _, stmt := range body.Statements {
		result = evalStatement(stmt, frame)
		if isError(result) {
			return result
		}
	}
	return result
}

func evalUse(us *ast.UseStatement, frame *Frame) Object {
	m, ok := frame.GetModule(us.Module)
	if !ok {
		return newError(qerrors.ImportNotFound(us.Module))
	}

	bind := func(def *CommandDef, name string) {
		bound := *def
		bound.Name = name
		frame.DeclareCommand(&bound)
		frame.Unhide(name)
	}

	switch us.Selector {
	case ast.ImportModule:
		for _, e := range m.Exports {
			bind(e, m.Name+"."+e.Name)
		}
	case ast.ImportSingle:
		e, ok := m.Export(us.Names[0])
		if !ok {
			return newError(qerrors.ImportNotFound(us.Module + "." + us.Names[0]))
		}
		bind(e, e.Name)
	case ast.ImportAll:
		for _, e := range m.Exports {
			bind(e, e.Name)
		}
	case ast.ImportNames:
		for _, name := range us.Names {
			e, ok := m.Export(name)
			if !ok {
				return newError(qerrors.ImportNotFound(us.Module + "." + name))
			}
			bind(e, e.Name)
		}
	}
	return NOTHING
}

func evalHide(hs *ast.HideStatement, frame *Frame) Object {
	// Plain 'hide name': the name must resolve right now.
	if hs.Module == "" {
		name := hs.Names[0]
		if _, _, ok := frame.ResolveCommand(name); !ok {
			return newError(qerrors.UnknownCommand(name))
		}
		frame.Hide(name)
		return NOTHING
	}

	switch hs.Selector {
	case ast.ImportSingle:
		qualified := hs.Module + "." + hs.Names[0]
		if _, _, ok := frame.ResolveCommand(qualified); ok {
			frame.Hide(qualified)
			return NOTHING
		}
		m, ok := frame.GetModule(hs.Module)
		if !ok {
			return newError(qerrors.ImportNotFound(qualified))
		}
		if _, ok := m.Export(hs.Names[0]); !ok {
			return newError(qerrors.ImportNotFound(qualified))
		}
		if _, _, ok := frame.ResolveCommand(hs.Names[0]); ok {
			frame.Hide(hs.Names[0])
			return NOTHING
		}
		return newError(qerrors.UnknownCommand(qualified))
	default:
		m, ok := frame.GetModule(hs.Module)
		if !ok {
			return newError(qerrors.ImportNotFound(hs.Module))
		}
		names := hs.Names
		if hs.Selector == ast.ImportAll {
			names = nil
			for _, e := range m.Exports {
				names = append(names, e.Name)
			}
		}
		for _, name := range names {
			if _, ok := m.Export(name); !ok {
				return newError(qerrors.ImportNotFound(hs.Module + "." + name))
			}
			qualified := hs.Module + "." + name
			hid := false
			if _, _, ok := frame.ResolveCommand(qualified); ok {
				frame.Hide(qualified)
				hid = true
			}
			if _, _, ok := frame.ResolveCommand(name); ok {
				frame.Hide(name)
				hid = true
			}
			if !hid {
				return newError(qerrors.UnknownCommand(qualified))
			}
		}
	}
	return NOTHING
}

func evalIf(is *ast.IfStatement, frame *Frame) Object {
	cond := evalExpression(is.Condition, frame)
	if isError(cond) {
		return cond
	}
	b, ok := cond.(*Boolean)
	if !ok {
		return newError(qerrors.TypeMismatch("boolean condition", typeName(cond)))
	}

	if b.Value {
		return evalBlockIn(is.Consequence, NewChildFrame(frame))
	}
	switch alt := is.Alternative.(type) {
	case *ast.IfStatement:
		return evalIf(alt, frame)
	case *ast.BlockStatement:
		return evalBlockIn(alt, NewChildFrame(frame))
	}
	return NOTHING
}

// evalFor collects the per-iteration results into a list. A scalar
// iterable runs the body once and yields the bare result, the same
// contract as each.
func evalFor(fs *ast.ForStatement, frame *Frame) Object {
	iterable := evalExpression(fs.Iterable, frame)
	if isError(iterable) {
		return iterable
	}
	switch iterable.(type) {
	case *List, *Table, *Range, *Stream:
	default:
		child := NewChildFrame(frame)
		child.SetVar(fs.Name, iterable)
		return evalBlockIn(fs.Body, child)
	}
	items, errObj := iterationValues(iterable)
	if errObj != nil {
		return errObj
	}

	out := &List{}
	for _, item := range items {
		child := NewChildFrame(frame)
		child.SetVar(fs.Name, item)
		result := evalBlockIn(fs.Body, child)
		if isError(result) {
			return result
		}
		out.Elements = append(out.Elements, result)
	}
	return out
}

// evalEnv binds an environment string for the duration of one statement.
func evalEnv(es *ast.EnvStatement, frame *Frame) Object {
	value := evalExpression(es.Value, frame)
	if isError(value) {
		return value
	}
	child := NewChildFrame(frame)
	child.SetEnv(es.Name, renderValue(value))
	return Eval(es.Stmt, child)
}

func evalExpression(expr ast.Expression, frame *Frame) Object {
	switch e := expr.(type) {
	case *ast.Identifier:
		return &String{Value: e.Value}
	case *ast.IntegerLiteral:
		return &Integer{Value: e.Value}
	case *ast.FloatLiteral:
		return &Float{Value: e.Value}
	case *ast.StringLiteral:
		return &String{Value: e.Value}
	case *ast.BooleanLiteral:
		return nativeBool(e.Value)
	case *ast.Variable:
		return evalVariable(e, frame)
	case *ast.ListLiteral:
		return evalListLiteral(e, frame)
	case *ast.TableLiteral:
		return evalTableLiteral(e, frame)
	case *ast.RangeLiteral:
		return evalRangeLiteral(e, frame)
	case *ast.BlockLiteral:
		return &Block{Param: e.Param, Body: e.Body, Frame: frame}
	case *ast.Subexpression:
		return Eval(e.Stmt, frame)
	case *ast.PrefixExpression:
		return evalPrefixExpression(e, frame)
	case *ast.InfixExpression:
		return evalInfixExpression(e, frame)
	case *ast.FullCellPath:
		return evalFullCellPath(e, frame)
	case *ast.CellPathLiteral:
		return evalCellPathLiteral(e, frame)
	case *ast.StringInterpolation:
		return evalInterpolation(e, frame)
	case *ast.RowCondition:
		return evalExpression(e.Expr, frame)
	case *ast.CommandCall:
		return evalCommandCall(e, frame, NOTHING)
	case *ast.Flag:
		return newError(qerrors.TypeMismatch("argument", "flag"))
	}
	return NOTHING
}

func evalVariable(v *ast.Variable, frame *Frame) Object {
	if val, ok := frame.GetVar(v.Name); ok {
		return val
	}
	if v.Name == "nu" {
		return nuRecord(frame)
	}
	return newError(qerrors.VariableNotFound("$" + v.Name))
}

// nuRecord builds the $nu record exposing the environment strings in
// scope, innermost binding winning.
func nuRecord(frame *Frame) Object {
	seen := make(map[string]string)
	var names []string
	for fr := frame; fr != nil; fr = fr.parent {
		for name, val := range fr.envs {
			if _, ok := seen[name]; !ok {
				seen[name] = val
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	env := &Record{}
	for _, name := range names {
		env.Columns = append(env.Columns, name)
		env.Values = append(env.Values, &String{Value: seen[name]})
	}
	return &Record{Columns: []string{"env"}, Values: []Object{env}}
}

func evalListLiteral(ll *ast.ListLiteral, frame *Frame) Object {
	list := &List{Elements: make([]Object, 0, len(ll.Elements))}
	for _, elem := range ll.Elements {
		v := evalExpression(elem, frame)
		if isError(v) {
			return v
		}
		list.Elements = append(list.Elements, v)
	}
	return list
}

func evalTableLiteral(tl *ast.TableLiteral, frame *Frame) Object {
	columns := make([]string, len(tl.Columns))
	for i, col := range tl.Columns {
		v := evalExpression(col, frame)
		if isError(v) {
			return v
		}
		columns[i] = renderValue(v)
	}

	rows := make([]*Record, 0, len(tl.Rows))
	for _, rowExprs := range tl.Rows {
		if len(rowExprs) != len(columns) {
			return newError(qerrors.TypeMismatch("row matching the header", "row with different length"))
		}
		row := &Record{Columns: columns, Values: make([]Object, len(rowExprs))}
		for i, cell := range rowExprs {
			v := evalExpression(cell, frame)
			if isError(v) {
				return v
			}
			row.Values[i] = v
		}
		rows = append(rows, row)
	}

	table, err := NewTable(rows)
	if err != nil {
		return newError(err)
	}
	return table
}

func evalRangeLiteral(rl *ast.RangeLiteral, frame *Frame) Object {
	start := evalExpression(rl.Start, frame)
	if isError(start) {
		return start
	}
	end := evalExpression(rl.End, frame)
	if isError(end) {
		return end
	}
	if !isNumeric(start) || !isNumeric(end) {
		return newError(qerrors.TypeMismatch("numeric range bounds", typeName(start)+".."+typeName(end)))
	}
	return &Range{Start: start, End: end, Inclusive: rl.Inclusive}
}

func evalFullCellPath(cp *ast.FullCellPath, frame *Frame) Object {
	head := evalExpression(cp.Head, frame)
	if isError(head) {
		return head
	}
	segments, errObj := resolvePathMembers(cp.Path, frame)
	if errObj != nil {
		return errObj
	}
	return followCellPath(head, segments)
}

func evalCellPathLiteral(cp *ast.CellPathLiteral, frame *Frame) Object {
	segments, errObj := resolvePathMembers(cp.Members, frame)
	if errObj != nil {
		return errObj
	}
	return &CellPath{Segments: segments}
}

// resolvePathMembers evaluates any runtime members ('get $x') down to
// concrete name or index segments.
func resolvePathMembers(members []ast.PathMember, frame *Frame) ([]PathSegment, Object) {
	segments := make([]PathSegment, 0, len(members))
	for _, m := range members {
		if m.Expr == nil {
			segments = append(segments, PathSegment{Name: m.Name, Index: m.Index, IsInt: m.IsInt})
			continue
		}
		v := evalExpression(m.Expr, frame)
		if isError(v) {
			return nil, v
		}
		switch val := v.(type) {
		case *String:
			segments = append(segments, PathSegment{Name: val.Value})
		case *Integer:
			segments = append(segments, PathSegment{Index: int(val.Value), IsInt: true})
		case *CellPath:
			segments = append(segments, val.Segments...)
		default:
			return nil, newError(qerrors.TypeMismatch("cell path member", typeName(v)))
		}
	}
	return segments, nil
}

func evalInterpolation(si *ast.StringInterpolation, frame *Frame) Object {
	var sb strings.Builder
	for _, part := range si.Parts {
		v := evalExpression(part, frame)
		if isError(v) {
			return v
		}
		sb.WriteString(renderValue(v))
	}
	return &String{Value: sb.String()}
}

// renderValue converts a value to its canonical text, draining streams
// first.
func renderValue(obj Object) string {
	if s, ok := obj.(*Stream); ok {
		obj = s.Collect()
	}
	return obj.Inspect()
}

// iterationValues flattens an iterable into a slice of items. Streams
// are drained; use streams directly where laziness matters.
func iterationValues(obj Object) ([]Object, Object) {
	switch v := obj.(type) {
	case *List:
		return v.Elements, nil
	case *Table:
		items := make([]Object, len(v.Rows))
		for i, row := range v.Rows {
			items[i] = row
		}
		return items, nil
	case *Range:
		return rangeValues(v), nil
	case *Stream:
		return v.Collect().Elements, nil
	default:
		return nil, newError(qerrors.TypeMismatch("iterable", typeName(obj)))
	}
}

// rangeValues expands a range by steps of one from start toward end. The
// written end bound is left out of the exclusive form.
func rangeValues(r *Range) []Object {
	startInt, startIsInt := r.Start.(*Integer)
	endInt, endIsInt := r.End.(*Integer)

	if startIsInt && endIsInt {
		var out []Object
		if startInt.Value <= endInt.Value {
			last := endInt.Value
			if !r.Inclusive {
				last--
			}
			for i := startInt.Value; i <= last; i++ {
				out = append(out, &Integer{Value: i})
			}
		} else {
			last := endInt.Value
			if !r.Inclusive {
				last++
			}
			for i := startInt.Value; i >= last; i-- {
				out = append(out, &Integer{Value: i})
			}
		}
		return out
	}

	start, end := numericValue(r.Start), numericValue(r.End)
	var out []Object
	if start <= end {
		for v := start; v <= end; v++ {
			if !r.Inclusive && v == end {
				break
			}
			out = append(out, &Float{Value: v})
		}
	} else {
		for v := start; v >= end; v-- {
			if !r.Inclusive && v == end {
				break
			}
			out = append(out, &Float{Value: v})
		}
	}
	return out
}
